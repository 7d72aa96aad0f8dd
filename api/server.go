package api

import (
	"log"

	"recipe-pipeline-service/handler"
	"recipe-pipeline-service/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the HTTP surface: manual pipeline trigger,
// retention queries, health and Prometheus metrics.
func NewRouter(pipelineHandler *handler.PipelineHandler, retentionHandler *handler.RetentionHandler) *gin.Engine {
	r := gin.Default()
	r.HandleMethodNotAllowed = true

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Admin-Token"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	r.Use(cors.New(config))

	r.Use(middleware.PrometheusMiddleware("recipe-pipeline-service"))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "recipe-pipeline-service",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		api.POST("/pipeline/run", pipelineHandler.RunNow)
		api.GET("/retention/metrics", retentionHandler.GetMetrics)
		api.GET("/retention/trend", retentionHandler.GetTrend)
		api.POST("/retention/recalculate", retentionHandler.Recalculate)
	}

	return r
}

// StartServer runs the router on the given port, blocking until exit.
func StartServer(r *gin.Engine, port string) {
	log.Printf("Recipe pipeline service starting on port %s...", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
