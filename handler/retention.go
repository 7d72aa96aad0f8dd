package handler

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"recipe-pipeline-service/model"
	"recipe-pipeline-service/retention"

	"github.com/gin-gonic/gin"
)

var cohortDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type RetentionHandler struct {
	store      retention.Store
	adminToken string
}

func NewRetentionHandler(store retention.Store, adminToken string) *RetentionHandler {
	return &RetentionHandler{store: store, adminToken: adminToken}
}

// GetMetrics returns the stored metrics document for one cohort date.
func (h *RetentionHandler) GetMetrics(c *gin.Context) {
	cohortDate := c.Query("cohortDate")
	if cohortDate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cohortDate parameter required"})
		return
	}

	m, err := h.store.MetricsByCohort(c.Request.Context(), cohortDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Metrics not found for this cohort"})
		return
	}

	c.JSON(http.StatusOK, m)
}

// GetTrend returns the trailing-N-day retention trend with an average rate.
func (h *RetentionHandler) GetTrend(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
		return
	}

	startDate := time.Now().AddDate(0, 0, -days).Format(retention.DateFormat)

	results, err := h.store.Trend(c.Request.Context(), startDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	trend := make([]model.TrendPoint, 0, len(results))
	for _, m := range results {
		trend = append(trend, model.TrendPoint{
			CohortDate: m.CohortDate,
			D7Rate:     m.D7RepeatRecipeRate,
			CohortSize: m.CohortSize,
			Category:   m.RetentionCategory,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"period":          strconv.Itoa(days) + " days",
		"data":            trend,
		"average_d7_rate": retention.AverageRate(trend),
	})
}

// Recalculate validates a manual recompute request. The calculation
// itself is not wired up yet; the endpoint acknowledges the request only.
// TODO: route the validated cohort date through the retention worker once
// product decides whether manual runs should overwrite stored metrics.
func (h *RetentionHandler) Recalculate(c *gin.Context) {
	if h.adminToken == "" || c.GetHeader("X-Admin-Token") != h.adminToken {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only admins can trigger manual retention calculations"})
		return
	}

	var req struct {
		CohortDate string `json:"cohortDate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || !cohortDatePattern.MatchString(req.CohortDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid cohortDate required (YYYY-MM-DD format)"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "cohortDate": req.CohortDate})
}
