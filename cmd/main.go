package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"recipe-pipeline-service/api"
	"recipe-pipeline-service/config"
	"recipe-pipeline-service/fetcher"
	"recipe-pipeline-service/handler"
	"recipe-pipeline-service/metrics"
	"recipe-pipeline-service/normalizer"
	"recipe-pipeline-service/pipeline"
	"recipe-pipeline-service/retention"
	"recipe-pipeline-service/uploader"
	"recipe-pipeline-service/worker"

	"github.com/nats-io/nats.go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	log.Println("Starting Recipe Pipeline Service...")

	cfg := config.Load()
	metrics.Init("recipe-pipeline-service", "1.0.0", os.Getenv("ENVIRONMENT"))

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(context.Background())

	if err := mongoClient.Ping(context.Background(), nil); err != nil {
		log.Fatal("MongoDB ping error:", err)
	}

	db := mongoClient.Database("globalflavors")
	log.Println("Connected to MongoDB")

	nc, err := nats.Connect(cfg.NATSUrl)
	if err != nil {
		log.Fatal("Failed to connect to NATS:", err)
	}
	defer nc.Close()
	log.Println("Connected to NATS")

	// Single store instances shared across components for the process
	// lifetime; nothing reconstructs them per call.
	recipeStore := uploader.NewMongoStore(db)
	retentionStore := retention.NewMongoStore(db)

	p := pipeline.NewPipeline(
		cfg.Regions,
		fetcher.NewFetcher(cfg),
		normalizer.NewNormalizer(cfg),
		uploader.NewUploader(recipeStore),
	)
	calc := retention.NewCalculator(retentionStore)

	w, err := worker.NewWorker(cfg, nc, p, calc)
	if err != nil {
		log.Fatal("Failed to create worker:", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received shutdown signal, stopping...")
		cancel()
	}()

	router := api.NewRouter(
		handler.NewPipelineHandler(p),
		handler.NewRetentionHandler(retentionStore, cfg.AdminToken),
	)
	go api.StartServer(router, cfg.Port)

	log.Println("Recipe pipeline service is running...")
	if err := w.Start(ctx); err != nil && err != context.Canceled {
		log.Fatal("Worker failed:", err)
	}

	log.Println("Recipe pipeline service stopped")
}
