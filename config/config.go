package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI           string
	NATSUrl            string
	Port               string
	OpenAIAPIKey       string
	SpoonacularAPIKey  string
	MealDBBaseURL      string
	SpoonacularBaseURL string
	Regions            []string
	RecipesPerRegion   int
	MaxRetries         int
	RetryDelay         time.Duration
	FetchRateLimit     time.Duration
	NormalizeDelay     time.Duration
	PipelineInterval   time.Duration
	RetentionInterval  time.Duration
	AdminToken         string
}

func Load() *Config {
	// Optional .env for local development; env vars win in deployment.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env file")
	}

	cfg := &Config{
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		NATSUrl:            getEnv("NATS_URL", "nats://localhost:4222"),
		Port:               getEnv("PORT", "8080"),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		SpoonacularAPIKey:  getEnv("SPOONACULAR_API_KEY", ""),
		MealDBBaseURL:      getEnv("MEALDB_BASE_URL", "https://www.themealdb.com/api/json/v1/1"),
		SpoonacularBaseURL: getEnv("SPOONACULAR_BASE_URL", "https://api.spoonacular.com"),
		Regions:            getListEnv("REGIONS", []string{"Canadian", "Italian", "Indian", "Swedish", "Japanese"}),
		RecipesPerRegion:   getIntEnv("RECIPES_PER_REGION", 5),
		MaxRetries:         getIntEnv("MAX_RETRIES", 3),
		RetryDelay:         getDurationEnv("RETRY_DELAY", "1s"),
		FetchRateLimit:     getDurationEnv("FETCH_RATE_LIMIT", "300ms"),
		NormalizeDelay:     getDurationEnv("NORMALIZE_DELAY", "250ms"),
		PipelineInterval:   getDurationEnv("PIPELINE_INTERVAL", "24h"),
		RetentionInterval:  getDurationEnv("RETENTION_INTERVAL", "24h"),
		AdminToken:         getEnv("ADMIN_TOKEN", ""),
	}

	if cfg.OpenAIAPIKey == "" {
		log.Fatal("OPENAI_API_KEY is required")
	}
	if cfg.SpoonacularAPIKey == "" {
		log.Fatal("SPOONACULAR_API_KEY is required")
	}

	log.Printf("Config loaded - Regions: %v, PipelineInterval: %v, MaxRetries: %d",
		cfg.Regions, cfg.PipelineInterval, cfg.MaxRetries)

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
