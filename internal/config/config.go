package config

import (
	"os"
	"time"
)

// DefaultDetectorURL is the hosted deepfake image detection model.
const DefaultDetectorURL = "https://ai.api.nvidia.com/v1/cv/hive/deepfake-image-detection"

// Client configures the analyze command.
type Client struct {
	// Endpoint is the API base URL. It is neither validated nor defaulted.
	Endpoint string
	LogLevel string
}

// Server configures the upload API.
type Server struct {
	ListenAddr      string
	DatabaseDriver  string
	DatabaseDSN     string
	RedisAddr       string
	CacheTTL        time.Duration
	StorageDir      string
	DetectorURL     string
	DetectorAPIKey  string
	DetectorTimeout time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string
}

// LoadClient reads the analyze command settings from the environment.
func LoadClient() Client {
	return Client{
		Endpoint: os.Getenv("DEEPFAKE_API_ENDPOINT"),
		LogLevel: getEnv("LOG_LEVEL", "warn"),
	}
}

// LoadServer reads the upload API settings from the environment.
func LoadServer() Server {
	return Server{
		ListenAddr:      getEnv("LISTEN_ADDR", ":8080"),
		DatabaseDriver:  getEnv("DATABASE_DRIVER", "postgres"),
		DatabaseDSN:     getEnv("DATABASE_DSN", "host=postgres user=postgres password=postgres dbname=deepfake port=5432 sslmode=disable"),
		RedisAddr:       getEnv("REDIS_ADDR", "redis:6379"),
		CacheTTL:        getDuration("CACHE_TTL", 5*time.Minute),
		StorageDir:      getEnv("STORAGE_DIR", "./data"),
		DetectorURL:     getEnv("DETECTOR_URL", DefaultDetectorURL),
		DetectorAPIKey:  os.Getenv("DETECTOR_API_KEY"),
		DetectorTimeout: getDuration("DETECTOR_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
