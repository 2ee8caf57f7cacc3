package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Object storage
	GCSBucket           string
	PublicAssets        bool
	SignedURLTTL        time.Duration
	AltSigningCredsFile string

	// Drive access
	DriveCredsFile     string
	DriveSessionCookie string

	// Acquisition
	DownloadRetries int
	ChunkSizeBytes  int64
	WorkerCount     int

	// Ingestion
	MaxUploadBytes int64
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Env:         getEnvOrDefault("ENV", "development"),
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		RedisURL:    mustGetEnv("REDIS_URL"),

		GCSBucket:           mustGetEnv("GCS_BUCKET"),
		PublicAssets:        getEnvAsBoolOrDefault("PUBLIC_ASSETS", false),
		SignedURLTTL:        getEnvAsDurationOrDefault("SIGNED_URL_TTL", 7*24*time.Hour),
		AltSigningCredsFile: getEnvOrDefault("ALT_SIGNING_CREDENTIALS_FILE", ""),

		DriveCredsFile:     mustGetEnv("DRIVE_CREDENTIALS_FILE"),
		DriveSessionCookie: getEnvOrDefault("DRIVE_SESSION_COOKIE", ""),

		DownloadRetries: getEnvAsIntOrDefault("DOWNLOAD_RETRIES", 3),
		ChunkSizeBytes:  int64(getEnvAsIntOrDefault("DOWNLOAD_CHUNK_SIZE", 8<<20)),
		WorkerCount:     getEnvAsIntOrDefault("WORKER_COUNT", 5),

		MaxUploadBytes: int64(getEnvAsIntOrDefault("MAX_UPLOAD_BYTES", 50<<20)),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
