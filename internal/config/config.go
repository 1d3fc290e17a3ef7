package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the process reads from the environment.
type Config struct {
	DatabaseURL string
	JWTSecret   string
	Port        string
	TokenTTL    time.Duration

	CORSOrigin string
	LogLevel   string
	LogDev     bool

	// Blob storage. BlobDriver is "disk" or "s3".
	BlobDriver string
	UploadDir  string

	S3Endpoint string
	S3Region   string
	S3Bucket   string
	S3Key      string
	S3Secret   string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		Port:        getEnv("PORT", "3900"),
		TokenTTL:    24 * time.Hour,
		CORSOrigin:  getEnv("CORS_ORIGIN", "*"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogDev:      os.Getenv("LOG_DEV") == "1",
		BlobDriver:  getEnv("BLOB_DRIVER", "disk"),
		UploadDir:   getEnv("UPLOAD_DIR", "./uploads"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Key:       os.Getenv("S3_ACCESS_KEY"),
		S3Secret:    os.Getenv("S3_SECRET_KEY"),
	}

	if v := os.Getenv("TOKEN_TTL_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours <= 0 {
			return nil, fmt.Errorf("invalid TOKEN_TTL_HOURS %q", v)
		}
		cfg.TokenTTL = time.Duration(hours) * time.Hour
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	if cfg.BlobDriver == "s3" && cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required when BLOB_DRIVER=s3")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
