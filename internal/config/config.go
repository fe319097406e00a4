// Package config loads application configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration.
type Config struct {
	Port      string
	JWTSecret string
	DB        DBConfig
	Upload    UploadConfig
	R2        R2Config
}

// DBConfig configures the PostgreSQL pool.
type DBConfig struct {
	URL      string
	MaxConns int32
}

// UploadConfig selects and configures the file-storage backend.
type UploadConfig struct {
	Driver  string // "local" | "r2"
	Dir     string // local driver: directory for stored files
	BaseURL string // local driver: public base URL for serving them
}

// R2Config configures Cloudflare R2 (S3-compatible) object storage.
type R2Config struct {
	AccountID string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
}

// Load reads configuration from the environment. A .env file is honored
// when present; a missing one is not an error (production sets real env).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getenv("PORT", "8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		DB: DBConfig{
			URL:      os.Getenv("DATABASE_URL"),
			MaxConns: int32(getenvInt("DB_MAX_CONNS", 10)),
		},
		Upload: UploadConfig{
			Driver:  getenv("STORAGE_DRIVER", "local"),
			Dir:     getenv("UPLOAD_DIR", "uploads"),
			BaseURL: getenv("UPLOAD_BASE_URL", "/api/files"),
		},
		R2: R2Config{
			AccountID: os.Getenv("R2_ACCOUNT_ID"),
			AccessKey: os.Getenv("R2_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
			Bucket:    os.Getenv("R2_BUCKET"),
			PublicURL: os.Getenv("R2_PUBLIC_URL"),
		},
	}

	if cfg.DB.URL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.Upload.Driver == "r2" && cfg.R2.AccountID == "" {
		return nil, errors.New("STORAGE_DRIVER=r2 requires R2_ACCOUNT_ID and credentials")
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
