package storage

import (
	"os"
	"time"
)

// MinIOConfig holds MinIO connection configuration
type MinIOConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	UseSSL     bool
	Bucket     string
	PresignTTL time.Duration
}

// LoadMinIOConfig loads MinIO config from environment. An empty endpoint
// means media is kept in memory.
func LoadMinIOConfig() *MinIOConfig {
	useSSL := false
	if os.Getenv("MINIO_USE_SSL") == "true" {
		useSSL = true
	}
	ttl, err := time.ParseDuration(getEnv("MINIO_PRESIGN_TTL", "15m"))
	if err != nil || ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &MinIOConfig{
		Endpoint:   os.Getenv("MINIO_ENDPOINT"),
		AccessKey:  os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey:  os.Getenv("MINIO_SECRET_KEY"),
		UseSSL:     useSSL,
		Bucket:     getEnv("MINIO_BUCKET", "pinpoint-media"),
		PresignTTL: ttl,
	}
}

func getEnv(k, d string) string {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	return v
}
