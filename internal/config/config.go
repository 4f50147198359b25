package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DB     DBConfig
	MinIO  MinIOConfig
	JWT    JWTConfig
	Server ServerConfig
	Upload UploadConfig
	Admin  AdminConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type MinIOConfig struct {
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
	OpTimeout      time.Duration
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

type ServerConfig struct {
	Port        string
	BaseDomain  string
	FrontendURL string
}

type UploadConfig struct {
	MaxImageBytes int64
	MaxVideoBytes int64
}

// AdminConfig seeds the first admin account on an empty database.
type AdminConfig struct {
	Name      string
	Email     string
	Password  string
	Subdomain string
}

func Load() *Config {
	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "porty"),
			Password: getEnv("DB_PASSWORD", "porty_secret"),
			Name:     getEnv("DB_NAME", "porty"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		MinIO: MinIOConfig{
			Endpoint:       getEnv("MINIO_ENDPOINT", "localhost:9000"),
			PublicEndpoint: getEnv("MINIO_PUBLIC_ENDPOINT", getEnv("MINIO_ENDPOINT", "localhost:9000")),
			AccessKey:      getEnv("MINIO_ACCESS_KEY", "porty"),
			SecretKey:      getEnv("MINIO_SECRET_KEY", "porty_secret"),
			Bucket:         getEnv("MINIO_BUCKET", "porty-media"),
			UseSSL:         getEnvAsBool("MINIO_USE_SSL", false),
			OpTimeout:      getEnvAsDuration("MINIO_OP_TIMEOUT", 15*time.Second),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "change-me-in-production"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 168),
		},
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			BaseDomain:  getEnv("BASE_DOMAIN", "mysite.com"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		Upload: UploadConfig{
			MaxImageBytes: getEnvAsInt64("UPLOAD_MAX_IMAGE_BYTES", 10*1024*1024),
			MaxVideoBytes: getEnvAsInt64("UPLOAD_MAX_VIDEO_BYTES", 50*1024*1024),
		},
		Admin: AdminConfig{
			Name:      getEnv("ADMIN_NAME", "Platform Admin"),
			Email:     getEnv("ADMIN_EMAIL", "admin@porty.local"),
			Password:  getEnv("ADMIN_PASSWORD", "admin12345"),
			Subdomain: getEnv("ADMIN_SUBDOMAIN", "porty-admin"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
