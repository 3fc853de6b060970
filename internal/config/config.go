package config

import "os"

type Config struct {
	DatabaseURL       string
	JWTSecret         string
	Port              string
	FCMServiceAccount string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

func Load() *Config {
	return &Config{
		DatabaseURL:       getEnv("DATABASE_URL", "workpoint.db"),
		JWTSecret:         getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		Port:              getEnv("PORT", "8080"),
		FCMServiceAccount: getEnv("FCM_SERVICE_ACCOUNT", ""),
		MinioEndpoint:     getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:    getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:    getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:       getEnv("MINIO_BUCKET", "workpoint"),
		MinioUseSSL:       getEnv("MINIO_USE_SSL", "") == "true",
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
