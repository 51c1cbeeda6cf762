package config

import (
	"os"
	"strconv"
)

// APIConfig points the client at a document API.
type APIConfig struct {
	BaseURL string
	Token   string
}

// LogConfig controls the diagnostic logger.
type LogConfig struct {
	Level  string
	Format string
}

// MinIOConfig holds object storage settings for s3:// file sources.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// DeployConfig locates the deployment descriptor.
type DeployConfig struct {
	// DescriptorPath is empty when the embedded descriptor should be used.
	DescriptorPath string
	// JWTSecret is the secret the deployed server verifies tokens with.
	JWTSecret string
}

// StubConfig configures the local document API stub.
type StubConfig struct {
	Addr string
}

// MetricsConfig controls where one-shot commands report client metrics.
type MetricsConfig struct {
	// PushGateway is empty when metrics should not be pushed.
	PushGateway string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	API     APIConfig
	Log     LogConfig
	MinIO   MinIOConfig
	Deploy  DeployConfig
	Stub    StubConfig
	Metrics MetricsConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			BaseURL: getEnv("DOCAPI_URL", "http://localhost:8000"),
			Token:   getEnv("DOCAPI_TOKEN", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Deploy: DeployConfig{
			DescriptorPath: getEnv("DEPLOY_DESCRIPTOR", ""),
			JWTSecret:      getEnv("JWT_SECRET_KEY", ""),
		},
		Stub: StubConfig{
			Addr: getEnv("STUB_ADDR", ":"+strconv.Itoa(getEnvInt("PORT", 8000))),
		},
		Metrics: MetricsConfig{
			PushGateway: getEnv("PUSHGATEWAY_URL", ""),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
