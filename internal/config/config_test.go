package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DOCAPI_URL", "https://docs.example.com")
	t.Setenv("DOCAPI_TOKEN", "tok")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("PORT", "9100")
	t.Setenv("STUB_ADDR", "")
	t.Setenv("PUSHGATEWAY_URL", "http://pushgateway:9091")

	cfg := Load()

	assert.Equal(t, "https://docs.example.com", cfg.API.BaseURL)
	assert.Equal(t, "tok", cfg.API.Token)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, ":9100", cfg.Stub.Addr)
	assert.Equal(t, "http://pushgateway:9091", cfg.Metrics.PushGateway)
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DOCAPI_URL", "LOG_LEVEL", "LOG_FORMAT", "PORT", "STUB_ADDR", "DEPLOY_DESCRIPTOR"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":8000", cfg.Stub.Addr)
	assert.Empty(t, cfg.Deploy.DescriptorPath)
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}
