package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://localhost:5000/api")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "/api/v1", cfg.EndpointPrefix)
	assert.Equal(t, 10*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 1024, cfg.CacheSize)
	assert.Equal(t, 5, cfg.SuggestLimit)
	assert.Nil(t, cfg.KafkaBrokers)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("BACKEND_SERVICE", "store-api")
	t.Setenv("CONSUL_HTTP_ADDR", "consul:8500")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("SUGGEST_LIMIT", "8")
	t.Setenv("APP_PORT", "9000")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "store-api", cfg.BackendService)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 8, cfg.SuggestLimit)
	assert.Equal(t, "9000", cfg.AppPort)
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"no backend", map[string]string{}},
		{"service without consul", map[string]string{"BACKEND_SERVICE": "store-api"}},
		{"bad cache size", map[string]string{"BACKEND_URL": "http://x", "CACHE_SIZE": "lots"}},
		{"zero suggest limit", map[string]string{"BACKEND_URL": "http://x", "SUGGEST_LIMIT": "0"}},
		{"bad timeout", map[string]string{"BACKEND_URL": "http://x", "BACKEND_TIMEOUT": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"BACKEND_URL", "BACKEND_SERVICE", "CONSUL_HTTP_ADDR"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
