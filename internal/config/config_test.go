package config_test

import (
	"testing"

	"github.com/ogero/movies-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":3001", cfg.ServerListenAddr)
	assert.Equal(t, "http://localhost:3001", cfg.APIURL)
	assert.Equal(t, []string{"localhost:29092"}, cfg.KafkaBrokers)
	assert.Equal(t, "movie-group", cfg.KafkaGroupID)
	assert.Equal(t, "movies", cfg.WebsocketChannel)
	assert.False(t, cfg.ResponseEnvelope)
	assert.False(t, cfg.ProviderStatesEnabled)
	assert.True(t, cfg.LimiterEnabled)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("API_URL", "https://movies.example.com/some/path")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("RESPONSE_ENVELOPE", "true")
	t.Setenv("LIMITER_RPS", "2.5")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://movies.example.com", cfg.APIURL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.ResponseEnvelope)
	assert.Equal(t, 2.5, cfg.LimiterRPS)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad url", "API_URL", "not a url"},
		{"bad bool", "KAFKA_ENABLED", "maybe"},
		{"bad burst", "LIMITER_BURST", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}
