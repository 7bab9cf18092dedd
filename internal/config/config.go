package config

import (
	"fmt"
	"net/url"

	"github.com/caarlos0/env/v11"
)

// Config holds every setting of the movies API binaries. Values are read from environment variables.
type Config struct {
	// ServerListenAddr specifies the network address that the HTTP server will listen on.
	ServerListenAddr string `env:"SERVER_LISTEN_ADDR" envDefault:":3001"`
	// APIURL is the public base URL of the movies API, used by the consumer side binaries.
	APIURL string `env:"API_URL" envDefault:"http://localhost:3001"`

	ServiceName        string `env:"SERVICE_NAME" envDefault:"movies-api"`
	ServiceVersion     string `env:"SERVICE_VERSION" envDefault:"0.0.1"`
	ServiceEnvironment string `env:"SERVICE_ENVIRONMENT" envDefault:"lcl"`
	// OTELExporterEndpoint is the otlp grpc endpoint. Telemetry export is disabled when empty.
	OTELExporterEndpoint string `env:"OTEL_EXPORTER_ENDPOINT"`

	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"true"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:29092" envSeparator:","`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"movie-group"`

	// EventsLogPath is the JSON lines file consumed movie events are appended to.
	EventsLogPath string `env:"EVENTS_LOG_PATH" envDefault:"./events/movie-events.log"`
	// WebsocketChannel is the channel movie events are broadcast to.
	WebsocketChannel string `env:"WEBSOCKET_CHANNEL" envDefault:"movies"`

	CachePath string `env:"CACHE_PATH" envDefault:".cache"`

	// ResponseEnvelope wraps response bodies in {status, data} when set.
	ResponseEnvelope bool `env:"RESPONSE_ENVELOPE" envDefault:"false"`
	// ProviderStatesEnabled exposes the provider states endpoint used by contract verification.
	ProviderStatesEnabled bool `env:"PROVIDER_STATES_ENABLED" envDefault:"false"`

	LimiterEnabled bool    `env:"LIMITER_ENABLED" envDefault:"true"`
	LimiterRPS     float64 `env:"LIMITER_RPS" envDefault:"20"`
	LimiterBurst   int     `env:"LIMITER_BURST" envDefault:"40"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to env.ParseAs: %w", err)
	}

	u, err := url.Parse(cfg.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("failed to parse API_URL %q", cfg.APIURL)
	}
	cfg.APIURL = fmt.Sprintf("%s://%s", u.Scheme, u.Host)

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}

	if cfg.LimiterEnabled && (cfg.LimiterRPS <= 0 || cfg.LimiterBurst <= 0) {
		return nil, fmt.Errorf("LIMITER_RPS and LIMITER_BURST must be positive")
	}

	return &cfg, nil
}
