package common

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ogero/movies-api/pkg/movie"
	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

var (
	// Log is the app global logger. It writes text to stdout until InitLogger is called.
	Log = slog.New(slog.NewTextHandler(os.Stdout, nil))
)

// InitLogger initializes the app global logger.
// Logs are exported through otlp when exporterEndpoint is set, and also written to stdout on local environments.
func InitLogger(serviceName, serviceVersion, serviceEnvironment, exporterEndpoint string) (func(ctx context.Context) error, error) {

	if exporterEndpoint == "" {
		Log = slog.New(slog.NewTextHandler(os.Stdout, nil))
		return func(ctx context.Context) error { return nil }, nil
	}

	var slogHandler slog.Handler

	ctx := context.Background()

	logExporter, err := otlploggrpc.New(ctx,
		otlploggrpc.WithEndpoint(exporterEndpoint),
		otlploggrpc.WithInsecure())
	if err != nil {
		return nil, fmt.Errorf("failed to otlploggrpc.New: %w", err)
	}

	lp := log.NewLoggerProvider(
		log.WithProcessor(
			log.NewBatchProcessor(logExporter),
		),
		log.WithResource(resource.NewWithAttributes(semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
			semconv.DeploymentEnvironmentNameKey.String(serviceEnvironment))),
	)

	slogHandler = otelslog.NewHandler("github.com/ogero/movies-api",
		otelslog.WithLoggerProvider(lp))

	if serviceEnvironment == "lcl" || serviceEnvironment == "dk" {
		slogHandler = slogmulti.Fanout(
			slogHandler,
			slog.NewTextHandler(os.Stdout, nil),
		)
	}

	Log = slog.New(slogHandler)

	return lp.Shutdown, nil
}

// MovieAttr groups the fields of m under a "movie" log attribute.
func MovieAttr(m movie.Movie) slog.Attr {
	return slog.Group("movie",
		slog.Int("id", m.ID),
		slog.String("name", m.Name),
		slog.Int("year", m.Year),
	)
}
