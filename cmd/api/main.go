package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ogero/movies-api/internal"
	"github.com/ogero/movies-api/internal/common"
	"github.com/ogero/movies-api/internal/config"
	"github.com/ogero/movies-api/internal/events"
	"github.com/ogero/movies-api/internal/repository"
	slogchi "github.com/samber/slog-chi"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(fmt.Errorf("failed to config.Load: %w", err))
	}

	shutdownLogger, err := common.InitLogger(cfg.ServiceName, cfg.ServiceVersion, cfg.ServiceEnvironment, cfg.OTELExporterEndpoint)
	if err != nil {
		log.Fatal(fmt.Errorf("failed to common.InitLogger: %w", err))
	}

	shutdownInstrumentation, err := common.InitInstrumentation(cfg.ServiceName, cfg.ServiceVersion, cfg.ServiceEnvironment, cfg.OTELExporterEndpoint)
	if err != nil {
		log.Fatal(fmt.Errorf("failed to common.InitInstrumentation: %w", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed, err := events.NewWebsocketPublisher(cfg.WebsocketChannel)
	if err != nil {
		log.Fatal(fmt.Errorf("failed to events.NewWebsocketPublisher: %w", err))
	}

	publishers := []events.Publisher{feed}
	var kafkaPublisher *events.KafkaPublisher
	if cfg.KafkaEnabled {
		kafkaPublisher = events.NewKafkaPublisher(cfg.KafkaBrokers)
		publishers = append(publishers, kafkaPublisher)
	} else {
		common.Log.Warn("Kafka is disabled, movie events are only broadcast over websocket")
	}

	moviesService := internal.NewMoviesService(repository.New(), events.Fanout(publishers...), feed)

	app, err := internal.NewApp(moviesService, cfg.ResponseEnvelope, cfg.ProviderStatesEnabled)
	if err != nil {
		log.Fatal(fmt.Errorf("failed to internal.NewApp: %w", err))
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(slogchi.New(common.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Authorization",
			"Content-Type",
			"X-Requested-With",
			"Accept",
			"Accept-Language",
			"Accept-Encoding",
			"Content-Language",
			"Origin",
		},
		MaxAge: 300,
	}))
	if cfg.LimiterEnabled {
		r.Use(app.RateLimit(ctx, cfg.LimiterRPS, cfg.LimiterBurst))
	}
	r.Mount("/", app.Routes())

	// Listen
	srv := &http.Server{
		Addr:              cfg.ServerListenAddr,
		Handler:           otelhttp.NewHandler(r, "movies-api"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		common.Log.Info("Listening", "addr", cfg.ServerListenAddr, "envelope", cfg.ResponseEnvelope, "providerStates", cfg.ProviderStatesEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.Log.Error("Failed to http.Server.ListenAndServe", "err", err)
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.Log.Error("Failed to http.Server.Shutdown", "err", err)
	}

	if err := feed.Shutdown(shutdownCtx); err != nil {
		common.Log.Error("Failed to events.WebsocketPublisher.Shutdown", "err", err)
	}

	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			common.Log.Error("Failed to events.KafkaPublisher.Close", "err", err)
		}
	}

	common.Log.Info("Bye!")

	shutdownInstrumentation(shutdownCtx)
	if err := shutdownLogger(shutdownCtx); err != nil {
		log.Println("Failed to shutdown logger:", err)
	}
}
