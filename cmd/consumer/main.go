package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ogero/movies-api/internal/cache"
	"github.com/ogero/movies-api/internal/common"
	"github.com/ogero/movies-api/internal/config"
	"github.com/ogero/movies-api/internal/events"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(fmt.Errorf("failed to config.Load: %w", err))
	}

	shutdownLogger, err := common.InitLogger(cfg.ServiceName+"-consumer", cfg.ServiceVersion, cfg.ServiceEnvironment, cfg.OTELExporterEndpoint)
	if err != nil {
		log.Fatal(fmt.Errorf("failed to common.InitLogger: %w", err))
	}

	shutdownInstrumentation, err := common.InitInstrumentation(cfg.ServiceName+"-consumer", cfg.ServiceVersion, cfg.ServiceEnvironment, cfg.OTELExporterEndpoint)
	if err != nil {
		log.Fatal(fmt.Errorf("failed to common.InitInstrumentation: %w", err))
	}

	c, err := cache.Open(cfg.CachePath)
	if err != nil {
		log.Fatal(fmt.Errorf("failed to cache.Open: %w", err))
	}

	consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, events.NewLog(cfg.EventsLogPath), c)

	common.Log.Info("Consuming movie events", "brokers", cfg.KafkaBrokers, "group", cfg.KafkaGroupID, "log", cfg.EventsLogPath)

	exitCode := 0
	if err := consumer.Run(ctx); err != nil {
		common.Log.Error("Failed to events.Consumer.Run", "err", err)
		exitCode = 1
	}

	if err := consumer.Close(); err != nil {
		common.Log.Error("Failed to events.Consumer.Close", "err", err)
	}

	if err := c.Close(); err != nil {
		common.Log.Error("Failed to cache.Close", "err", err)
	}

	common.Log.Info("Bye!")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdownInstrumentation(shutdownCtx)
	if err := shutdownLogger(shutdownCtx); err != nil {
		log.Println("Failed to shutdown logger:", err)
	}

	os.Exit(exitCode)
}
