package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gradecard/backend/config"
	httpDelivery "github.com/gradecard/backend/internal/delivery/http"
	"github.com/gradecard/backend/internal/infrastructure/metrics"
	"github.com/gradecard/backend/internal/infrastructure/scrape"
	"github.com/gradecard/backend/internal/infrastructure/session"
	"github.com/gradecard/backend/internal/infrastructure/soda"
	"github.com/gradecard/backend/internal/logger"
	"github.com/gradecard/backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level)
	log.Info("starting GradeCard backend",
		"version", "1.0.0",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port)

	location, err := cfg.Location()
	if err != nil {
		log.Error("invalid display timezone", "timezone", cfg.Display.Timezone, "error", err)
		os.Exit(1)
	}

	// Infrastructure
	registry := metrics.NewRegistry()
	sessions := session.NewMemoryStore(time.Minute)
	defer sessions.Close()
	adapters := scrape.NewRegistry(log)

	sodaClient := soda.NewClient(soda.Options{
		BaseURL:           cfg.SODA.BaseURL,
		Dataset:           cfg.SODA.Dataset,
		AppToken:          cfg.SODA.AppToken,
		Timeout:           cfg.SODA.Timeout,
		MaxRetries:        cfg.SODA.MaxRetries,
		RequestsPerSecond: cfg.SODA.RequestsPerSecond,
	}, log)

	if cfg.Server.Environment == "development" {
		sodaClient.SetDebug(true)
		log.SetLevel("debug")
		log.Debug("SODA client debug mode enabled")
	}

	if cfg.SODA.AppToken == "" {
		log.Warn("no SODA app token configured, requests are throttled per IP",
			"base_url", cfg.SODA.BaseURL,
			"dataset", cfg.SODA.Dataset)
	} else {
		log.Info("SODA API configured", "base_url", cfg.SODA.BaseURL, "dataset", cfg.SODA.Dataset)
	}

	// Usecases
	navigation := usecase.NewNavigationService(sessions, adapters, usecase.NavigationConfig{
		RerunDelay: cfg.Navigation.RerunDelay,
		SessionTTL: cfg.Navigation.SessionTTL,
	}, log)

	inspections := usecase.NewInspectionService(sodaClient, adapters, navigation, registry, usecase.InspectionServiceConfig{
		ResolverTimeout: cfg.Resolver.Timeout,
		DisplayLocation: location,
	}, log)

	log.Info("resolver configured",
		"timeout", cfg.Resolver.Timeout,
		"rerun_delay", cfg.Navigation.RerunDelay,
		"timezone", location.String())

	handler := httpDelivery.NewHandler(inspections, navigation, log)
	router := httpDelivery.SetupRouter(cfg, handler, registry.Handler(), log)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
