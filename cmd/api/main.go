package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/PratikDhanave/welcome-mailer/internal/config"
	"github.com/PratikDhanave/welcome-mailer/internal/httpserver"
	"github.com/PratikDhanave/welcome-mailer/internal/logging"
	"github.com/PratikDhanave/welcome-mailer/internal/mailer"
	"github.com/PratikDhanave/welcome-mailer/internal/metrics"
)

// main boots the service: env → config → logger → mailer → HTTP server.
func main() {
	// A local .env is optional; real deployments inject the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("could not load .env: %v", err)
	}

	// Fails when SENDGRID_API_KEY is absent.
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
	slog.SetDefault(logger)

	sender, err := mailer.NewSendGridSender(mailer.SendGridOptions{
		APIKey:     cfg.SendGridAPIKey,
		BaseURL:    cfg.SendGridBaseURL,
		RatePerSec: cfg.SendGridRatePerSec,
		Timeout:    cfg.SendTimeout,
	})
	if err != nil {
		log.Fatal(err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := httpserver.NewRouter(cfg, httpserver.Deps{
		Sender:   sender,
		Metrics:  metrics.New(reg),
		Gatherer: reg,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server started", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", slog.String("error", err.Error()))
	}
}
