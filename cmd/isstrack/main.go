package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/star/isstrack/internal/api"
	"github.com/star/isstrack/internal/auth"
	"github.com/star/isstrack/internal/config"
	"github.com/star/isstrack/internal/locate"
	"github.com/star/isstrack/internal/metrics"
	"github.com/star/isstrack/internal/oem"
	"github.com/star/isstrack/internal/stream"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("ISSTRACK_CONFIG"), logger)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	fetcher := oem.NewFetcher(cfg.Feed.SourceURL, logger)
	store := oem.NewStore(fetcher, cfg.Location.Profile.Sidecar(), logger)

	var resolver *locate.Resolver
	switch cfg.Location.Profile {
	case config.ProfileGeodetic:
		resolver = locate.NewGeodeticResolver(logger)
	default:
		geocoder := locate.NewNominatimGeocoder(cfg.Location.NominatimURL, cfg.Location.UserAgent)
		resolver = locate.NewCorrectedResolver(geocoder, logger)
	}

	streamHandler := stream.NewHandler(store, resolver, stream.Config{
		Interval:           cfg.Stream.Interval(),
		KeepaliveInterval:  cfg.Stream.KeepaliveInterval(),
		MaxConcurrentPerIP: cfg.Stream.MaxConcurrentPerIP,
	}, logger)

	srv := api.NewServer(cfg.Server.Addr, logger, api.Options{
		Store:    store,
		Resolver: resolver,
		Stream:   streamHandler,
		Auth:     auth.Config{Enabled: cfg.Auth.Enabled, Token: cfg.Auth.Token},
		Sidecar:  cfg.Location.Profile.Sidecar(),
	})

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background goroutine to update the dataset age gauge.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if age := store.AgeSeconds(); age >= 0 {
					metrics.SetDatasetAge(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server",
			"addr", cfg.Server.Addr,
			"profile", string(cfg.Location.Profile),
			"auth_enabled", cfg.Auth.Enabled,
			"source_url", fetcher.SourceURL(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
