package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/routecost/internal/api"
	"github.com/neexbeast/routecost/internal/cache"
	"github.com/neexbeast/routecost/internal/config"
	"github.com/neexbeast/routecost/internal/enrich"
	"github.com/neexbeast/routecost/internal/naver"
	"github.com/neexbeast/routecost/internal/storage"
)

// Enrichment runs synchronously inside POST /api/v1/enrichments.
const writeTimeout = 10 * time.Minute

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireProvider(); err != nil {
		return err
	}
	if err := cfg.RequireBearer(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.DBDriver, err)
	}
	defer func() { _ = store.Close() }()
	log.Info("store ready", "driver", cfg.DBDriver)

	creds := naver.Credentials{ClientID: cfg.ClientID, ClientSecret: cfg.ClientSecret}
	var geocoder enrich.Geocoder = naver.NewGeocodeClient(creds, cfg.HTTPTimeout)

	// The geocode cache is optional; without REDIS_URL every lookup hits the provider.
	var cachePinger api.Pinger
	if cfg.RedisURL != "" {
		redisClient, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() { _ = redisClient.Close() }()

		geocoder = cache.NewCachedGeocoder(geocoder, cache.NewCache(redisClient, cfg.GeocodeCacheTTL), log)
		cachePinger = &redisPingerAdapter{client: redisClient}
		log.Info("geocode cache enabled", "ttl", cfg.GeocodeCacheTTL)
	}

	driver := enrich.NewDriver(store, geocoder, naver.NewDirectionsClient(creds, cfg.HTTPTimeout), log)
	handlers := api.NewHandlers(store, driver, log)
	router := api.NewRouter(handlers, cfg.BearerToken, store, cachePinger, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listening: %w", err)
		}
		return nil
	})

	// Graceful shutdown on SIGINT / SIGTERM, or when the listener fails.
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("server shut down cleanly")
	return nil
}

// redisPingerAdapter adapts redis.Client to api.Pinger.
type redisPingerAdapter struct {
	client *redis.Client
}

func (r *redisPingerAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
