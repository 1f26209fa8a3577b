package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/neexbeast/routecost/internal/cache"
	"github.com/neexbeast/routecost/internal/config"
	"github.com/neexbeast/routecost/internal/enrich"
	"github.com/neexbeast/routecost/internal/location"
	"github.com/neexbeast/routecost/internal/naver"
	"github.com/neexbeast/routecost/internal/storage"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "routectl",
	Short: "Manage location pairs and their driving costs",
	Long: `routectl loads departure/arrival location pairs from xlsx workbooks into the
local store and fills in driving distance, duration and fuel cost from the
Naver Maps APIs.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
}

// providers builds the geocoder and router used by enrich and markers.
// Tests replace it with stubs.
var providers = func(ctx context.Context, cfg config.Config, log *slog.Logger) (enrich.Geocoder, enrich.Router, func(), error) {
	if err := cfg.RequireProvider(); err != nil {
		return nil, nil, nil, err
	}

	creds := naver.Credentials{ClientID: cfg.ClientID, ClientSecret: cfg.ClientSecret}
	var geocoder enrich.Geocoder = naver.NewGeocodeClient(creds, cfg.HTTPTimeout)
	router := naver.NewDirectionsClient(creds, cfg.HTTPTimeout)

	if cfg.RedisURL == "" {
		return geocoder, router, func() {}, nil
	}

	client, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	geocoder = cache.NewCachedGeocoder(geocoder, cache.NewCache(client, cfg.GeocodeCacheTTL), log)
	return geocoder, router, func() { _ = client.Close() }, nil
}

func logger(cmd *cobra.Command) *slog.Logger {
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func loadConfig() (config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return config.Config{}, err
	}
	return config.Load()
}

// withStore opens the configured store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, cfg config.Config, store location.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := storage.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.DBDriver, err)
	}
	defer store.Close()

	return fn(ctx, cfg, store)
}

// withDriver is withStore plus an enrichment driver wired to the providers.
func withDriver(cmd *cobra.Command, fn func(ctx context.Context, d *enrich.Driver) error) error {
	return withStore(cmd, func(ctx context.Context, cfg config.Config, store location.Store) error {
		log := logger(cmd)
		geocoder, router, release, err := providers(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer release()

		return fn(ctx, enrich.NewDriver(store, geocoder, router, log))
	})
}
