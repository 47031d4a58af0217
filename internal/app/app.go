// Package app wires configuration into repositories and services.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/simaogato/dcaflow-backend/internal/adapter/market"
	"github.com/simaogato/dcaflow-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/dcaflow-backend/internal/adapter/repository/sqlite"
	"github.com/simaogato/dcaflow-backend/internal/config"
	"github.com/simaogato/dcaflow-backend/internal/domain"
	"github.com/simaogato/dcaflow-backend/internal/usecase/analytics"
	"github.com/simaogato/dcaflow-backend/internal/usecase/ath"
	"github.com/simaogato/dcaflow-backend/internal/usecase/simulation"
	"github.com/simaogato/dcaflow-backend/internal/usecase/updater"
)

// Stores holds the repositories of the configured database
type Stores struct {
	Prices domain.PriceRepository
	Views  domain.ViewCountRepository
	Visits domain.VisitRepository

	close func() error
}

// Close closes the underlying database
func (s *Stores) Close() error {
	return s.close()
}

// OpenStores connects to the configured database and applies the schema
func OpenStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	switch cfg.Database.Driver {
	case "postgres":
		var db *postgres.DB
		// the database container may still be starting
		err := updater.WithRetry(ctx, connectRetry(), func(ctx context.Context) error {
			var err error
			db, err = postgres.NewDB(cfg.Database.DSN)
			if err != nil {
				log.Warn().Err(err).Msg("Database not ready")
			}
			return err
		})
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &Stores{
			Prices: postgres.NewPriceRepository(db),
			Views:  postgres.NewViewCountRepository(db),
			Visits: postgres.NewVisitRepository(db),
			close:  db.Close,
		}, nil

	case "sqlite":
		db, err := sqlite.NewDB(cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &Stores{
			Prices: sqlite.NewPriceRepository(db),
			Views:  sqlite.NewViewCountRepository(db),
			Visits: sqlite.NewVisitRepository(db),
			close:  db.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func connectRetry() updater.RetryConfig {
	return updater.RetryConfig{
		MaxRetries: 4,
		BaseDelay:  time.Second,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
	}
}

// NewFetcher builds the configured price provider client
func NewFetcher(cfg *config.Config) (updater.Fetcher, error) {
	switch cfg.Prices.Provider {
	case "twelvedata":
		return market.NewTwelveDataClient(market.TwelveDataConfig{
			APIKey:            cfg.Prices.APIKey,
			BaseURL:           cfg.Prices.BaseURL,
			RequestsPerMinute: cfg.Prices.RequestsPerMinute,
		}), nil
	case "yahoo":
		return market.NewYahooClient(), nil
	default:
		return nil, fmt.Errorf("unsupported price provider %q", cfg.Prices.Provider)
	}
}

// App is the assembled service graph shared by the server and the CLI
type App struct {
	Config     *config.Config
	Stores     *Stores
	HighCache  *ath.Cache
	Updater    *updater.UpdaterService // nil when offline
	Analytics  *analytics.AnalyticsService
	Simulation *simulation.SimulationService
}

// Options tunes New
type Options struct {
	// Offline skips the price provider; simulations use stored prices only
	Offline bool
}

// New opens the stores and builds every service
func New(ctx context.Context, cfg *config.Config, opts Options, log zerolog.Logger) (*App, error) {
	stores, err := OpenStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:    cfg,
		Stores:    stores,
		HighCache: ath.NewCache(cfg.Prices.Freshness),
		Analytics: analytics.NewAnalyticsService(stores.Views, stores.Visits),
	}

	if !opts.Offline {
		fetcher, err := NewFetcher(cfg)
		if err != nil {
			stores.Close()
			return nil, err
		}
		a.Updater = updater.NewUpdaterService(stores.Prices, fetcher, a.HighCache, log)
		a.Updater.Freshness = cfg.Prices.Freshness
	}

	a.Simulation = simulation.NewSimulationService(stores.Prices, a.Refresher(), a.Analytics, a.HighCache, log)
	return a, nil
}

// Refresher returns the updater as an interface value, or a nil interface when offline.
// Surfaces compare it against nil, which a nil *UpdaterService would not satisfy.
func (a *App) Refresher() simulation.Refresher {
	if a.Updater == nil {
		return nil
	}
	return a.Updater
}

// Close releases the database
func (a *App) Close() error {
	return a.Stores.Close()
}
