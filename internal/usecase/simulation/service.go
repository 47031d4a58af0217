package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/simaogato/dcaflow-backend/internal/domain"
	"github.com/simaogato/dcaflow-backend/internal/usecase/ath"
	"github.com/simaogato/dcaflow-backend/internal/usecase/condition"
	"github.com/simaogato/dcaflow-backend/internal/usecase/pricebook"
	"github.com/simaogato/dcaflow-backend/internal/usecase/updater"
)

// Refresher brings stored prices up to date before a run
type Refresher interface {
	RefreshAll(ctx context.Context, tickers []string) ([]updater.Report, error)
}

// ViewRecorder counts simulations per ticker
type ViewRecorder interface {
	RecordView(ctx context.Context, ticker string) error
}

// RunOptions controls the side effects around a simulation run
type RunOptions struct {
	RefreshPrices bool // refresh every referenced ticker before snapshotting prices
	SkipViewCount bool
}

// Quote is the stored close and all-time high of a ticker as of a date
type Quote struct {
	Ticker      string
	AsOf        time.Time
	CloseDate   time.Time
	Close       decimal.Decimal
	AllTimeHigh decimal.Decimal
	Drawdown    decimal.Decimal // percent below the all-time high
}

// SimulationService runs simulations against the stored price history
type SimulationService struct {
	PriceRepo domain.PriceRepository
	Refresher Refresher
	Views     ViewRecorder
	HighCache *ath.Cache

	log zerolog.Logger
}

// NewSimulationService creates a new SimulationService
// refresher and views may be nil
func NewSimulationService(priceRepo domain.PriceRepository, refresher Refresher, views ViewRecorder, highCache *ath.Cache, log zerolog.Logger) *SimulationService {
	return &SimulationService{
		PriceRepo: priceRepo,
		Refresher: refresher,
		Views:     views,
		HighCache: highCache,
		log:       log.With().Str("service", "simulation").Logger(),
	}
}

// Run validates cfg, snapshots the prices it needs and replays the simulation
// Logic:
//  1. Validate before touching any collaborator
//  2. Optionally refresh prices; refresh failures never fail the run
//  3. Snapshot every referenced ticker into a pricebook
//  4. Build all-time highs only for tickers named by a drawdown rule
//  5. Quote prices in the display currency when amounts are entered in it
//  6. Run the engine, then count a view per ticker
func (s *SimulationService) Run(ctx context.Context, cfg domain.SimulationConfig, opts RunOptions) (*domain.SimulationResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tickers := cfg.Tickers()

	if opts.RefreshPrices && s.Refresher != nil {
		reports, err := s.Refresher.RefreshAll(ctx, tickers)
		if err != nil {
			return nil, fmt.Errorf("price refresh interrupted: %w", err)
		}
		for _, r := range reports {
			if r.Err != nil {
				s.log.Warn().Str("ticker", r.Ticker).Err(r.Err).Msg("Simulating with stored prices after refresh failure")
			}
		}
	}

	book, err := pricebook.Load(ctx, s.PriceRepo, tickers...)
	if err != nil {
		return nil, err
	}

	var prices condition.PriceLookup = book
	var highs condition.HighLookup
	if drawdown := cfg.DrawdownTickers(); len(drawdown) > 0 {
		tracker := ath.NewTracker(book, s.HighCache)
		tracker.Prepare(drawdown...)
		highs = tracker
	}
	if cfg.Currency.RunsInDisplay() {
		prices, highs = inDisplayCurrency(prices, highs, cfg.Currency.Rate)
	}

	engine, err := NewEngine(cfg, prices, highs)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	result, err := engine.Run()
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("run_id", result.RunID.String()).
		Strs("tickers", tickers).
		Int("periods", result.Periods).
		Int("purchases", len(result.Records)).
		Str("profit_rate", result.FinalProfitRate.StringFixed(2)).
		Dur("elapsed", time.Since(started)).
		Msg("Simulation completed")

	if !opts.SkipViewCount && s.Views != nil {
		for _, ticker := range tickers {
			if err := s.Views.RecordView(ctx, ticker); err != nil {
				s.log.Warn().Str("ticker", ticker).Err(err).Msg("Failed to record ticker view")
			}
		}
	}

	return result, nil
}

// Quote returns the stored close of ticker at or before asOf with its all-time high
// Returns an error wrapping domain.ErrPriceNotFound when nothing is stored up to asOf
func (s *SimulationService) Quote(ctx context.Context, ticker string, asOf time.Time) (*Quote, error) {
	point, err := s.PriceRepo.PriceAsOf(ctx, ticker, domain.Day(asOf))
	if err != nil {
		return nil, err
	}

	book, err := pricebook.Load(ctx, s.PriceRepo, ticker)
	if err != nil {
		return nil, err
	}
	high, err := ath.NewTracker(book, s.HighCache).HighAsOf(ticker, asOf)
	if err != nil {
		return nil, err
	}

	quote := &Quote{
		Ticker:      ticker,
		AsOf:        domain.Day(asOf),
		CloseDate:   domain.Day(point.Date),
		Close:       point.Close,
		AllTimeHigh: high,
		Drawdown:    decimal.Zero,
	}
	if high.IsPositive() {
		quote.Drawdown = high.Sub(quote.Close).Mul(hundred).Div(high)
	}
	return quote, nil
}
