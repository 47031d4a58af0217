// Package scheduler refreshes stored prices on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/simaogato/dcaflow-backend/internal/domain"
	"github.com/simaogato/dcaflow-backend/internal/usecase/updater"
)

// Refresher refreshes a set of tickers
type Refresher interface {
	RefreshAll(ctx context.Context, tickers []string) ([]updater.Report, error)
}

// Popularity lists the most simulated tickers
type Popularity interface {
	TopTickers(ctx context.Context, limit int) ([]domain.TickerViews, error)
}

// Scheduler runs the periodic price refresh
type Scheduler struct {
	Cron         *cron.Cron
	Refresher    Refresher
	Popularity   Popularity // optional
	Tracked      []string
	PopularLimit int

	ctx context.Context
	log zerolog.Logger
}

// NewScheduler creates a Scheduler whose jobs run under ctx.
// Cron specs carry a leading seconds field.
func NewScheduler(ctx context.Context, refresher Refresher, popularity Popularity, tracked []string, popularLimit int, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:         cron.New(cron.WithSeconds()),
		Refresher:    refresher,
		Popularity:   popularity,
		Tracked:      tracked,
		PopularLimit: popularLimit,
		ctx:          ctx,
		log:          log.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds the refresh job on spec
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task %q: %w", spec, err)
	}
	return nil
}

// Start starts the cron scheduler
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("jobs", len(s.Cron.Entries())).Msg("Scheduler started")
}

// Stop stops the scheduler and waits for a running refresh to finish
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("Scheduler stopped")
}

// RunNow executes the refresh job immediately
func (s *Scheduler) RunNow() {
	s.refreshTask()
}

// Tickers returns the tracked tickers followed by the most simulated ones, without duplicates
func (s *Scheduler) Tickers(ctx context.Context) []string {
	var tickers []string
	add := func(t string) {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" && !slices.Contains(tickers, t) {
			tickers = append(tickers, t)
		}
	}
	for _, t := range s.Tracked {
		add(t)
	}

	if s.Popularity != nil && s.PopularLimit > 0 {
		top, err := s.Popularity.TopTickers(ctx, s.PopularLimit)
		if err != nil {
			s.log.Warn().Err(err).Msg("Failed to load popular tickers")
		}
		for _, v := range top {
			add(v.Ticker)
		}
	}
	return tickers
}

func (s *Scheduler) refreshTask() {
	if s.Refresher == nil {
		s.log.Debug().Msg("No price provider, skipping scheduled refresh")
		return
	}

	tickers := s.Tickers(s.ctx)
	if len(tickers) == 0 {
		s.log.Debug().Msg("No tickers to refresh")
		return
	}

	s.log.Info().Strs("tickers", tickers).Msg("Running scheduled refresh")
	reports, err := s.Refresher.RefreshAll(s.ctx, tickers)

	var added int
	for _, r := range reports {
		added += r.Added
	}
	event := s.log.Info()
	if err != nil {
		event = s.log.Warn().Err(err)
	}
	event.Int("tickers", len(reports)).Int("added", added).Msg("Scheduled refresh finished")
}
