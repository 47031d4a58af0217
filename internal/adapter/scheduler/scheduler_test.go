package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/dcaflow-backend/internal/domain"
	"github.com/simaogato/dcaflow-backend/internal/usecase/updater"
)

// MockRefresher is a mock implementation of Refresher for testing
type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) RefreshAll(ctx context.Context, tickers []string) ([]updater.Report, error) {
	args := m.Called(ctx, tickers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]updater.Report), args.Error(1)
}

// MockPopularity is a mock implementation of Popularity for testing
type MockPopularity struct {
	mock.Mock
}

func (m *MockPopularity) TopTickers(ctx context.Context, limit int) ([]domain.TickerViews, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TickerViews), args.Error(1)
}

func TestTickers_MergesTrackedAndPopular(t *testing.T) {
	popularity := new(MockPopularity)
	popularity.On("TopTickers", mock.Anything, 3).Return([]domain.TickerViews{
		{Ticker: "SPY", ViewCount: 10},
		{Ticker: "SOXL", ViewCount: 4},
	}, nil)
	s := NewScheduler(context.Background(), new(MockRefresher), popularity, []string{"qqq", "SPY"}, 3, zerolog.Nop())

	assert.Equal(t, []string{"QQQ", "SPY", "SOXL"}, s.Tickers(context.Background()))
}

func TestTickers_PopularityFailureKeepsTracked(t *testing.T) {
	popularity := new(MockPopularity)
	popularity.On("TopTickers", mock.Anything, 5).Return(nil, errors.New("locked"))
	s := NewScheduler(context.Background(), new(MockRefresher), popularity, []string{"QQQ"}, 5, zerolog.Nop())

	assert.Equal(t, []string{"QQQ"}, s.Tickers(context.Background()))
}

func TestRunNow_RefreshesTickers(t *testing.T) {
	refresher := new(MockRefresher)
	refresher.On("RefreshAll", mock.Anything, []string{"QQQ", "TQQQ"}).
		Return([]updater.Report{{Ticker: "QQQ", Added: 1}, {Ticker: "TQQQ", Added: 2}}, nil).Once()
	s := NewScheduler(context.Background(), refresher, nil, []string{"QQQ", "TQQQ"}, 10, zerolog.Nop())

	s.RunNow()

	refresher.AssertExpectations(t)
}

func TestRunNow_NothingToRefresh(t *testing.T) {
	refresher := new(MockRefresher)
	s := NewScheduler(context.Background(), refresher, nil, nil, 0, zerolog.Nop())

	s.RunNow()

	refresher.AssertNotCalled(t, "RefreshAll", mock.Anything, mock.Anything)
}

func TestRunNow_WithoutRefresher(t *testing.T) {
	popularity := new(MockPopularity)
	s := NewScheduler(context.Background(), nil, popularity, []string{"QQQ"}, 5, zerolog.Nop())

	assert.NotPanics(t, s.RunNow)
	popularity.AssertNotCalled(t, "TopTickers", mock.Anything, mock.Anything)
}

func TestRegister(t *testing.T) {
	s := NewScheduler(context.Background(), new(MockRefresher), nil, nil, 0, zerolog.Nop())

	require.NoError(t, s.Register("0 30 22 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 1)

	assert.Error(t, s.Register("every day"))
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(context.Background(), new(MockRefresher), nil, nil, 0, zerolog.Nop())
	require.NoError(t, s.Register("@every 1h"))

	s.Start()
	s.Stop()
}
