package pricebook

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/dcaflow-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPriceRepository is a mock implementation of PriceRepository for testing
type MockPriceRepository struct {
	mock.Mock
}

func (m *MockPriceRepository) SaveBatch(ctx context.Context, points []domain.PricePoint) (int, error) {
	args := m.Called(ctx, points)
	return args.Int(0), args.Error(1)
}

func (m *MockPriceRepository) ListSeries(ctx context.Context, ticker string) ([]domain.PricePoint, error) {
	args := m.Called(ctx, ticker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PricePoint), args.Error(1)
}

func (m *MockPriceRepository) PriceAsOf(ctx context.Context, ticker string, asOf time.Time) (*domain.PricePoint, error) {
	args := m.Called(ctx, ticker, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PricePoint), args.Error(1)
}

func (m *MockPriceRepository) Latest(ctx context.Context, ticker string) (*domain.PricePoint, error) {
	args := m.Called(ctx, ticker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PricePoint), args.Error(1)
}

func (m *MockPriceRepository) LastUpdatedAt(ctx context.Context, ticker string) (*time.Time, error) {
	args := m.Called(ctx, ticker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func pp(ticker string, y int, m time.Month, d int, close int64) domain.PricePoint {
	return domain.PricePoint{Ticker: ticker, Date: domain.NewDate(y, m, d), Close: decimal.NewFromInt(close)}
}

func TestPriceAsOf(t *testing.T) {
	book := NewBook(
		pp("AAA", 2024, time.March, 1, 90),
		pp("AAA", 2024, time.January, 1, 100),
		pp("AAA", 2024, time.February, 1, 110),
	)

	tests := []struct {
		name     string
		date     time.Time
		expected int64
		notFound bool
	}{
		{name: "exact date", date: domain.NewDate(2024, time.February, 1), expected: 110},
		{name: "between dates uses earlier close", date: domain.NewDate(2024, time.February, 20), expected: 110},
		{name: "after last date uses last close", date: domain.NewDate(2025, time.January, 1), expected: 90},
		{name: "before first date", date: domain.NewDate(2023, time.December, 31), notFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, err := book.PriceAsOf("AAA", tt.date)
			if tt.notFound {
				assert.ErrorIs(t, err, domain.ErrPriceNotFound)
				return
			}
			require.NoError(t, err)
			assert.True(t, price.Equal(decimal.NewFromInt(tt.expected)), "got %s", price)
		})
	}
}

func TestPriceAsOf_UnknownTicker(t *testing.T) {
	book := NewBook(pp("AAA", 2024, time.January, 1, 100))

	_, err := book.PriceAsOf("ZZZ", domain.NewDate(2024, time.June, 1))
	assert.ErrorIs(t, err, domain.ErrPriceNotFound)
}

func TestPriceAsOf_Idempotent(t *testing.T) {
	book := NewBook(pp("AAA", 2024, time.January, 1, 100), pp("AAA", 2024, time.January, 3, 101))
	date := domain.NewDate(2024, time.January, 2)

	first, err1 := book.PriceAsOf("AAA", date)
	second, err2 := book.PriceAsOf("AAA", date)

	assert.Equal(t, err1, err2)
	assert.True(t, first.Equal(second))
}

func TestNewBook_LaterDuplicateWins(t *testing.T) {
	book := NewBook(pp("AAA", 2024, time.January, 1, 100), pp("AAA", 2024, time.January, 1, 105))

	assert.Len(t, book.Series("AAA"), 1)
	price, err := book.PriceAsOf("AAA", domain.NewDate(2024, time.January, 1))
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(105)))
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPriceRepository)
	repo.On("ListSeries", ctx, "AAA").Return([]domain.PricePoint{
		pp("AAA", 2024, time.January, 2, 100),
		pp("AAA", 2024, time.January, 1, 99),
	}, nil).Once()
	repo.On("ListSeries", ctx, "BBB").Return([]domain.PricePoint{}, nil).Once()

	book, err := Load(ctx, repo, "AAA", "BBB", "AAA")

	require.NoError(t, err)
	assert.Len(t, book.Series("AAA"), 2)
	assert.Empty(t, book.Series("BBB"))
	assert.Equal(t, domain.NewDate(2024, time.January, 1), book.Series("AAA")[0].Date)
	repo.AssertExpectations(t)
}

func TestLoad_RepositoryError(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPriceRepository)
	repo.On("ListSeries", ctx, "AAA").Return(nil, errors.New("connection refused"))

	book, err := Load(ctx, repo, "AAA")

	assert.Nil(t, book)
	assert.Contains(t, err.Error(), "failed to load price series for AAA")
}
