//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/dcaflow-backend/internal/domain"
)

var db *DB

// TestMain connects to the database named by DB_CONN_STR and prepares the schema
func TestMain(m *testing.M) {
	connStr := os.Getenv("DB_CONN_STR")
	if connStr == "" {
		connStr = "host=localhost port=5432 user=postgres password=postgres dbname=dcaflow_test sslmode=disable"
	}

	var err error
	db, err = NewDB(connStr)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}

	if err := db.Migrate(context.Background()); err != nil {
		panic(fmt.Sprintf("Failed to migrate database: %v", err))
	}

	code := m.Run()
	db.Close()
	os.Exit(code)
}

// uniqueTicker keeps runs independent without truncating shared tables
func uniqueTicker(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("T%d", time.Now().UnixNano()%1_000_000_000)
}

func point(ticker string, y int, m time.Month, d int, c string) domain.PricePoint {
	return domain.PricePoint{Ticker: ticker, Date: domain.NewDate(y, m, d), Close: decimal.RequireFromString(c)}
}

func TestPriceRepository_SaveBatchIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewPriceRepository(db)
	ticker := uniqueTicker(t)

	batch := []domain.PricePoint{
		point(ticker, 2024, time.January, 2, "100.5"),
		point(ticker, 2024, time.January, 3, "101.25"),
	}

	added, err := repo.SaveBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = repo.SaveBatch(ctx, batch)
	require.NoError(t, err)
	assert.Zero(t, added)

	series, err := repo.ListSeries(ctx, ticker)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.True(t, series[1].Close.Equal(decimal.RequireFromString("101.25")))
}

func TestPriceRepository_PriceAsOf(t *testing.T) {
	ctx := context.Background()
	repo := NewPriceRepository(db)
	ticker := uniqueTicker(t)

	_, err := repo.SaveBatch(ctx, []domain.PricePoint{
		point(ticker, 2024, time.January, 5, "10"),
		point(ticker, 2024, time.January, 8, "12"),
	})
	require.NoError(t, err)

	p, err := repo.PriceAsOf(ctx, ticker, domain.NewDate(2024, time.January, 7))
	require.NoError(t, err)
	assert.Equal(t, domain.NewDate(2024, time.January, 5), p.Date)

	_, err = repo.PriceAsOf(ctx, ticker, domain.NewDate(2024, time.January, 4))
	assert.ErrorIs(t, err, domain.ErrPriceNotFound)

	latest, err := repo.Latest(ctx, ticker)
	require.NoError(t, err)
	assert.True(t, latest.Close.Equal(decimal.NewFromInt(12)))

	updated, err := repo.LastUpdatedAt(ctx, ticker)
	require.NoError(t, err)
	assert.NotNil(t, updated)
}

func TestPriceRepository_UnknownTicker(t *testing.T) {
	ctx := context.Background()
	repo := NewPriceRepository(db)

	_, err := repo.Latest(ctx, "NOPE-"+uniqueTicker(t))
	assert.ErrorIs(t, err, domain.ErrPriceNotFound)

	updated, err := repo.LastUpdatedAt(ctx, "NOPE-"+uniqueTicker(t))
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestViewCountRepository_Increment(t *testing.T) {
	ctx := context.Background()
	repo := NewViewCountRepository(db)
	ticker := uniqueTicker(t)

	for range 3 {
		require.NoError(t, repo.Increment(ctx, ticker))
	}

	top, err := repo.Top(ctx, 1000)
	require.NoError(t, err)
	var found bool
	for _, v := range top {
		if v.Ticker == ticker {
			found = true
			assert.Equal(t, int64(3), v.ViewCount)
		}
	}
	assert.True(t, found)
}

func TestVisitRepository_Record(t *testing.T) {
	ctx := context.Background()
	repo := NewVisitRepository(db)
	day := domain.NewDate(1990+int(time.Now().UnixNano()%30), time.March, 1)

	require.NoError(t, repo.Record(ctx, day, true))
	require.NoError(t, repo.Record(ctx, day, false))

	visits, err := repo.Range(ctx, day, day)
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.GreaterOrEqual(t, visits[0].PageViews, int64(2))
	assert.GreaterOrEqual(t, visits[0].UniqueVisits, int64(1))
}
