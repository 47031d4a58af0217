package market

import (
	"context"
	"fmt"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"github.com/simaogato/dcaflow-backend/internal/domain"
)

// yahooHistoryStart bounds a full download
var yahooHistoryStart = domain.NewDate(1990, time.January, 1)

// YahooClient fetches daily closes from the Yahoo Finance chart API
type YahooClient struct {
	exchange *time.Location
	now      func() time.Time
}

// NewYahooClient creates a new Yahoo Finance client.
// Bar timestamps are converted to calendar dates in the exchange time zone.
func NewYahooClient() *YahooClient {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	return &YahooClient{exchange: loc, now: time.Now}
}

// Name identifies the provider in logs
func (c *YahooClient) Name() string {
	return "yahoo"
}

// FetchDailyCloses downloads daily closes for ticker from since (or the full history) until today
func (c *YahooClient) FetchDailyCloses(ctx context.Context, ticker string, since *time.Time) ([]domain.PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := yahooHistoryStart
	if since != nil {
		start = *since
	}
	end := c.now()

	params := &chart.Params{
		Symbol:   ticker,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(params)

	var bars []*finance.ChartBar
	for iter.Next() {
		bars = append(bars, iter.Bar())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to get historical data for %s: %w", ticker, err)
	}

	return c.toPoints(ticker, bars), nil
}

// toPoints converts chart bars to price points, dropping bars without a close
func (c *YahooClient) toPoints(ticker string, bars []*finance.ChartBar) []domain.PricePoint {
	points := make([]domain.PricePoint, 0, len(bars))
	for _, bar := range bars {
		if bar == nil || !bar.Close.IsPositive() {
			continue
		}
		points = append(points, domain.PricePoint{
			Ticker: ticker,
			Date:   domain.Day(time.Unix(int64(bar.Timestamp), 0).In(c.exchange)),
			Close:  bar.Close,
		})
	}
	return points
}
