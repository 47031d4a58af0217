package pricebook

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/dcaflow-backend/internal/domain"
)

// Book is an immutable snapshot of daily closes, indexed per ticker by date.
// A simulation run reads from one Book so price refreshes never interleave with it.
type Book struct {
	series map[string][]domain.PricePoint
}

// NewBook builds a Book from unordered points
// When two points share a (ticker, date), the later one in the input wins
func NewBook(points ...domain.PricePoint) *Book {
	grouped := make(map[string][]domain.PricePoint)
	for _, p := range points {
		p.Date = domain.Day(p.Date)
		grouped[p.Ticker] = append(grouped[p.Ticker], p)
	}

	book := &Book{series: make(map[string][]domain.PricePoint, len(grouped))}
	for ticker, pts := range grouped {
		book.series[ticker] = normalize(pts)
	}
	return book
}

// Load snapshots the series of every ticker from the repository
func Load(ctx context.Context, repo domain.PriceRepository, tickers ...string) (*Book, error) {
	book := &Book{series: make(map[string][]domain.PricePoint, len(tickers))}
	for _, ticker := range tickers {
		if _, ok := book.series[ticker]; ok {
			continue
		}
		pts, err := repo.ListSeries(ctx, ticker)
		if err != nil {
			return nil, fmt.Errorf("failed to load price series for %s: %w", ticker, err)
		}
		for i := range pts {
			pts[i].Date = domain.Day(pts[i].Date)
		}
		book.series[ticker] = normalize(pts)
	}
	return book, nil
}

// normalize sorts chronologically and keeps the last point per date
func normalize(pts []domain.PricePoint) []domain.PricePoint {
	domain.SortPricePoints(pts)
	out := pts[:0]
	for _, p := range pts {
		if n := len(out); n > 0 && out[n-1].Date.Equal(p.Date) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return slices.Clip(out)
}

// PriceAsOf returns the close with the greatest date <= date
// Returns an error wrapping domain.ErrPriceNotFound when the ticker has no such close
func (b *Book) PriceAsOf(ticker string, date time.Time) (decimal.Decimal, error) {
	pts := b.series[ticker]
	i := FloorIndex(pts, domain.Day(date), func(p domain.PricePoint) time.Time { return p.Date })
	if i < 0 {
		return decimal.Zero, fmt.Errorf("%s as of %s: %w", ticker, domain.FormatDate(date), domain.ErrPriceNotFound)
	}
	return pts[i].Close, nil
}

// Series returns the chronological series of a ticker
// The returned slice is shared and must not be modified
func (b *Book) Series(ticker string) []domain.PricePoint {
	return b.series[ticker]
}

// FloorIndex returns the index of the last item dated on or before day, or -1
// items must be sorted by date ascending.
func FloorIndex[T any](items []T, day time.Time, dateOf func(T) time.Time) int {
	i, found := slices.BinarySearchFunc(items, day, func(item T, target time.Time) int {
		return dateOf(item).Compare(target)
	})
	if found {
		return i
	}
	// i is the insertion point, the previous item is the last one before day
	return i - 1
}
