package domain

import (
	"errors"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one daily closing price for a ticker.
// At most one PricePoint exists per (Ticker, Date).
type PricePoint struct {
	Ticker    string
	Date      time.Time
	Close     decimal.Decimal
	UpdatedAt time.Time // when the point was materialized by the price updater
}

// Validate ensures the price point can be stored
func (p *PricePoint) Validate() error {
	if p.Ticker == "" {
		return errors.New("price point ticker cannot be empty")
	}
	if p.Date.IsZero() {
		return errors.New("price point date cannot be empty")
	}
	if p.Close.LessThanOrEqual(decimal.Zero) {
		return errors.New("price point close must be positive")
	}
	return nil
}

// AllTimeHigh is the running maximum close for a ticker up to and including Date
type AllTimeHigh struct {
	Ticker string
	Date   time.Time
	High   decimal.Decimal
}

// SortPricePoints orders points chronologically in place
func SortPricePoints(points []PricePoint) {
	slices.SortStableFunc(points, func(a, b PricePoint) int {
		return a.Date.Compare(b.Date)
	})
}
