package simulation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/simaogato/dcaflow-backend/internal/usecase/condition"
)

// displayPrices quotes base currency closes in the display currency of a run
type displayPrices struct {
	prices condition.PriceLookup
	rate   decimal.Decimal
}

func (p displayPrices) PriceAsOf(ticker string, date time.Time) (decimal.Decimal, error) {
	price, err := p.prices.PriceAsOf(ticker, date)
	if err != nil {
		return decimal.Zero, err
	}
	return price.Mul(p.rate), nil
}

// displayHighs quotes base currency all-time highs in the display currency of a run
type displayHighs struct {
	highs condition.HighLookup
	rate  decimal.Decimal
}

func (h displayHighs) HighAsOf(ticker string, date time.Time) (decimal.Decimal, error) {
	high, err := h.highs.HighAsOf(ticker, date)
	if err != nil {
		return decimal.Zero, err
	}
	return high.Mul(h.rate), nil
}

// inDisplayCurrency wraps the lookups of a run so every quote is multiplied by rate.
// A nil highs stays nil.
func inDisplayCurrency(prices condition.PriceLookup, highs condition.HighLookup, rate decimal.Decimal) (condition.PriceLookup, condition.HighLookup) {
	prices = displayPrices{prices: prices, rate: rate}
	if highs != nil {
		highs = displayHighs{highs: highs, rate: rate}
	}
	return prices, highs
}
