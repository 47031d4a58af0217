package condition

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/dcaflow-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// PriceLookup resolves the latest close at or before a date
type PriceLookup interface {
	PriceAsOf(ticker string, date time.Time) (decimal.Decimal, error)
}

// HighLookup resolves the latest all-time high at or before a date
type HighLookup interface {
	HighAsOf(ticker string, date time.Time) (decimal.Decimal, error)
}

// Evaluator decides whether an allocation rule holds on a date.
// Evaluation never mutates state; rules on the same date are independent.
type Evaluator struct {
	Prices PriceLookup
	Highs  HighLookup
}

// NewEvaluator creates a new Evaluator
func NewEvaluator(prices PriceLookup, highs HighLookup) *Evaluator {
	return &Evaluator{
		Prices: prices,
		Highs:  highs,
	}
}

// Evaluate reports whether rule holds on date
// Logic:
//   - EXACT_PRICE: AT_OR_ABOVE holds when price >= threshold, AT_OR_BELOW when price <= threshold
//   - DRAWDOWN_FROM_HIGH: holds when price <= high * (100 - threshold) / 100
//
// Any unknown price or high makes the rule false.
func (e *Evaluator) Evaluate(rule domain.AllocationRule, date time.Time) bool {
	price, err := e.Prices.PriceAsOf(rule.Ticker, date)
	if err != nil {
		return false
	}

	switch rule.Kind {
	case domain.RuleKindExactPrice:
		switch rule.Comparison {
		case domain.ComparisonAtOrAbove:
			return price.GreaterThanOrEqual(rule.Threshold)
		case domain.ComparisonAtOrBelow:
			return price.LessThanOrEqual(rule.Threshold)
		}
		return false

	case domain.RuleKindDrawdownFromHigh:
		if e.Highs == nil {
			return false
		}
		high, err := e.Highs.HighAsOf(rule.Ticker, date)
		if err != nil {
			return false
		}
		return price.LessThanOrEqual(DrawdownTarget(high, rule.Threshold))
	}

	return false
}

// DrawdownTarget is the price at which a drop of percent below high is reached
func DrawdownTarget(high, percent decimal.Decimal) decimal.Decimal {
	return high.Mul(hundred.Sub(percent)).Div(hundred)
}
