package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RuleKind represents the kind of conditional allocation rule
type RuleKind string

const (
	RuleKindExactPrice       RuleKind = "EXACT_PRICE"
	RuleKindDrawdownFromHigh RuleKind = "DRAWDOWN_FROM_HIGH"
)

// Comparison is the direction of an EXACT_PRICE rule
type Comparison string

const (
	ComparisonAtOrAbove Comparison = "AT_OR_ABOVE"
	ComparisonAtOrBelow Comparison = "AT_OR_BELOW"
)

// AllocationRule routes a month's whole contribution to Ticker when its condition holds.
// Only the fields relevant to Kind are set; use NewExactPriceRule or NewDrawdownRule.
type AllocationRule struct {
	Ticker     string
	Kind       RuleKind
	Threshold  decimal.Decimal // target price for EXACT_PRICE, percent drop for DRAWDOWN_FROM_HIGH
	Comparison Comparison      // EXACT_PRICE only
	Priority   *int            // nil places the rule in the residual group, which never triggers
}

// NewExactPriceRule builds a validated EXACT_PRICE rule
func NewExactPriceRule(ticker string, comparison Comparison, target decimal.Decimal, priority *int) (AllocationRule, error) {
	rule := AllocationRule{
		Ticker:     ticker,
		Kind:       RuleKindExactPrice,
		Threshold:  target,
		Comparison: comparison,
		Priority:   priority,
	}
	return rule, rule.Validate()
}

// NewDrawdownRule builds a validated DRAWDOWN_FROM_HIGH rule.
// dropPercent of 20 means "at least 20% below the all-time high".
func NewDrawdownRule(ticker string, dropPercent decimal.Decimal, priority *int) (AllocationRule, error) {
	rule := AllocationRule{
		Ticker:    ticker,
		Kind:      RuleKindDrawdownFromHigh,
		Threshold: dropPercent,
		Priority:  priority,
	}
	return rule, rule.Validate()
}

// Validate ensures the rule is one of the supported variants
func (r AllocationRule) Validate() error {
	if r.Ticker == "" {
		return invalidConfig("rule ticker cannot be empty")
	}

	if r.Priority != nil && *r.Priority < 1 {
		return invalidConfig("rule priority must be a positive integer, got %d", *r.Priority)
	}

	switch r.Kind {
	case RuleKindExactPrice:
		if r.Comparison != ComparisonAtOrAbove && r.Comparison != ComparisonAtOrBelow {
			return invalidConfig("unsupported comparison %q for %s rule on %s", r.Comparison, r.Kind, r.Ticker)
		}
	case RuleKindDrawdownFromHigh:
		if r.Comparison != "" {
			return invalidConfig("comparison is not allowed on %s rule for %s", r.Kind, r.Ticker)
		}
	default:
		return invalidConfig("unsupported rule kind %q", r.Kind)
	}

	return nil
}

// HasPriority reports whether the rule belongs to a priority group
func (r AllocationRule) HasPriority() bool {
	return r.Priority != nil
}

// Describe returns a short human readable label for the rule
func (r AllocationRule) Describe() string {
	var cond string
	switch r.Kind {
	case RuleKindExactPrice:
		op := ">="
		if r.Comparison == ComparisonAtOrBelow {
			op = "<="
		}
		cond = fmt.Sprintf("%s %s %s", r.Ticker, op, r.Threshold)
	case RuleKindDrawdownFromHigh:
		cond = fmt.Sprintf("%s %s%% below high", r.Ticker, r.Threshold)
	default:
		cond = r.Ticker
	}
	if r.Priority == nil {
		return cond
	}
	return fmt.Sprintf("%s (priority %d)", cond, *r.Priority)
}

// Priority is a convenience for building optional rule priorities
func Priority(p int) *int {
	return &p
}
