package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContributionPolicy decides whether the first investment period receives a contribution
type ContributionPolicy string

const (
	// ContributionEveryPeriod adds the monthly contribution in every period, the first included
	ContributionEveryPeriod ContributionPolicy = "EVERY_PERIOD"
	// ContributionSkipFirstPeriod invests only the initial cash in the first period
	ContributionSkipFirstPeriod ContributionPolicy = "SKIP_FIRST_PERIOD"
)

// CurrencyMode selects how amounts are displayed
type CurrencyMode string

const (
	CurrencyModeBase      CurrencyMode = "BASE"
	CurrencyModeConverted CurrencyMode = "CONVERTED"
)

// CurrencySpec describes the presentation currency of a run.
// The engine never applies it. With AmountsInDisplay the simulation service quotes
// prices in Code for the run; otherwise only the presentation layer converts.
type CurrencySpec struct {
	Mode             CurrencyMode
	Base             string          // ISO code prices are quoted in, e.g. USD
	Code             string          // ISO code for CONVERTED display, e.g. KRW
	Rate             decimal.Decimal // units of Code per one unit of Base
	AmountsInDisplay bool            // cash, contributions and price thresholds are in Code
}

// RunsInDisplay reports whether the run is carried out in display currency units
func (c CurrencySpec) RunsInDisplay() bool {
	return c.Mode == CurrencyModeConverted && c.AmountsInDisplay
}

// Validate ensures a converted currency carries a usable rate
func (c CurrencySpec) Validate() error {
	switch c.Mode {
	case "", CurrencyModeBase:
		if c.AmountsInDisplay {
			return invalidConfig("amounts in display currency need a converted currency")
		}
		return nil
	case CurrencyModeConverted:
		if c.Code == "" {
			return invalidConfig("converted currency needs a currency code")
		}
		if c.Rate.LessThanOrEqual(decimal.Zero) {
			return invalidConfig("exchange rate must be positive, got %s", c.Rate)
		}
		return nil
	default:
		return invalidConfig("unsupported currency mode %q", c.Mode)
	}
}

// SimulationConfig is the fully parsed input of one simulation run
type SimulationConfig struct {
	PrimaryTicker                string
	SecondaryTicker              string // empty when only one ticker is simulated
	InitialCash                  decimal.Decimal
	MonthlyContributionPrimary   decimal.Decimal
	MonthlyContributionSecondary decimal.Decimal
	StartDate                    time.Time
	EndDate                      time.Time
	Rules                        []AllocationRule
	Currency                     CurrencySpec
	Contribution                 ContributionPolicy
}

// Validate ensures the configuration can be simulated
// Returns an error wrapping ErrInvalidConfig if validation fails
func (c *SimulationConfig) Validate() error {
	if c.PrimaryTicker == "" {
		return invalidConfig("primary ticker cannot be empty")
	}
	if c.SecondaryTicker != "" && c.SecondaryTicker == c.PrimaryTicker {
		return invalidConfig("secondary ticker must differ from primary ticker %s", c.PrimaryTicker)
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return invalidConfig("start and end dates are required")
	}
	if c.StartDate.After(c.EndDate) {
		return invalidConfig("start date %s is after end date %s", FormatDate(c.StartDate), FormatDate(c.EndDate))
	}
	if c.InitialCash.IsNegative() {
		return invalidConfig("initial cash cannot be negative")
	}
	if c.MonthlyContributionPrimary.IsNegative() || c.MonthlyContributionSecondary.IsNegative() {
		return invalidConfig("monthly contributions cannot be negative")
	}
	if c.SecondaryTicker == "" && !c.MonthlyContributionSecondary.IsZero() {
		return invalidConfig("secondary contribution requires a secondary ticker")
	}

	switch c.Contribution {
	case "", ContributionEveryPeriod, ContributionSkipFirstPeriod:
	default:
		return invalidConfig("unsupported contribution policy %q", c.Contribution)
	}

	for i := range c.Rules {
		if err := c.Rules[i].Validate(); err != nil {
			return err
		}
	}

	return c.Currency.Validate()
}

// MonthlyContribution is the combined monthly amount added to cash
func (c *SimulationConfig) MonthlyContribution() decimal.Decimal {
	return c.MonthlyContributionPrimary.Add(c.MonthlyContributionSecondary)
}

// Tickers returns every ticker referenced by the config, primary first, without duplicates
func (c *SimulationConfig) Tickers() []string {
	tickers := []string{c.PrimaryTicker}
	if c.SecondaryTicker != "" {
		tickers = append(tickers, c.SecondaryTicker)
	}
	for _, rule := range c.Rules {
		if !slices.Contains(tickers, rule.Ticker) {
			tickers = append(tickers, rule.Ticker)
		}
	}
	return tickers
}

// DrawdownTickers returns the tickers that need all-time-high tracking.
// Residual rules without a priority are included.
func (c *SimulationConfig) DrawdownTickers() []string {
	var tickers []string
	for _, rule := range c.Rules {
		if rule.Kind == RuleKindDrawdownFromHigh && !slices.Contains(tickers, rule.Ticker) {
			tickers = append(tickers, rule.Ticker)
		}
	}
	return tickers
}

// PurchaseRecord is one executed purchase event
type PurchaseRecord struct {
	Date            time.Time
	Ticker          string
	PricePerShare   decimal.Decimal
	SharesBought    int64
	SharesHeldAfter int64
	CashBefore      decimal.Decimal
	CashAfter       decimal.Decimal
	AmountSpent     decimal.Decimal
	Rule            *AllocationRule // nil for a default allocation purchase
}

// TickerBreakdown is the final position of one ticker
type TickerBreakdown struct {
	Shares int64
	Price  decimal.Decimal // close at or before the end date, zero when unknown
	Value  decimal.Decimal
	Valued bool // false when no price was known at the end date
}

// SimulationResult is the output of one completed run
type SimulationResult struct {
	RunID                 uuid.UUID
	Records               []PurchaseRecord
	Periods               int
	FinalHoldingsValue    decimal.Decimal
	FinalCash             decimal.Decimal
	FinalTotalAssets      decimal.Decimal
	FinalTotalContributed decimal.Decimal
	FinalProfitAmount     decimal.Decimal
	FinalProfitRate       decimal.Decimal // percent
	Breakdown             map[string]TickerBreakdown
}

// BreakdownTickers returns the breakdown keys in a stable order
func (r *SimulationResult) BreakdownTickers() []string {
	tickers := make([]string, 0, len(r.Breakdown))
	for t := range r.Breakdown {
		tickers = append(tickers, t)
	}
	slices.Sort(tickers)
	return tickers
}
