// Package scenario converts user supplied simulation scenarios (JSON or YAML)
// into validated domain configurations, and results back into transport shapes.
package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/simaogato/dcaflow-backend/internal/domain"
)

// BaseCurrency is the currency prices are quoted in
const BaseCurrency = "USD"

// Request is a simulation scenario as entered by a user
type Request struct {
	PrimaryTicker            string          `json:"primary_ticker" yaml:"primary_ticker"`
	SecondaryTicker          string          `json:"secondary_ticker,omitempty" yaml:"secondary_ticker"`
	InitialCash              decimal.Decimal `json:"initial_cash" yaml:"initial_cash"`
	MonthlyPrimary           decimal.Decimal `json:"monthly_primary" yaml:"monthly_primary"`
	MonthlySecondary         decimal.Decimal `json:"monthly_secondary" yaml:"monthly_secondary"`
	StartDate                string          `json:"start_date" yaml:"start_date"`
	EndDate                  string          `json:"end_date" yaml:"end_date"`
	ContributionPolicy       string          `json:"contribution_policy,omitempty" yaml:"contribution_policy"`
	Currency                 string          `json:"currency,omitempty" yaml:"currency"`
	ExchangeRate             decimal.Decimal `json:"exchange_rate" yaml:"exchange_rate"`
	AmountsInDisplayCurrency bool            `json:"amounts_in_display_currency,omitempty" yaml:"amounts_in_display_currency"`
	Rules                    []RuleRequest   `json:"rules,omitempty" yaml:"rules"`
	RefreshPrices            bool            `json:"refresh_prices,omitempty" yaml:"refresh_prices"`
}

// RuleRequest is one conditional allocation rule as entered by a user
type RuleRequest struct {
	Ticker     string          `json:"ticker" yaml:"ticker"`
	Kind       string          `json:"kind" yaml:"kind"`
	Comparison string          `json:"comparison,omitempty" yaml:"comparison"`
	Threshold  decimal.Decimal `json:"threshold" yaml:"threshold"`
	Priority   *int            `json:"priority,omitempty" yaml:"priority"` // null leaves the rule residual
}

var ruleKinds = map[string]domain.RuleKind{
	"EXACT_PRICE":        domain.RuleKindExactPrice,
	"EXACT":              domain.RuleKindExactPrice,
	"SPECIFIC":           domain.RuleKindExactPrice,
	"DRAWDOWN_FROM_HIGH": domain.RuleKindDrawdownFromHigh,
	"DRAWDOWN":           domain.RuleKindDrawdownFromHigh,
	"HIGH":               domain.RuleKindDrawdownFromHigh,
}

var comparisons = map[string]domain.Comparison{
	"AT_OR_ABOVE": domain.ComparisonAtOrAbove,
	"ABOVE":       domain.ComparisonAtOrAbove,
	"AT_OR_BELOW": domain.ComparisonAtOrBelow,
	"BELOW":       domain.ComparisonAtOrBelow,
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ToConfig parses and validates the request
// Returns an error wrapping domain.ErrInvalidConfig on any invalid field
func (r *Request) ToConfig() (domain.SimulationConfig, error) {
	start, err := domain.ParseDate(r.StartDate)
	if err != nil {
		return domain.SimulationConfig{}, err
	}
	end, err := domain.ParseDate(r.EndDate)
	if err != nil {
		return domain.SimulationConfig{}, err
	}

	cfg := domain.SimulationConfig{
		PrimaryTicker:                normalize(r.PrimaryTicker),
		SecondaryTicker:              normalize(r.SecondaryTicker),
		InitialCash:                  r.InitialCash,
		MonthlyContributionPrimary:   r.MonthlyPrimary,
		MonthlyContributionSecondary: r.MonthlySecondary,
		StartDate:                    start,
		EndDate:                      end,
		Contribution:                 domain.ContributionPolicy(normalize(r.ContributionPolicy)),
		Currency:                     r.currency(),
	}

	for i, rr := range r.Rules {
		rule, err := rr.toRule()
		if err != nil {
			return domain.SimulationConfig{}, fmt.Errorf("rule %d: %w", i+1, err)
		}
		cfg.Rules = append(cfg.Rules, rule)
	}

	if err := cfg.Validate(); err != nil {
		return domain.SimulationConfig{}, err
	}
	return cfg, nil
}

func (r *Request) currency() domain.CurrencySpec {
	code := normalize(r.Currency)
	if code == "" || code == BaseCurrency {
		return domain.CurrencySpec{Mode: domain.CurrencyModeBase, Base: BaseCurrency}
	}
	return domain.CurrencySpec{
		Mode:             domain.CurrencyModeConverted,
		Base:             BaseCurrency,
		Code:             code,
		Rate:             r.ExchangeRate,
		AmountsInDisplay: r.AmountsInDisplayCurrency,
	}
}

func (rr RuleRequest) toRule() (domain.AllocationRule, error) {
	ticker := normalize(rr.Ticker)

	kind, ok := ruleKinds[normalize(rr.Kind)]
	if !ok {
		return domain.AllocationRule{}, fmt.Errorf("%w: unsupported rule kind %q", domain.ErrInvalidConfig, rr.Kind)
	}

	if kind == domain.RuleKindDrawdownFromHigh {
		return domain.NewDrawdownRule(ticker, rr.Threshold, rr.Priority)
	}

	cmp, ok := comparisons[normalize(rr.Comparison)]
	if !ok {
		return domain.AllocationRule{}, fmt.Errorf("%w: unsupported comparison %q", domain.ErrInvalidConfig, rr.Comparison)
	}
	return domain.NewExactPriceRule(ticker, cmp, rr.Threshold, rr.Priority)
}

// DecodeJSON reads a JSON scenario
func DecodeJSON(r io.Reader) (*Request, error) {
	var req Request
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: malformed scenario: %v", domain.ErrInvalidConfig, err)
	}
	return &req, nil
}

// DecodeYAML reads a YAML scenario
func DecodeYAML(r io.Reader) (*Request, error) {
	var req Request
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: malformed scenario: %v", domain.ErrInvalidConfig, err)
	}
	return &req, nil
}

// LoadFile reads a scenario file; .json files are JSON, everything else YAML
func LoadFile(path string) (*Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return DecodeJSON(f)
	}
	return DecodeYAML(f)
}
