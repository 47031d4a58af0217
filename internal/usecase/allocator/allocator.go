package allocator

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/dcaflow-backend/internal/domain"
)

// Evaluator decides whether a rule holds on a date
type Evaluator interface {
	Evaluate(rule domain.AllocationRule, date time.Time) bool
}

// PriceLookup resolves the latest close at or before a date
type PriceLookup interface {
	PriceAsOf(ticker string, date time.Time) (decimal.Decimal, error)
}

// Group is a set of rules sharing one priority number, in configured order
type Group struct {
	Priority int
	Rules    []domain.AllocationRule
}

// Leg is one ticker of the default allocation with its monthly amount
type Leg struct {
	Ticker  string
	Monthly decimal.Decimal
}

// Purchase is a planned whole-share buy
type Purchase struct {
	Ticker string
	Price  decimal.Decimal
	Shares int64
	Cost   decimal.Decimal
}

// Decision is the outcome of the policy for one investment date
type Decision struct {
	Rule      *domain.AllocationRule // the triggered rule, nil when the default allocation applied
	Purchases []Purchase
}

// Policy decides which tickers receive a month's cash
type Policy struct {
	evaluator Evaluator
	prices    PriceLookup
	primary   Leg
	secondary Leg
	groups    []Group
	residual  []domain.AllocationRule
}

// NewPolicy partitions the configured rules into priority groups
// Logic:
//  1. Rules with a priority are grouped by priority number, groups sorted ascending (Lower = First)
//  2. Inside a group, rules keep their configured order
//  3. Rules without a priority form the residual group and never trigger an allocation
func NewPolicy(cfg *domain.SimulationConfig, evaluator Evaluator, prices PriceLookup) *Policy {
	p := &Policy{
		evaluator: evaluator,
		prices:    prices,
		primary:   Leg{Ticker: cfg.PrimaryTicker, Monthly: cfg.MonthlyContributionPrimary},
		secondary: Leg{Ticker: cfg.SecondaryTicker, Monthly: cfg.MonthlyContributionSecondary},
	}

	byPriority := make(map[int]int)
	for _, rule := range cfg.Rules {
		if rule.Priority == nil {
			p.residual = append(p.residual, rule)
			continue
		}
		idx, ok := byPriority[*rule.Priority]
		if !ok {
			idx = len(p.groups)
			byPriority[*rule.Priority] = idx
			p.groups = append(p.groups, Group{Priority: *rule.Priority})
		}
		p.groups[idx].Rules = append(p.groups[idx].Rules, rule)
	}

	sort.SliceStable(p.groups, func(i, j int) bool {
		return p.groups[i].Priority < p.groups[j].Priority
	})

	return p
}

// Groups returns the priority groups in evaluation order
func (p *Policy) Groups() []Group {
	return p.groups
}

// Residual returns the rules without a priority
func (p *Policy) Residual() []domain.AllocationRule {
	return p.residual
}

// Select returns the first rule that holds on date, scanning groups by ascending priority
func (p *Policy) Select(date time.Time) (*domain.AllocationRule, bool) {
	for _, group := range p.groups {
		for i := range group.Rules {
			if p.evaluator.Evaluate(group.Rules[i], date) {
				rule := group.Rules[i]
				return &rule, true
			}
		}
	}
	return nil, false
}

// Decide plans the purchases for date with the available cash
// A triggered rule receives all the cash even when it cannot afford a single share;
// the default allocation only runs when no rule triggers.
// Every purchase is floored to whole shares within its budget, so the planned
// spending never exceeds cash.
func (p *Policy) Decide(date time.Time, cash decimal.Decimal) Decision {
	var decision Decision

	if rule, ok := p.Select(date); ok {
		decision.Rule = rule
		if buy, ok := p.buy(rule.Ticker, date, cash); ok {
			decision.Purchases = append(decision.Purchases, buy)
		}
	} else {
		decision.Purchases = p.defaultAllocation(date, cash)
	}

	return decision
}

// defaultAllocation buys the primary ticker with its share of the cash,
// then the secondary ticker with whatever cash remains
func (p *Policy) defaultAllocation(date time.Time, cash decimal.Decimal) []Purchase {
	var purchases []Purchase
	remaining := cash

	if p.primary.Ticker != "" && p.primary.Monthly.GreaterThan(decimal.Zero) {
		budget := PrimaryBudget(remaining, p.primary.Monthly, p.secondary.Monthly)
		if buy, ok := p.buy(p.primary.Ticker, date, budget); ok {
			purchases = append(purchases, buy)
			remaining = remaining.Sub(buy.Cost)
		}
	}

	if p.secondary.Ticker != "" && p.secondary.Monthly.GreaterThan(decimal.Zero) && remaining.GreaterThan(decimal.Zero) {
		if buy, ok := p.buy(p.secondary.Ticker, date, remaining); ok {
			purchases = append(purchases, buy)
		}
	}

	return purchases
}

// buy plans the largest whole-share purchase of ticker within budget
func (p *Policy) buy(ticker string, date time.Time, budget decimal.Decimal) (Purchase, bool) {
	price, err := p.prices.PriceAsOf(ticker, date)
	if err != nil {
		return Purchase{}, false
	}
	shares := WholeShares(budget, price)
	if shares == 0 {
		return Purchase{}, false
	}
	return Purchase{
		Ticker: ticker,
		Price:  price,
		Shares: shares,
		Cost:   price.Mul(decimal.NewFromInt(shares)),
	}, true
}

// PrimaryBudget is cash * primary / (primary + secondary), 0 when both monthly amounts are zero
func PrimaryBudget(cash, primary, secondary decimal.Decimal) decimal.Decimal {
	total := primary.Add(secondary)
	if total.IsZero() {
		return decimal.Zero
	}
	return cash.Mul(primary).Div(total)
}

// WholeShares returns floor(cash / price), or 0 when either is not positive
func WholeShares(cash, price decimal.Decimal) int64 {
	if price.LessThanOrEqual(decimal.Zero) || cash.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	q, _ := cash.QuoRem(price, 0)
	return q.IntPart()
}
