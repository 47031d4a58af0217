package simulation

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/dcaflow-backend/internal/domain"
	"github.com/simaogato/dcaflow-backend/internal/usecase/allocator"
	"github.com/simaogato/dcaflow-backend/internal/usecase/condition"
)

var hundred = decimal.NewFromInt(100)

// State is the lifecycle of an Engine
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NOT_STARTED"
	case StateRunning:
		return "RUNNING"
	case StateCompleted:
		return "COMPLETED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrAlreadyRun is returned when Run is called on an engine that left NotStarted
var ErrAlreadyRun = errors.New("simulation engine already run")

// Engine replays one DCA simulation month by month over a frozen price snapshot.
// An Engine runs exactly once; it is not safe for concurrent use.
type Engine struct {
	cfg    domain.SimulationConfig
	prices condition.PriceLookup
	policy *allocator.Policy
	state  State

	cash        decimal.Decimal
	contributed decimal.Decimal
	holdings    map[string]int64
	tickers     []string // holdings keys in first-seen order
	records     []domain.PurchaseRecord
	periods     int
}

// NewEngine validates cfg and prepares a run
// With a nil highs every DRAWDOWN_FROM_HIGH rule evaluates false
// Returns an error wrapping domain.ErrInvalidConfig before any step runs
func NewEngine(cfg domain.SimulationConfig, prices condition.PriceLookup, highs condition.HighLookup) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	evaluator := condition.NewEvaluator(prices, highs)
	return &Engine{
		cfg:    cfg,
		prices: prices,
		policy: allocator.NewPolicy(&cfg, evaluator, prices),
		state:  StateNotStarted,
	}, nil
}

// State returns the current lifecycle state
func (e *Engine) State() State {
	return e.state
}

// Run executes the whole simulation and returns its result
func (e *Engine) Run() (*domain.SimulationResult, error) {
	if e.state != StateNotStarted {
		return nil, ErrAlreadyRun
	}
	e.state = StateRunning
	e.initialize()

	configuredDay := e.cfg.StartDate.Day()
	monthly := e.cfg.MonthlyContribution()

	for current := domain.Day(e.cfg.StartDate); ; current = domain.FirstOfNextMonth(current) {
		date := domain.InvestmentDate(current, configuredDay)
		if date.After(e.cfg.EndDate) {
			break
		}

		if e.periods > 0 || e.cfg.Contribution != domain.ContributionSkipFirstPeriod {
			e.cash = e.cash.Add(monthly)
			e.contributed = e.contributed.Add(monthly)
		}

		decision := e.policy.Decide(date, e.cash)
		for _, buy := range decision.Purchases {
			e.execute(date, buy, decision.Rule)
		}

		e.periods++
	}

	result := e.valuate()
	e.state = StateCompleted
	return result, nil
}

func (e *Engine) initialize() {
	e.cash = e.cfg.InitialCash
	e.contributed = e.cfg.InitialCash
	e.holdings = make(map[string]int64)
	e.track(e.cfg.PrimaryTicker)
	if e.cfg.SecondaryTicker != "" {
		e.track(e.cfg.SecondaryTicker)
	}
}

func (e *Engine) track(ticker string) {
	if _, ok := e.holdings[ticker]; !ok {
		e.holdings[ticker] = 0
		e.tickers = append(e.tickers, ticker)
	}
}

func (e *Engine) execute(date time.Time, buy allocator.Purchase, rule *domain.AllocationRule) {
	e.track(buy.Ticker)

	before := e.cash
	e.cash = e.cash.Sub(buy.Cost)
	e.holdings[buy.Ticker] += buy.Shares

	e.records = append(e.records, domain.PurchaseRecord{
		Date:            date,
		Ticker:          buy.Ticker,
		PricePerShare:   buy.Price,
		SharesBought:    buy.Shares,
		SharesHeldAfter: e.holdings[buy.Ticker],
		CashBefore:      before,
		CashAfter:       e.cash,
		AmountSpent:     buy.Cost,
		Rule:            rule,
	})
}

// valuate prices every holding at the end date
// A holding without a known price is reported unvalued and contributes zero
func (e *Engine) valuate() *domain.SimulationResult {
	result := &domain.SimulationResult{
		RunID:                 uuid.New(),
		Records:               e.records,
		Periods:               e.periods,
		FinalHoldingsValue:    decimal.Zero,
		FinalCash:             e.cash,
		FinalTotalContributed: e.contributed,
		Breakdown:             make(map[string]domain.TickerBreakdown, len(e.tickers)),
	}

	for _, ticker := range e.tickers {
		shares := e.holdings[ticker]
		entry := domain.TickerBreakdown{Shares: shares, Value: decimal.Zero}

		if price, err := e.prices.PriceAsOf(ticker, e.cfg.EndDate); err == nil {
			entry.Price = price
			entry.Value = price.Mul(decimal.NewFromInt(shares))
			entry.Valued = true
			result.FinalHoldingsValue = result.FinalHoldingsValue.Add(entry.Value)
		}

		result.Breakdown[ticker] = entry
	}

	result.FinalTotalAssets = result.FinalHoldingsValue.Add(e.cash)
	result.FinalProfitAmount = result.FinalTotalAssets.Sub(e.contributed)
	result.FinalProfitRate = ProfitRate(result.FinalTotalAssets, e.contributed)

	return result
}

// ProfitRate is (assets - contributed) / contributed * 100, or 0 when nothing was contributed
func ProfitRate(assets, contributed decimal.Decimal) decimal.Decimal {
	if contributed.IsZero() {
		return decimal.Zero
	}
	return assets.Sub(contributed).Mul(hundred).Div(contributed)
}
