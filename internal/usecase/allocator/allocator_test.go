package allocator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/dcaflow-backend/internal/domain"
	"github.com/simaogato/dcaflow-backend/internal/usecase/pricebook"
)

// MockEvaluator is a mock implementation of Evaluator for testing
type MockEvaluator struct {
	mock.Mock
}

func (m *MockEvaluator) Evaluate(rule domain.AllocationRule, date time.Time) bool {
	args := m.Called(rule.Ticker, date)
	return args.Bool(0)
}

var day = domain.NewDate(2024, time.January, 1)

func exactRule(ticker string, priority *int) domain.AllocationRule {
	return domain.AllocationRule{
		Ticker:     ticker,
		Kind:       domain.RuleKindExactPrice,
		Threshold:  decimal.NewFromInt(1),
		Comparison: domain.ComparisonAtOrAbove,
		Priority:   priority,
	}
}

func prices(closes map[string]int64) *pricebook.Book {
	var pts []domain.PricePoint
	for ticker, c := range closes {
		pts = append(pts, domain.PricePoint{Ticker: ticker, Date: day, Close: decimal.NewFromInt(c)})
	}
	return pricebook.NewBook(pts...)
}

func TestNewPolicy_GroupsByPriority(t *testing.T) {
	cfg := &domain.SimulationConfig{
		PrimaryTicker: "AAA",
		Rules: []domain.AllocationRule{
			exactRule("R3", domain.Priority(3)),
			exactRule("N1", nil),
			exactRule("R1a", domain.Priority(1)),
			exactRule("R1b", domain.Priority(1)),
		},
	}

	policy := NewPolicy(cfg, new(MockEvaluator), prices(nil))

	groups := policy.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, 1, groups[0].Priority)
	assert.Equal(t, "R1a", groups[0].Rules[0].Ticker)
	assert.Equal(t, "R1b", groups[0].Rules[1].Ticker)
	assert.Equal(t, 3, groups[1].Priority)
	require.Len(t, policy.Residual(), 1)
	assert.Equal(t, "N1", policy.Residual()[0].Ticker)
}

func TestSelect_LowerPriorityNumberWinsRegardlessOfOrder(t *testing.T) {
	eval := new(MockEvaluator)
	eval.On("Evaluate", "HIGH", day).Return(true)
	eval.On("Evaluate", "LOW", day).Return(true)

	cfg := &domain.SimulationConfig{
		PrimaryTicker: "AAA",
		Rules:         []domain.AllocationRule{exactRule("LOW", domain.Priority(2)), exactRule("HIGH", domain.Priority(1))},
	}

	rule, ok := NewPolicy(cfg, eval, prices(nil)).Select(day)

	require.True(t, ok)
	assert.Equal(t, "HIGH", rule.Ticker)
	eval.AssertNotCalled(t, "Evaluate", "LOW", day)
}

func TestSelect_FirstTrueWinsWithinGroup(t *testing.T) {
	eval := new(MockEvaluator)
	eval.On("Evaluate", "FIRST", day).Return(false)
	eval.On("Evaluate", "SECOND", day).Return(true)
	eval.On("Evaluate", "THIRD", day).Return(true)

	cfg := &domain.SimulationConfig{
		PrimaryTicker: "AAA",
		Rules: []domain.AllocationRule{
			exactRule("FIRST", domain.Priority(1)),
			exactRule("SECOND", domain.Priority(1)),
			exactRule("THIRD", domain.Priority(1)),
		},
	}

	rule, ok := NewPolicy(cfg, eval, prices(nil)).Select(day)

	require.True(t, ok)
	assert.Equal(t, "SECOND", rule.Ticker)
	eval.AssertNotCalled(t, "Evaluate", "THIRD", day)
}

func TestSelect_ResidualRulesNeverTrigger(t *testing.T) {
	eval := new(MockEvaluator)
	cfg := &domain.SimulationConfig{
		PrimaryTicker: "AAA",
		Rules:         []domain.AllocationRule{exactRule("BBB", nil)},
	}

	_, ok := NewPolicy(cfg, eval, prices(nil)).Select(day)

	assert.False(t, ok)
	eval.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything)
}

func TestDecide_TriggeredRuleGetsAllCash(t *testing.T) {
	eval := new(MockEvaluator)
	eval.On("Evaluate", "BBB", day).Return(true)
	cfg := &domain.SimulationConfig{
		PrimaryTicker:              "AAA",
		MonthlyContributionPrimary: decimal.NewFromInt(200),
		Rules:                      []domain.AllocationRule{exactRule("BBB", domain.Priority(1))},
	}

	decision := NewPolicy(cfg, eval, prices(map[string]int64{"AAA": 10, "BBB": 40})).Decide(day, decimal.NewFromInt(1000))
	require.NotNil(t, decision.Rule)
	require.Len(t, decision.Purchases, 1)
	assert.Equal(t, "BBB", decision.Purchases[0].Ticker)
	assert.Equal(t, int64(25), decision.Purchases[0].Shares)
	assert.True(t, decision.Purchases[0].Cost.Equal(decimal.NewFromInt(1000)))
}

func TestDecide_TriggeredRuleThatCannotAffordAShareSkipsDefault(t *testing.T) {
	eval := new(MockEvaluator)
	eval.On("Evaluate", "BBB", day).Return(true)
	cfg := &domain.SimulationConfig{
		PrimaryTicker:              "AAA",
		MonthlyContributionPrimary: decimal.NewFromInt(200),
		Rules:                      []domain.AllocationRule{exactRule("BBB", domain.Priority(1))},
	}

	decision := NewPolicy(cfg, eval, prices(map[string]int64{"AAA": 10, "BBB": 5000})).Decide(day, decimal.NewFromInt(1000))
	assert.NotNil(t, decision.Rule)
	assert.Empty(t, decision.Purchases)
}

func TestDecide_DefaultSplitProportionalThenRemainder(t *testing.T) {
	// Input: 1000 cash, monthly 300 primary / 100 secondary
	// Primary budget: 1000 * 300/400 = 750 -> 7 shares at 100 = 700
	// Secondary: remaining 300 -> 6 shares at 50
	cfg := &domain.SimulationConfig{
		PrimaryTicker:                "AAA",
		SecondaryTicker:              "BBB",
		MonthlyContributionPrimary:   decimal.NewFromInt(300),
		MonthlyContributionSecondary: decimal.NewFromInt(100),
	}

	decision := NewPolicy(cfg, new(MockEvaluator), prices(map[string]int64{"AAA": 100, "BBB": 50})).Decide(day, decimal.NewFromInt(1000))
	assert.Nil(t, decision.Rule)
	require.Len(t, decision.Purchases, 2)
	assert.Equal(t, "AAA", decision.Purchases[0].Ticker)
	assert.Equal(t, int64(7), decision.Purchases[0].Shares)
	assert.Equal(t, "BBB", decision.Purchases[1].Ticker)
	assert.Equal(t, int64(6), decision.Purchases[1].Shares)
}

func TestDecide_MissingPrimaryPriceLeavesCashForSecondary(t *testing.T) {
	cfg := &domain.SimulationConfig{
		PrimaryTicker:                "AAA",
		SecondaryTicker:              "BBB",
		MonthlyContributionPrimary:   decimal.NewFromInt(100),
		MonthlyContributionSecondary: decimal.NewFromInt(100),
	}

	decision := NewPolicy(cfg, new(MockEvaluator), prices(map[string]int64{"BBB": 30})).Decide(day, decimal.NewFromInt(100))
	require.Len(t, decision.Purchases, 1)
	assert.Equal(t, "BBB", decision.Purchases[0].Ticker)
	assert.Equal(t, int64(3), decision.Purchases[0].Shares)
}

func TestDecide_ZeroMonthlyContributionSkipsDefault(t *testing.T) {
	cfg := &domain.SimulationConfig{PrimaryTicker: "AAA"}

	decision := NewPolicy(cfg, new(MockEvaluator), prices(map[string]int64{"AAA": 10})).Decide(day, decimal.NewFromInt(1000))
	assert.Empty(t, decision.Purchases)
}

func TestDecide_NeverSpendsMoreThanCash(t *testing.T) {
	cfg := &domain.SimulationConfig{
		PrimaryTicker:                "AAA",
		SecondaryTicker:              "BBB",
		MonthlyContributionPrimary:   decimal.RequireFromString("333.33"),
		MonthlyContributionSecondary: decimal.RequireFromString("66.67"),
	}
	policy := NewPolicy(cfg, new(MockEvaluator), prices(map[string]int64{"AAA": 7, "BBB": 3}))

	for _, cash := range []string{"0", "2.99", "9.99", "10", "123.45", "1000.01", "99999.99"} {
		available := decimal.RequireFromString(cash)
		spent := decimal.Zero
		for _, buy := range policy.Decide(day, available).Purchases {
			spent = spent.Add(buy.Cost)
		}
		assert.True(t, spent.LessThanOrEqual(available), "cash %s spent %s", cash, spent)
	}
}

func TestPrimaryBudget(t *testing.T) {
	assert.True(t, PrimaryBudget(decimal.NewFromInt(1200), decimal.NewFromInt(200), decimal.Zero).Equal(decimal.NewFromInt(1200)))
	assert.True(t, PrimaryBudget(decimal.NewFromInt(1000), decimal.Zero, decimal.Zero).IsZero())
}

func TestWholeShares(t *testing.T) {
	tests := []struct {
		name     string
		cash     string
		price    string
		expected int64
	}{
		{"exact multiple", "1200", "100", 12},
		{"floors fraction", "290", "90", 3},
		{"cash below price", "99.99", "100", 0},
		{"zero price", "100", "0", 0},
		{"negative cash", "-5", "1", 0},
		{"fractional price", "10", "0.3", 33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WholeShares(decimal.RequireFromString(tt.cash), decimal.RequireFromString(tt.price))
			assert.Equal(t, tt.expected, got)
		})
	}
}
