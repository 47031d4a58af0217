package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocationRule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rule    AllocationRule
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid exact price rule",
			rule: AllocationRule{
				Ticker:     "QQQ",
				Kind:       RuleKindExactPrice,
				Threshold:  decimal.NewFromInt(300),
				Comparison: ComparisonAtOrBelow,
				Priority:   Priority(1),
			},
			wantErr: false,
		},
		{
			name: "valid drawdown rule without priority",
			rule: AllocationRule{
				Ticker:    "SPY",
				Kind:      RuleKindDrawdownFromHigh,
				Threshold: decimal.NewFromInt(20),
			},
			wantErr: false,
		},
		{
			name: "empty ticker",
			rule: AllocationRule{
				Kind:       RuleKindExactPrice,
				Threshold:  decimal.NewFromInt(10),
				Comparison: ComparisonAtOrAbove,
			},
			wantErr: true,
			errMsg:  "rule ticker cannot be empty",
		},
		{
			name: "unsupported kind",
			rule: AllocationRule{
				Ticker:    "SPY",
				Kind:      "MOVING_AVERAGE",
				Threshold: decimal.NewFromInt(10),
			},
			wantErr: true,
			errMsg:  "unsupported rule kind",
		},
		{
			name: "unsupported comparison",
			rule: AllocationRule{
				Ticker:     "SPY",
				Kind:       RuleKindExactPrice,
				Threshold:  decimal.NewFromInt(10),
				Comparison: "BETWEEN",
			},
			wantErr: true,
			errMsg:  "unsupported comparison",
		},
		{
			name: "drawdown rule with comparison",
			rule: AllocationRule{
				Ticker:     "SPY",
				Kind:       RuleKindDrawdownFromHigh,
				Threshold:  decimal.NewFromInt(10),
				Comparison: ComparisonAtOrBelow,
			},
			wantErr: true,
			errMsg:  "comparison is not allowed",
		},
		{
			name: "drawdown percent of 100 is accepted",
			rule: AllocationRule{
				Ticker:    "SPY",
				Kind:      RuleKindDrawdownFromHigh,
				Threshold: decimal.NewFromInt(100),
			},
			wantErr: false,
		},
		{
			name: "zero target price is accepted",
			rule: AllocationRule{
				Ticker:     "SPY",
				Kind:       RuleKindExactPrice,
				Threshold:  decimal.Zero,
				Comparison: ComparisonAtOrAbove,
			},
			wantErr: false,
		},
		{
			name: "zero priority",
			rule: AllocationRule{
				Ticker:     "SPY",
				Kind:       RuleKindExactPrice,
				Threshold:  decimal.NewFromInt(10),
				Comparison: ComparisonAtOrAbove,
				Priority:   Priority(0),
			},
			wantErr: true,
			errMsg:  "positive integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewDrawdownRule(t *testing.T) {
	rule, err := NewDrawdownRule("BBB", decimal.NewFromInt(20), Priority(2))
	require.NoError(t, err)

	assert.Equal(t, RuleKindDrawdownFromHigh, rule.Kind)
	assert.Empty(t, rule.Comparison)
	assert.True(t, rule.HasPriority())
	assert.Equal(t, "BBB 20% below high (priority 2)", rule.Describe())
}

func TestNewExactPriceRule_RejectsNonPositiveTarget(t *testing.T) {
	_, err := NewExactPriceRule("AAA", ComparisonAtOrAbove, decimal.Zero, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
