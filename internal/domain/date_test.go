package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvestmentDate(t *testing.T) {
	tests := []struct {
		name     string
		current  time.Time
		day      int
		expected time.Time
	}{
		{"day kept when valid", NewDate(2024, time.March, 1), 15, NewDate(2024, time.March, 15)},
		{"day capped at 28", NewDate(2024, time.January, 1), 31, NewDate(2024, time.January, 28)},
		{"february of leap year", NewDate(2024, time.February, 1), 30, NewDate(2024, time.February, 28)},
		{"first of month", NewDate(2023, time.December, 1), 1, NewDate(2023, time.December, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, InvestmentDate(tt.current, tt.day))
		})
	}
}

func TestFirstOfNextMonth_RollsYear(t *testing.T) {
	assert.Equal(t, NewDate(2025, time.January, 1), FirstOfNextMonth(NewDate(2024, time.December, 28)))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.February, 29), d)

	_, err = ParseDate("2024/02/29")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
