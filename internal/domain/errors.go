package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPriceNotFound is returned when a ticker has no price at or before the queried date.
	// Callers treat it as "no purchase possible" or "unvalued holding", never as fatal.
	ErrPriceNotFound = errors.New("price not found")

	// ErrInvalidConfig is returned before any simulation step runs when the
	// configuration cannot be simulated.
	ErrInvalidConfig = errors.New("invalid config")
)

func invalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
