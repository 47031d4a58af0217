package presenter

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/simaogato/dcaflow-backend/internal/domain"
)

// Converter translates base currency amounts into the display currency at a fixed rate
type Converter struct {
	Base string
	Code string
	Rate decimal.Decimal // units of Code per unit of Base
}

// NewConverter builds the converter described by a run's currency spec.
// BASE mode converts at rate 1 into the base currency, and so does a run
// already carried out in display currency units.
func NewConverter(spec domain.CurrencySpec) Converter {
	base := spec.Base
	if base == "" {
		base = "USD"
	}
	if spec.Mode != domain.CurrencyModeConverted {
		return Converter{Base: base, Code: base, Rate: decimal.NewFromInt(1)}
	}
	if spec.RunsInDisplay() {
		code := strings.ToUpper(spec.Code)
		return Converter{Base: code, Code: code, Rate: decimal.NewFromInt(1)}
	}
	return Converter{Base: base, Code: strings.ToUpper(spec.Code), Rate: spec.Rate}
}

// ToDisplay converts a base currency amount into the display currency
func (c Converter) ToDisplay(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(c.Rate)
}

// Format renders a base currency amount in the display currency
func (c Converter) Format(amount decimal.Decimal) string {
	return FormatMoney(c.ToDisplay(amount), c.Code)
}

// FormatMoney renders amount with the symbol and fraction digits of the ISO currency code.
// Unknown codes fall back to the plain amount followed by the code.
func FormatMoney(amount decimal.Decimal, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return fmt.Sprintf("%s %s", amount.StringFixed(2), code)
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

var (
	man = decimal.NewFromInt(10_000)
	eok = decimal.NewFromInt(100_000_000)
)

// FormatKRWCompact renders won amounts in 억 and 만 units, e.g. ₩1.2억, ₩2940만, ₩9,999
func FormatKRWCompact(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-" + FormatKRWCompact(amount.Neg())
	}
	switch {
	case amount.IsZero():
		return "₩0"
	case amount.GreaterThanOrEqual(eok):
		return "₩" + amount.Div(eok).StringFixedBank(1) + "억"
	case amount.GreaterThanOrEqual(man):
		return "₩" + amount.Div(man).StringFixedBank(0) + "만"
	default:
		return FormatMoney(amount.RoundBank(0), "KRW")
	}
}

// FormatKRWDetail renders whole won exactly in 억 and 만 units, e.g. ₩1억2940만2140
func FormatKRWDetail(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-" + FormatKRWDetail(amount.Neg())
	}
	won := amount.IntPart()
	if won == 0 {
		return "₩0"
	}
	if won < 10_000 {
		return FormatMoney(decimal.NewFromInt(won), "KRW")
	}

	var b strings.Builder
	b.WriteString("₩")
	if e := won / 100_000_000; e > 0 {
		fmt.Fprintf(&b, "%d억", e)
	}
	if m := won % 100_000_000 / 10_000; m > 0 {
		fmt.Fprintf(&b, "%d만", m)
	}
	if w := won % 10_000; w > 0 {
		fmt.Fprintf(&b, "%d", w)
	}
	return b.String()
}

// FormatPercent renders a percentage with two decimals and an explicit sign
func FormatPercent(rate decimal.Decimal) string {
	if rate.IsPositive() {
		return "+" + rate.StringFixed(2) + "%"
	}
	return rate.StringFixed(2) + "%"
}
