package scenario

import (
	"github.com/shopspring/decimal"

	"github.com/simaogato/dcaflow-backend/internal/domain"
)

// Purchase is one purchase record in transport form; amounts are in the base currency
type Purchase struct {
	Date            string          `json:"date"`
	Ticker          string          `json:"ticker"`
	PricePerShare   decimal.Decimal `json:"price_per_share"`
	SharesBought    int64           `json:"shares_bought"`
	SharesHeldAfter int64           `json:"shares_held_after"`
	CashBefore      decimal.Decimal `json:"cash_before"`
	CashAfter       decimal.Decimal `json:"cash_after"`
	AmountSpent     decimal.Decimal `json:"amount_spent"`
	Rule            string          `json:"rule,omitempty"` // empty for the default allocation
}

// Holding is one final position in transport form
type Holding struct {
	Ticker string          `json:"ticker"`
	Shares int64           `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Value  decimal.Decimal `json:"value"`
	Valued bool            `json:"valued"`
}

// Response is a simulation result in transport form
type Response struct {
	RunID                 string          `json:"run_id"`
	Periods               int             `json:"periods"`
	Purchases             []Purchase      `json:"purchases"`
	Holdings              []Holding       `json:"holdings"`
	FinalHoldingsValue    decimal.Decimal `json:"final_holdings_value"`
	FinalCash             decimal.Decimal `json:"final_cash"`
	FinalTotalAssets      decimal.Decimal `json:"final_total_assets"`
	FinalTotalContributed decimal.Decimal `json:"final_total_contributed"`
	FinalProfitAmount     decimal.Decimal `json:"final_profit_amount"`
	FinalProfitRate       decimal.Decimal `json:"final_profit_rate"`
}

// NewResponse converts a domain result into its transport form
func NewResponse(result *domain.SimulationResult) *Response {
	resp := &Response{
		RunID:                 result.RunID.String(),
		Periods:               result.Periods,
		Purchases:             make([]Purchase, 0, len(result.Records)),
		Holdings:              make([]Holding, 0, len(result.Breakdown)),
		FinalHoldingsValue:    result.FinalHoldingsValue,
		FinalCash:             result.FinalCash,
		FinalTotalAssets:      result.FinalTotalAssets,
		FinalTotalContributed: result.FinalTotalContributed,
		FinalProfitAmount:     result.FinalProfitAmount,
		FinalProfitRate:       result.FinalProfitRate.Round(4),
	}

	for _, rec := range result.Records {
		p := Purchase{
			Date:            domain.FormatDate(rec.Date),
			Ticker:          rec.Ticker,
			PricePerShare:   rec.PricePerShare,
			SharesBought:    rec.SharesBought,
			SharesHeldAfter: rec.SharesHeldAfter,
			CashBefore:      rec.CashBefore,
			CashAfter:       rec.CashAfter,
			AmountSpent:     rec.AmountSpent,
		}
		if rec.Rule != nil {
			p.Rule = rec.Rule.Describe()
		}
		resp.Purchases = append(resp.Purchases, p)
	}

	for _, ticker := range result.BreakdownTickers() {
		b := result.Breakdown[ticker]
		resp.Holdings = append(resp.Holdings, Holding{
			Ticker: ticker,
			Shares: b.Shares,
			Price:  b.Price,
			Value:  b.Value,
			Valued: b.Valued,
		})
	}

	return resp
}
