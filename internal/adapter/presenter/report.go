package presenter

import (
	"strconv"

	"github.com/simaogato/dcaflow-backend/internal/domain"
)

// Row is one purchase rendered for display
type Row struct {
	Date      string `json:"date"`
	Ticker    string `json:"ticker"`
	Price     string `json:"price"`
	Shares    string `json:"shares"`
	Held      string `json:"held"`
	Spent     string `json:"spent"`
	CashAfter string `json:"cash_after"`
	Rule      string `json:"rule"`
}

// Holding is one final position rendered for display
type Holding struct {
	Ticker string `json:"ticker"`
	Shares string `json:"shares"`
	Price  string `json:"price"`
	Value  string `json:"value"`
	Valued bool   `json:"valued"`
}

// Report is a simulation result with every amount formatted in the display currency
type Report struct {
	Language         Language  `json:"language"`
	Currency         string    `json:"currency"`
	RunID            string    `json:"run_id"`
	Periods          int       `json:"periods"`
	Rows             []Row     `json:"rows"`
	Holdings         []Holding `json:"holdings"`
	HoldingsValue    string    `json:"holdings_value"`
	Cash             string    `json:"cash"`
	TotalAssets      string    `json:"total_assets"`
	TotalContributed string    `json:"total_contributed"`
	Profit           string    `json:"profit"`
	ProfitRate       string    `json:"profit_rate"`

	// won totals in 만/억 units, set only when displaying KRW
	TotalAssetsCompact      string `json:"total_assets_compact,omitempty"`
	TotalContributedCompact string `json:"total_contributed_compact,omitempty"`
	TotalAssetsDetail       string `json:"total_assets_detail,omitempty"`
	TotalContributedDetail  string `json:"total_contributed_detail,omitempty"`
}

// Present formats result for display. Conversion happens here and nowhere else.
func Present(result *domain.SimulationResult, conv Converter, lang Language) Report {
	report := Report{
		Language:         lang,
		Currency:         conv.Code,
		RunID:            result.RunID.String(),
		Periods:          result.Periods,
		Rows:             make([]Row, 0, len(result.Records)),
		HoldingsValue:    conv.Format(result.FinalHoldingsValue),
		Cash:             conv.Format(result.FinalCash),
		TotalAssets:      conv.Format(result.FinalTotalAssets),
		TotalContributed: conv.Format(result.FinalTotalContributed),
		Profit:           conv.Format(result.FinalProfitAmount),
		ProfitRate:       FormatPercent(result.FinalProfitRate),
	}

	for _, rec := range result.Records {
		rule := Label(lang, "default")
		if rec.Rule != nil {
			rule = rec.Rule.Describe()
		}
		report.Rows = append(report.Rows, Row{
			Date:      domain.FormatDate(rec.Date),
			Ticker:    rec.Ticker,
			Price:     conv.Format(rec.PricePerShare),
			Shares:    strconv.FormatInt(rec.SharesBought, 10),
			Held:      strconv.FormatInt(rec.SharesHeldAfter, 10),
			Spent:     conv.Format(rec.AmountSpent),
			CashAfter: conv.Format(rec.CashAfter),
			Rule:      rule,
		})
	}

	for _, ticker := range result.BreakdownTickers() {
		b := result.Breakdown[ticker]
		h := Holding{
			Ticker: ticker,
			Shares: strconv.FormatInt(b.Shares, 10),
			Price:  Label(lang, "unvalued"),
			Value:  conv.Format(b.Value),
			Valued: b.Valued,
		}
		if b.Valued {
			h.Price = conv.Format(b.Price)
		}
		report.Holdings = append(report.Holdings, h)
	}

	if conv.Code == "KRW" {
		assets := conv.ToDisplay(result.FinalTotalAssets)
		contributed := conv.ToDisplay(result.FinalTotalContributed)
		report.TotalAssetsCompact = FormatKRWCompact(assets)
		report.TotalContributedCompact = FormatKRWCompact(contributed)
		report.TotalAssetsDetail = FormatKRWDetail(assets)
		report.TotalContributedDetail = FormatKRWDetail(contributed)
	}

	return report
}
