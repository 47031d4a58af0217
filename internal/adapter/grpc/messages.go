package grpc

import (
	"github.com/shopspring/decimal"

	"github.com/simaogato/dcaflow-backend/internal/adapter/presenter"
	"github.com/simaogato/dcaflow-backend/internal/adapter/scenario"
)

// RunSimulationRequest asks for one simulation run
type RunSimulationRequest struct {
	Scenario scenario.Request `json:"scenario"`
	Language string           `json:"language,omitempty"` // ko (default) or en
}

// RunSimulationResponse carries the raw result and its display rendering
type RunSimulationResponse struct {
	Result *scenario.Response `json:"result"`
	Report presenter.Report   `json:"report"`
}

// GetPriceRequest asks for the close of a ticker at or before a date
type GetPriceRequest struct {
	Ticker string `json:"ticker"`
	Date   string `json:"date,omitempty"` // YYYY-MM-DD, today when empty
}

// GetPriceResponse is a stored close with its all-time high
type GetPriceResponse struct {
	Ticker      string          `json:"ticker"`
	AsOf        string          `json:"as_of"`
	CloseDate   string          `json:"close_date"`
	Close       decimal.Decimal `json:"close"`
	AllTimeHigh decimal.Decimal `json:"all_time_high"`
	Drawdown    decimal.Decimal `json:"drawdown"`
}

// RefreshPricesRequest asks to refresh tickers from the price provider
type RefreshPricesRequest struct {
	Tickers []string `json:"tickers"`
}

// RefreshReport is the outcome of refreshing one ticker
type RefreshReport struct {
	Ticker string `json:"ticker"`
	Mode   string `json:"mode"`
	Added  int    `json:"added"`
	Error  string `json:"error,omitempty"`
}

// RefreshPricesResponse lists one report per requested ticker
type RefreshPricesResponse struct {
	Reports []RefreshReport `json:"reports"`
}

// TopTickersRequest asks for the most simulated tickers
type TopTickersRequest struct {
	Limit int `json:"limit"`
}

// TickerViews is one popularity entry
type TickerViews struct {
	Ticker    string `json:"ticker"`
	ViewCount int64  `json:"view_count"`
}

// TopTickersResponse lists the most simulated tickers, highest first
type TopTickersResponse struct {
	Tickers []TickerViews `json:"tickers"`
}
