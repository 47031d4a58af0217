package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/simaogato/dcaflow-backend/internal/domain"
	"github.com/simaogato/dcaflow-backend/internal/usecase/updater"
)

const (
	// TwelveDataBaseURL is the public Twelve Data REST endpoint
	TwelveDataBaseURL = "https://api.twelvedata.com"

	// fullOutputSize is the largest history Twelve Data returns in one call
	fullOutputSize = "5000"
)

// TwelveDataConfig configures the Twelve Data client
type TwelveDataConfig struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int // 0 disables client side throttling
}

// TwelveDataClient fetches daily closes from the Twelve Data time_series API
type TwelveDataClient struct {
	client  *resty.Client
	limiter *rate.Limiter
	apiKey  string
}

// NewTwelveDataClient creates a new Twelve Data client
func NewTwelveDataClient(cfg TwelveDataConfig) *TwelveDataClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = TwelveDataBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(cfg.Timeout)

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	return &TwelveDataClient{
		client:  client,
		limiter: limiter,
		apiKey:  cfg.APIKey,
	}
}

// twelveDataSeries is the time_series response body.
// Errors arrive with HTTP 200 and status "error".
type twelveDataSeries struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Values  []struct {
		Datetime string `json:"datetime"`
		Close    string `json:"close"`
	} `json:"values"`
}

// Name identifies the provider in logs
func (c *TwelveDataClient) Name() string {
	return "twelvedata"
}

// FetchDailyCloses downloads daily closes for ticker.
// Without since it requests the largest available history, otherwise closes from since onwards.
func (c *TwelveDataClient) FetchDailyCloses(ctx context.Context, ticker string, since *time.Time) ([]domain.PricePoint, error) {
	if c.apiKey == "" {
		return nil, updater.Permanent(fmt.Errorf("twelve data API key not configured"))
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := map[string]string{
		"symbol":   ticker,
		"interval": "1day",
		"apikey":   c.apiKey,
	}
	if since != nil {
		params["start_date"] = domain.FormatDate(*since)
	} else {
		params["outputsize"] = fullOutputSize
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("/time_series")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch time series for %s: %w", ticker, err)
	}

	switch {
	case resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500:
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode(), resp.String())
	case resp.StatusCode() != http.StatusOK:
		return nil, updater.Permanent(fmt.Errorf("API error %d: %s", resp.StatusCode(), resp.String()))
	}

	var body twelveDataSeries
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("failed to parse time series response: %w", err)
	}

	if body.Status == "error" {
		err := fmt.Errorf("twelve data error %d: %s", body.Code, body.Message)
		if body.Code == http.StatusTooManyRequests || body.Code >= 500 {
			return nil, err
		}
		// an incremental window with no trading days yet is reported as an error too
		if since != nil && body.Code == http.StatusBadRequest {
			return nil, nil
		}
		return nil, updater.Permanent(err)
	}

	points := make([]domain.PricePoint, 0, len(body.Values))
	for _, v := range body.Values {
		date, err := time.Parse(domain.DateLayout, v.Datetime)
		if err != nil {
			return nil, updater.Permanent(fmt.Errorf("failed to parse datetime %q: %w", v.Datetime, err))
		}
		closePrice, err := decimal.NewFromString(v.Close)
		if err != nil {
			return nil, updater.Permanent(fmt.Errorf("failed to parse close %q: %w", v.Close, err))
		}
		points = append(points, domain.PricePoint{
			Ticker: ticker,
			Date:   domain.Day(date),
			Close:  closePrice,
		})
	}

	return points, nil
}
