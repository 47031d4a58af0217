package market

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/dcaflow-backend/internal/domain"
	"github.com/simaogato/dcaflow-backend/internal/usecase/updater"
)

const seriesURL = "https://api.twelvedata.test/time_series"

func newMockedClient(t *testing.T) *TwelveDataClient {
	t.Helper()
	c := NewTwelveDataClient(TwelveDataConfig{APIKey: "TEST", BaseURL: "https://api.twelvedata.test"})
	httpmock.ActivateNonDefault(c.client.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestTwelveData_FullHistory(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponderWithQuery("GET", seriesURL,
		map[string]string{"symbol": "QQQ", "interval": "1day", "outputsize": "5000", "apikey": "TEST"},
		httpmock.NewStringResponder(http.StatusOK, `{
			"meta": {"symbol": "QQQ"},
			"values": [
				{"datetime": "2024-01-03", "close": "402.10001"},
				{"datetime": "2024-01-02", "close": "400.5"}
			],
			"status": "ok"
		}`))

	points, err := c.FetchDailyCloses(context.Background(), "QQQ", nil)

	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, domain.NewDate(2024, time.January, 3), points[0].Date)
	assert.True(t, points[0].Close.Equal(decimal.RequireFromString("402.10001")))
	assert.Equal(t, "QQQ", points[1].Ticker)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestTwelveData_IncrementalUsesStartDate(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponderWithQuery("GET", seriesURL,
		map[string]string{"symbol": "SPY", "interval": "1day", "start_date": "2024-02-01", "apikey": "TEST"},
		httpmock.NewStringResponder(http.StatusOK, `{"values": [{"datetime": "2024-02-01", "close": "490"}], "status": "ok"}`))

	since := domain.NewDate(2024, time.February, 1)
	points, err := c.FetchDailyCloses(context.Background(), "SPY", &since)

	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.True(t, points[0].Close.Equal(decimal.NewFromInt(490)))
}

func TestTwelveData_Errors(t *testing.T) {
	since := domain.NewDate(2024, time.February, 1)

	tests := []struct {
		name          string
		since         *time.Time
		status        int
		body          string
		wantPermanent bool
		wantEmpty     bool
	}{
		{"unknown symbol", nil, http.StatusOK, `{"code": 404, "message": "symbol not found", "status": "error"}`, true, false},
		{"rate limited in body", nil, http.StatusOK, `{"code": 429, "message": "run out of API credits", "status": "error"}`, false, false},
		{"server error", nil, http.StatusBadGateway, `bad gateway`, false, false},
		{"unauthorized", nil, http.StatusUnauthorized, `{}`, true, false},
		{"no new trading days", &since, http.StatusOK, `{"code": 400, "message": "No data is available on the specified dates", "status": "error"}`, false, true},
		{"malformed close", nil, http.StatusOK, `{"values": [{"datetime": "2024-01-02", "close": "n/a"}], "status": "ok"}`, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newMockedClient(t)
			httpmock.RegisterResponder("GET", `=~^https://api\.twelvedata\.test/time_series`,
				httpmock.NewStringResponder(tt.status, tt.body))

			points, err := c.FetchDailyCloses(context.Background(), "QQQ", tt.since)

			if tt.wantEmpty {
				assert.NoError(t, err)
				assert.Empty(t, points)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantPermanent, updater.IsPermanent(err))
		})
	}
}

func TestTwelveData_MissingAPIKey(t *testing.T) {
	c := NewTwelveDataClient(TwelveDataConfig{})

	_, err := c.FetchDailyCloses(context.Background(), "QQQ", nil)

	assert.True(t, updater.IsPermanent(err))
}

func TestTwelveData_RateLimiterHonoursContext(t *testing.T) {
	c := NewTwelveDataClient(TwelveDataConfig{APIKey: "TEST", RequestsPerMinute: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchDailyCloses(ctx, "QQQ", nil)

	assert.ErrorIs(t, err, context.Canceled)
}
