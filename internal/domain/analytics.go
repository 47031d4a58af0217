package domain

import "time"

// TickerViews is the number of simulations run against a ticker
type TickerViews struct {
	Ticker    string
	ViewCount int64
}

// DailyVisits holds the visit counters of one day
type DailyVisits struct {
	Date         time.Time
	PageViews    int64
	UniqueVisits int64
}
