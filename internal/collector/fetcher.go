package collector

import (
	"context"
	"time"

	"MarketPulse/internal/model"
)

// Fetcher retrieves daily closing prices for one symbol between start and end.
// Implementations may return gappy or empty series; errors are per symbol.
type Fetcher interface {
	FetchSeries(ctx context.Context, symbol model.Symbol, start, end time.Time) (model.RawSeries, error)
	Name() string
}
