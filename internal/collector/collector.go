package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"MarketPulse/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols present in Errors fail; symbols present in Series return that series;
// anything else gets generated weekday closes around Price.
type MockFetcher struct {
	Price  float64
	Series map[model.Symbol]model.RawSeries
	Errors map[model.Symbol]error

	mu    sync.Mutex
	calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchSeries(_ context.Context, symbol model.Symbol, start, end time.Time) (model.RawSeries, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if err, ok := m.Errors[symbol]; ok {
		return model.RawSeries{}, err
	}
	if rs, ok := m.Series[symbol]; ok {
		return rs, nil
	}
	return generateMockSeries(symbol, m.Price, start, end), nil
}

// Calls reports how many series were requested.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func generateMockSeries(symbol model.Symbol, basePrice float64, start, end time.Time) model.RawSeries {
	rs := model.RawSeries{Symbol: symbol}
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	for i := 0; !day.After(end); day = day.AddDate(0, 0, 1) {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		rs.Points = append(rs.Points, model.Point{Time: day, Value: basePrice * (1 + float64(i%20-10)*0.001)})
		i++
	}
	return rs
}

// Collector fetches every configured instrument and builds derived series.
type Collector struct {
	Fetcher     Fetcher
	Instruments []model.Instrument
	Derived     []model.DerivedInstrument
	log         zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, instruments []model.Instrument, derived []model.DerivedInstrument, log zerolog.Logger) *Collector {
	return &Collector{
		Fetcher:     fetcher,
		Instruments: instruments,
		Derived:     derived,
		log:         log.With().Str("component", "collector").Logger(),
	}
}

// Collect fetches all instruments over rng, one after the other. A failing
// symbol is recorded as ErrFetchFailure and the rest continue; the only error
// returned is context cancellation.
func (c *Collector) Collect(ctx context.Context, rng model.DateRange) (*model.Snapshot, error) {
	snap := &model.Snapshot{
		ID:     uuid.NewString(),
		Range:  rng,
		Series: make(map[model.Symbol]model.RawSeries, len(c.Instruments)+len(c.Derived)),
	}
	failed := make(map[model.Symbol]bool)

	for _, in := range c.Instruments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rs, err := c.Fetcher.FetchSeries(ctx, in.Symbol, rng.Start, rng.End)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.log.Warn().Err(err).Str("symbol", string(in.Symbol)).Msg("fetch failed")
			snap.Errors = append(snap.Errors, model.NewSymbolError(in.Symbol, fmt.Errorf("%w: %w", model.ErrFetchFailure, err)))
			failed[in.Symbol] = true
			continue
		}
		rs.Symbol = in.Symbol
		snap.Series[in.Symbol] = rs
		c.log.Debug().Str("symbol", string(in.Symbol)).Int("points", rs.Len()).Msg("fetched")
	}

	for _, d := range c.Derived {
		if failed[d.Invert] {
			snap.Errors = append(snap.Errors, model.NewSymbolError(d.Symbol,
				fmt.Errorf("%w: source %s unavailable", model.ErrFetchFailure, d.Invert)))
			continue
		}
		snap.Series[d.Symbol] = Invert(d.Symbol, snap.Series[d.Invert])
	}

	snap.FetchedAt = time.Now()
	c.log.Info().
		Str("snapshot", snap.ID).
		Str("source", c.Fetcher.Name()).
		Int("series", len(snap.Series)).
		Int("failed", len(snap.Errors)).
		Msg("collect complete")
	return snap, nil
}

// Invert derives 1/value for every non-zero point of src.
func Invert(symbol model.Symbol, src model.RawSeries) model.RawSeries {
	out := model.RawSeries{Symbol: symbol, Points: make([]model.Point, 0, len(src.Points))}
	for _, p := range src.Points {
		if p.Value == 0 {
			continue
		}
		out.Points = append(out.Points, model.Point{Time: p.Time, Value: 1 / p.Value})
	}
	return out
}
