package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/collector"
	"MarketPulse/internal/config"
	"MarketPulse/internal/model"
	"MarketPulse/internal/recorder"
)

var testNow = time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)

func series(sym model.Symbol, values ...float64) model.RawSeries {
	rs := model.RawSeries{Symbol: sym}
	for i, v := range values {
		rs.Points = append(rs.Points, model.Point{
			Time:  time.Date(2025, time.June, 2+i, 0, 0, 0, 0, time.UTC),
			Value: v,
		})
	}
	return rs
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Instruments = []model.Instrument{
		{Symbol: "AAPL", Label: "Apple", Group: model.GroupBigTech},
		{Symbol: "KO", Label: "Coca-Cola", Group: model.GroupTraditional},
		{Symbol: "MXN=X", Label: "USD/MXN", Group: model.GroupMacro},
		{Symbol: "EURUSD=X", Label: "EUR/USD", Group: model.GroupMacro},
	}
	cfg.Thresholds = []model.Threshold{
		{Name: "USD/MXN ceiling", Symbol: "MXN=X", Level: 20.5, Direction: model.Above, Severity: model.SeverityCritical},
		{Name: "USD/EUR floor", Symbol: "USD_EUR", Level: 0.90, Direction: model.Below, Severity: model.SeverityNotice},
	}
	cfg.Dashboard.WindowDays = 30
	cfg.Dashboard.Compare = []model.Symbol{"AAPL", "KO"}
	cfg.Dashboard.Benchmark = "AAPL"
	cfg.Dashboard.BenchmarkGroup = model.GroupTraditional
	cfg.Dashboard.Correlation.X = "MXN=X"
	cfg.Dashboard.Correlation.Y = "USD_EUR"
	return cfg
}

func testFetcher() *collector.MockFetcher {
	return &collector.MockFetcher{
		Series: map[model.Symbol]model.RawSeries{
			"AAPL":     series("AAPL", 100, 110, 105, 120, 115),
			"KO":       series("KO", 50, 50.5, 51, 50, 52),
			"MXN=X":    series("MXN=X", 20.0, 20.2, 20.4, 20.6, 21.0),
			"EURUSD=X": series("EURUSD=X", 1.05, 1.06, 1.08, 1.07, 1.09),
		},
	}
}

func newTestService(t *testing.T, cfg *config.Config, f collector.Fetcher) (*Service, *recorder.SQLiteRecorder) {
	t.Helper()
	rec, err := recorder.NewSQLiteRecorder(zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Close() })

	col := collector.NewCollector(f, cfg.Instruments, cfg.Derived, zerolog.Nop())
	svc := NewService(cfg, col, rec, zerolog.Nop())
	svc.now = func() time.Time { return testNow }
	return svc, rec
}

func TestService_Overview(t *testing.T) {
	f := testFetcher()
	svc, _ := newTestService(t, testConfig(), f)

	ov, err := svc.Overview(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, model.Warning, ov.States["MXN=X"])
	assert.Equal(t, model.Normal, ov.States["USD_EUR"])
	assert.Equal(t, model.Normal, ov.States["AAPL"])
	require.Len(t, ov.Alerts, 1)
	assert.Equal(t, model.Symbol("MXN=X"), ov.Alerts[0].Threshold.Symbol)
	assert.Equal(t, 21.0, ov.Alerts[0].Value)
	assert.Empty(t, ov.Errors)

	require.Len(t, ov.KPIs, 3)
	mxn := ov.KPIs[0]
	assert.Equal(t, model.Symbol("MXN=X"), mxn.Symbol)
	assert.Equal(t, "USD/MXN", mxn.Label)
	assert.Equal(t, 21.0, mxn.Latest)
	assert.InDelta(t, 0.4, mxn.Delta, 1e-9)
	assert.Equal(t, 1.0, mxn.Position)
	assert.Equal(t, model.Warning, mxn.State)
	assert.Equal(t, model.Symbol("USD_EUR"), ov.KPIs[2].Symbol)
	assert.InDelta(t, 1/1.09, ov.KPIs[2].Latest, 1e-9)
}

func TestService_SnapshotIsCached(t *testing.T) {
	f := testFetcher()
	svc, _ := newTestService(t, testConfig(), f)
	ctx := context.Background()

	first, err := svc.Overview(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, f.Calls())

	second, err := svc.Overview(ctx, 60)
	require.NoError(t, err)
	assert.Equal(t, 4, f.Calls())
	assert.Equal(t, first.SnapshotID, second.SnapshotID)
	assert.NotEqual(t, first.PassID, second.PassID)

	_, err = svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, f.Calls())
}

func TestService_OverviewPartialFailure(t *testing.T) {
	f := testFetcher()
	f.Errors = map[model.Symbol]error{"EURUSD=X": errors.New("timeout")}
	svc, _ := newTestService(t, testConfig(), f)

	ov, err := svc.Overview(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, model.Warning, ov.States["MXN=X"])
	assert.Equal(t, model.Unknown, ov.States["USD_EUR"])
	assert.Equal(t, model.Unknown, ov.States["EURUSD=X"])

	require.Len(t, ov.Errors, 2)
	assert.Equal(t, model.Symbol("EURUSD=X"), ov.Errors[0].Symbol)
	assert.Equal(t, model.Symbol("USD_EUR"), ov.Errors[1].Symbol)
	for _, e := range ov.Errors {
		assert.ErrorIs(t, e, model.ErrFetchFailure)
	}
	assert.Len(t, ov.KPIs, 1)
}

func TestService_Compare(t *testing.T) {
	svc, _ := newTestService(t, testConfig(), testFetcher())

	view, err := svc.Compare(context.Background(), nil, 0)
	require.NoError(t, err)
	require.Len(t, view.Timeline, 5)
	require.Len(t, view.Series, 2)

	aapl := view.Series[0]
	assert.Equal(t, model.Symbol("AAPL"), aapl.Symbol)
	assert.Equal(t, 0.0, aapl.Returns[0].Value)
	assert.InDelta(t, 0.10, aapl.Returns[1].Value, 1e-9)
	assert.InDelta(t, 110.0, aapl.Base100[1].Value, 1e-9)
	for _, s := range view.Series {
		assert.Len(t, s.Returns, len(view.Timeline))
	}
	assert.Empty(t, view.Errors)
}

func TestService_CompareUnknownSymbol(t *testing.T) {
	svc, _ := newTestService(t, testConfig(), testFetcher())

	_, err := svc.Compare(context.Background(), []model.Symbol{"AAPL", "ZZZZ"}, 0)
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestService_CompareEmptySeries(t *testing.T) {
	f := testFetcher()
	f.Series["KO"] = model.RawSeries{Symbol: "KO"}
	svc, _ := newTestService(t, testConfig(), f)

	view, err := svc.Compare(context.Background(), nil, 0)
	require.NoError(t, err)
	require.Len(t, view.Series, 1)
	assert.Equal(t, model.Symbol("AAPL"), view.Series[0].Symbol)
	require.Len(t, view.Errors, 1)
	assert.ErrorIs(t, view.Errors[0], model.ErrEmptySeries)
}

func TestService_CompareDuplicateSymbols(t *testing.T) {
	svc, _ := newTestService(t, testConfig(), testFetcher())

	view, err := svc.Compare(context.Background(), []model.Symbol{"AAPL", "KO", "AAPL"}, 0)
	require.NoError(t, err)
	require.Len(t, view.Series, 2)
	assert.Equal(t, model.Symbol("AAPL"), view.Series[0].Symbol)
	assert.Equal(t, model.Symbol("KO"), view.Series[1].Symbol)
}

func TestService_ZeroSeriesAgreesAcrossViews(t *testing.T) {
	cfg := testConfig()
	cfg.Thresholds = []model.Threshold{
		{Name: "USD/MXN floor", Symbol: "MXN=X", Level: 15, Direction: model.Below, Severity: model.SeverityNotice},
	}
	f := testFetcher()
	f.Series["MXN=X"] = series("MXN=X", 0, 0, 0)
	svc, _ := newTestService(t, cfg, f)
	ctx := context.Background()

	ov, err := svc.Overview(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, model.Unknown, ov.States["MXN=X"])
	assert.Empty(t, ov.Alerts)
	for _, k := range ov.KPIs {
		assert.NotEqual(t, model.Symbol("MXN=X"), k.Symbol)
	}
	require.NotEmpty(t, ov.Errors)
	assert.Equal(t, model.Symbol("MXN=X"), ov.Errors[0].Symbol)
	assert.ErrorIs(t, ov.Errors[0], model.ErrEmptySeries)

	view, err := svc.Compare(ctx, []model.Symbol{"AAPL", "MXN=X"}, 0)
	require.NoError(t, err)
	require.Len(t, view.Errors, 1)
	assert.Equal(t, model.Symbol("MXN=X"), view.Errors[0].Symbol)
	assert.ErrorIs(t, view.Errors[0], model.ErrEmptySeries)
}

func TestService_Macro(t *testing.T) {
	svc, _ := newTestService(t, testConfig(), testFetcher())

	view, err := svc.Macro(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, view.Series, 3)

	mxn := view.Series[0]
	assert.Equal(t, model.Symbol("MXN=X"), mxn.Symbol)
	assert.Len(t, mxn.Points, 5)
	require.Len(t, mxn.Thresholds, 1)
	assert.Equal(t, 20.5, mxn.Thresholds[0].Level)
	assert.Equal(t, model.Warning, mxn.State)

	assert.Empty(t, view.Series[1].Thresholds)
	assert.Equal(t, model.Normal, view.Series[1].State)
}

func TestService_Insights(t *testing.T) {
	svc, _ := newTestService(t, testConfig(), testFetcher())

	in, err := svc.Insights(context.Background(), 0)
	require.NoError(t, err)

	require.Len(t, in.Volatility, 2)
	assert.Equal(t, model.Symbol("AAPL"), in.Volatility[0].Symbol)
	assert.Greater(t, in.Volatility[0].AnnualizedPct, in.Volatility[1].AnnualizedPct)

	require.NotNil(t, in.Correlation)
	assert.Len(t, in.Correlation.Points, 5)
	assert.True(t, in.Correlation.Coefficient >= -1 && in.Correlation.Coefficient <= 1)

	require.NotNil(t, in.Benchmark)
	assert.Equal(t, []model.Symbol{"KO"}, in.Benchmark.Members)
	assert.InDelta(t, 115.0-104.0, in.Benchmark.Outperformance, 1e-9)
	assert.Empty(t, in.Notes)
}

func TestService_InsightsNotesMissingBenchmark(t *testing.T) {
	f := testFetcher()
	f.Errors = map[model.Symbol]error{"AAPL": errors.New("http 500")}
	svc, _ := newTestService(t, testConfig(), f)

	in, err := svc.Insights(context.Background(), 0)
	require.NoError(t, err)
	assert.Nil(t, in.Benchmark)
	require.Len(t, in.Notes, 1)
	assert.Contains(t, in.Notes[0], "benchmark AAPL")
	require.NotEmpty(t, in.Errors)
	assert.ErrorIs(t, in.Errors[0], model.ErrFetchFailure)
}

func TestService_RecordsPasses(t *testing.T) {
	svc, _ := newTestService(t, testConfig(), testFetcher())
	ctx := context.Background()

	_, err := svc.Overview(ctx, 0)
	require.NoError(t, err)
	_, err = svc.Watch(ctx)
	require.NoError(t, err)

	passes, err := svc.History(10)
	require.NoError(t, err)
	require.Len(t, passes, 2)
	kinds := []string{passes[0].Kind, passes[1].Kind}
	assert.ElementsMatch(t, []string{"overview", "watch"}, kinds)
	assert.Equal(t, 1, passes[0].Warnings)

	hist, err := svc.AlertHistory("MXN=X", 10)
	require.NoError(t, err)
	assert.Len(t, hist, 2)

	_, err = svc.AlertHistory("ZZZZ", 10)
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestService_CancelledContext(t *testing.T) {
	svc, _ := newTestService(t, testConfig(), testFetcher())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Overview(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
