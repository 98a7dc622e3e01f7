package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"MarketPulse/internal/alert"
	"MarketPulse/internal/calculator"
	"MarketPulse/internal/collector"
	"MarketPulse/internal/config"
	"MarketPulse/internal/model"
	"MarketPulse/internal/normalizer"
	"MarketPulse/internal/recorder"
)

// ErrUnknownSymbol is returned when a request names a symbol that is not configured.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Service runs the fetch, normalize and evaluate pass behind every dashboard view.
type Service struct {
	cfg       *config.Config
	collector *collector.Collector
	cache     *Cache
	recorder  recorder.Recorder
	log       zerolog.Logger
	now       func() time.Time

	fetchMu sync.Mutex
}

// NewService creates a Service. The snapshot cache lives for cfg.Dashboard.CacheTTL.
func NewService(cfg *config.Config, col *collector.Collector, rec recorder.Recorder, log zerolog.Logger) *Service {
	return &Service{
		cfg:       cfg,
		collector: col,
		cache:     NewCache(cfg.Dashboard.CacheTTL),
		recorder:  rec,
		log:       log.With().Str("component", "dashboard").Logger(),
		now:       time.Now,
	}
}

// Instruments lists every configured instrument, fetched and derived.
func (s *Service) Instruments() []model.Instrument {
	return s.cfg.AllInstruments()
}

// Thresholds returns the session's alert levels.
func (s *Service) Thresholds() []model.Threshold {
	return s.cfg.Thresholds
}

// Snapshot returns the cached snapshot, fetching a new one when the cache is
// stale or force is set.
func (s *Service) Snapshot(ctx context.Context, force bool) (*model.Snapshot, error) {
	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	now := s.now()
	if !force {
		if snap, ok := s.cache.Get(now); ok {
			return snap, nil
		}
	}

	rng := model.LastDays(now, s.cfg.DataSource.LookbackDays)
	snap, err := s.collector.Collect(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	s.cache.Put(snap)
	return snap, nil
}

// Refresh drops the cached snapshot and fetches a new one.
func (s *Service) Refresh(ctx context.Context) (*model.Snapshot, error) {
	s.cache.Clear()
	return s.Snapshot(ctx, true)
}

// Overview evaluates every instrument against the thresholds and builds KPI cards.
func (s *Service) Overview(ctx context.Context, windowDays int) (*Overview, error) {
	return s.overview(ctx, windowDays, "overview")
}

// Watch runs the overview pass with the default window on behalf of the scheduler.
func (s *Service) Watch(ctx context.Context) (*Overview, error) {
	return s.overview(ctx, 0, "watch")
}

func (s *Service) overview(ctx context.Context, windowDays int, kind string) (*Overview, error) {
	snap, err := s.Snapshot(ctx, false)
	if err != nil {
		return nil, err
	}
	days := s.cfg.ClampWindow(windowDays)
	rng := s.window(snap, days)

	raw := snap.Subset(symbolsOf(s.cfg.AllInstruments()))
	latest := alert.LatestValues(raw, rng)
	states := alert.Evaluate(latest, s.cfg.Thresholds)

	ov := &Overview{
		PassID:     uuid.NewString(),
		SnapshotID: snap.ID,
		FetchedAt:  snap.FetchedAt,
		Range:      rng,
		States:     states,
		Latest:     latest,
		Alerts:     alert.Triggered(latest, s.cfg.Thresholds),
		Errors:     mergeErrors(snap.Errors, emptyErrors(latest)),
	}

	for _, sym := range s.cfg.SymbolsInGroup(model.GroupMacro) {
		pts := inRange(raw[sym].Points, rng)
		kpi, err := buildKPI(sym, pts)
		if err != nil {
			continue
		}
		kpi.Label = s.label(sym)
		kpi.State = states[sym]
		ov.KPIs = append(ov.KPIs, kpi)
	}

	s.record(&recorder.PassRecord{
		ID: ov.PassID, Kind: kind, WindowDays: days, SnapshotID: snap.ID,
		States: states, Latest: latest, Errors: ov.Errors,
	})
	s.log.Info().
		Str("pass", ov.PassID).
		Str("kind", kind).
		Int("alerts", len(ov.Alerts)).
		Int("errors", len(ov.Errors)).
		Msg("overview pass complete")
	return ov, nil
}

// Compare normalizes the selected symbols onto one timeline. An empty
// selection uses the configured default comparison.
func (s *Service) Compare(ctx context.Context, symbols []model.Symbol, windowDays int) (*CompareView, error) {
	if len(symbols) == 0 {
		symbols = s.cfg.Dashboard.Compare
	}
	symbols = dedupe(symbols)
	if err := s.checkKnown(symbols); err != nil {
		return nil, err
	}
	snap, err := s.Snapshot(ctx, false)
	if err != nil {
		return nil, err
	}
	days := s.cfg.ClampWindow(windowDays)
	rng := s.window(snap, days)

	res, normErrs := normalizer.Normalize(snap.Subset(symbols), rng)
	view := &CompareView{
		PassID:   uuid.NewString(),
		Range:    rng,
		Timeline: res.Timeline,
		Errors:   mergeErrors(filterErrors(snap.Errors, symbols), normErrs),
	}
	for _, sym := range symbols {
		ns, ok := res.Series[sym]
		if !ok {
			continue
		}
		view.Series = append(view.Series, CompareSeries{
			Symbol:  sym,
			Label:   s.label(sym),
			Returns: ns.Points,
			Base100: calculator.Base100(ns),
		})
	}

	s.record(&recorder.PassRecord{ID: view.PassID, Kind: "compare", WindowDays: days, SnapshotID: snap.ID, Errors: view.Errors})
	return view, nil
}

// Macro returns the raw macro series over the window with their thresholds.
func (s *Service) Macro(ctx context.Context, windowDays int) (*MacroView, error) {
	snap, err := s.Snapshot(ctx, false)
	if err != nil {
		return nil, err
	}
	days := s.cfg.ClampWindow(windowDays)
	rng := s.window(snap, days)

	symbols := s.cfg.SymbolsInGroup(model.GroupMacro)
	raw := snap.Subset(symbols)
	latest := alert.LatestValues(raw, rng)
	states := alert.Evaluate(latest, s.cfg.Thresholds)

	view := &MacroView{
		PassID: uuid.NewString(),
		Range:  rng,
		Errors: mergeErrors(filterErrors(snap.Errors, symbols), emptyErrors(latest)),
	}
	for _, sym := range symbols {
		ms := MacroSeries{
			Symbol: sym,
			Label:  s.label(sym),
			Points: inRange(raw[sym].Points, rng),
			State:  states[sym],
		}
		for _, th := range s.cfg.Thresholds {
			if th.Symbol == sym {
				ms.Thresholds = append(ms.Thresholds, th)
			}
		}
		view.Series = append(view.Series, ms)
	}

	s.record(&recorder.PassRecord{
		ID: view.PassID, Kind: "macro", WindowDays: days, SnapshotID: snap.ID,
		States: states, Latest: latest, Errors: view.Errors,
	})
	return view, nil
}

// Insights ranks stock volatility, correlates the configured macro pair and
// compares the benchmark with its group index.
func (s *Service) Insights(ctx context.Context, windowDays int) (*Insights, error) {
	snap, err := s.Snapshot(ctx, false)
	if err != nil {
		return nil, err
	}
	days := s.cfg.ClampWindow(windowDays)
	rng := s.window(snap, days)

	out := &Insights{PassID: uuid.NewString(), Range: rng}
	var errs []*model.SymbolError

	stocks := append(s.cfg.SymbolsInGroup(model.GroupBigTech), s.cfg.SymbolsInGroup(model.GroupTraditional)...)
	vol, volErrs := s.volatility(snap, stocks, rng)
	out.Volatility = vol
	errs = append(errs, volErrs...)

	if x, y := s.cfg.Dashboard.Correlation.X, s.cfg.Dashboard.Correlation.Y; x != "" && y != "" {
		corr, cErrs, err := correlate(snap, x, y, rng)
		errs = append(errs, cErrs...)
		if err != nil {
			out.Notes = append(out.Notes, fmt.Sprintf("correlation %s/%s: %v", x, y, err))
		} else {
			out.Correlation = corr
		}
	}

	if b := s.cfg.Dashboard.Benchmark; b != "" {
		bench, bErrs, err := s.benchmark(snap, b, s.cfg.Dashboard.BenchmarkGroup, rng)
		errs = append(errs, bErrs...)
		if err != nil {
			out.Notes = append(out.Notes, fmt.Sprintf("benchmark %s: %v", b, err))
		} else {
			out.Benchmark = bench
		}
	}

	out.Errors = mergeErrors(snap.Errors, errs)
	s.record(&recorder.PassRecord{ID: out.PassID, Kind: "insights", WindowDays: days, SnapshotID: snap.ID, Errors: out.Errors})
	return out, nil
}

// History returns the most recent passes of this session.
func (s *Service) History(limit int) ([]recorder.PassSummary, error) {
	return s.recorder.RecentPasses(limit)
}

// AlertHistory returns the recorded states of one symbol.
func (s *Service) AlertHistory(symbol model.Symbol, limit int) ([]recorder.AlertEntry, error) {
	if err := s.checkKnown([]model.Symbol{symbol}); err != nil {
		return nil, err
	}
	return s.recorder.AlertHistory(symbol, limit)
}

func (s *Service) volatility(snap *model.Snapshot, stocks []model.Symbol, rng model.DateRange) ([]VolatilityStat, []*model.SymbolError) {
	aligned, errs := normalizer.Align(snap.Subset(stocks), rng)
	var out []VolatilityStat
	for _, sym := range stocks {
		prices, ok := aligned.Prices[sym]
		if !ok {
			continue
		}
		vol, err := calculator.AnnualizedVolatility(calculator.DailyReturns(prices))
		if err != nil {
			continue
		}
		in, _ := s.cfg.Lookup(sym)
		out = append(out, VolatilityStat{Symbol: sym, Label: in.Label, Group: in.Group, AnnualizedPct: vol * 100})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AnnualizedPct > out[j].AnnualizedPct })
	return out, errs
}

func correlate(snap *model.Snapshot, x, y model.Symbol, rng model.DateRange) (*CorrelationStat, []*model.SymbolError, error) {
	aligned, errs := normalizer.Align(snap.Subset([]model.Symbol{x, y}), rng)
	xs, okX := aligned.Prices[x]
	ys, okY := aligned.Prices[y]
	if !okX || !okY {
		return nil, errs, errors.New("series unavailable")
	}
	coef, err := calculator.Correlation(xs, ys)
	if err != nil {
		return nil, errs, err
	}
	alpha, beta, err := calculator.Trendline(xs, ys)
	if err != nil {
		return nil, errs, err
	}
	stat := &CorrelationStat{X: x, Y: y, Coefficient: coef, Alpha: alpha, Beta: beta, Points: make([]XY, len(xs))}
	for i := range xs {
		stat.Points[i] = XY{Time: aligned.Timeline[i], X: xs[i], Y: ys[i]}
	}
	return stat, errs, nil
}

func (s *Service) benchmark(snap *model.Snapshot, bench model.Symbol, group model.Group, rng model.DateRange) (*BenchmarkStat, []*model.SymbolError, error) {
	members := s.cfg.SymbolsInGroup(group)
	if len(members) == 0 {
		return nil, nil, fmt.Errorf("group %q has no members", group)
	}
	symbols := append([]model.Symbol{bench}, members...)
	res, errs := normalizer.Normalize(snap.Subset(symbols), rng)

	bs, ok := res.Series[bench]
	if !ok {
		return nil, errs, errors.New("benchmark series unavailable")
	}
	stat := &BenchmarkStat{Symbol: bench, Group: group, Series: calculator.Base100(bs)}
	var indexed [][]model.Point
	for _, m := range members {
		if ns, ok := res.Series[m]; ok {
			stat.Members = append(stat.Members, m)
			indexed = append(indexed, calculator.Base100(ns))
		}
	}
	idx, err := calculator.GroupIndex(indexed)
	if err != nil {
		return nil, errs, err
	}
	stat.GroupIndex = idx
	stat.Outperformance = stat.Series[len(stat.Series)-1].Value - idx[len(idx)-1].Value
	return stat, errs, nil
}

// window ends at the snapshot's fetch time so every view of one snapshot agrees.
func (s *Service) window(snap *model.Snapshot, days int) model.DateRange {
	return model.LastDays(snap.Range.End, days)
}

func (s *Service) label(sym model.Symbol) string {
	if in, ok := s.cfg.Lookup(sym); ok && in.Label != "" {
		return in.Label
	}
	return string(sym)
}

func (s *Service) checkKnown(symbols []model.Symbol) error {
	for _, sym := range symbols {
		if _, ok := s.cfg.Lookup(sym); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSymbol, sym)
		}
	}
	return nil
}

func (s *Service) record(rec *recorder.PassRecord) {
	rec.StartedAt = s.now()
	if err := s.recorder.RecordPass(rec); err != nil {
		s.log.Error().Err(err).Str("pass", rec.ID).Msg("record pass")
	}
}

func buildKPI(sym model.Symbol, pts []model.Point) (KPI, error) {
	latest, delta, err := calculator.Delta(pts)
	if err != nil {
		return KPI{}, err
	}
	high, low, err := calculator.WindowRange(pts)
	if err != nil {
		return KPI{}, err
	}
	pos, err := calculator.RangePosition(latest, high, low)
	if err != nil {
		return KPI{}, err
	}
	return KPI{Symbol: sym, Latest: latest, Delta: delta, High: high, Low: low, Position: pos}, nil
}

// dedupe drops repeated symbols, keeping first-seen order.
func dedupe(symbols []model.Symbol) []model.Symbol {
	seen := make(map[model.Symbol]bool, len(symbols))
	out := make([]model.Symbol, 0, len(symbols))
	for _, sym := range symbols {
		if !seen[sym] {
			seen[sym] = true
			out = append(out, sym)
		}
	}
	return out
}

func symbolsOf(instruments []model.Instrument) []model.Symbol {
	out := make([]model.Symbol, len(instruments))
	for i, in := range instruments {
		out[i] = in.Symbol
	}
	return out
}

func inRange(points []model.Point, rng model.DateRange) []model.Point {
	var out []model.Point
	for _, p := range points {
		if rng.Contains(p.Time) && model.Usable(p.Value) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// emptyErrors reports symbols whose latest value is unavailable.
func emptyErrors(latest map[model.Symbol]float64) []*model.SymbolError {
	var out []*model.SymbolError
	for _, sym := range model.SortSymbols(latest) {
		if math.IsNaN(latest[sym]) {
			out = append(out, model.NewSymbolError(sym, model.ErrEmptySeries))
		}
	}
	return out
}

func filterErrors(errs []*model.SymbolError, symbols []model.Symbol) []*model.SymbolError {
	want := make(map[model.Symbol]bool, len(symbols))
	for _, s := range symbols {
		want[s] = true
	}
	var out []*model.SymbolError
	for _, e := range errs {
		if want[e.Symbol] {
			out = append(out, e)
		}
	}
	return out
}

// mergeErrors keeps the first error reported per symbol, so a fetch failure
// wins over the empty series it causes downstream.
func mergeErrors(lists ...[]*model.SymbolError) []*model.SymbolError {
	seen := make(map[model.Symbol]bool)
	out := []*model.SymbolError{}
	for _, list := range lists {
		for _, e := range list {
			if seen[e.Symbol] {
				continue
			}
			seen[e.Symbol] = true
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
