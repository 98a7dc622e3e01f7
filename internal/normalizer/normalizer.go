// Package normalizer aligns raw price series onto one timeline and turns them
// into comparable relative-return series.
//
// Timeline policy: union of all in-range timestamps, starting at the latest
// first observation across symbols, with forward fill. Every emitted series
// therefore has the same length and no gaps, and no symbol is ever filled
// before its own first observation.
package normalizer

import (
	"sort"
	"time"

	"MarketPulse/internal/model"
)

// Aligned holds forward-filled prices on a common timeline.
type Aligned struct {
	Timeline []time.Time
	Prices   map[model.Symbol][]float64
}

// Series returns the aligned prices of one symbol as a RawSeries.
func (a *Aligned) Series(symbol model.Symbol) (model.RawSeries, bool) {
	prices, ok := a.Prices[symbol]
	if !ok {
		return model.RawSeries{Symbol: symbol}, false
	}
	pts := make([]model.Point, len(prices))
	for i, p := range prices {
		pts[i] = model.Point{Time: a.Timeline[i], Value: p}
	}
	return model.RawSeries{Symbol: symbol, Points: pts}, true
}

// Result is the normalized view: one timeline shared by every series.
type Result struct {
	Timeline []time.Time
	Series   map[model.Symbol]model.NormalizedSeries
}

// Align puts every series with data in rng onto the common timeline.
// Symbols without usable points are reported with ErrEmptySeries and left out.
func Align(raw map[model.Symbol]model.RawSeries, rng model.DateRange) (*Aligned, []*model.SymbolError) {
	var errs []*model.SymbolError
	cleaned := make(map[model.Symbol][]model.Point, len(raw))
	for _, sym := range model.SortSymbols(raw) {
		pts := usablePoints(raw[sym].Points, rng)
		if len(pts) == 0 {
			errs = append(errs, model.NewSymbolError(sym, model.ErrEmptySeries))
			continue
		}
		cleaned[sym] = pts
	}

	out := &Aligned{Prices: make(map[model.Symbol][]float64, len(cleaned))}
	if len(cleaned) == 0 {
		return out, errs
	}
	out.Timeline = buildTimeline(cleaned)

	for sym, pts := range cleaned {
		prices := make([]float64, len(out.Timeline))
		j := 0
		var last float64
		for i, t := range out.Timeline {
			for j < len(pts) && !pts[j].Time.After(t) {
				last = pts[j].Value
				j++
			}
			prices[i] = last
		}
		out.Prices[sym] = prices
	}
	return out, errs
}

// Normalize converts each series to value(t)/value(t0) - 1. The base t0 is the
// first point of the common timeline, not each symbol's own first observation;
// a symbol whose data starts earlier is rebased on its value carried to t0.
// Empty symbols are reported, never fatal.
func Normalize(raw map[model.Symbol]model.RawSeries, rng model.DateRange) (*Result, []*model.SymbolError) {
	aligned, errs := Align(raw, rng)
	res := &Result{
		Timeline: aligned.Timeline,
		Series:   make(map[model.Symbol]model.NormalizedSeries, len(aligned.Prices)),
	}
	for sym, prices := range aligned.Prices {
		base := prices[0]
		pts := make([]model.Point, len(prices))
		for i, p := range prices {
			pts[i] = model.Point{Time: aligned.Timeline[i], Value: p/base - 1}
		}
		res.Series[sym] = model.NormalizedSeries{Symbol: sym, Points: pts}
	}
	return res, errs
}

// usablePoints returns a sorted, de-duplicated copy of the in-range points with
// finite positive values. On duplicate timestamps the later input point wins.
func usablePoints(points []model.Point, rng model.DateRange) []model.Point {
	out := make([]model.Point, 0, len(points))
	for _, p := range points {
		if !rng.Contains(p.Time) || !model.Usable(p.Value) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	deduped := out[:0]
	for _, p := range out {
		if n := len(deduped); n > 0 && deduped[n-1].Time.Equal(p.Time) {
			deduped[n-1] = p
			continue
		}
		deduped = append(deduped, p)
	}
	return deduped
}

func buildTimeline(series map[model.Symbol][]model.Point) []time.Time {
	var start time.Time
	for _, pts := range series {
		if pts[0].Time.After(start) {
			start = pts[0].Time
		}
	}

	seen := make(map[int64]struct{})
	var timeline []time.Time
	for _, pts := range series {
		for _, p := range pts {
			if p.Time.Before(start) {
				continue
			}
			key := p.Time.UnixNano()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			timeline = append(timeline, p.Time)
		}
	}
	sort.Slice(timeline, func(i, j int) bool { return timeline[i].Before(timeline[j]) })
	return timeline
}
