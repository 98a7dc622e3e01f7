// Package alert classifies the latest level of each monitored symbol against
// the configured thresholds. Everything here is a pure function of its inputs.
package alert

import (
	"math"
	"sort"

	"MarketPulse/internal/model"
)

// Evaluate returns the alert state of every monitored symbol: the keys of
// latest plus every symbol named by a threshold. A NaN or missing latest value
// yields Unknown; a symbol without thresholds is Normal.
func Evaluate(latest map[model.Symbol]float64, thresholds []model.Threshold) map[model.Symbol]model.AlertState {
	bySymbol := groupBySymbol(thresholds)

	states := make(map[model.Symbol]model.AlertState, len(latest)+len(bySymbol))
	for sym := range latest {
		states[sym] = stateOf(sym, latest, bySymbol[sym])
	}
	for sym, ts := range bySymbol {
		if _, done := states[sym]; !done {
			states[sym] = stateOf(sym, latest, ts)
		}
	}
	return states
}

// Triggered lists every breached threshold with the value that breached it,
// most severe first, then by symbol and name.
func Triggered(latest map[model.Symbol]float64, thresholds []model.Threshold) []model.Alert {
	var alerts []model.Alert
	for _, th := range thresholds {
		v, ok := available(latest, th.Symbol)
		if !ok || !th.Breached(v) {
			continue
		}
		alerts = append(alerts, model.Alert{Threshold: th, Value: v})
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i].Threshold, alerts[j].Threshold
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		return a.Name < b.Name
	})
	return alerts
}

// LatestValues picks the last usable raw value of each series inside rng, with
// the same notion of usable as the normalizer. Series with nothing usable map
// to NaN so Evaluate reports them as Unknown.
func LatestValues(raw map[model.Symbol]model.RawSeries, rng model.DateRange) map[model.Symbol]float64 {
	out := make(map[model.Symbol]float64, len(raw))
	for sym, rs := range raw {
		out[sym] = math.NaN()
		var latestSeen bool
		var latestPoint model.Point
		for _, p := range rs.Points {
			if !rng.Contains(p.Time) || !model.Usable(p.Value) {
				continue
			}
			if !latestSeen || !p.Time.Before(latestPoint.Time) {
				latestPoint = p
				latestSeen = true
			}
		}
		if latestSeen {
			out[sym] = latestPoint.Value
		}
	}
	return out
}

func stateOf(sym model.Symbol, latest map[model.Symbol]float64, ts []model.Threshold) model.AlertState {
	v, ok := available(latest, sym)
	if !ok {
		return model.Unknown
	}
	for _, th := range ts {
		if th.Breached(v) {
			return model.Warning
		}
	}
	return model.Normal
}

func available(latest map[model.Symbol]float64, sym model.Symbol) (float64, bool) {
	v, ok := latest[sym]
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func groupBySymbol(thresholds []model.Threshold) map[model.Symbol][]model.Threshold {
	out := make(map[model.Symbol][]model.Threshold)
	for _, th := range thresholds {
		out[th.Symbol] = append(out[th.Symbol], th)
	}
	return out
}
