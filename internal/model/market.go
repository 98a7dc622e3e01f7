package model

import (
	"math"
	"sort"
	"time"
)

// Symbol identifies a tradable instrument or macro indicator (e.g. "AAPL", "MXN=X", "^TNX").
type Symbol string

// Point is a single (timestamp, value) observation.
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// RawSeries holds fetched prices for one symbol, ordered by time. It may be gappy or empty.
type RawSeries struct {
	Symbol Symbol  `json:"symbol"`
	Points []Point `json:"points"`
}

// Len returns the number of points.
func (s RawSeries) Len() int { return len(s.Points) }

// Closes extracts the values in order.
func (s RawSeries) Closes() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// NormalizedSeries holds relative returns on the common timeline of a view.
type NormalizedSeries struct {
	Symbol Symbol  `json:"symbol"`
	Points []Point `json:"points"`
}

// DateRange is an inclusive [Start, End] window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range. A zero bound is open.
func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// Usable reports whether v is a real price: finite and strictly positive.
// Anything else is treated as a missing observation.
func Usable(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// LastDays returns the range covering the given number of days up to end.
func LastDays(end time.Time, days int) DateRange {
	return DateRange{Start: end.AddDate(0, 0, -days), End: end}
}

// SortSymbols returns the map keys in lexical order.
func SortSymbols[V any](m map[Symbol]V) []Symbol {
	out := make([]Symbol, 0, len(m))
	for s := range m {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
