package model

import "time"

// Group buckets instruments for comparison and risk ranking.
type Group string

const (
	GroupBigTech     Group = "big_tech"
	GroupTraditional Group = "traditional"
	GroupMacro       Group = "macro"
)

// Instrument is a configured symbol with its display label.
type Instrument struct {
	Symbol Symbol `json:"symbol" yaml:"symbol"`
	Label  string `json:"label" yaml:"label"`
	Group  Group  `json:"group" yaml:"group"`
}

// DerivedInstrument is computed from another fetched series instead of being fetched.
// Invert produces 1/value of the source (e.g. USD per EUR -> EUR per USD).
type DerivedInstrument struct {
	Instrument `yaml:",inline"`
	Invert     Symbol `json:"invert" yaml:"invert"`
}

// Snapshot is the result of one fetch over all configured instruments.
// It is replaced wholesale by the next fetch and never mutated after creation.
type Snapshot struct {
	ID        string               `json:"id"`
	FetchedAt time.Time            `json:"fetched_at"`
	Range     DateRange            `json:"range"`
	Series    map[Symbol]RawSeries `json:"-"`
	Errors    []*SymbolError       `json:"errors"`
}

// Subset returns the raw series for the given symbols. Symbols absent from the
// snapshot are returned as empty series so downstream steps report them.
func (s *Snapshot) Subset(symbols []Symbol) map[Symbol]RawSeries {
	out := make(map[Symbol]RawSeries, len(symbols))
	for _, sym := range symbols {
		if rs, ok := s.Series[sym]; ok {
			out[sym] = rs
		} else {
			out[sym] = RawSeries{Symbol: sym}
		}
	}
	return out
}

// FailedSymbols returns the set of symbols that errored during fetch.
func (s *Snapshot) FailedSymbols() map[Symbol]*SymbolError {
	out := make(map[Symbol]*SymbolError, len(s.Errors))
	for _, e := range s.Errors {
		out[e.Symbol] = e
	}
	return out
}
