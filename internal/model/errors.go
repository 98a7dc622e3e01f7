package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrEmptySeries marks a symbol with no usable points in the requested range.
	ErrEmptySeries = errors.New("empty series")
	// ErrFetchFailure marks a provider or network error for one symbol.
	ErrFetchFailure = errors.New("fetch failure")
)

// SymbolError reports a failure scoped to a single symbol. It never aborts a pass.
type SymbolError struct {
	Symbol Symbol
	Err    error
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("%s: %v", e.Symbol, e.Err)
}

func (e *SymbolError) Unwrap() error { return e.Err }

// Kind names the error class for display: "empty_series", "fetch_failure" or "error".
func (e *SymbolError) Kind() string {
	switch {
	case errors.Is(e.Err, ErrEmptySeries):
		return "empty_series"
	case errors.Is(e.Err, ErrFetchFailure):
		return "fetch_failure"
	default:
		return "error"
	}
}

func (e *SymbolError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Symbol Symbol `json:"symbol"`
		Kind   string `json:"kind"`
		Error  string `json:"error"`
	}{e.Symbol, e.Kind(), e.Err.Error()})
}

// NewSymbolError wraps err for symbol.
func NewSymbolError(symbol Symbol, err error) *SymbolError {
	return &SymbolError{Symbol: symbol, Err: err}
}
