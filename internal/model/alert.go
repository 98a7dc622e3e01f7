package model

import (
	"encoding/json"
	"fmt"
)

// Direction says which side of a threshold level triggers a warning.
type Direction string

const (
	Above Direction = "above"
	Below Direction = "below"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool { return d == Above || d == Below }

// Severity ranks how loudly a triggered threshold is reported.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityAlert    Severity = "alert"
	SeverityNotice   Severity = "notice"
)

// Rank orders severities, most severe first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityAlert:
		return 1
	case SeverityNotice:
		return 2
	default:
		return 3
	}
}

// Threshold is a named critical level bound to one symbol.
type Threshold struct {
	Name      string    `json:"name" yaml:"name"`
	Symbol    Symbol    `json:"symbol" yaml:"symbol"`
	Level     float64   `json:"level" yaml:"level"`
	Direction Direction `json:"direction" yaml:"direction"`
	Severity  Severity  `json:"severity" yaml:"severity"`
}

// Breached reports whether value triggers the threshold. Equality triggers.
func (t Threshold) Breached(value float64) bool {
	switch t.Direction {
	case Above:
		return value >= t.Level
	case Below:
		return value <= t.Level
	default:
		return false
	}
}

// AlertState is the per-symbol outcome of an evaluation pass.
type AlertState int

const (
	// Unknown means no latest value was available.
	Unknown AlertState = iota
	Normal
	Warning
)

func (s AlertState) String() string {
	switch s {
	case Normal:
		return "normal"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// ParseAlertState is the inverse of String.
func ParseAlertState(v string) (AlertState, error) {
	switch v {
	case "normal":
		return Normal, nil
	case "warning":
		return Warning, nil
	case "unknown":
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("unknown alert state %q", v)
}

func (s AlertState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *AlertState) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	parsed, err := ParseAlertState(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Alert is a triggered threshold together with the value that triggered it.
type Alert struct {
	Threshold Threshold `json:"threshold"`
	Value     float64   `json:"value"`
}
