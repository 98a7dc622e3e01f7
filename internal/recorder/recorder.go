package recorder

import (
	"time"

	"MarketPulse/internal/model"
)

// PassRecord holds everything one dashboard pass produced.
type PassRecord struct {
	ID         string
	Kind       string // "overview", "compare", "macro", "insights", "watch"
	StartedAt  time.Time
	WindowDays int
	SnapshotID string
	States     map[model.Symbol]model.AlertState
	Latest     map[model.Symbol]float64
	Errors     []*model.SymbolError
}

// PassSummary is one row of the pass log.
type PassSummary struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	StartedAt  time.Time `json:"started_at"`
	WindowDays int       `json:"window_days"`
	SnapshotID string    `json:"snapshot_id"`
	Warnings   int       `json:"warnings"`
	Unknown    int       `json:"unknown"`
	Failed     int       `json:"failed"`
}

// AlertEntry is the state of one symbol in one pass.
type AlertEntry struct {
	PassID    string           `json:"pass_id"`
	StartedAt time.Time        `json:"started_at"`
	State     model.AlertState `json:"state"`
	Latest    *float64         `json:"latest"`
}

// Recorder keeps the pass history of the running session.
type Recorder interface {
	RecordPass(rec *PassRecord) error
	RecentPasses(limit int) ([]PassSummary, error)
	AlertHistory(symbol model.Symbol, limit int) ([]AlertEntry, error)
	Close() error
}
