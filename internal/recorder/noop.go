package recorder

import "MarketPulse/internal/model"

// NoopRecorder is used when the session store cannot be opened.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordPass(_ *PassRecord) error                           { return nil }
func (n *NoopRecorder) RecentPasses(_ int) ([]PassSummary, error)                { return nil, nil }
func (n *NoopRecorder) AlertHistory(_ model.Symbol, _ int) ([]AlertEntry, error) { return nil, nil }
func (n *NoopRecorder) Close() error                                             { return nil }
