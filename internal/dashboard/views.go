package dashboard

import (
	"time"

	"MarketPulse/internal/model"
)

// KPI is the headline card of one macro indicator.
type KPI struct {
	Symbol   model.Symbol     `json:"symbol"`
	Label    string           `json:"label"`
	Latest   float64          `json:"latest"`
	Delta    float64          `json:"delta"`
	High     float64          `json:"high"`
	Low      float64          `json:"low"`
	Position float64          `json:"position"`
	State    model.AlertState `json:"state"`
}

// Overview is the alert panel plus KPI cards.
type Overview struct {
	PassID     string                            `json:"pass_id"`
	SnapshotID string                            `json:"snapshot_id"`
	FetchedAt  time.Time                         `json:"fetched_at"`
	Range      model.DateRange                   `json:"range"`
	States     map[model.Symbol]model.AlertState `json:"states"`
	Latest     map[model.Symbol]float64          `json:"-"`
	Alerts     []model.Alert                     `json:"alerts"`
	KPIs       []KPI                             `json:"kpis"`
	Errors     []*model.SymbolError              `json:"errors"`
}

// CompareSeries is one line of the relative-performance chart.
type CompareSeries struct {
	Symbol  model.Symbol  `json:"symbol"`
	Label   string        `json:"label"`
	Returns []model.Point `json:"returns"`
	Base100 []model.Point `json:"base100"`
}

// CompareView holds normalized series sharing one timeline.
type CompareView struct {
	PassID   string               `json:"pass_id"`
	Range    model.DateRange      `json:"range"`
	Timeline []time.Time          `json:"timeline"`
	Series   []CompareSeries      `json:"series"`
	Errors   []*model.SymbolError `json:"errors"`
}

// MacroSeries is a raw macro series with the thresholds drawn over it.
type MacroSeries struct {
	Symbol     model.Symbol      `json:"symbol"`
	Label      string            `json:"label"`
	Points     []model.Point     `json:"points"`
	Thresholds []model.Threshold `json:"thresholds"`
	State      model.AlertState  `json:"state"`
}

// MacroView holds every macro indicator over the window.
type MacroView struct {
	PassID string               `json:"pass_id"`
	Range  model.DateRange      `json:"range"`
	Series []MacroSeries        `json:"series"`
	Errors []*model.SymbolError `json:"errors"`
}

// VolatilityStat is the annualized volatility of one stock, in percent.
type VolatilityStat struct {
	Symbol        model.Symbol `json:"symbol"`
	Label         string       `json:"label"`
	Group         model.Group  `json:"group"`
	AnnualizedPct float64      `json:"annualized_pct"`
}

// XY is one scatter point.
type XY struct {
	Time time.Time `json:"time"`
	X    float64   `json:"x"`
	Y    float64   `json:"y"`
}

// CorrelationStat relates two aligned series with a least-squares trendline y = alpha + beta*x.
type CorrelationStat struct {
	X           model.Symbol `json:"x"`
	Y           model.Symbol `json:"y"`
	Coefficient float64      `json:"coefficient"`
	Alpha       float64      `json:"alpha"`
	Beta        float64      `json:"beta"`
	Points      []XY         `json:"points"`
}

// BenchmarkStat compares one symbol against the averaged index of a group, both base 100.
type BenchmarkStat struct {
	Symbol         model.Symbol   `json:"symbol"`
	Group          model.Group    `json:"group"`
	Members        []model.Symbol `json:"members"`
	Series         []model.Point  `json:"series"`
	GroupIndex     []model.Point  `json:"group_index"`
	Outperformance float64        `json:"outperformance"`
}

// Insights answers the risk, correlation and benchmark questions of the dashboard.
type Insights struct {
	PassID      string               `json:"pass_id"`
	Range       model.DateRange      `json:"range"`
	Volatility  []VolatilityStat     `json:"volatility"`
	Correlation *CorrelationStat     `json:"correlation,omitempty"`
	Benchmark   *BenchmarkStat       `json:"benchmark,omitempty"`
	Notes       []string             `json:"notes,omitempty"`
	Errors      []*model.SymbolError `json:"errors"`
}
