package config

import (
	"time"

	"MarketPulse/internal/model"
)

// Default returns the stock dashboard setup: the big seven, five traditional
// companies, and the macro indicators with their alert levels.
func Default() *Config {
	cfg := &Config{}

	cfg.DataSource.LookbackDays = 730
	cfg.DataSource.Timeout = 30 * time.Second

	bigTech := []model.Instrument{
		{Symbol: "AAPL", Label: "Apple"},
		{Symbol: "MSFT", Label: "Microsoft"},
		{Symbol: "NVDA", Label: "NVIDIA"},
		{Symbol: "GOOGL", Label: "Alphabet"},
		{Symbol: "META", Label: "Meta"},
		{Symbol: "TSLA", Label: "Tesla"},
		{Symbol: "AMZN", Label: "Amazon"},
	}
	traditional := []model.Instrument{
		{Symbol: "JPM", Label: "JPMorgan Chase"},
		{Symbol: "KO", Label: "Coca-Cola"},
		{Symbol: "DIS", Label: "Disney"},
		{Symbol: "XOM", Label: "Exxon Mobil"},
		{Symbol: "PFE", Label: "Pfizer"},
	}
	macro := []model.Instrument{
		{Symbol: "^TNX", Label: "US Treasury 10Y"},
		{Symbol: "MXN=X", Label: "USD/MXN"},
		{Symbol: "EURUSD=X", Label: "EUR/USD"},
	}
	for _, in := range bigTech {
		in.Group = model.GroupBigTech
		cfg.Instruments = append(cfg.Instruments, in)
	}
	for _, in := range traditional {
		in.Group = model.GroupTraditional
		cfg.Instruments = append(cfg.Instruments, in)
	}
	for _, in := range macro {
		in.Group = model.GroupMacro
		cfg.Instruments = append(cfg.Instruments, in)
	}

	// Yahoo quotes EURUSD=X as dollars per euro; the dashboard tracks euros per dollar.
	cfg.Derived = []model.DerivedInstrument{
		{Instrument: model.Instrument{Symbol: "USD_EUR", Label: "USD/EUR", Group: model.GroupMacro}, Invert: "EURUSD=X"},
	}

	cfg.Thresholds = []model.Threshold{
		{Name: "USD/MXN ceiling", Symbol: "MXN=X", Level: 20.5, Direction: model.Above, Severity: model.SeverityCritical},
		{Name: "US 10Y yield ceiling", Symbol: "^TNX", Level: 4.5, Direction: model.Above, Severity: model.SeverityAlert},
		{Name: "USD/EUR floor", Symbol: "USD_EUR", Level: 0.90, Direction: model.Below, Severity: model.SeverityNotice},
	}

	cfg.Dashboard.WindowDays = 365
	cfg.Dashboard.MinWindowDays = 30
	cfg.Dashboard.MaxWindowDays = 700
	cfg.Dashboard.CacheTTL = time.Hour
	cfg.Dashboard.Compare = []model.Symbol{"NVDA", "KO", "TSLA", "JPM"}
	cfg.Dashboard.Benchmark = "NVDA"
	cfg.Dashboard.BenchmarkGroup = model.GroupTraditional
	cfg.Dashboard.Correlation.X = "^TNX"
	cfg.Dashboard.Correlation.Y = "USD_EUR"

	cfg.Server.Port = 8080
	cfg.Log.Level = "info"

	return cfg
}
