package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"

	"MarketPulse/internal/dashboard"
	"MarketPulse/internal/model"
	"MarketPulse/internal/recorder"
)

// StateChange is a symbol whose alert state moved between two watch passes.
type StateChange struct {
	Symbol model.Symbol
	From   model.AlertState
	To     model.AlertState
	Value  float64
}

var stateIcon = map[model.AlertState]string{
	model.Normal:  "🟢",
	model.Warning: "🔴",
	model.Unknown: "⚪",
}

var severityIcon = map[model.Severity]string{
	model.SeverityCritical: "🚨",
	model.SeverityAlert:    "⚠️",
	model.SeverityNotice:   "ℹ️",
}

// FormatAlerts formats the alert panel of an overview pass.
func FormatAlerts(ov *dashboard.Overview) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>MarketPulse alerts</b> | %s\n\n", ov.FetchedAt.Format("2006-01-02 15:04")))

	if len(ov.Alerts) == 0 {
		b.WriteString("No threshold breached.\n")
	}
	for _, a := range ov.Alerts {
		b.WriteString(fmt.Sprintf("%s <b>%s</b> (%s): %.4f %s %.4f\n",
			severityIcon[a.Threshold.Severity], esc(a.Threshold.Name), esc(string(a.Threshold.Symbol)),
			a.Value, directionSign(a.Threshold.Direction), a.Threshold.Level))
	}

	if unknown := symbolsIn(ov.States, model.Unknown); len(unknown) > 0 {
		b.WriteString(fmt.Sprintf("\n%s No data: %s\n", stateIcon[model.Unknown], esc(strings.Join(unknown, ", "))))
	}
	writeErrors(&b, ov.Errors)
	return b.String()
}

// FormatStatus formats the macro KPI cards and the latest passes of the session.
func FormatStatus(ov *dashboard.Overview, passes []recorder.PassSummary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>Macro status</b> | %s\n\n", ov.FetchedAt.Format("2006-01-02 15:04")))
	for _, k := range ov.KPIs {
		b.WriteString(fmt.Sprintf("%s %s: %.4f (%+.4f) range %.4f~%.4f, at %.0f%%\n",
			stateIcon[k.State], esc(k.Label), k.Latest, k.Delta, k.Low, k.High, k.Position*100))
	}
	if len(ov.KPIs) == 0 {
		b.WriteString("No macro data available.\n")
	}

	if len(passes) > 0 {
		b.WriteString("\n<b>Recent passes</b>\n")
		for _, p := range passes {
			b.WriteString(fmt.Sprintf("  %s %s: %d warning, %d unknown, %d failed\n",
				p.StartedAt.Format("01-02 15:04"), p.Kind, p.Warnings, p.Unknown, p.Failed))
		}
	}
	writeErrors(&b, ov.Errors)
	return b.String()
}

// FormatChanges formats state transitions found by the watch job.
func FormatChanges(changes []StateChange) string {
	var b strings.Builder
	b.WriteString("🔔 <b>Alert state changed</b>\n\n")
	for _, c := range changes {
		value := "n/a"
		if !math.IsNaN(c.Value) {
			value = fmt.Sprintf("%.4f", c.Value)
		}
		b.WriteString(fmt.Sprintf("%s %s: %s → %s (%s)\n",
			stateIcon[c.To], esc(string(c.Symbol)), c.From, c.To, value))
	}
	return b.String()
}

// HelpText lists the supported bot commands.
func HelpText() string {
	return "Commands:\n/alerts - current threshold alerts\n/status - macro indicators and recent passes"
}

func writeErrors(b *strings.Builder, errs []*model.SymbolError) {
	if len(errs) == 0 {
		return
	}
	b.WriteString("\n<b>Unavailable</b>\n")
	for _, e := range errs {
		b.WriteString(fmt.Sprintf("  %s: %s\n", esc(string(e.Symbol)), e.Kind()))
	}
}

func symbolsIn(states map[model.Symbol]model.AlertState, want model.AlertState) []string {
	var out []string
	for _, sym := range model.SortSymbols(states) {
		if states[sym] == want {
			out = append(out, string(sym))
		}
	}
	return out
}

func directionSign(d model.Direction) string {
	if d == model.Below {
		return "≤"
	}
	return "≥"
}

func esc(s string) string { return html.EscapeString(s) }
