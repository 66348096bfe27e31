package leads

import (
	"math"

	"github.com/shopspring/decimal"
)

// Engine flags target leads and derives financial ratios. It holds no mutable
// state, so one Engine may be shared across goroutines.
type Engine struct {
	targets TargetTable
}

// NewEngine constructs an Engine bound to the given target table.
func NewEngine(targets TargetTable) *Engine {
	return &Engine{targets: targets}
}

// Targets exposes the table the engine classifies against.
func (e *Engine) Targets() TargetTable {
	return e.targets
}

// Annotate maps every record to its annotated form, preserving order.
func (e *Engine) Annotate(records []CompanyRecord) []AnnotatedRecord {
	out := make([]AnnotatedRecord, len(records))
	for i, rec := range records {
		out[i] = e.AnnotateRecord(rec)
	}
	return out
}

// AnnotateRecord derives the lead flag, code prefix and ratios for one record.
func (e *Engine) AnnotateRecord(rec CompanyRecord) AnnotatedRecord {
	return AnnotatedRecord{
		CompanyRecord:      rec,
		IsTargetLead:       e.targets.Match(rec.IndustryCode),
		IndustryCodePrefix: CodePrefix(rec.IndustryCode),
		RevenueGrowthPct:   GrowthPct(rec.Y2023.Revenue, rec.Y2024.Revenue),
		ProfitMarginPct:    RatioPct(rec.Y2024.Profit, rec.Y2024.Revenue),
		DebtRatioPct:       RatioPct(rec.Y2024.Liabilities, rec.Y2024.Assets),
	}
}

// CodePrefix returns the first four characters of code as stored, or the
// whole code when shorter.
func CodePrefix(code string) string {
	runes := []rune(code)
	if len(runes) <= MaxPrefixLength {
		return code
	}
	return string(runes[:MaxPrefixLength])
}

// GrowthPct is the percentage change from previous to current.
func GrowthPct(previous, current *float64) float64 {
	if previous == nil || current == nil {
		return 0
	}
	return round2((*current - *previous) / *previous * 100)
}

// RatioPct is numerator over denominator as a percentage.
func RatioPct(numerator, denominator *float64) float64 {
	if numerator == nil || denominator == nil {
		return 0
	}
	return round2(*numerator / *denominator * 100)
}

// round2 maps NaN and ±Inf to 0 and rounds to 2 places, half to even on the
// value scaled by 100.
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v * 100).RoundBank(0).Shift(-2).InexactFloat64()
}
