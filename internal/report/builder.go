// Package report turns selected leads into a paginated PDF document.
package report

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odyssey-erp/prospector/internal/leads"
)

// Placeholder is printed for absent values.
const Placeholder = "N/D"

// Document is the template model for one report.
type Document struct {
	Title       string
	GeneratedOn string
	GeneratedAt time.Time
	Summary     string
	Companies   []CompanySection
}

// CompanySection is one company page.
type CompanySection struct {
	Heading    string
	PageBreak  bool
	Info       []Field
	Financials []FinancialRow
	Indicators []Field
	Narrative  string
}

// Field is a label/value pair.
type Field struct {
	Label string
	Value string
}

// FinancialRow is a line of the two-year comparison table.
type FinancialRow struct {
	Concept  string
	Current  string
	Previous string
	Change   string
}

// Builder prepares documents. The zero value is ready to use.
type Builder struct {
	printer *message.Printer
}

// NewBuilder constructs a Builder with comma digit grouping.
func NewBuilder() *Builder {
	return &Builder{printer: message.NewPrinter(language.English)}
}

// Build lays out records in caller order. narratives is keyed by record
// position and may be nil or sparse.
func (b *Builder) Build(records []leads.AnnotatedRecord, narratives map[int]string, now time.Time) Document {
	doc := Document{
		Title:       "INFORME DE CLIENTES POTENCIALES",
		GeneratedOn: now.Format("02/01/2006"),
		GeneratedAt: now,
		Summary: fmt.Sprintf("Se han identificado %d empresas como clientes potenciales para productos de empaque y termoformado. "+
			"Estas empresas operan en sectores relacionados con alimentos, bebidas y productos que requieren soluciones de empaque especializadas.", len(records)),
		Companies: make([]CompanySection, 0, len(records)),
	}
	for i, rec := range records {
		doc.Companies = append(doc.Companies, CompanySection{
			Heading:   fmt.Sprintf("%d. %s", i+1, rec.LegalName),
			PageBreak: i > 0,
			Info: []Field{
				{Label: "NIT:", Value: text(rec.TaxID)},
				{Label: "Actividad (CIIU):", Value: text(rec.IndustryCode)},
				{Label: "Macrosector:", Value: text(rec.Macrosector)},
				{Label: "Ubicación:", Value: text(rec.City) + ", " + text(rec.Department)},
				{Label: "Región:", Value: text(rec.Region)},
			},
			Financials: []FinancialRow{
				{Concept: "Ingresos Operacionales", Current: b.money(rec.Y2024.Revenue), Previous: b.money(rec.Y2023.Revenue), Change: growth(rec)},
				{Concept: "Ganancia/Pérdida", Current: b.money(rec.Y2024.Profit), Previous: b.money(rec.Y2023.Profit), Change: "-"},
				{Concept: "Total Activos", Current: b.money(rec.Y2024.Assets), Previous: b.money(rec.Y2023.Assets), Change: "-"},
				{Concept: "Total Pasivos", Current: b.money(rec.Y2024.Liabilities), Previous: b.money(rec.Y2023.Liabilities), Change: "-"},
				{Concept: "Total Patrimonio", Current: b.money(rec.Y2024.Equity), Previous: b.money(rec.Y2023.Equity), Change: "-"},
			},
			Indicators: []Field{
				{Label: "Margen de Ganancia 2024", Value: percent(rec.ProfitMarginPct)},
				{Label: "Ratio de Endeudamiento", Value: percent(rec.DebtRatioPct)},
				{Label: "Grupo NIIF", Value: text(rec.AccountingGroup)},
			},
			Narrative: strings.TrimSpace(narratives[i]),
		})
	}
	return doc
}

func (b *Builder) money(v *float64) string {
	if v == nil {
		return Placeholder
	}
	p := b.printer
	if p == nil {
		p = message.NewPrinter(language.English)
	}
	return p.Sprintf("$%.0f", *v)
}

func growth(rec leads.AnnotatedRecord) string {
	if rec.Y2024.Revenue == nil || rec.Y2023.Revenue == nil {
		return Placeholder
	}
	return percent(rec.RevenueGrowthPct)
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func text(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

// FileName is the attachment name for a report generated at now.
func FileName(now time.Time) string {
	return "informe_clientes_potenciales_" + now.Format("20060102_150405") + ".pdf"
}
