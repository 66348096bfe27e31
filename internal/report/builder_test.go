package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/prospector/internal/leads"
)

func annotated(recs ...leads.CompanyRecord) []leads.AnnotatedRecord {
	return leads.NewEngine(leads.DefaultTargets()).Annotate(recs)
}

func fullRecord() leads.CompanyRecord {
	return leads.CompanyRecord{
		Row:             6,
		TaxID:           "900123456",
		LegalName:       "Lacteos del Valle SAS",
		Region:          "Pacífico",
		Department:      "VALLE",
		City:            "CALI",
		IndustryCode:    "C1051",
		Macrosector:     "MANUFACTURA",
		AccountingGroup: "Grupo 1",
		Y2024:           leads.Financials{Revenue: leads.Float(1500000), Profit: leads.Float(-25000), Assets: leads.Float(2000000), Liabilities: leads.Float(800000), Equity: leads.Float(1200000)},
		Y2023:           leads.Financials{Revenue: leads.Float(1000000), Profit: leads.Float(90000), Assets: leads.Float(1800000), Liabilities: leads.Float(700000), Equity: leads.Float(1100000)},
	}
}

func TestBuildDocument(t *testing.T) {
	now := time.Date(2025, 3, 7, 14, 5, 9, 0, time.UTC)
	records := annotated(fullRecord(), leads.CompanyRecord{Row: 7, LegalName: "Sin Datos"})
	doc := NewBuilder().Build(records, map[int]string{0: "  Cliente ideal. "}, now)

	assert.Equal(t, "INFORME DE CLIENTES POTENCIALES", doc.Title)
	assert.Equal(t, "07/03/2025", doc.GeneratedOn)
	assert.True(t, strings.HasPrefix(doc.Summary, "Se han identificado 2 empresas"))
	require.Len(t, doc.Companies, 2)

	first := doc.Companies[0]
	assert.Equal(t, "1. Lacteos del Valle SAS", first.Heading)
	assert.False(t, first.PageBreak)
	assert.Equal(t, Field{Label: "Ubicación:", Value: "CALI, VALLE"}, first.Info[3])
	assert.Equal(t, FinancialRow{Concept: "Ingresos Operacionales", Current: "$1,500,000", Previous: "$1,000,000", Change: "50.0%"}, first.Financials[0])
	assert.Equal(t, "$-25,000", first.Financials[1].Current)
	assert.Equal(t, "-", first.Financials[1].Change)
	assert.Equal(t, Field{Label: "Margen de Ganancia 2024", Value: "-1.7%"}, first.Indicators[0])
	assert.Equal(t, Field{Label: "Ratio de Endeudamiento", Value: "40.0%"}, first.Indicators[1])
	assert.Equal(t, "Cliente ideal.", first.Narrative)

	second := doc.Companies[1]
	assert.Equal(t, "2. Sin Datos", second.Heading)
	assert.True(t, second.PageBreak)
	assert.Equal(t, Placeholder, second.Info[0].Value)
	assert.Equal(t, "N/D, N/D", second.Info[3].Value)
	for _, row := range second.Financials {
		assert.Equal(t, Placeholder, row.Current)
		assert.Equal(t, Placeholder, row.Previous)
	}
	assert.Equal(t, Placeholder, second.Financials[0].Change)
	assert.Equal(t, Placeholder, second.Indicators[2].Value)
	assert.Empty(t, second.Narrative)
}

func TestZeroBuilderFormatsMoney(t *testing.T) {
	var b Builder
	doc := b.Build(annotated(fullRecord()), nil, time.Now())
	assert.Equal(t, "$2,000,000", doc.Companies[0].Financials[2].Current)
}

func TestFileName(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "informe_clientes_potenciales_20250102_030405.pdf", FileName(now))
}

type capturePDF struct {
	html string
	pdf  []byte
	err  error
}

func (c *capturePDF) RenderHTML(_ context.Context, html string) ([]byte, error) {
	c.html = html
	return c.pdf, c.err
}

func TestRendererHTML(t *testing.T) {
	client := &capturePDF{pdf: []byte("%PDF-1.7")}
	renderer, err := NewRenderer(client)
	require.NoError(t, err)

	doc := NewBuilder().Build(annotated(fullRecord(), leads.CompanyRecord{LegalName: "B <script>"}), map[int]string{0: "Buen cliente"}, time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC))
	out, err := renderer.Render(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), out.PDF)
	assert.Equal(t, client.html, out.HTML)
	assert.Contains(t, out.HTML, "INFORME DE CLIENTES POTENCIALES")
	assert.Contains(t, out.HTML, "Generado el 07/03/2025")
	assert.Contains(t, out.HTML, "Información Financiera (miles de pesos)")
	assert.Contains(t, out.HTML, "Análisis de Potencial como Cliente")
	assert.Equal(t, 1, strings.Count(out.HTML, "Análisis de Potencial como Cliente"))
	assert.Equal(t, 1, strings.Count(out.HTML, "company page"))
	assert.Contains(t, out.HTML, "B &lt;script&gt;")
}

func TestNewRendererRequiresClient(t *testing.T) {
	_, err := NewRenderer(nil)
	assert.Error(t, err)
}
