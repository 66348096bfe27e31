package leads

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []AnnotatedRecord {
	engine := NewEngine(DefaultTargets())
	return engine.Annotate([]CompanyRecord{
		{Row: 6, LegalName: "Carnicos SA", IndustryCode: "C1011", Macrosector: "MANUFACTURA", Department: "ANTIOQUIA", Region: "Antioquia", Y2024: Financials{Revenue: Float(5000)}},
		{Row: 7, LegalName: "Mayorista SAS", IndustryCode: "G4631", Macrosector: "COMERCIO", Department: "BOGOTA D.C.", Region: "Bogotá - Cundinamarca", Y2024: Financials{Revenue: Float(9000)}},
		{Row: 8, LegalName: "Consultores", IndustryCode: "M7020", Macrosector: "SERVICIOS", Department: "BOGOTA D.C.", Region: "Bogotá - Cundinamarca", Y2024: Financials{Revenue: Float(700)}},
		{Row: 9, LegalName: "Sin ingresos", IndustryCode: "C1051", Macrosector: "MANUFACTURA", Department: "VALLE", Region: "Pacífico"},
		{Row: 10, LegalName: "Quimicos", IndustryCode: "C2011", Macrosector: "MANUFACTURA", Department: "ANTIOQUIA", Region: "Antioquia", Y2024: Financials{Revenue: Float(9000)}},
	})
}

func rows(records []AnnotatedRecord) []int {
	out := make([]int, len(records))
	for i, rec := range records {
		out[i] = rec.Row
	}
	return out
}

func TestQueryPredefinedDefaultsToLeads(t *testing.T) {
	got := Query{}.Apply(sampleRecords())
	assert.Equal(t, []int{6, 7, 9, 10}, rows(got))
}

func TestQueryPredefinedSubset(t *testing.T) {
	got := Query{Mode: ModePredefined, Prefixes: []string{"c101", "C201"}}.Apply(sampleRecords())
	assert.Equal(t, []int{6, 10}, rows(got))
}

func TestQuerySearch(t *testing.T) {
	got := Query{Mode: ModeSearch, Search: "g46"}.Apply(sampleRecords())
	assert.Equal(t, []int{7}, rows(got))

	all := Query{Mode: ModeSearch, Search: "  "}.Apply(sampleRecords())
	assert.Len(t, all, 5)
}

func TestQueryManual(t *testing.T) {
	got := Query{Mode: ModeManual, Codes: []string{"M7020"}, Prefixes: []string{"C105"}}.Apply(sampleRecords())
	assert.Equal(t, []int{8, 9}, rows(got))

	all := Query{Mode: ModeManual}.Apply(sampleRecords())
	assert.Len(t, all, 5)
}

func TestQueryCategoricalAndRevenue(t *testing.T) {
	q := Query{
		Mode:        ModeSearch,
		Macrosector: "MANUFACTURA",
		Department:  "ANTIOQUIA",
		RevenueMin:  Float(0),
		RevenueMax:  Float(6000),
	}
	assert.Equal(t, []int{6}, rows(q.Apply(sampleRecords())))

	region := Query{Mode: ModeSearch, Region: "Pacífico"}
	assert.Equal(t, []int{9}, rows(region.Apply(sampleRecords())))

	// absent revenue fails any range
	ranged := Query{Mode: ModeSearch, Region: "Pacífico", RevenueMin: Float(0)}
	assert.Empty(t, ranged.Apply(sampleRecords()))
}

func TestQueryApplyDoesNotMutate(t *testing.T) {
	records := sampleRecords()
	before := append([]AnnotatedRecord(nil), records...)
	_ = Query{Mode: ModeSearch, Search: "C"}.Apply(records)
	assert.Equal(t, before, records)
}

func TestParseCodeMode(t *testing.T) {
	assert.Equal(t, ModeSearch, ParseCodeMode(" Search "))
	assert.Equal(t, ModeManual, ParseCodeMode("manual"))
	assert.Equal(t, ModePredefined, ParseCodeMode(""))
	assert.Equal(t, ModePredefined, ParseCodeMode("bogus"))
}

func TestTopByRevenueIsStable(t *testing.T) {
	got := TopByRevenue(sampleRecords(), 3)
	require.Len(t, got, 3)
	assert.Equal(t, []int{7, 10, 6}, rows(got))

	assert.Len(t, TopByRevenue(sampleRecords(), 10), 4)
	assert.Nil(t, TopByRevenue(sampleRecords(), 0))
}

func TestSelectRows(t *testing.T) {
	got := SelectRows(sampleRecords(), []int{10, 6, 99, 10})
	assert.Equal(t, []int{10, 6}, rows(got))
}
