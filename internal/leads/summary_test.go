package leads

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	all := sampleRecords()
	filtered := Query{}.Apply(all)
	s := Summarize(all, filtered, DefaultTargets())

	assert.Equal(t, 5, s.TotalCompanies)
	assert.Equal(t, 4, s.TargetLeads)
	assert.Equal(t, 18, s.TargetSectors)
	assert.Equal(t, 3, s.Departments)
	assert.Equal(t, 4, s.Filtered)
	assert.InDelta(t, 80.0, s.FilteredShare, 1e-9)
	assert.InDelta(t, 23000.0/3, s.AvgRevenue, 1e-9)
	assert.True(t, s.RevenueAvailable)
	assert.Equal(t, 9000.0, s.RevenueMax)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, nil, DefaultTargets())
	assert.Zero(t, s.TotalCompanies)
	assert.Zero(t, s.FilteredShare)
	assert.False(t, s.RevenueAvailable)
}

func TestDistributions(t *testing.T) {
	records := sampleRecords()
	prefixes := PrefixDistribution(records, 2)
	require.Len(t, prefixes, 2)
	assert.Equal(t, Count{Label: "C101", Count: 1}, prefixes[0])

	sections := SectionDistribution(records)
	require.Len(t, sections, 3)
	assert.Equal(t, Count{Label: "C", Count: 3}, sections[0])

	codes := TopCodes(records, 0)
	assert.Len(t, codes, 5)
}

func TestCodeCatalog(t *testing.T) {
	records := NewEngine(DefaultTargets()).Annotate([]CompanyRecord{
		{IndustryCode: "C1012"},
		{IndustryCode: "C1011"},
		{IndustryCode: "c1011"},
		{IndustryCode: "A0111"},
		{IndustryCode: ""},
	})
	got := CodeCatalog(records)
	assert.Equal(t, []CodeGroup{
		{Prefix: "A011", Codes: []string{"A0111"}},
		{Prefix: "C101", Codes: []string{"C1011", "C1012"}},
	}, got)
}

func TestDistinct(t *testing.T) {
	records := sampleRecords()
	assert.Equal(t, []string{"COMERCIO", "MANUFACTURA", "SERVICIOS"}, Distinct(records, FieldMacrosector))
	assert.Equal(t, []string{"ANTIOQUIA", "BOGOTA D.C.", "VALLE"}, Distinct(records, "Department"))
	assert.Nil(t, Distinct(records, "city"))
}
