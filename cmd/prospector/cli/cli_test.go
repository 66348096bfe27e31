package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/prospector/internal/leads"
	"github.com/odyssey-erp/prospector/internal/report"
	"github.com/odyssey-erp/prospector/internal/workbook"
)

type stubGenerator struct {
	requests []report.Request
	err      error
}

func (s *stubGenerator) Generate(ctx context.Context, req report.Request) (report.Result, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return report.Result{}, s.err
	}
	return report.Result{FileName: "informe.pdf", PDF: []byte("%PDF-1.7 stub")}, nil
}

func writeWorkbook(t *testing.T, rows ...[]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetList()[0]
	require.NoError(t, f.SetCellValue(sheet, "A1", "SUPERINTENDENCIA DE SOCIEDADES"))
	header := make([]interface{}, len(workbook.Columns))
	for i, name := range workbook.Columns {
		header[i] = name
	}
	require.NoError(t, f.SetSheetRow(sheet, "A5", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, 6+i)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "empresas.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func company(seq int, nit, name, code string, revenue24, revenue23 float64) []interface{} {
	return []interface{}{
		seq, nit, name, "SUPERSOCIEDADES", "ANDINA", "ANTIOQUIA", "MEDELLIN", code, "MANUFACTURA",
		revenue24, revenue24 / 10, revenue24 / 2, revenue24 / 5, revenue24 / 4,
		revenue23, revenue23 / 10, revenue23 / 2, revenue23 / 5, revenue23 / 4,
		"NIIF PLENAS",
	}
}

func sampleWorkbook(t *testing.T) string {
	return writeWorkbook(t,
		company(1, "900100", "Acme Alimentos SAS", "C1011", 1000000, 800000),
		company(2, "900200", "Beta Software SAS", "J6201", 3000000, 2500000),
		company(3, "900300", "Cafe del Sur SAS", "C1071", 5000000, 4000000),
	)
}

func newTestRunner(gen ReportGenerator) *Runner {
	return NewRunner(leads.DefaultTargets(), gen)
}

func TestClassifyCommandJSON(t *testing.T) {
	path := sampleWorkbook(t)
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)

	code := newTestRunner(nil).ClassifyCommand(context.Background(), ClassifyOptions{
		File:       path,
		JSONOutput: true,
		Stdout:     stdout,
		Stderr:     stderr,
	})
	require.Equal(t, ExitOK, code, stderr.String())

	var summary ClassifySummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	assert.Equal(t, 3, summary.Companies)
	assert.Equal(t, 2, summary.TargetLeads)
	require.Len(t, summary.Records, 3)
	assert.Equal(t, 6, summary.Records[0].Row)
	assert.True(t, summary.Records[0].IsTargetLead)
	assert.Equal(t, "C101", summary.Records[0].IndustryCodePrefix)
	assert.InDelta(t, 25.0, summary.Records[0].RevenueGrowthPct, 0.001)
	assert.False(t, summary.Records[1].IsTargetLead)
}

func TestClassifyCommandLeadsOnlyTop(t *testing.T) {
	path := sampleWorkbook(t)
	stdout := new(bytes.Buffer)

	code := newTestRunner(nil).ClassifyCommand(context.Background(), ClassifyOptions{
		File:       path,
		JSONOutput: true,
		LeadsOnly:  true,
		Top:        1,
		Stdout:     stdout,
		Stderr:     new(bytes.Buffer),
	})
	require.Equal(t, ExitOK, code)

	var summary ClassifySummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	require.Len(t, summary.Records, 1)
	assert.Equal(t, "Cafe del Sur SAS", summary.Records[0].LegalName)
}

func TestClassifyCommandHuman(t *testing.T) {
	path := sampleWorkbook(t)
	stdout := new(bytes.Buffer)

	code := newTestRunner(nil).ClassifyCommand(context.Background(), ClassifyOptions{File: path, Stdout: stdout, Stderr: new(bytes.Buffer)})
	require.Equal(t, ExitOK, code)

	out := stdout.String()
	assert.Contains(t, out, "Empresas: 3")
	assert.Contains(t, out, "Clientes potenciales: 2")
	assert.Contains(t, out, "Acme Alimentos SAS")
	assert.Contains(t, out, "$1,000,000")
	assert.Contains(t, out, "25.00%")
}

func TestClassifyCommandNoLeads(t *testing.T) {
	path := writeWorkbook(t, company(1, "900200", "Beta Software SAS", "J6201", 3000000, 2500000))
	stdout := new(bytes.Buffer)

	code := newTestRunner(nil).ClassifyCommand(context.Background(), ClassifyOptions{File: path, LeadsOnly: true, Stdout: stdout, Stderr: new(bytes.Buffer)})
	assert.Equal(t, ExitNoMatch, code)
	assert.Contains(t, stdout.String(), "Sin empresas para mostrar.")
}

func TestClassifyCommandInputErrors(t *testing.T) {
	stderr := new(bytes.Buffer)
	runner := newTestRunner(nil)

	assert.Equal(t, ExitUsage, runner.ClassifyCommand(context.Background(), ClassifyOptions{Stdout: new(bytes.Buffer), Stderr: stderr}))
	assert.Contains(t, stderr.String(), "--file is required")

	stderr.Reset()
	missing := filepath.Join(t.TempDir(), "missing.xlsx")
	assert.Equal(t, ExitLoad, runner.ClassifyCommand(context.Background(), ClassifyOptions{File: missing, Stdout: new(bytes.Buffer), Stderr: stderr}))

	stderr.Reset()
	runner.WithLoader(func(string) (workbook.Result, error) { return workbook.Result{}, workbook.ErrSchemaMismatch })
	assert.Equal(t, ExitLoad, runner.ClassifyCommand(context.Background(), ClassifyOptions{File: "x.xlsx", Stdout: new(bytes.Buffer), Stderr: stderr}))
	assert.Contains(t, stderr.String(), "unexpected column layout")

	stderr.Reset()
	assert.Equal(t, ExitUsage, runner.ClassifyCommand(context.Background(), ClassifyOptions{File: "x.xlsx", Top: -1, Stdout: new(bytes.Buffer), Stderr: stderr}))
}

func TestReportCommandRowsKeepOrder(t *testing.T) {
	path := sampleWorkbook(t)
	gen := &stubGenerator{}
	out := filepath.Join(t.TempDir(), "out", "informe.pdf")
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)

	code := newTestRunner(gen).ReportCommand(context.Background(), ReportOptions{
		File:       path,
		Rows:       []int{8, 6},
		Narratives: true,
		Out:        out,
		Stdout:     stdout,
		Stderr:     stderr,
	})
	require.Equal(t, ExitOK, code, stderr.String())

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.True(t, req.IncludeNarratives)
	require.Len(t, req.Records, 2)
	assert.Equal(t, 8, req.Records[0].Row)
	assert.Equal(t, 6, req.Records[1].Row)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 stub", string(data))
	assert.Contains(t, stdout.String(), "2 empresas")
}

func TestReportCommandTopTargets(t *testing.T) {
	path := sampleWorkbook(t)
	gen := &stubGenerator{}
	out := filepath.Join(t.TempDir(), "top.pdf")

	code := newTestRunner(gen).ReportCommand(context.Background(), ReportOptions{File: path, Top: 5, Out: out, Stdout: new(bytes.Buffer), Stderr: new(bytes.Buffer)})
	require.Equal(t, ExitOK, code)

	require.Len(t, gen.requests, 1)
	records := gen.requests[0].Records
	require.Len(t, records, 2)
	assert.Equal(t, "Cafe del Sur SAS", records[0].LegalName)
	assert.Equal(t, "Acme Alimentos SAS", records[1].LegalName)
}

func TestReportCommandSelectionErrors(t *testing.T) {
	path := sampleWorkbook(t)
	gen := &stubGenerator{}
	runner := newTestRunner(gen)
	stderr := new(bytes.Buffer)

	assert.Equal(t, ExitUsage, runner.ReportCommand(context.Background(), ReportOptions{File: path, Stdout: new(bytes.Buffer), Stderr: stderr}))
	assert.Equal(t, ExitUsage, runner.ReportCommand(context.Background(), ReportOptions{File: path, Rows: []int{6}, Top: 1, Stdout: new(bytes.Buffer), Stderr: stderr}))
	assert.Equal(t, ExitUsage, runner.ReportCommand(context.Background(), ReportOptions{File: path, Rows: []int{0}, Stdout: new(bytes.Buffer), Stderr: stderr}))
	assert.Equal(t, ExitUsage, runner.ReportCommand(context.Background(), ReportOptions{File: path, Rows: []int{99}, Stdout: new(bytes.Buffer), Stderr: stderr}))
	assert.Empty(t, gen.requests)
}

func TestReportCommandRenderFailure(t *testing.T) {
	path := sampleWorkbook(t)
	gen := &stubGenerator{err: errors.New("gotenberg: status 503")}
	stderr := new(bytes.Buffer)
	out := filepath.Join(t.TempDir(), "fail.pdf")

	code := newTestRunner(gen).ReportCommand(context.Background(), ReportOptions{File: path, Rows: []int{6}, Out: out, Stdout: new(bytes.Buffer), Stderr: stderr})
	assert.Equal(t, ExitRender, code)
	assert.Contains(t, stderr.String(), "gotenberg: status 503")
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestReportCommandWithoutRenderer(t *testing.T) {
	stderr := new(bytes.Buffer)
	code := newTestRunner(nil).ReportCommand(context.Background(), ReportOptions{File: "x.xlsx", Rows: []int{6}, Stdout: new(bytes.Buffer), Stderr: stderr})
	assert.Equal(t, ExitRender, code)
}
