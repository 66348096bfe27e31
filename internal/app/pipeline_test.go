package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/prospector/internal/leads"
	"github.com/odyssey-erp/prospector/internal/report"
)

func TestNewReportStackRendersThroughGotenberg(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer server.Close()

	cfg := &Config{Pipeline: Pipeline{GotenbergURL: server.URL, GotenbergTimeout: 5 * time.Second}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	stack, err := NewReportStack(cfg, logger, nil)
	require.NoError(t, err)
	require.NotNil(t, stack.Service)
	require.NotNil(t, stack.Narrator)

	rec := leads.NewEngine(leads.DefaultTargets()).AnnotateRecord(leads.CompanyRecord{Row: 6, TaxID: "900100", LegalName: "Acme Alimentos SAS", IndustryCode: "C1011"})
	result, err := stack.Service.Generate(context.Background(), report.Request{Records: []leads.AnnotatedRecord{rec}})
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(result.PDF))
	assert.Equal(t, []string{"/forms/chromium/convert/html"}, paths)
}
