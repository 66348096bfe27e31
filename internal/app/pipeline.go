package app

import (
	"fmt"
	"log/slog"

	"github.com/odyssey-erp/prospector/internal/narrative"
	"github.com/odyssey-erp/prospector/internal/observability"
	"github.com/odyssey-erp/prospector/internal/report"
)

// ReportStack is the report pipeline assembled from configuration.
type ReportStack struct {
	Service   *report.Service
	Converter *report.Client
	Narrator  *narrative.Narrator
}

// NewReportStack wires the completion client, narrator, Gotenberg client and
// renderer into a report.Service. metrics may be nil.
func NewReportStack(cfg *Config, logger *slog.Logger, metrics *observability.Metrics) (*ReportStack, error) {
	completions := narrative.NewClient(narrative.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.NarrativeTimeout,
	})
	narrator := narrative.NewNarrator(completions, logger, metrics)

	converter := report.NewClient(cfg.GotenbergURL, cfg.GotenbergTimeout)
	renderer, err := report.NewRenderer(converter)
	if err != nil {
		return nil, fmt.Errorf("init report renderer: %w", err)
	}
	service := report.NewService(report.ServiceConfig{
		Renderer: renderer,
		Narrator: narrator,
		Observer: metrics,
		Logger:   logger,
	})
	return &ReportStack{Service: service, Converter: converter, Narrator: narrator}, nil
}
