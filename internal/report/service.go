package report

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/odyssey-erp/prospector/internal/leads"
)

// ErrEmptySelection is returned when a report is requested for no companies.
var ErrEmptySelection = errors.New("report: no companies selected")

// Narrator produces the free-text analysis for one company.
type Narrator interface {
	Narrate(ctx context.Context, rec leads.AnnotatedRecord) string
}

// DocumentRenderer converts a Document into PDF bytes.
type DocumentRenderer interface {
	Render(ctx context.Context, doc Document) (Rendered, error)
}

// Observer is notified after every rendered report.
type Observer interface {
	ObserveReport(companies int, narratives bool)
}

// Request selects the companies of one report, already in output order.
type Request struct {
	Records           []leads.AnnotatedRecord
	IncludeNarratives bool
}

// Result is a finished report.
type Result struct {
	FileName string
	PDF      []byte
	Document Document
}

// Service runs the report pipeline: narratives, layout, rendering.
type Service struct {
	builder  *Builder
	renderer DocumentRenderer
	narrator Narrator
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
}

// ServiceConfig wires the Service dependencies. Narrator and Observer are optional.
type ServiceConfig struct {
	Builder  *Builder
	Renderer DocumentRenderer
	Narrator Narrator
	Observer Observer
	Logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	builder := cfg.Builder
	if builder == nil {
		builder = NewBuilder()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		builder:  builder,
		renderer: cfg.Renderer,
		narrator: cfg.Narrator,
		observer: cfg.Observer,
		logger:   logger,
		now:      time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Generate requests narratives one company at a time, in order, then renders.
func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	if len(req.Records) == 0 {
		return Result{}, ErrEmptySelection
	}
	if s.renderer == nil {
		return Result{}, errors.New("report service: renderer not configured")
	}
	var narratives map[int]string
	if req.IncludeNarratives && s.narrator != nil {
		narratives = make(map[int]string, len(req.Records))
		for i, rec := range req.Records {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
			narratives[i] = s.narrator.Narrate(ctx, rec)
		}
	}
	now := s.now()
	doc := s.builder.Build(req.Records, narratives, now)
	rendered, err := s.renderer.Render(ctx, doc)
	if err != nil {
		return Result{}, err
	}
	if s.observer != nil {
		s.observer.ObserveReport(len(req.Records), req.IncludeNarratives)
	}
	s.logger.Info("report rendered", slog.Int("companies", len(req.Records)), slog.Bool("narratives", req.IncludeNarratives), slog.Int("bytes", len(rendered.PDF)))
	return Result{FileName: FileName(now), PDF: rendered.PDF, Document: doc}, nil
}
