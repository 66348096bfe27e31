// Package dashboardhttp serves the lead dashboard: workbook upload, filters,
// exports, and PDF reports.
package dashboardhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/prospector/internal/dataset"
	"github.com/odyssey-erp/prospector/internal/leads"
	"github.com/odyssey-erp/prospector/internal/report"
	"github.com/odyssey-erp/prospector/internal/shared"
	"github.com/odyssey-erp/prospector/internal/view"
	"github.com/odyssey-erp/prospector/internal/workbook"
	"github.com/odyssey-erp/prospector/jobs"
)

const pageTitle = "Identificación de Clientes Potenciales"

// DatasetStore keeps the annotated workbook of each session.
type DatasetStore interface {
	Save(ctx context.Context, fileName, sheet string, skipped int, records []leads.AnnotatedRecord) (dataset.Dataset, error)
	Get(ctx context.Context, id string) (dataset.Dataset, error)
	Delete(ctx context.Context, id string) error
}

// ReportService renders a report synchronously.
type ReportService interface {
	Generate(ctx context.Context, req report.Request) (report.Result, error)
}

// ReportQueue submits report jobs to the worker.
type ReportQueue interface {
	EnqueueReportRender(ctx context.Context, payload jobs.ReportRenderPayload) (*asynq.TaskInfo, error)
}

// ReportResults tracks asynchronous report outcomes.
type ReportResults interface {
	MarkPending(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, cause error) error
	Status(ctx context.Context, id string) (report.Status, error)
	PDF(ctx context.Context, id string) ([]byte, error)
}

// DatasetObserver is notified after every upload attempt.
type DatasetObserver interface {
	ObserveDataset(ok bool, companies int)
}

// Config wires the handler dependencies. Queue, Results and Observer are optional;
// without Queue and Results reports are always rendered in the request.
type Config struct {
	Logger    *slog.Logger
	Templates *view.Engine
	Engine    *leads.Engine
	Datasets  DatasetStore
	Reports   ReportService
	Queue     ReportQueue
	Results   ReportResults
	Observer  DatasetObserver
	CSRF      *shared.CSRFManager
	MaxUpload int64
}

// Handler coordinates HTTP requests for the lead dashboard.
type Handler struct {
	logger    *slog.Logger
	templates *view.Engine
	engine    *leads.Engine
	datasets  DatasetStore
	reports   ReportService
	queue     ReportQueue
	results   ReportResults
	observer  DatasetObserver
	csrf      *shared.CSRFManager
	maxUpload int64
	validator *validator.Validate
	csvPool   sync.Pool
	now       func() time.Time
}

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	engine := cfg.Engine
	if engine == nil {
		engine = leads.NewEngine(leads.DefaultTargets())
	}
	h := &Handler{
		logger:    logger,
		templates: cfg.Templates,
		engine:    engine,
		datasets:  cfg.Datasets,
		reports:   cfg.Reports,
		queue:     cfg.Queue,
		results:   cfg.Results,
		observer:  cfg.Observer,
		csrf:      cfg.CSRF,
		maxUpload: cfg.MaxUpload,
		validator: validator.New(),
		now:       time.Now,
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// AsyncEnabled reports whether reports can be handed to the worker.
func (h *Handler) AsyncEnabled() bool {
	return h.queue != nil && h.results != nil
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	ds, ok := h.sessionDataset(r.Context(), sess)
	if !ok {
		h.render(w, r, "pages/upload.html", uploadView{MaxMB: h.maxUpload >> 20, Targets: h.engine.Targets().Entries()})
		return
	}

	filters, err := parseFilters(r)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}

	vm, err := h.buildViewModel(r.Context(), ds, filters)
	if err != nil {
		h.handleServerError(w, "build dashboard", err)
		return
	}
	vm.AsyncAvailable = h.AsyncEnabled()
	h.render(w, r, "pages/leads.html", vm)
}

type uploadView struct {
	MaxMB   int64
	Targets []leads.TargetCode
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	sess := shared.SessionFromContext(r.Context())
	var flash *shared.FlashMessage
	csrfToken := ""
	if sess != nil {
		flash = sess.PopFlash()
		if h.csrf != nil {
			token, err := h.csrf.EnsureToken(r.Context(), sess)
			if err != nil {
				h.handleServerError(w, "csrf token", err)
				return
			}
			csrfToken = token
		}
	}
	viewData := view.TemplateData{
		Title:       pageTitle,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Render(w, name, viewData); err != nil {
		h.logError("render template", err)
	}
}

// sessionDataset returns the dataset bound to the session. A stale reference is
// dropped so the upload form is shown again.
func (h *Handler) sessionDataset(ctx context.Context, sess *shared.Session) (dataset.Dataset, bool) {
	if sess == nil {
		return dataset.Dataset{}, false
	}
	id := sess.Get(shared.SessionKeyDataset)
	if id == "" {
		return dataset.Dataset{}, false
	}
	ds, err := h.datasets.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, dataset.ErrNotFound) {
			h.logError("load dataset", err)
		}
		sess.Delete(shared.SessionKeyDataset)
		sess.AddFlash(shared.FlashMessage{Kind: "warning", Message: "Los datos cargados expiraron. Cargue el archivo nuevamente."})
		return dataset.Dataset{}, false
	}
	return ds, true
}

var workbookExtensions = map[string]struct{}{".xlsx": {}, ".xlsm": {}, ".xltx": {}, ".xltm": {}}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	defer http.Redirect(w, r, "/leads", http.StatusSeeOther)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		msg := "Seleccione un archivo Excel para cargar."
		if errors.As(err, &tooLarge) {
			msg = "El archivo supera el tamaño máximo permitido."
		}
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: msg})
		h.observe(false, 0)
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if _, ok := workbookExtensions[strings.ToLower(filepath.Ext(name))]; !ok {
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Formato no soportado. Use un archivo .xlsx."})
		h.observe(false, 0)
		return
	}

	result, err := workbook.Load(file)
	if err != nil {
		h.logger.Warn("workbook rejected", slog.String("file", name), slog.Any("error", err))
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: loadErrorMessage(err)})
		h.observe(false, 0)
		return
	}
	if len(result.Records) == 0 {
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "El archivo no contiene empresas con razón social."})
		h.observe(false, 0)
		return
	}

	annotated := h.engine.Annotate(result.Records)
	ds, err := h.datasets.Save(r.Context(), name, result.Sheet, result.Skipped, annotated)
	if err != nil {
		h.logError("save dataset", err)
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "No fue posible guardar los datos. Intente de nuevo."})
		h.observe(false, 0)
		return
	}
	if previous := sess.Get(shared.SessionKeyDataset); previous != "" && previous != ds.ID {
		if err := h.datasets.Delete(r.Context(), previous); err != nil {
			h.logger.Warn("delete previous dataset", slog.Any("error", err))
		}
	}
	sess.Set(shared.SessionKeyDataset, ds.ID)

	targets := 0
	for _, rec := range annotated {
		if rec.IsTargetLead {
			targets++
		}
	}
	h.observe(true, len(annotated))
	h.logger.Info("dataset loaded",
		slog.String("dataset_id", ds.ID),
		slog.String("file", name),
		slog.Int("companies", len(annotated)),
		slog.Int("targets", targets),
		slog.Int("skipped", result.Skipped),
	)
	sess.AddFlash(shared.FlashMessage{
		Kind:    "success",
		Message: fmt.Sprintf("Se cargaron %d empresas, %d en sectores objetivo.", len(annotated), targets),
	})
}

func loadErrorMessage(err error) string {
	switch {
	case errors.Is(err, workbook.ErrSchemaMismatch):
		return "El archivo no tiene las 20 columnas esperadas después de las 4 filas de encabezado."
	case errors.Is(err, workbook.ErrNoSheet):
		return "El archivo no contiene hojas."
	default:
		return "No se pudo leer el archivo Excel."
	}
}

func (h *Handler) observe(ok bool, companies int) {
	if h.observer != nil {
		h.observer.ObserveDataset(ok, companies)
	}
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if id := sess.Get(shared.SessionKeyDataset); id != "" {
			if err := h.datasets.Delete(r.Context(), id); err != nil {
				h.logger.Warn("delete dataset", slog.Any("error", err))
			}
			sess.Delete(shared.SessionKeyDataset)
		}
		sess.AddFlash(shared.FlashMessage{Kind: "info", Message: "Datos descartados."})
	}
	http.Redirect(w, r, "/leads", http.StatusSeeOther)
}

func (h *Handler) handleFilterError(w http.ResponseWriter, err error) {
	var vErr validationError
	if errors.As(err, &vErr) {
		http.Error(w, "Parámetro no válido: "+vErr.field, http.StatusBadRequest)
		return
	}
	h.handleServerError(w, "parse filters", err)
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}

type validationError struct {
	field string
}

func (v validationError) Error() string {
	return fmt.Sprintf("invalid %s", v.field)
}
