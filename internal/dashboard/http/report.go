package dashboardhttp

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odyssey-erp/prospector/internal/leads"
	"github.com/odyssey-erp/prospector/internal/platform/httpx"
	"github.com/odyssey-erp/prospector/internal/report"
	"github.com/odyssey-erp/prospector/internal/shared"
	"github.com/odyssey-erp/prospector/jobs"
)

// maxReportCompanies bounds one report; every company costs a narrative call.
const maxReportCompanies = 100

type reportForm struct {
	Rows       []int `validate:"required,min=1,max=100,dive,gt=0"`
	Narratives bool
	Async      bool
}

func (h *Handler) parseReportForm(r *http.Request) (reportForm, error) {
	if err := r.ParseForm(); err != nil {
		return reportForm{}, validationError{field: "form"}
	}
	form := reportForm{
		Narratives: checked(r.PostFormValue("narratives")),
		Async:      checked(r.PostFormValue("async")),
	}
	for _, raw := range r.PostForm["rows"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			row, err := strconv.Atoi(part)
			if err != nil {
				return reportForm{}, validationError{field: "rows"}
			}
			form.Rows = append(form.Rows, row)
		}
	}
	if err := h.validator.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return reportForm{}, validationError{field: strings.ToLower(fieldErrs[0].Field())}
		}
		return reportForm{}, err
	}
	return form, nil
}

func checked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "on", "true", "yes", "si", "sí":
		return true
	}
	return false
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	ds, ok := h.sessionDataset(r.Context(), sess)
	if !ok {
		http.Redirect(w, r, "/leads", http.StatusSeeOther)
		return
	}

	form, err := h.parseReportForm(r)
	if err != nil {
		var vErr validationError
		if !errors.As(err, &vErr) {
			h.handleServerError(w, "validate report form", err)
			return
		}
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: fmt.Sprintf("Seleccione entre 1 y %d empresas para el reporte.", maxReportCompanies)})
		http.Redirect(w, r, "/leads", http.StatusSeeOther)
		return
	}

	selected := leads.SelectRows(ds.Records, form.Rows)
	if len(selected) == 0 {
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Las empresas seleccionadas no existen en los datos cargados."})
		http.Redirect(w, r, "/leads", http.StatusSeeOther)
		return
	}

	if form.Async && h.AsyncEnabled() {
		h.enqueueReport(w, r, ds.ID, rowsOf(selected), form.Narratives)
		return
	}

	result, err := h.reports.Generate(r.Context(), report.Request{
		Records:           selected,
		IncludeNarratives: form.Narratives,
	})
	if err != nil {
		h.logError("generate report", err)
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUpstream, err))
		return
	}
	writePDF(w, result.FileName, result.PDF, h.logger)
}

func (h *Handler) enqueueReport(w http.ResponseWriter, r *http.Request, datasetID string, rows []int, narratives bool) {
	id := uuid.NewString()
	if err := h.results.MarkPending(r.Context(), id); err != nil {
		h.handleServerError(w, "mark report pending", err)
		return
	}
	_, err := h.queue.EnqueueReportRender(r.Context(), jobs.ReportRenderPayload{
		ReportID:          id,
		DatasetID:         datasetID,
		Rows:              rows,
		IncludeNarratives: narratives,
	})
	if err != nil {
		if markErr := h.results.MarkFailed(r.Context(), id, err); markErr != nil {
			h.logger.Warn("mark report failed", slog.Any("error", markErr))
		}
		h.logError("enqueue report", err)
		httpx.RespondError(w, fmt.Errorf("%w: queue unavailable", httpx.ErrUpstream))
		return
	}
	h.logger.Info("report queued", slog.String("report_id", id), slog.Int("companies", len(rows)))
	http.Redirect(w, r, "/leads/report/"+id, http.StatusSeeOther)
}

func (h *Handler) handleReportStatus(w http.ResponseWriter, r *http.Request) {
	if !h.AsyncEnabled() {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: report %q", httpx.ErrNotFound, id))
		return
	}
	status, err := h.results.Status(r.Context(), id)
	if err != nil {
		if errors.Is(err, report.ErrResultNotFound) {
			httpx.RespondError(w, fmt.Errorf("%w: report %s", httpx.ErrNotFound, id))
			return
		}
		h.logError("report status", err)
		httpx.RespondError(w, err)
		return
	}
	switch status.State {
	case report.StatusReady:
		pdf, err := h.results.PDF(r.Context(), id)
		if err != nil {
			if errors.Is(err, report.ErrResultNotFound) {
				httpx.RespondError(w, fmt.Errorf("%w: report %s", httpx.ErrNotFound, id))
				return
			}
			h.logError("load report pdf", err)
			httpx.RespondError(w, err)
			return
		}
		writePDF(w, status.FileName, pdf, h.logger)
	case report.StatusPending:
		w.Header().Set("Retry-After", "5")
		httpx.JSON(w, http.StatusAccepted, status)
	default:
		httpx.JSON(w, http.StatusOK, status)
	}
}

func writePDF(w http.ResponseWriter, filename string, pdf []byte, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	if _, err := w.Write(pdf); err != nil && logger != nil {
		logger.Error("stream pdf", slog.Any("error", err))
	}
}

func rowsOf(records []leads.AnnotatedRecord) []int {
	rows := make([]int, len(records))
	for i, rec := range records {
		rows[i] = rec.Row
	}
	return rows
}
