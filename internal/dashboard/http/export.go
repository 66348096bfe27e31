package dashboardhttp

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/odyssey-erp/prospector/internal/dataset"
	"github.com/odyssey-erp/prospector/internal/leads"
	"github.com/odyssey-erp/prospector/internal/platform/httpx"
	"github.com/odyssey-erp/prospector/internal/shared"
)

var csvHeader = []string{
	"Fila", "NIT", "Razón social", "CIIU", "Prefijo", "Objetivo",
	"Macrosector", "Región", "Departamento", "Ciudad",
	"Ingresos 2024", "Ingresos 2023", "Ganancia 2024", "Activos 2024", "Pasivos 2024", "Patrimonio 2024",
	"Crecimiento %", "Margen %", "Endeudamiento %",
}

// WriteRecordsCSV serialises annotated records in table order.
func WriteRecordsCSV(w io.Writer, records []leads.AnnotatedRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range records {
		target := "No"
		if rec.IsTargetLead {
			target = "Sí"
		}
		if err := writer.Write([]string{
			strconv.Itoa(rec.Row),
			rec.TaxID,
			rec.LegalName,
			rec.IndustryCode,
			rec.IndustryCodePrefix,
			target,
			rec.Macrosector,
			rec.Region,
			rec.Department,
			rec.City,
			formatOptional(rec.Y2024.Revenue),
			formatOptional(rec.Y2023.Revenue),
			formatOptional(rec.Y2024.Profit),
			formatOptional(rec.Y2024.Assets),
			formatOptional(rec.Y2024.Liabilities),
			formatOptional(rec.Y2024.Equity),
			formatFloat(rec.RevenueGrowthPct),
			formatFloat(rec.ProfitMarginPct),
			formatFloat(rec.DebtRatioPct),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	ds, filters, ok := h.exportInput(w, r)
	if !ok {
		return
	}
	records := filters.Query().Apply(ds.Records)

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := WriteRecordsCSV(buf, records); err != nil {
		h.handleServerError(w, "write records csv", err)
		return
	}

	filename := fmt.Sprintf("clientes_potenciales_%s.csv", h.now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

type recordsResponse struct {
	DatasetID string                  `json:"dataset_id"`
	Total     int                     `json:"total"`
	Count     int                     `json:"count"`
	Records   []leads.AnnotatedRecord `json:"records"`
}

func (h *Handler) handleJSON(w http.ResponseWriter, r *http.Request) {
	ds, filters, ok := h.exportInput(w, r)
	if !ok {
		return
	}
	records := filters.Query().Apply(ds.Records)
	httpx.JSON(w, http.StatusOK, recordsResponse{
		DatasetID: ds.ID,
		Total:     len(ds.Records),
		Count:     len(records),
		Records:   records,
	})
}

// exportInput resolves the session dataset and filters, answering with a
// problem response when either is unusable.
func (h *Handler) exportInput(w http.ResponseWriter, r *http.Request) (dataset.Dataset, filterForm, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.Get(shared.SessionKeyDataset) == "" {
		httpx.RespondError(w, fmt.Errorf("%w: no dataset loaded", httpx.ErrNotFound))
		return dataset.Dataset{}, filterForm{}, false
	}
	ds, err := h.datasets.Get(r.Context(), sess.Get(shared.SessionKeyDataset))
	if err != nil {
		if errors.Is(err, dataset.ErrNotFound) {
			httpx.RespondError(w, fmt.Errorf("%w: dataset expired", httpx.ErrNotFound))
			return dataset.Dataset{}, filterForm{}, false
		}
		h.logError("load dataset", err)
		httpx.RespondError(w, err)
		return dataset.Dataset{}, filterForm{}, false
	}
	filters, err := parseFilters(r)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return dataset.Dataset{}, filterForm{}, false
	}
	return ds, filters, true
}
