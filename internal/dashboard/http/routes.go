package dashboardhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/prospector/internal/shared"
)

// MountRoutes registers the dashboard endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/leads", h.handleDashboard)
	r.Post("/leads/upload", h.handleUpload)
	r.Post("/leads/reset", h.handleReset)
	r.Get("/leads/report/{id}", h.handleReportStatus)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/leads/export.csv", h.handleCSV)
		gr.Get("/leads/records.json", h.handleJSON)
		gr.Post("/leads/report", h.handleReport)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil && sess.ID != "" {
		return "session:" + sess.ID, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
