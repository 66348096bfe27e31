package view

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odyssey-erp/prospector/internal/shared"
	"github.com/odyssey-erp/prospector/web"
)

// Missing is shown in place of absent figures.
const Missing = "N/D"

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Data        any
}

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	tpl, err := template.New("root").Funcs(Funcs()).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Funcs returns the formatting helpers available to every page.
func Funcs() template.FuncMap {
	printer := message.NewPrinter(language.English)
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02/01/2006 15:04")
		},
		"money": func(v *float64) string {
			if v == nil {
				return Missing
			}
			return printer.Sprintf("$%.0f", *v)
		},
		"amount": func(v float64) string {
			return printer.Sprintf("$%.0f", v)
		},
		"pct": func(v float64) string {
			return fmt.Sprintf("%.2f%%", v)
		},
		"count": func(n int) string {
			return printer.Sprintf("%d", n)
		},
		"plain": func(v float64) string {
			return fmt.Sprintf("%.0f", v)
		},
		"join": strings.Join,
		"add":  func(a, b int) int { return a + b },
		"orMissing": func(s string) string {
			if strings.TrimSpace(s) == "" {
				return Missing
			}
			return s
		},
	}
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}
