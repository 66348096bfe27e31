package report

import (
	"bytes"
	"context"
	"errors"
	"html/template"

	"github.com/odyssey-erp/prospector/web"
)

// PDFClient exposes the subset of the converter used by the renderer.
type PDFClient interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Rendered carries both artefacts of a render.
type Rendered struct {
	HTML string
	PDF  []byte
}

// Renderer executes the embedded report template and converts it to PDF.
type Renderer struct {
	tpl    *template.Template
	client PDFClient
}

// NewRenderer parses the report template and wires the PDF client.
func NewRenderer(client PDFClient) (*Renderer, error) {
	if client == nil {
		return nil, errors.New("report renderer: pdf client required")
	}
	tpl, err := template.New("leads_report.html").ParseFS(web.Templates, "templates/reports/leads_report.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tpl: tpl, client: client}, nil
}

// HTML executes the template only.
func (r *Renderer) HTML(doc Document) (string, error) {
	buf := &bytes.Buffer{}
	if err := r.tpl.Execute(buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render executes the template and converts the HTML to PDF bytes.
func (r *Renderer) Render(ctx context.Context, doc Document) (Rendered, error) {
	if r == nil || r.tpl == nil || r.client == nil {
		return Rendered{}, errors.New("report renderer not initialised")
	}
	html, err := r.HTML(doc)
	if err != nil {
		return Rendered{}, err
	}
	pdf, err := r.client.RenderHTML(ctx, html)
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{HTML: html, PDF: pdf}, nil
}
