package dashboardhttp

import (
	"html/template"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/odyssey-erp/prospector/internal/leads"
)

// allValues is the sentinel the filter form submits for "no restriction".
const allValues = "Todos"

// filterForm echoes the submitted filters back into the page and export links.
type filterForm struct {
	Mode        string
	Search      string
	Codes       []string
	Prefixes    []string
	Macrosector string
	Department  string
	Region      string
	RevenueMin  string
	RevenueMax  string
	query       leads.Query
}

// Query returns the parsed query.
func (f filterForm) Query() leads.Query {
	return f.query
}

// Encode rebuilds the URL query for export links.
func (f filterForm) Encode() template.URL {
	v := url.Values{}
	v.Set("mode", f.Mode)
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	for _, c := range f.Codes {
		v.Add("codes", c)
	}
	for _, p := range f.Prefixes {
		v.Add("prefixes", p)
	}
	for key, value := range map[string]string{
		"macrosector": f.Macrosector,
		"department":  f.Department,
		"region":      f.Region,
		"revenue_min": f.RevenueMin,
		"revenue_max": f.RevenueMax,
	} {
		if value != "" {
			v.Set(key, value)
		}
	}
	return template.URL(v.Encode())
}

// Has reports whether a code or prefix is currently selected.
func (f filterForm) Has(value string) bool {
	for _, v := range f.Codes {
		if v == value {
			return true
		}
	}
	for _, v := range f.Prefixes {
		if v == value {
			return true
		}
	}
	return false
}

func parseFilters(r *http.Request) (filterForm, error) {
	values := r.URL.Query()
	mode := leads.ParseCodeMode(values.Get("mode"))
	form := filterForm{
		Mode:        string(mode),
		Search:      strings.TrimSpace(values.Get("search")),
		Codes:       listValues(values["codes"]),
		Prefixes:    listValues(values["prefixes"]),
		Macrosector: category(values.Get("macrosector")),
		Department:  category(values.Get("department")),
		Region:      category(values.Get("region")),
		RevenueMin:  strings.TrimSpace(values.Get("revenue_min")),
		RevenueMax:  strings.TrimSpace(values.Get("revenue_max")),
	}

	q := leads.Query{
		Mode:        mode,
		Search:      form.Search,
		Codes:       form.Codes,
		Prefixes:    form.Prefixes,
		Macrosector: form.Macrosector,
		Department:  form.Department,
		Region:      form.Region,
	}
	var err error
	if q.RevenueMin, err = parseAmount(form.RevenueMin, "revenue_min"); err != nil {
		return filterForm{}, err
	}
	if q.RevenueMin == nil {
		// The revenue range starts at 0 unless a floor is given.
		q.RevenueMin = leads.Float(0)
	}
	if q.RevenueMax, err = parseAmount(form.RevenueMax, "revenue_max"); err != nil {
		return filterForm{}, err
	}
	if q.RevenueMin != nil && q.RevenueMax != nil && *q.RevenueMin > *q.RevenueMax {
		return filterForm{}, validationError{field: "revenue_max"}
	}
	form.query = q
	return form, nil
}

// listValues accepts repeated parameters and comma separated lists alike.
func listValues(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			if part = leads.NormalizeCode(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func category(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, allValues) {
		return ""
	}
	return v
}

func parseAmount(raw, field string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, validationError{field: field}
	}
	return &v, nil
}
