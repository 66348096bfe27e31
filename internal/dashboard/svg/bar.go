// Package svg renders the dashboard charts as inline SVG.
package svg

import (
	"errors"
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"
)

// Errors returned for unusable chart input.
var (
	ErrNoData   = errors.New("svg: at least one value required")
	ErrMismatch = errors.New("svg: values length must match labels")
	ErrViewport = errors.New("svg: viewport too small")
	ErrNegative = errors.New("svg: counts must not be negative")
)

// Bars renders a vertical bar chart of non-negative values, one bar per label.
func Bars(width, height int, values []float64, labels []string, opts BarOpts) (template.HTML, error) {
	frame, err := newFrame(width, height, values, labels, opts)
	if err != nil {
		return "", err
	}
	scale := frame.chartHeight / frame.maxVal
	slot := frame.chartWidth / float64(len(values))
	barWidth := slot * 0.6
	bottom := frame.padding + frame.chartHeight

	var b strings.Builder
	frame.open(&b, "Bar chart", "Distribution")
	for i := 0; i <= frame.ticks; i++ {
		ratio := float64(i) / float64(frame.ticks)
		y := bottom - ratio*frame.chartHeight
		b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" stroke-dasharray=\"2,4\" aria-hidden=\"true\"></line>", frame.padding, y, frame.padding+frame.chartWidth, y, frame.gridColor))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>", frame.padding-6, y+4, frame.axisColor, formatTick(frame.maxVal*ratio)))
	}
	b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"1\"></line>", frame.padding, bottom, frame.padding+frame.chartWidth, bottom, frame.axisColor))

	for i, v := range values {
		h := v * scale
		x := frame.padding + float64(i)*slot + (slot-barWidth)/2
		label := template.HTMLEscapeString(labels[i])
		b.WriteString(fmt.Sprintf("<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\" aria-label=\"%s: %s\"></rect>", x, bottom-h, barWidth, h, frame.color, label, formatTick(v)))
		if opts.ShowValues {
			b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", x+barWidth/2, bottom-h-4, frame.axisColor, formatTick(v)))
		}
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", x+barWidth/2, bottom+14, frame.axisColor, label))
	}
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

// HBars renders a horizontal bar chart, first label on top. Long rankings read
// better this way than as vertical bars.
func HBars(width, height int, values []float64, labels []string, opts BarOpts) (template.HTML, error) {
	frame, err := newFrame(width, height, values, labels, opts)
	if err != nil {
		return "", err
	}
	gutter := frame.padding * 2
	plotWidth := frame.chartWidth - frame.padding
	if plotWidth <= 0 {
		return "", ErrViewport
	}
	scale := plotWidth / frame.maxVal
	slot := frame.chartHeight / float64(len(values))
	barHeight := slot * 0.7

	var b strings.Builder
	frame.open(&b, "Ranking", "Horizontal distribution")
	b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"1\"></line>", gutter, frame.padding, gutter, frame.padding+frame.chartHeight, frame.axisColor))
	for i, v := range values {
		y := frame.padding + float64(i)*slot + (slot-barHeight)/2
		w := v * scale
		label := template.HTMLEscapeString(labels[i])
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>", gutter-6, y+barHeight/2+3, frame.axisColor, label))
		b.WriteString(fmt.Sprintf("<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\" aria-label=\"%s: %s\"></rect>", gutter, y, w, barHeight, frame.color, label, formatTick(v)))
		if opts.ShowValues {
			b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"start\">%s</text>", gutter+w+4, y+barHeight/2+3, frame.axisColor, formatTick(v)))
		}
	}
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

type frame struct {
	width, height          int
	padding                float64
	chartWidth             float64
	chartHeight            float64
	maxVal                 float64
	ticks                  int
	color, axisColor       string
	gridColor, title, desc string
}

func newFrame(width, height int, values []float64, labels []string, opts BarOpts) (frame, error) {
	if len(values) == 0 {
		return frame{}, ErrNoData
	}
	if len(values) != len(labels) {
		return frame{}, ErrMismatch
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	ticks := opts.TickCount
	if ticks <= 0 {
		ticks = DefaultTicks
	}
	f := frame{
		width:       width,
		height:      height,
		padding:     padding,
		chartWidth:  float64(width) - 2*padding,
		chartHeight: float64(height) - 2*padding,
		ticks:       ticks,
		color:       fallback(opts.Color, "#0ea5e9"),
		axisColor:   fallback(opts.AxisColor, "#475569"),
		gridColor:   fallback(opts.GridColor, "#cbd5f5"),
		title:       opts.Title,
		desc:        opts.Description,
	}
	if f.chartWidth <= 0 || f.chartHeight <= 0 {
		return frame{}, ErrViewport
	}
	for _, v := range values {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return frame{}, ErrNegative
		}
		if v > f.maxVal {
			f.maxVal = v
		}
	}
	if f.maxVal == 0 {
		f.maxVal = 1
	}
	return f, nil
}

func (f frame) open(b *strings.Builder, defaultTitle, defaultDesc string) {
	titleID := makeID(f.title, "chart-title")
	descID := makeID(f.title, "chart-desc")
	b.WriteString(fmt.Sprintf("<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", f.width, f.height, titleID, descID))
	b.WriteString(fmt.Sprintf("<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(f.title, defaultTitle))))
	b.WriteString(fmt.Sprintf("<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(f.desc, defaultDesc))))
}

func formatTick(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func fallback(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func makeID(title, suffix string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, strings.TrimSpace(title))
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}
