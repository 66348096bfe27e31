package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/odyssey-erp/prospector/internal/leads"
	"github.com/odyssey-erp/prospector/internal/report"
)

// ReportOptions defines the flags of the report command.
type ReportOptions struct {
	File       string
	Rows       []int
	Top        int
	Narratives bool
	Out        string
	Stdout     io.Writer
	Stderr     io.Writer
}

// ReportCommand renders a PDF for the companies picked by --rows, in the
// listed order, or for the --top target leads by 2024 revenue.
func (r *Runner) ReportCommand(ctx context.Context, opts ReportOptions) int {
	stdout, stderr := streams(opts.Stdout, opts.Stderr)
	if r.reports == nil {
		_, _ = fmt.Fprintln(stderr, "report: renderer not configured")
		return ExitRender
	}
	if len(opts.Rows) > 0 && opts.Top > 0 {
		_, _ = fmt.Fprintln(stderr, "report: --rows and --top are mutually exclusive")
		return ExitUsage
	}
	if len(opts.Rows) == 0 && opts.Top <= 0 {
		_, _ = fmt.Fprintln(stderr, "report: select companies with --rows or --top")
		return ExitUsage
	}
	for _, row := range opts.Rows {
		if row <= 0 {
			_, _ = fmt.Fprintf(stderr, "report: invalid row %d\n", row)
			return ExitUsage
		}
	}
	records, code := r.annotate(opts.File, stderr, "report")
	if code != ExitOK {
		return code
	}

	var selected []leads.AnnotatedRecord
	if len(opts.Rows) > 0 {
		selected = leads.SelectRows(records, opts.Rows)
	} else {
		targets := make([]leads.AnnotatedRecord, 0, len(records))
		for _, rec := range records {
			if rec.IsTargetLead {
				targets = append(targets, rec)
			}
		}
		selected = leads.TopByRevenue(targets, opts.Top)
	}
	if len(selected) == 0 {
		_, _ = fmt.Fprintln(stderr, "report: no companies match the selection")
		return ExitUsage
	}

	result, err := r.reports.Generate(ctx, report.Request{Records: selected, IncludeNarratives: opts.Narratives})
	if err != nil {
		if errors.Is(err, report.ErrEmptySelection) {
			_, _ = fmt.Fprintln(stderr, "report: no companies match the selection")
			return ExitUsage
		}
		_, _ = fmt.Fprintf(stderr, "report: render: %v\n", err)
		return ExitRender
	}

	out := opts.Out
	if out == "" {
		out = result.FileName
		if out == "" {
			out = report.FileName(time.Now())
		}
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			_, _ = fmt.Fprintf(stderr, "report: create %s: %v\n", dir, err)
			return ExitRender
		}
	}
	if err := os.WriteFile(out, result.PDF, 0o644); err != nil {
		_, _ = fmt.Fprintf(stderr, "report: write %s: %v\n", out, err)
		return ExitRender
	}
	_, _ = fmt.Fprintf(stdout, "%s: %d empresas, %d bytes\n", out, len(selected), len(result.PDF))
	return ExitOK
}
