// Package cli implements the offline prospector commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odyssey-erp/prospector/internal/leads"
	"github.com/odyssey-erp/prospector/internal/report"
	"github.com/odyssey-erp/prospector/internal/workbook"
)

// Exit codes shared by the commands.
const (
	ExitOK      = 0
	ExitUsage   = 1
	ExitLoad    = 2
	ExitRender  = 3
	ExitNoMatch = 10
)

// ReportGenerator renders a report for the selected records.
type ReportGenerator interface {
	Generate(ctx context.Context, req report.Request) (report.Result, error)
}

// LoaderFunc reads a workbook from disk.
type LoaderFunc func(path string) (workbook.Result, error)

// Runner executes CLI commands against a target table.
type Runner struct {
	engine  *leads.Engine
	reports ReportGenerator
	load    LoaderFunc
	printer *message.Printer
}

// NewRunner constructs a Runner. reports may be nil for commands that do not
// render documents.
func NewRunner(targets leads.TargetTable, reports ReportGenerator) *Runner {
	return &Runner{
		engine:  leads.NewEngine(targets),
		reports: reports,
		load:    workbook.LoadFile,
		printer: message.NewPrinter(language.English),
	}
}

// WithLoader overrides the workbook loader.
func (r *Runner) WithLoader(load LoaderFunc) {
	if load != nil {
		r.load = load
	}
}

func (r *Runner) annotate(path string, stderr io.Writer, command string) ([]leads.AnnotatedRecord, int) {
	if path == "" {
		_, _ = fmt.Fprintf(stderr, "%s: --file is required\n", command)
		return nil, ExitUsage
	}
	result, err := r.load(path)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%s: load %s: %v\n", command, path, err)
		return nil, ExitLoad
	}
	if len(result.Records) == 0 {
		_, _ = fmt.Fprintf(stderr, "%s: %s contains no companies\n", command, path)
		return nil, ExitLoad
	}
	return r.engine.Annotate(result.Records), ExitOK
}

func streams(stdout, stderr io.Writer) (io.Writer, io.Writer) {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return stdout, stderr
}

func (r *Runner) money(v *float64) string {
	if v == nil {
		return "N/D"
	}
	return r.printer.Sprintf("$%.0f", *v)
}
