package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/odyssey-erp/prospector/internal/leads"
)

// ClassifyOptions defines the flags of the classify command.
type ClassifyOptions struct {
	File       string
	JSONOutput bool
	LeadsOnly  bool
	Top        int
	Stdout     io.Writer
	Stderr     io.Writer
}

// ClassifySummary is the JSON document printed by classify --json.
type ClassifySummary struct {
	Companies   int                     `json:"companies"`
	TargetLeads int                     `json:"target_leads"`
	Records     []leads.AnnotatedRecord `json:"records"`
}

// ClassifyCommand loads a workbook, classifies every company and prints the
// selected records. It returns ExitNoMatch when --leads-only finds nothing.
func (r *Runner) ClassifyCommand(ctx context.Context, opts ClassifyOptions) int {
	stdout, stderr := streams(opts.Stdout, opts.Stderr)
	if opts.Top < 0 {
		_, _ = fmt.Fprintln(stderr, "classify: --top must not be negative")
		return ExitUsage
	}
	records, code := r.annotate(opts.File, stderr, "classify")
	if code != ExitOK {
		return code
	}
	if err := ctx.Err(); err != nil {
		_, _ = fmt.Fprintf(stderr, "classify: %v\n", err)
		return ExitUsage
	}

	summary := leads.Summarize(records, records, r.engine.Targets())
	selected := records
	if opts.LeadsOnly {
		selected = make([]leads.AnnotatedRecord, 0, summary.TargetLeads)
		for _, rec := range records {
			if rec.IsTargetLead {
				selected = append(selected, rec)
			}
		}
	}
	if opts.Top > 0 {
		selected = leads.TopByRevenue(selected, opts.Top)
	}

	if opts.JSONOutput {
		out := ClassifySummary{Companies: summary.TotalCompanies, TargetLeads: summary.TargetLeads, Records: selected}
		if err := json.NewEncoder(stdout).Encode(out); err != nil {
			_, _ = fmt.Fprintf(stderr, "classify: encode json: %v\n", err)
			return ExitUsage
		}
	} else {
		r.renderClassifyHuman(stdout, summary, selected)
	}
	if opts.LeadsOnly && len(selected) == 0 {
		return ExitNoMatch
	}
	return ExitOK
}

func (r *Runner) renderClassifyHuman(w io.Writer, summary leads.Summary, records []leads.AnnotatedRecord) {
	_, _ = fmt.Fprintf(w, "Empresas: %d\n", summary.TotalCompanies)
	_, _ = fmt.Fprintf(w, "Clientes potenciales: %d\n", summary.TargetLeads)
	_, _ = fmt.Fprintf(w, "Sectores objetivo: %d\n\n", summary.TargetSectors)
	if len(records) == 0 {
		_, _ = fmt.Fprintln(w, "Sin empresas para mostrar.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "FILA\tNIT\tRAZON SOCIAL\tCIIU\tOBJETIVO\tINGRESOS 2024\tCRECIMIENTO\tMARGEN\tENDEUDAMIENTO")
	for _, rec := range records {
		target := "No"
		if rec.IsTargetLead {
			target = "Sí"
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%.2f%%\t%.2f%%\t%.2f%%\n",
			rec.Row, rec.TaxID, rec.LegalName, rec.IndustryCode, target,
			r.money(rec.Y2024.Revenue), rec.RevenueGrowthPct, rec.ProfitMarginPct, rec.DebtRatioPct)
	}
	_ = tw.Flush()
}
