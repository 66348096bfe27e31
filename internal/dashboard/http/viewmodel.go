package dashboardhttp

import (
	"context"
	"html/template"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/prospector/internal/dashboard/svg"
	"github.com/odyssey-erp/prospector/internal/dataset"
	"github.com/odyssey-erp/prospector/internal/leads"
)

const (
	tableLimit         = 500
	topRevenueLimit    = 10
	topCodesLimit      = 20
	prefixChartLimit   = 15
	defaultReportCount = 5
)

// DashboardView is the data behind pages/leads.html.
type DashboardView struct {
	Dataset        DatasetInfo
	Summary        leads.Summary
	Filters        filterForm
	Options        FilterOptions
	Rows           []leads.AnnotatedRecord
	Truncated      bool
	PrefixChart    template.HTML
	SectionChart   template.HTML
	TopRevenue     []leads.AnnotatedRecord
	TargetsLeft    []leads.TargetCode
	TargetsRight   []leads.TargetCode
	TopCodes       []leads.Count
	Sections       []leads.Count
	ReportOptions  []ReportOption
	AsyncAvailable bool
}

// DatasetInfo describes the loaded workbook.
type DatasetInfo struct {
	ID       string
	FileName string
	Sheet    string
	LoadedAt time.Time
	Skipped  int
}

// FilterOptions lists the selectable values of the filter form.
type FilterOptions struct {
	Macrosectors []string
	Departments  []string
	Regions      []string
	Targets      []leads.TargetCode
	Catalog      []leads.CodeGroup
	RevenueMax   float64
}

// ReportOption is one selectable company of the report form.
type ReportOption struct {
	Row      int
	Label    string
	Selected bool
}

func (h *Handler) buildViewModel(ctx context.Context, ds dataset.Dataset, filters filterForm) (DashboardView, error) {
	all := ds.Records
	filtered := filters.Query().Apply(all)
	targets := h.engine.Targets()

	vm := DashboardView{
		Dataset: DatasetInfo{
			ID:       ds.ID,
			FileName: ds.FileName,
			Sheet:    ds.Sheet,
			LoadedAt: ds.LoadedAt,
			Skipped:  ds.Skipped,
		},
		Filters: filters,
	}

	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		vm.Summary = leads.Summarize(all, filtered, targets)
		rows := filtered
		if len(rows) > tableLimit {
			rows = rows[:tableLimit]
			vm.Truncated = true
		}
		vm.Rows = rows
		return nil
	})

	g.Go(func() error {
		vm.Options = FilterOptions{
			Macrosectors: leads.Distinct(all, leads.FieldMacrosector),
			Departments:  leads.Distinct(all, leads.FieldDepartment),
			Regions:      leads.Distinct(all, leads.FieldRegion),
			Targets:      targets.Entries(),
			Catalog:      leads.CodeCatalog(all),
		}
		for _, rec := range all {
			if rec.Y2024.Revenue != nil && *rec.Y2024.Revenue > vm.Options.RevenueMax {
				vm.Options.RevenueMax = *rec.Y2024.Revenue
			}
		}
		entries := targets.Entries()
		half := (len(entries) + 1) / 2
		vm.TargetsLeft, vm.TargetsRight = entries[:half], entries[half:]
		return nil
	})

	g.Go(func() error {
		prefixes := leads.PrefixDistribution(filtered, prefixChartLimit)
		if len(prefixes) == 0 {
			return nil
		}
		values, labels := series(prefixes)
		chart, err := svg.Bars(svg.DefaultWidth, svg.DefaultHeight, values, labels, svg.BarOpts{
			Title:       "Distribución por prefijo CIIU",
			Description: "Número de empresas filtradas por grupo CIIU de 4 caracteres",
			ShowValues:  true,
		})
		if err != nil {
			return err
		}
		vm.PrefixChart = chart
		return nil
	})

	g.Go(func() error {
		vm.TopRevenue = leads.TopByRevenue(filtered, topRevenueLimit)
		vm.TopCodes = leads.TopCodes(all, topCodesLimit)
		vm.Sections = leads.SectionDistribution(all)
		if len(vm.Sections) == 0 {
			return nil
		}
		values, labels := series(vm.Sections)
		chart, err := svg.HBars(svg.DefaultWidth, 24*len(values)+2*int(svg.DefaultPadding), values, labels, svg.BarOpts{
			Title:       "Empresas por sección CIIU",
			Description: "Número de empresas por letra de sección",
			Color:       "#f97316",
			ShowValues:  true,
		})
		if err != nil {
			return err
		}
		vm.SectionChart = chart
		return nil
	})

	g.Go(func() error {
		selected := make(map[int]struct{}, defaultReportCount)
		for _, rec := range leads.TopByRevenue(filtered, defaultReportCount) {
			selected[rec.Row] = struct{}{}
		}
		options := filtered
		if len(options) > tableLimit {
			options = options[:tableLimit]
		}
		vm.ReportOptions = make([]ReportOption, 0, len(options))
		for _, rec := range options {
			_, ok := selected[rec.Row]
			vm.ReportOptions = append(vm.ReportOptions, ReportOption{
				Row:      rec.Row,
				Label:    rec.LegalName + " (" + leads.NormalizeCode(rec.IndustryCode) + ")",
				Selected: ok,
			})
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return DashboardView{}, err
	}
	return vm, nil
}

func series(counts []leads.Count) ([]float64, []string) {
	values := make([]float64, len(counts))
	labels := make([]string, len(counts))
	for i, c := range counts {
		values[i] = float64(c.Count)
		labels[i] = c.Label
	}
	return values, labels
}
