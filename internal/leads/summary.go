package leads

import (
	"sort"
	"strings"
)

// Summary aggregates the headline metrics shown above the results table.
type Summary struct {
	TotalCompanies   int
	TargetLeads      int
	TargetSectors    int
	Departments      int
	Filtered         int
	FilteredShare    float64
	AvgRevenue       float64
	AvgGrowthPct     float64
	AvgMarginPct     float64
	AvgDebtRatioPct  float64
	RevenueMax       float64
	RevenueAvailable bool
}

// Count is a label with its number of occurrences.
type Count struct {
	Label string
	Count int
}

// CodeGroup lists the distinct codes that share a 4-character prefix.
type CodeGroup struct {
	Prefix string
	Codes  []string
}

// Summarize computes dataset-wide and filtered-set metrics.
func Summarize(all, filtered []AnnotatedRecord, targets TargetTable) Summary {
	s := Summary{
		TotalCompanies: len(all),
		TargetSectors:  targets.Len(),
		Filtered:       len(filtered),
	}
	departments := make(map[string]struct{})
	for _, rec := range all {
		if rec.IsTargetLead {
			s.TargetLeads++
		}
		if rec.Department != "" {
			departments[rec.Department] = struct{}{}
		}
		if rec.Y2024.Revenue != nil && (!s.RevenueAvailable || *rec.Y2024.Revenue > s.RevenueMax) {
			s.RevenueMax = *rec.Y2024.Revenue
			s.RevenueAvailable = true
		}
	}
	s.Departments = len(departments)
	if len(all) > 0 {
		s.FilteredShare = float64(len(filtered)) / float64(len(all)) * 100
	}
	if len(filtered) == 0 {
		return s
	}

	var revenueSum float64
	var revenueN int
	var growth, margin, debt float64
	for _, rec := range filtered {
		if rec.Y2024.Revenue != nil {
			revenueSum += *rec.Y2024.Revenue
			revenueN++
		}
		growth += rec.RevenueGrowthPct
		margin += rec.ProfitMarginPct
		debt += rec.DebtRatioPct
	}
	n := float64(len(filtered))
	if revenueN > 0 {
		s.AvgRevenue = revenueSum / float64(revenueN)
	}
	s.AvgGrowthPct = growth / n
	s.AvgMarginPct = margin / n
	s.AvgDebtRatioPct = debt / n
	return s
}

// PrefixDistribution counts records per code prefix, largest first.
func PrefixDistribution(records []AnnotatedRecord, limit int) []Count {
	return rank(records, limit, func(rec AnnotatedRecord) string { return rec.IndustryCodePrefix })
}

// TopCodes counts records per full industry code, largest first.
func TopCodes(records []AnnotatedRecord, limit int) []Count {
	return rank(records, limit, func(rec AnnotatedRecord) string { return NormalizeCode(rec.IndustryCode) })
}

// SectionDistribution counts records per CIIU section letter.
func SectionDistribution(records []AnnotatedRecord) []Count {
	return rank(records, 0, func(rec AnnotatedRecord) string {
		if rec.IndustryCodePrefix == "" {
			return ""
		}
		return string([]rune(rec.IndustryCodePrefix)[:1])
	})
}

// rank counts non-empty keys; ties keep first-seen order. limit <= 0 keeps all.
func rank(records []AnnotatedRecord, limit int, key func(AnnotatedRecord) string) []Count {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, rec := range records {
		k := key(rec)
		if k == "" {
			continue
		}
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}
	out := make([]Count, len(order))
	for i, k := range order {
		out[i] = Count{Label: k, Count: counts[k]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// CodeCatalog groups the distinct industry codes by prefix, both sorted.
func CodeCatalog(records []AnnotatedRecord) []CodeGroup {
	groups := make(map[string]map[string]struct{})
	for _, rec := range records {
		code := NormalizeCode(rec.IndustryCode)
		if code == "" {
			continue
		}
		prefix := strings.ToUpper(rec.IndustryCodePrefix)
		set, ok := groups[prefix]
		if !ok {
			set = make(map[string]struct{})
			groups[prefix] = set
		}
		set[code] = struct{}{}
	}
	prefixes := make([]string, 0, len(groups))
	for prefix := range groups {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	out := make([]CodeGroup, 0, len(prefixes))
	for _, prefix := range prefixes {
		codes := make([]string, 0, len(groups[prefix]))
		for code := range groups[prefix] {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		out = append(out, CodeGroup{Prefix: prefix, Codes: codes})
	}
	return out
}

// Field names accepted by Distinct.
const (
	FieldMacrosector = "macrosector"
	FieldDepartment  = "department"
	FieldRegion      = "region"
)

// Distinct returns the sorted non-empty values of a categorical field.
func Distinct(records []AnnotatedRecord, field string) []string {
	var get func(AnnotatedRecord) string
	switch strings.ToLower(field) {
	case FieldMacrosector:
		get = func(r AnnotatedRecord) string { return r.Macrosector }
	case FieldDepartment:
		get = func(r AnnotatedRecord) string { return r.Department }
	case FieldRegion:
		get = func(r AnnotatedRecord) string { return r.Region }
	default:
		return nil
	}
	set := make(map[string]struct{})
	for _, rec := range records {
		if v := get(rec); v != "" {
			set[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
