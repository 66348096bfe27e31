package leads

import (
	"sort"
	"strings"
)

// CodeMode selects how the industry code predicate is built.
type CodeMode string

// Supported code selection modes.
const (
	ModePredefined CodeMode = "predefined"
	ModeSearch     CodeMode = "search"
	ModeManual     CodeMode = "manual"
)

// ParseCodeMode maps user input to a CodeMode, defaulting to ModePredefined.
func ParseCodeMode(v string) CodeMode {
	switch CodeMode(strings.ToLower(strings.TrimSpace(v))) {
	case ModeSearch:
		return ModeSearch
	case ModeManual:
		return ModeManual
	default:
		return ModePredefined
	}
}

// Query is a conjunction of optional predicates over annotated records.
//
// Code predicate by mode:
//   - predefined: IsTargetLead, or IndustryCodePrefix in Prefixes when a subset is given
//   - search: code contains Search (case-insensitive); empty Search disables it
//   - manual: IndustryCode in Codes or IndustryCodePrefix in Prefixes; both empty disables it
type Query struct {
	Mode        CodeMode
	Search      string
	Codes       []string
	Prefixes    []string
	Macrosector string
	Department  string
	Region      string
	RevenueMin  *float64
	RevenueMax  *float64
}

// Apply returns the records satisfying every predicate, in input order.
func (q Query) Apply(records []AnnotatedRecord) []AnnotatedRecord {
	match := q.matcher()
	out := make([]AnnotatedRecord, 0, len(records))
	for _, rec := range records {
		if match(rec) {
			out = append(out, rec)
		}
	}
	return out
}

func (q Query) matcher() func(AnnotatedRecord) bool {
	codeMatch := q.codeMatcher()
	return func(rec AnnotatedRecord) bool {
		if !codeMatch(rec) {
			return false
		}
		if q.Macrosector != "" && rec.Macrosector != q.Macrosector {
			return false
		}
		if q.Department != "" && rec.Department != q.Department {
			return false
		}
		if q.Region != "" && rec.Region != q.Region {
			return false
		}
		if q.RevenueMin != nil || q.RevenueMax != nil {
			revenue := rec.Y2024.Revenue
			if revenue == nil {
				return false
			}
			if q.RevenueMin != nil && *revenue < *q.RevenueMin {
				return false
			}
			if q.RevenueMax != nil && *revenue > *q.RevenueMax {
				return false
			}
		}
		return true
	}
}

func (q Query) codeMatcher() func(AnnotatedRecord) bool {
	prefixes := toSet(q.Prefixes)
	switch q.Mode {
	case ModeSearch:
		needle := NormalizeCode(q.Search)
		if needle == "" {
			return acceptAll
		}
		return func(rec AnnotatedRecord) bool {
			return strings.Contains(strings.ToUpper(rec.IndustryCode), needle)
		}
	case ModeManual:
		codes := toSet(q.Codes)
		if len(codes) == 0 && len(prefixes) == 0 {
			return acceptAll
		}
		return func(rec AnnotatedRecord) bool {
			if _, ok := codes[NormalizeCode(rec.IndustryCode)]; ok {
				return true
			}
			_, ok := prefixes[strings.ToUpper(rec.IndustryCodePrefix)]
			return ok
		}
	default:
		if len(prefixes) == 0 {
			return func(rec AnnotatedRecord) bool { return rec.IsTargetLead }
		}
		return func(rec AnnotatedRecord) bool {
			if !rec.IsTargetLead {
				return false
			}
			recPrefix := strings.ToUpper(rec.IndustryCodePrefix)
			for prefix := range prefixes {
				if strings.HasPrefix(recPrefix, prefix) {
					return true
				}
			}
			return false
		}
	}
}

func acceptAll(AnnotatedRecord) bool { return true }

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = NormalizeCode(v); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

// TopByRevenue returns up to n records with the largest 2024 revenue. Records
// without revenue are skipped and ties keep their input order.
func TopByRevenue(records []AnnotatedRecord, n int) []AnnotatedRecord {
	if n <= 0 {
		return nil
	}
	ranked := make([]AnnotatedRecord, 0, len(records))
	for _, rec := range records {
		if rec.Y2024.Revenue != nil {
			ranked = append(ranked, rec)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].Y2024.Revenue > *ranked[j].Y2024.Revenue
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// SelectRows picks records by source row number in the order the rows are
// listed. Unknown and repeated rows are ignored.
func SelectRows(records []AnnotatedRecord, rows []int) []AnnotatedRecord {
	index := make(map[int]int, len(records))
	for i, rec := range records {
		index[rec.Row] = i
	}
	seen := make(map[int]struct{}, len(rows))
	out := make([]AnnotatedRecord, 0, len(rows))
	for _, row := range rows {
		i, ok := index[row]
		if !ok {
			continue
		}
		if _, dup := seen[row]; dup {
			continue
		}
		seen[row] = struct{}{}
		out = append(out, records[i])
	}
	return out
}
