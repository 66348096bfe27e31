package leads

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pelletier/go-toml/v2"
)

// MaxPrefixLength is the width of a CIIU class prefix.
const MaxPrefixLength = 4

var (
	// ErrEmptyTargets is returned when a target file declares no codes.
	ErrEmptyTargets = errors.New("leads: target table is empty")
	// ErrInvalidTarget is returned for blank, oversized or duplicated codes.
	ErrInvalidTarget = errors.New("leads: invalid target code")
)

// TargetCode pairs a CIIU prefix with its human readable description.
type TargetCode struct {
	Code        string `toml:"code"`
	Description string `toml:"description"`
}

// TargetTable is an immutable, ordered set of target prefixes. The zero value
// matches nothing.
type TargetTable struct {
	entries []TargetCode
}

var defaultTargets = []TargetCode{
	{Code: "C101", Description: "Procesamiento y conservación de carne"},
	{Code: "C102", Description: "Procesamiento y conservación de pescados"},
	{Code: "C103", Description: "Procesamiento y conservación de frutas, legumbres y hortalizas"},
	{Code: "C104", Description: "Elaboración de aceites y grasas"},
	{Code: "C105", Description: "Elaboración de productos lácteos"},
	{Code: "C106", Description: "Elaboración de productos de molinería"},
	{Code: "C107", Description: "Elaboración de productos de café"},
	{Code: "C108", Description: "Elaboración de otros productos alimenticios"},
	{Code: "C109", Description: "Elaboración de alimentos para animales"},
	{Code: "G463", Description: "Comercio al por mayor de productos alimenticios"},
	{Code: "G472", Description: "Comercio al por menor de productos alimenticios"},
	{Code: "C110", Description: "Elaboración de bebidas"},
	{Code: "C120", Description: "Elaboración de productos de tabaco"},
	{Code: "A011", Description: "Cultivos agrícolas"},
	{Code: "A012", Description: "Cultivos permanentes"},
	{Code: "C201", Description: "Fabricación de sustancias químicas básicas"},
	{Code: "C202", Description: "Fabricación de otros productos químicos"},
	{Code: "C210", Description: "Fabricación de productos farmacéuticos"},
}

// DefaultTargets returns the packaging-industry target table.
func DefaultTargets() TargetTable {
	table, err := NewTargetTable(defaultTargets)
	if err != nil {
		panic(err)
	}
	return table
}

// NewTargetTable validates and normalises entries into a TargetTable.
func NewTargetTable(entries []TargetCode) (TargetTable, error) {
	if len(entries) == 0 {
		return TargetTable{}, ErrEmptyTargets
	}
	seen := make(map[string]struct{}, len(entries))
	normalised := make([]TargetCode, 0, len(entries))
	for i, entry := range entries {
		code := NormalizeCode(entry.Code)
		if code == "" {
			return TargetTable{}, fmt.Errorf("%w: entry %d has no code", ErrInvalidTarget, i+1)
		}
		if utf8.RuneCountInString(code) > MaxPrefixLength {
			return TargetTable{}, fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidTarget, code, MaxPrefixLength)
		}
		if _, dup := seen[code]; dup {
			return TargetTable{}, fmt.Errorf("%w: %q declared twice", ErrInvalidTarget, code)
		}
		seen[code] = struct{}{}
		normalised = append(normalised, TargetCode{Code: code, Description: strings.TrimSpace(entry.Description)})
	}
	return TargetTable{entries: normalised}, nil
}

type targetFile struct {
	Targets []TargetCode `toml:"target"`
}

// LoadTargetsTOML reads a table declared as repeated [[target]] blocks.
func LoadTargetsTOML(r io.Reader) (TargetTable, error) {
	var file targetFile
	if err := toml.NewDecoder(r).Decode(&file); err != nil {
		return TargetTable{}, fmt.Errorf("leads: decode target file: %w", err)
	}
	return NewTargetTable(file.Targets)
}

// Len reports the number of target prefixes.
func (t TargetTable) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the table in declaration order.
func (t TargetTable) Entries() []TargetCode {
	out := make([]TargetCode, len(t.entries))
	copy(out, t.entries)
	return out
}

// Codes returns the prefixes in declaration order.
func (t TargetTable) Codes() []string {
	out := make([]string, len(t.entries))
	for i, entry := range t.entries {
		out[i] = entry.Code
	}
	return out
}

// Describe returns the description for an exact prefix.
func (t TargetTable) Describe(code string) (string, bool) {
	code = NormalizeCode(code)
	for _, entry := range t.entries {
		if entry.Code == code {
			return entry.Description, true
		}
	}
	return "", false
}

// Match reports whether some prefix in the table starts the given code. Only
// case is folded; surrounding whitespace is part of the code.
func (t TargetTable) Match(code string) bool {
	code = strings.ToUpper(code)
	if code == "" {
		return false
	}
	for _, entry := range t.entries {
		if strings.HasPrefix(code, entry.Code) {
			return true
		}
	}
	return false
}

// NormalizeCode trims and upper-cases a classification code. Comparisons on
// both sides of a prefix match go through this function.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
