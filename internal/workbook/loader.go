// Package workbook reads the company financial workbook into leads records.
package workbook

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/prospector/internal/leads"
)

// Layout of the source sheet.
const (
	LeadingRows   = 4
	ColumnCount   = 20
	NameSentinel  = "RAZON SOCIAL"
	firstDataLine = LeadingRows + 1
)

// Columns lists the expected header in sheet order.
var Columns = [ColumnCount]string{
	"No", "NIT", "RAZON_SOCIAL", "SUPERVISOR", "REGION", "DEPARTAMENTO", "CIUDAD", "CIIU", "MACROSECTOR",
	"INGRESOS_2024", "GANANCIA_2024", "ACTIVOS_2024", "PASIVOS_2024", "PATRIMONIO_2024",
	"INGRESOS_2023", "GANANCIA_2023", "ACTIVOS_2023", "PASIVOS_2023", "PATRIMONIO_2023",
	"GRUPO_NIIF",
}

const (
	colSequence = iota
	colTaxID
	colName
	colSupervisor
	colRegion
	colDepartment
	colCity
	colIndustryCode
	colMacrosector
	colRevenue24
	colProfit24
	colAssets24
	colLiabilities24
	colEquity24
	colRevenue23
	colProfit23
	colAssets23
	colLiabilities23
	colEquity23
	colAccountingGroup
)

var (
	// ErrUnreadable is returned when the input is not a spreadsheet.
	ErrUnreadable = errors.New("workbook: file is not a readable spreadsheet")
	// ErrNoSheet is returned when the workbook has no worksheets.
	ErrNoSheet = errors.New("workbook: no worksheet found")
	// ErrSchemaMismatch is returned when the header row is missing or too narrow.
	ErrSchemaMismatch = errors.New("workbook: unexpected column layout")
)

// Result is the outcome of a successful load.
type Result struct {
	Sheet   string
	Records []leads.CompanyRecord
	Skipped int
}

// Load reads the first worksheet of an xlsx stream.
func Load(r io.Reader) (Result, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer file.Close()
	return Parse(file)
}

// LoadFile opens path and loads it.
func LoadFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()
	return Load(f)
}

// Parse extracts company records from an already opened workbook.
func Parse(file *excelize.File) (Result, error) {
	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return Result{}, ErrNoSheet
	}
	sheet := sheets[0]
	rows, err := file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return Result{}, fmt.Errorf("%w: read sheet %q: %v", ErrUnreadable, sheet, err)
	}
	if len(rows) <= LeadingRows {
		return Result{}, fmt.Errorf("%w: sheet %q has no header row", ErrSchemaMismatch, sheet)
	}
	if header := rows[LeadingRows]; len(header) < ColumnCount {
		return Result{}, fmt.Errorf("%w: header has %d columns, want %d", ErrSchemaMismatch, len(header), ColumnCount)
	}

	result := Result{Sheet: sheet, Records: make([]leads.CompanyRecord, 0, len(rows)-firstDataLine)}
	for i := firstDataLine; i < len(rows); i++ {
		rec, ok := parseRow(rows[i], i+1)
		if !ok {
			result.Skipped++
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

func parseRow(cells []string, line int) (leads.CompanyRecord, bool) {
	cell := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}
	name := cell(colName)
	if name == "" || strings.EqualFold(name, NameSentinel) {
		return leads.CompanyRecord{}, false
	}
	num := func(i int) *float64 { return ParseNumber(cell(i)) }
	return leads.CompanyRecord{
		Row:             line,
		Sequence:        cell(colSequence),
		TaxID:           cell(colTaxID),
		LegalName:       name,
		Supervisor:      cell(colSupervisor),
		Region:          cell(colRegion),
		Department:      cell(colDepartment),
		City:            cell(colCity),
		IndustryCode:    cell(colIndustryCode),
		Macrosector:     cell(colMacrosector),
		AccountingGroup: cell(colAccountingGroup),
		Y2024: leads.Financials{
			Revenue:     num(colRevenue24),
			Profit:      num(colProfit24),
			Assets:      num(colAssets24),
			Liabilities: num(colLiabilities24),
			Equity:      num(colEquity24),
		},
		Y2023: leads.Financials{
			Revenue:     num(colRevenue23),
			Profit:      num(colProfit23),
			Assets:      num(colAssets23),
			Liabilities: num(colLiabilities23),
			Equity:      num(colEquity23),
		},
	}, true
}

var (
	numberNoise = strings.NewReplacer(",", "", "$", "", " ", "")
	// Commas are only accepted as thousands separators.
	groupedNumber = regexp.MustCompile(`^[+-]?\$?\s*\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
)

// ParseNumber coerces a cell to a finite number. Blank, textual and
// non-finite values yield nil.
func ParseNumber(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		if strings.Contains(raw, ",") && !groupedNumber.MatchString(raw) {
			return nil
		}
		v, err = strconv.ParseFloat(numberNoise.Replace(raw), 64)
		if err != nil {
			return nil
		}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
