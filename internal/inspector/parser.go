package inspector

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ErrEmptyFile is returned when an upload contains no data rows.
var ErrEmptyFile = errors.New("uploaded file contains no data rows")

// ParseResult is a fully parsed upload: the header in source order and one
// record per data row, in source order.
type ParseResult struct {
	Columns []string
	Records []Record
}

// Parse decodes an uploaded tabular file into records. Dispatch is by file
// extension: .csv goes through the delimited-text path, everything else is
// treated as a spreadsheet (first sheet, first row as header). Header text
// is used verbatim as field names. The inspector accepts arbitrary schemas;
// only a file with zero data rows is an error.
func Parse(filename string, data []byte) (*ParseResult, error) {
	var (
		header []string
		rows   [][]CellValue
		err    error
	)
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		header, rows, err = parseCSV(data)
	} else {
		header, rows, err = parseSheet(data)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		fields := make(map[string]CellValue, len(header))
		for j, col := range header {
			if j < len(row) {
				fields[col] = row[j]
			} else {
				fields[col] = EmptyCell()
			}
		}
		rec := Record{ID: i, Fields: fields}
		if c, ok := fields[mediaColumn]; ok && !c.IsEmpty() {
			rec.MediaURL = c.String()
		}
		if c, ok := fields[remarkColumn]; ok {
			rec.Remark = c.String()
		}
		if c, ok := fields["isFaulty"]; ok {
			rec.IsFaulty = coerceFaulty(c)
		}
		records = append(records, rec)
	}
	return &ParseResult{Columns: header, Records: records}, nil
}

func parseCSV(data []byte) ([]string, [][]CellValue, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("decoding csv: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, ErrEmptyFile
	}
	header := all[0]
	rows := make([][]CellValue, 0, len(all)-1)
	for _, raw := range all[1:] {
		row := make([]CellValue, len(raw))
		for i, v := range raw {
			if v == "" {
				row[i] = EmptyCell()
			} else {
				row[i] = TextCell(v)
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

func parseSheet(data []byte) ([]string, [][]CellValue, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("decoding spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrEmptyFile
	}
	all, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	if len(all) == 0 {
		return nil, nil, ErrEmptyFile
	}
	header := all[0]
	rows := make([][]CellValue, 0, len(all)-1)
	for _, raw := range all[1:] {
		row := make([]CellValue, len(raw))
		for i, v := range raw {
			row[i] = inferCell(v)
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// inferCell types a spreadsheet cell from its formatted text. Numbers and
// TRUE/FALSE come back typed; everything else stays text.
func inferCell(v string) CellValue {
	if v == "" {
		return EmptyCell()
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return NumberCell(n)
	}
	switch v {
	case "TRUE", "FALSE":
		return BoolCell(v == "TRUE")
	}
	return TextCell(v)
}

// requiredColumns is the schema the social-data upload flow enforces,
// unlike the inspector which accepts anything.
var requiredColumns = []string{"COUNTRY", "CATEGORY", "BRAND", "PLATFORM", "MONTH", "IMPRESSIONS"}

// StrictResult is the validated projection produced by ParseStrict: rows
// reduced to the required columns in canonical order, with MONTH values
// normalized and zero-impression rows flagged for review.
type StrictResult struct {
	Columns  []string   `json:"columns"`
	Rows     [][]string `json:"rows"`
	ZeroRows []int      `json:"zero_rows"`
}

// ParseStrict parses an upload for the social-data flow, which requires a
// fixed column set. Header matching is case-insensitive with surrounding
// whitespace ignored. MONTH cells holding spreadsheet serial dates are
// rewritten as YYYY-MM-DD.
func ParseStrict(filename string, data []byte) (*StrictResult, error) {
	res, err := Parse(filename, data)
	if err != nil {
		return nil, err
	}

	normalized := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		normalized[i] = strings.ToUpper(strings.TrimSpace(c))
	}
	indexes := make([]int, len(requiredColumns))
	var missing []string
	for i, want := range requiredColumns {
		indexes[i] = -1
		for j, have := range normalized {
			if have == want {
				indexes[i] = j
				break
			}
		}
		if indexes[i] == -1 {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	out := &StrictResult{Columns: requiredColumns}
	impIdx := 5 // IMPRESSIONS position in requiredColumns
	for ri, rec := range res.Records {
		row := make([]string, len(requiredColumns))
		for i, idx := range indexes {
			c := rec.Fields[res.Columns[idx]]
			if requiredColumns[i] == "MONTH" {
				row[i] = normalizeMonth(c)
			} else {
				row[i] = c.String()
			}
		}
		if n, ok := rec.Fields[res.Columns[indexes[impIdx]]].Float(); ok && n == 0 {
			out.ZeroRows = append(out.ZeroRows, ri)
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// excelEpoch is day 1 of the 1900 date system. Serial-to-date conversion
// subtracts 2 to absorb the system's off-by-one and the phantom leap day.
var excelEpoch = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

func normalizeMonth(c CellValue) string {
	if n, ok := c.Float(); ok {
		d := excelEpoch.AddDate(0, 0, int(n)-2)
		return d.Format("2006-01-02")
	}
	s := c.String()
	if parts := strings.Split(s, "/"); len(parts) == 3 {
		return parts[2] + "-" + pad2(parts[0]) + "-" + pad2(parts[1])
	}
	return ""
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
