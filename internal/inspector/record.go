package inspector

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CellKind discriminates the closed set of scalar cell types a parsed
// table can contain.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellBool
)

// CellValue is one scalar table cell. CSV cells arrive as text; spreadsheet
// cells may carry numbers or booleans. Exactly one of the payload fields is
// meaningful for a given Kind.
type CellValue struct {
	Kind CellKind
	Text string
	Num  float64
	Bool bool
}

func TextCell(s string) CellValue    { return CellValue{Kind: CellText, Text: s} }
func NumberCell(n float64) CellValue { return CellValue{Kind: CellNumber, Num: n} }
func BoolCell(b bool) CellValue      { return CellValue{Kind: CellBool, Bool: b} }
func EmptyCell() CellValue           { return CellValue{Kind: CellEmpty} }

// IsEmpty reports whether the cell holds no value. A text cell containing
// only whitespace still counts as a value.
func (c CellValue) IsEmpty() bool { return c.Kind == CellEmpty }

// String renders the cell for display, search text and export.
func (c CellValue) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case CellBool:
		if c.Bool {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// Float returns the cell's numeric value. Text cells are parsed; anything
// that does not parse reports false.
func (c CellValue) Float() (float64, bool) {
	switch c.Kind {
	case CellNumber:
		return c.Num, true
	case CellText:
		n, err := strconv.ParseFloat(strings.TrimSpace(c.Text), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// MarshalJSON emits the native scalar so API responses and snapshots look
// like ordinary JSON rows.
func (c CellValue) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellText:
		return json.Marshal(c.Text)
	case CellNumber:
		return json.Marshal(c.Num)
	case CellBool:
		return json.Marshal(c.Bool)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON restores a cell from its native scalar form.
func (c *CellValue) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*c = EmptyCell()
	case string:
		*c = TextCell(t)
	case float64:
		*c = NumberCell(t)
	case bool:
		*c = BoolCell(t)
	default:
		return fmt.Errorf("unsupported cell value %T", v)
	}
	return nil
}

// Record is one parsed row plus its annotation fields. ID is the row's
// position in the originally parsed sequence and is the record's stable
// identity for the lifetime of the dataset; views reorder and filter but
// never renumber.
type Record struct {
	ID       int                  `json:"id"`
	Fields   map[string]CellValue `json:"fields"`
	MediaURL string               `json:"media_url,omitempty"`
	Remark   string               `json:"remark"`
	IsFaulty bool                 `json:"is_faulty"`
}

// mediaColumn is the source column the media preview URL derives from.
const mediaColumn = "CREATIVE_URL_SUPPLIER"

// remarkColumn allows re-importing a previously exported file without
// losing annotations.
const remarkColumn = "remark"

// coerceFaulty maps the heterogeneous truthy encodings seen in uploads to
// a strict boolean. Everything else is false.
func coerceFaulty(c CellValue) bool {
	if c.Kind == CellBool {
		return c.Bool
	}
	switch strings.ToLower(strings.TrimSpace(c.String())) {
	case "true", "yes", "1":
		return true
	}
	return false
}
