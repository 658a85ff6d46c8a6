package inspector

import (
	"sort"
	"strings"
)

// ViewParams are the derivation inputs for one rendering of the store.
type ViewParams struct {
	Keywords   []string `json:"keywords"`
	FaultyOnly bool     `json:"faulty_only"`
	SortKey    string   `json:"sort_key"`
	SortDesc   bool     `json:"sort_desc"`
	WindowSize int      `json:"window_size"`
}

// View is the derived rendering of a store: the windowed rows plus the
// total count of records matching the filters, which the loader needs to
// decide whether more data exists to reveal.
type View struct {
	Rows       []Record `json:"rows"`
	MatchCount int      `json:"match_count"`
	WindowSize int      `json:"window_size"`
}

// ApplyView runs the pure filter → sort → window chain over the store.
// Windowing is strictly last: slicing before filtering would silently
// truncate results. The store is never mutated; records keep their parse
// identity so callers can address edits back to the store.
func ApplyView(s *Store, p ViewParams) *View {
	matched := make([]Record, 0, s.Len())
	keywords := make([]string, 0, len(p.Keywords))
	for _, k := range p.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}

	for _, rec := range s.Records() {
		if len(keywords) > 0 && !matchesKeywords(rec, s.Columns(), keywords) {
			continue
		}
		if p.FaultyOnly && !rec.IsFaulty {
			continue
		}
		matched = append(matched, rec)
	}

	if p.SortKey != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			less := compareCells(matched[i].Fields[p.SortKey], matched[j].Fields[p.SortKey]) < 0
			if p.SortDesc {
				return compareCells(matched[j].Fields[p.SortKey], matched[i].Fields[p.SortKey]) < 0
			}
			return less
		})
	}

	v := &View{MatchCount: len(matched), WindowSize: p.WindowSize}
	n := p.WindowSize
	if n <= 0 || n > len(matched) {
		n = len(matched)
	}
	// The windowed rows outlive the dataset lock: handlers JSON-encode
	// them after releasing it, so they must not share field maps with
	// the store.
	v.Rows = make([]Record, n)
	for i, rec := range matched[:n] {
		rec.Fields = cloneFields(rec.Fields)
		v.Rows[i] = rec
	}
	return v
}

// matchesKeywords reports whether every keyword is a substring of the
// record's searchable text: all text and number cells, space joined,
// lower cased. Booleans are excluded from the searchable text.
func matchesKeywords(rec Record, columns []string, keywords []string) bool {
	var b strings.Builder
	for _, col := range columns {
		c, ok := rec.Fields[col]
		if !ok || c.Kind == CellBool || c.Kind == CellEmpty {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(c.String())
	}
	text := strings.ToLower(b.String())
	for _, k := range keywords {
		if !strings.Contains(text, k) {
			return false
		}
	}
	return true
}

// compareCells is the sort comparator: if both operands parse as numbers
// the comparison is numeric, otherwise case-insensitive lexicographic.
// Missing and empty cells compare as the empty string.
func compareCells(a, b CellValue) int {
	an, aok := a.Float()
	bn, bok := b.Float()
	if aok && bok {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(strings.ToLower(a.String()), strings.ToLower(b.String()))
}
