// Package querybuilder assembles warehouse filter SQL from form input.
// The output is filter text an analyst pastes into a larger query, not a
// statement this service executes.
package querybuilder

import (
	"fmt"
	"strings"
)

// searchColumns are the creative-metadata columns base keywords match
// against. Columns that can be NULL in the warehouse are wrapped in
// COALESCE so a missing value never poisons the regex match.
var searchColumns = []struct {
	name     string
	nullable bool
}{
	{"ADVERTISER_NAME", false},
	{"CREATIVE_CAMPAIGN_NAME", true},
	{"CREATIVE_LANDINGPAGE_URL", false},
	{"CREATIVE_VIDEO_TITLE", true},
	{"SOCIAL_CAMPAIGN_TEXT", true},
	{"SOCIAL_PAGE_NAME", false},
	{"SOCIAL_HEADLINE_TEXT", true},
	{"SOCIAL_DESCRIPTION", true},
}

// Columns returns the selectable column names for form population.
func Columns() []string {
	out := make([]string, len(searchColumns))
	for i, c := range searchColumns {
		out[i] = c.name
	}
	return out
}

// Inclusion is one positive filter clause.
type Inclusion struct {
	Column    string `json:"column"`
	Keywords  string `json:"keywords"`
	Type      string `json:"type"`      // "IN" or "REGEXP_CONTAINS"
	Connector string `json:"connector"` // "AND" or "OR", joins with the previous clause
}

// Exclusion is one negative filter clause.
type Exclusion struct {
	Column   string `json:"column"`
	Keywords string `json:"keywords"`
}

// URLExclusion filters out known creative URLs, either literally (NOT IN)
// or as a pattern with the CDN prefix and media suffix stripped.
type URLExclusion struct {
	Type string `json:"type"` // "NOT IN" or "NOT REGEXP_CONTAINS"
	URLs string `json:"urls"`
}

// Request is the query-builder form.
type Request struct {
	BaseKeywords string       `json:"base_keywords"`
	Inclusions   []Inclusion  `json:"inclusions"`
	Exclusions   []Exclusion  `json:"exclusions"`
	URLExclusion URLExclusion `json:"url_exclusion"`
}

// cdnPrefixes and mediaSuffixes are stripped from excluded URLs when
// building the pattern form, leaving just the creative identifier.
var cdnPrefixes = []string{
	"https://ads.adclarity.com/creatives/",
	"https://ads.adclarity.com/creatives_capture/",
}

var mediaSuffixes = []string{"_video", ".mp4", ".jpeg", ".gif"}

// Generate assembles the filter SQL text. Sections with no input are
// omitted entirely.
func Generate(req Request) string {
	var b strings.Builder

	if base := splitKeywords(req.BaseKeywords); len(base) > 0 {
		pattern := strings.Join(base, "|")
		b.WriteString("( ")
		for i, col := range searchColumns {
			if i > 0 {
				b.WriteString("\n  OR ")
			}
			fmt.Fprintf(&b, `REGEXP_CONTAINS(%s, "%s")`, upperColumn(col.name, col.nullable), pattern)
		}
		b.WriteString(" )")
	}

	if stmts := inclusionStatements(req.Inclusions); len(stmts) > 0 {
		b.WriteString("\nAND (\n  ")
		b.WriteString(strings.Join(stmts, "\n  "))
		b.WriteString("\n)")
	}

	for _, ex := range req.Exclusions {
		kws := splitKeywords(ex.Keywords)
		if len(kws) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\nAND NOT REGEXP_CONTAINS(UPPER(COALESCE(%s,'')), \"%s\")",
			ex.Column, strings.Join(kws, "|"))
	}

	if clause := urlExclusionClause(req.URLExclusion); clause != "" {
		b.WriteString("\n")
		b.WriteString(clause)
	}

	return strings.TrimPrefix(b.String(), "\n")
}

func inclusionStatements(incs []Inclusion) []string {
	var stmts []string
	for _, inc := range incs {
		kws := splitKeywords(inc.Keywords)
		if len(kws) == 0 {
			continue
		}
		var stmt string
		if inc.Type == "IN" {
			quoted := make([]string, len(kws))
			for i, k := range kws {
				quoted[i] = `"` + k + `"`
			}
			stmt = fmt.Sprintf("%s IN (%s)", inc.Column, strings.Join(quoted, ","))
		} else {
			stmt = fmt.Sprintf(`REGEXP_CONTAINS(UPPER(COALESCE(%s,'')), "%s")`,
				inc.Column, strings.Join(kws, "|"))
		}
		if len(stmts) > 0 {
			connector := inc.Connector
			if connector != "OR" {
				connector = "AND"
			}
			stmt = connector + " " + stmt
		}
		stmts = append(stmts, stmt)
	}
	return stmts
}

func urlExclusionClause(ue URLExclusion) string {
	urls := splitList(ue.URLs)
	if len(urls) == 0 {
		return ""
	}
	if ue.Type == "NOT IN" {
		quoted := make([]string, len(urls))
		for i, u := range urls {
			quoted[i] = `"` + u + `"`
		}
		return fmt.Sprintf("AND CREATIVE_URL_SUPPLIER NOT IN (%s)", strings.Join(quoted, ","))
	}

	var ids []string
	for _, u := range urls {
		for _, p := range cdnPrefixes {
			u = strings.Replace(u, p, "", 1)
		}
		for _, s := range mediaSuffixes {
			u = strings.Replace(u, s, "", 1)
		}
		if u = strings.TrimSpace(u); u != "" {
			ids = append(ids, u)
		}
	}
	if len(ids) == 0 {
		return ""
	}
	return fmt.Sprintf(`AND NOT REGEXP_CONTAINS(UPPER(COALESCE(CREATIVE_URL_SUPPLIER,'')), "%s")`,
		strings.Join(ids, "|"))
}

func upperColumn(name string, nullable bool) string {
	if nullable {
		return fmt.Sprintf("UPPER(COALESCE(%s,''))", name)
	}
	return fmt.Sprintf("UPPER(%s)", name)
}

// splitKeywords splits a comma list, trims, upper-cases and drops empties.
func splitKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.ToUpper(strings.TrimSpace(k)); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// splitList splits a comma list preserving case.
func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
