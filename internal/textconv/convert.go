// Package textconv reformats pasted line lists into separator-joined text,
// the kind of cleanup analysts do before dropping values into an IN clause.
package textconv

import "strings"

// Request holds one conversion's input and options.
type Request struct {
	Text      string `json:"text"`
	Separator string `json:"separator"`
	WrapChar  string `json:"wrap_char"`
	Uppercase bool   `json:"uppercase"`
}

// Convert splits the input into lines, trims each, drops empty lines,
// optionally wraps and upper-cases, then joins with the separator followed
// by a newline. The last line carries no trailing separator.
func Convert(req Request) string {
	var lines []string
	for _, line := range strings.Split(req.Text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	for i, line := range lines {
		if req.WrapChar != "" {
			line = req.WrapChar + line + req.WrapChar
		}
		if req.Uppercase {
			line = strings.ToUpper(line)
		}
		lines[i] = line
	}
	return strings.Join(lines, req.Separator+"\n")
}
