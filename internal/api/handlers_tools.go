package api

import (
	"net/http"

	"github.com/pmani/ad-mosaic/internal/pkg/httputil"
	"github.com/pmani/ad-mosaic/internal/querybuilder"
	"github.com/pmani/ad-mosaic/internal/textconv"
)

// GenerateQuery assembles warehouse filter SQL from the builder form.
func (h *Handlers) GenerateQuery(w http.ResponseWriter, r *http.Request) {
	var req querybuilder.Request
	if !httputil.Decode(w, r, &req) {
		return
	}
	httputil.OK(w, map[string]any{"query": querybuilder.Generate(req)})
}

// QueryBuilderColumns returns the selectable search columns.
func (h *Handlers) QueryBuilderColumns(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{"columns": querybuilder.Columns()})
}

// ConvertText reformats pasted line lists.
func (h *Handlers) ConvertText(w http.ResponseWriter, r *http.Request) {
	var req textconv.Request
	if !httputil.Decode(w, r, &req) {
		return
	}
	httputil.OK(w, map[string]any{"result": textconv.Convert(req)})
}
