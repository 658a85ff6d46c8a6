package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pmani/ad-mosaic/internal/pages"
	"github.com/pmani/ad-mosaic/internal/pkg/httputil"
)

// ListTables returns the warehouse tables available as page sources.
func (h *Handlers) ListTables(w http.ResponseWriter, r *http.Request) {
	if h.warehouse == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "warehouse not configured")
		return
	}
	tables, err := h.warehouse.ListTables(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"tables": tables})
}

// ListPages returns all pages.
func (h *Handlers) ListPages(w http.ResponseWriter, r *http.Request) {
	if h.pages == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "warehouse not configured")
		return
	}
	list, err := h.pages.List(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"pages": list})
}

// GetPage returns one page by id.
func (h *Handlers) GetPage(w http.ResponseWriter, r *http.Request) {
	if h.pages == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "warehouse not configured")
		return
	}
	id, ok := pageID(w, r)
	if !ok {
		return
	}
	page, err := h.pages.Get(r.Context(), id)
	if errors.Is(err, pages.ErrNotFound) {
		httputil.NotFound(w, "page not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, page)
}

// CreatePage builds a page from a source table's top creatives.
func (h *Handlers) CreatePage(w http.ResponseWriter, r *http.Request) {
	if h.pages == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "warehouse not configured")
		return
	}
	var req pages.CreateRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.PageName == "" || req.SourceTable == "" {
		httputil.BadRequest(w, "page_name and source_table are required")
		return
	}
	id, ads, err := h.pages.Create(r.Context(), req)
	if errors.Is(err, pages.ErrInvalidTable) {
		httputil.BadRequest(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, map[string]any{"page_id": id, "ads_list": ads})
}

// UpdatePage renames a page.
func (h *Handlers) UpdatePage(w http.ResponseWriter, r *http.Request) {
	if h.pages == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "warehouse not configured")
		return
	}
	id, ok := pageID(w, r)
	if !ok {
		return
	}
	var req pages.UpdateRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.PageName == "" {
		httputil.BadRequest(w, "page_name is required")
		return
	}
	err := h.pages.Update(r.Context(), id, req)
	if errors.Is(err, pages.ErrNotFound) {
		httputil.NotFound(w, "page not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"updated": id})
}

// DeletePage removes a page.
func (h *Handlers) DeletePage(w http.ResponseWriter, r *http.Request) {
	if h.pages == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "warehouse not configured")
		return
	}
	id, ok := pageID(w, r)
	if !ok {
		return
	}
	err := h.pages.Delete(r.Context(), id)
	if errors.Is(err, pages.ErrNotFound) {
		httputil.NotFound(w, "page not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.NoContent(w)
}

func pageID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.BadRequest(w, "page id must be an integer")
		return 0, false
	}
	return id, true
}
