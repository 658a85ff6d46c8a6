package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pmani/ad-mosaic/internal/inspector"
	"github.com/pmani/ad-mosaic/internal/pkg/httputil"
	"github.com/pmani/ad-mosaic/internal/pkg/logger"
)

// UploadDataset ingests a multipart file upload into a new dataset and
// returns its id, columns and summary so the client can render the first
// chunk immediately.
func (h *Handlers) UploadDataset(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	ds, err := h.datasets.Create(r.Context(), filename, data)
	if err != nil {
		if errors.Is(err, inspector.ErrEmptyFile) {
			httputil.BadRequest(w, "The uploaded file is empty.")
			return
		}
		httputil.BadRequest(w, fmt.Sprintf("could not parse %s: %v", filename, err))
		return
	}

	httputil.Created(w, map[string]any{
		"dataset_id": ds.ID,
		"name":       ds.Name,
		"summary":    ds.Summary(),
		"view":       ds.View(inspector.ViewParams{}),
	})
}

// RestoreDataset rebuilds a dataset from the last recovery snapshot.
func (h *Handlers) RestoreDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := h.datasets.Restore(r.Context())
	if err != nil {
		if errors.Is(err, inspector.ErrNoSnapshot) {
			httputil.NotFound(w, "no snapshot available")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"dataset_id": ds.ID,
		"name":       ds.Name,
		"view":       ds.View(inspector.ViewParams{}),
	})
}

// DatasetView returns the windowed view for the current filters. Filters
// arrive as query parameters; the window size is owned by the loader.
func (h *Handlers) DatasetView(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	httputil.OK(w, ds.View(viewParams(r)))
}

func viewParams(r *http.Request) inspector.ViewParams {
	q := r.URL.Query()
	p := inspector.ViewParams{
		FaultyOnly: q.Get("faulty") == "true",
		SortKey:    q.Get("sort_key"),
		SortDesc:   q.Get("sort_dir") == "desc",
	}
	if kw := strings.TrimSpace(q.Get("keywords")); kw != "" {
		p.Keywords = strings.Split(kw, ",")
	}
	return p
}

// DatasetScroll feeds one scroll telemetry event to the loader. The
// response reports whether a window growth was scheduled so the client
// knows to re-fetch the view after the debounce.
func (h *Handlers) DatasetScroll(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	var ev inspector.ScrollEvent
	if !httputil.Decode(w, r, &ev) {
		return
	}
	triggered := ds.Loader().Observe(ev)
	httputil.OK(w, map[string]any{
		"triggered":   triggered,
		"state":       ds.Loader().State().String(),
		"window_size": ds.Loader().WindowSize(),
	})
}

// DatasetSummary returns the aggregate snapshot over the full store.
func (h *Handlers) DatasetSummary(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	httputil.OK(w, ds.Summary())
}

type recordUpdate struct {
	Remark   *string              `json:"remark"`
	IsFaulty *bool                `json:"is_faulty"`
	Field    string               `json:"field"`
	Value    *inspector.CellValue `json:"value"`
}

// UpdateRecord patches one record's annotations by stable identity. Any
// combination of remark, fault flag and a single named field may be set in
// one call.
func (h *Handlers) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.BadRequest(w, "record id must be an integer")
		return
	}
	var upd recordUpdate
	if !httputil.Decode(w, r, &upd) {
		return
	}
	if upd.Remark == nil && upd.IsFaulty == nil && upd.Field == "" {
		httputil.BadRequest(w, "nothing to update")
		return
	}

	if upd.Remark != nil {
		err = ds.SetRemark(id, *upd.Remark)
	}
	if err == nil && upd.IsFaulty != nil {
		err = ds.SetFaulty(id, *upd.IsFaulty)
	}
	if err == nil && upd.Field != "" {
		value := inspector.EmptyCell()
		if upd.Value != nil {
			value = *upd.Value
		}
		err = ds.UpdateField(id, upd.Field, value)
	}
	if err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.OK(w, map[string]any{"updated": id, "summary": ds.Summary()})
}

type exportRequest struct {
	WithMedia bool `json:"with_media"`
}

// StartExport launches an asynchronous export job for the dataset.
func (h *Handlers) StartExport(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	var req exportRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	mode := inspector.ModeWithoutMedia
	if req.WithMedia {
		mode = inspector.ModeWithMedia
	}

	_, err := ds.StartExport(h.exporter, mode, h.archiveExport)
	if errors.Is(err, inspector.ErrExportRunning) {
		httputil.Error(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.JSON(w, http.StatusAccepted, map[string]any{"started": true})
}

// archiveExport copies a finished export to S3 when archiving is enabled.
// Failures are logged only; the download path does not depend on it.
func (h *Handlers) archiveExport(data []byte, filename string) {
	if h.archiver == nil {
		return
	}
	key, err := h.archiver.Archive(context.Background(), filename, data)
	if err != nil {
		logger.Warn("export archive failed", "filename", filename, "error", err.Error())
		return
	}
	logger.Info("export archived", "filename", filename, "key", key)
}

// ExportProgress reports the running job's progress percentage.
func (h *Handlers) ExportProgress(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	job, running := ds.Export()
	if !running {
		httputil.NotFound(w, "no export for this dataset")
		return
	}
	progress, done, err := job.Status()
	resp := map[string]any{"progress": progress, "done": done}
	if err != nil {
		resp["error"] = err.Error()
	}
	httputil.OK(w, resp)
}

// ExportFile streams the finished workbook.
func (h *Handlers) ExportFile(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	job, running := ds.Export()
	if !running {
		httputil.NotFound(w, "no export for this dataset")
		return
	}
	data, filename, ready := job.File()
	if !ready {
		httputil.Error(w, http.StatusConflict, "export not finished")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}

// DeleteDataset drops a dataset and cancels any in-flight export.
func (h *Handlers) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	h.datasets.Delete(chi.URLParam(r, "id"))
	httputil.NoContent(w)
}

// SocialUpload validates an upload against the social-data required
// column set and returns the projected rows.
func (h *Handlers) SocialUpload(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	res, err := inspector.ParseStrict(filename, data)
	if err != nil {
		if errors.Is(err, inspector.ErrEmptyFile) {
			httputil.BadRequest(w, "The uploaded file is empty.")
			return
		}
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.OK(w, res)
}

func (h *Handlers) dataset(w http.ResponseWriter, r *http.Request) (*inspector.Dataset, bool) {
	ds, err := h.datasets.Get(chi.URLParam(r, "id"))
	if err != nil {
		httputil.NotFound(w, "dataset not found")
		return nil, false
	}
	return ds, true
}

func (h *Handlers) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		httputil.BadRequest(w, "invalid multipart upload")
		return "", nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "missing file field")
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.InternalError(w, err)
		return "", nil, false
	}
	return header.Filename, data, true
}
