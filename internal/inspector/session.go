package inspector

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pmani/ad-mosaic/internal/config"
	"github.com/pmani/ad-mosaic/internal/pkg/logger"
)

// ErrDatasetNotFound is returned when a dataset id is unknown or expired.
var ErrDatasetNotFound = errors.New("dataset not found")

// ErrExportRunning is returned when an export is requested while one is
// already in flight for the dataset.
var ErrExportRunning = errors.New("an export is already running for this dataset")

// Dataset is one uploaded file's server-side session: the row store, the
// scroll loader and at most one export job. The mutex serializes store
// access across request handlers.
type Dataset struct {
	ID      string
	Name    string
	Created time.Time

	mu         sync.Mutex
	store      *Store
	loader     *Loader
	lastAccess time.Time
	export     *ExportJob
}

// Loader returns the dataset's incremental loader.
func (d *Dataset) Loader() *Loader { return d.loader }

// View derives the current rendering under the dataset lock. The window
// size always comes from the loader, never from the caller.
func (d *Dataset) View(p ViewParams) *View {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastAccess = time.Now()
	p.WindowSize = d.loader.WindowSize()
	return ApplyView(d.store, p)
}

// Summary recomputes the aggregate snapshot over the full store.
func (d *Dataset) Summary() *Summary {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastAccess = time.Now()
	return Summarize(d.store)
}

// SetRemark updates one record's annotation by stable identity.
func (d *Dataset) SetRemark(id int, remark string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastAccess = time.Now()
	return d.store.SetRemark(id, remark)
}

// SetFaulty updates one record's fault flag by stable identity.
func (d *Dataset) SetFaulty(id int, faulty bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastAccess = time.Now()
	return d.store.SetFaulty(id, faulty)
}

// UpdateField updates one named field on one record by stable identity.
func (d *Dataset) UpdateField(id int, field string, value CellValue) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastAccess = time.Now()
	return d.store.UpdateField(id, field, value)
}

// ExportJob tracks an asynchronous export's progress. Progress is
// monotonically non-decreasing and reaches 100 only once every record has
// been visited; the file is not ready before that.
type ExportJob struct {
	mu       sync.Mutex
	progress float64
	done     bool
	err      error
	data     []byte
	filename string
	cancel   context.CancelFunc
}

func (j *ExportJob) setProgress(p float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if p > j.progress {
		j.progress = p
	}
}

// Status returns the job's progress percentage, whether it finished, and
// its terminal error if any.
func (j *ExportJob) Status() (progress float64, done bool, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progress, j.done, j.err
}

// File returns the finished workbook. It reports false until the job has
// completed successfully.
func (j *ExportJob) File() (data []byte, filename string, ok bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.done || j.err != nil {
		return nil, "", false
	}
	return j.data, j.filename, true
}

// Cancel aborts an in-flight export. A cancelled export produces no file.
func (j *ExportJob) Cancel() { j.cancel() }

// StartExport launches an export for this dataset in the background and
// returns its job handle. Only one export may run per dataset at a time.
func (d *Dataset) StartExport(exporter *Exporter, mode ExportMode, onDone func(data []byte, filename string)) (*ExportJob, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.export != nil {
		if _, done, _ := d.export.Status(); !done {
			return nil, ErrExportRunning
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	job := &ExportJob{cancel: cancel}
	d.export = job
	store, name := d.store.Clone(), d.Name

	go func() {
		defer cancel()
		data, filename, err := exporter.Export(ctx, name, store, mode, job.setProgress)
		job.mu.Lock()
		job.done = true
		job.err = err
		if err == nil {
			job.data = data
			job.filename = filename
		}
		job.mu.Unlock()
		if err != nil {
			logger.Error("export failed", "dataset", d.ID, "error", err.Error())
			return
		}
		if onDone != nil {
			onDone(data, filename)
		}
	}()
	return job, nil
}

// Export returns the dataset's current export job, if any.
func (d *Dataset) Export() (*ExportJob, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.export, d.export != nil
}

// Manager owns all live datasets, keyed by generated id, and expires idle
// ones.
type Manager struct {
	mu        sync.RWMutex
	datasets  map[string]*Dataset
	cfg       config.InspectorConfig
	snapshots SnapshotStore
}

// NewManager creates a dataset manager backed by the given snapshot store.
func NewManager(cfg config.InspectorConfig, snapshots SnapshotStore) *Manager {
	return &Manager{
		datasets:  make(map[string]*Dataset),
		cfg:       cfg,
		snapshots: snapshots,
	}
}

// Create parses an upload into a new dataset. On success the dataset is
// mirrored to the snapshot store, replacing whatever was there; a mirror
// failure is logged, never surfaced.
func (m *Manager) Create(ctx context.Context, filename string, data []byte) (*Dataset, error) {
	res, err := Parse(filename, data)
	if err != nil {
		return nil, err
	}
	ds := m.newDataset(filename, res)

	snap := &Snapshot{
		Name:    filename,
		Columns: res.Columns,
		Records: res.Records,
		SavedAt: time.Now(),
	}
	if err := m.snapshots.Save(ctx, snap); err != nil {
		logger.Warn("snapshot mirror failed", "dataset", ds.ID, "error", err.Error())
	}
	return ds, nil
}

// Restore opportunistically rebuilds a dataset from the last snapshot.
func (m *Manager) Restore(ctx context.Context) (*Dataset, error) {
	snap, err := m.snapshots.Load(ctx)
	if err != nil {
		return nil, err
	}
	return m.newDataset(snap.Name, &ParseResult{Columns: snap.Columns, Records: snap.Records}), nil
}

func (m *Manager) newDataset(name string, res *ParseResult) *Dataset {
	now := time.Now()
	ds := &Dataset{
		ID:         uuid.NewString(),
		Name:       name,
		Created:    now,
		store:      NewStore(res),
		loader:     NewLoader(m.cfg.ChunkSize, m.cfg.ScrollThreshold, m.cfg.Debounce()),
		lastAccess: now,
	}
	m.mu.Lock()
	m.datasets[ds.ID] = ds
	m.mu.Unlock()
	logger.Info("dataset loaded", "dataset", ds.ID, "name", name, "records", ds.store.Len())
	return ds
}

// Get looks up a live dataset by id.
func (m *Manager) Get(id string) (*Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ds, ok := m.datasets[id]
	if !ok {
		return nil, ErrDatasetNotFound
	}
	return ds, nil
}

// Delete drops a dataset, cancelling any in-flight export.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	ds, ok := m.datasets[id]
	delete(m.datasets, id)
	m.mu.Unlock()
	if !ok {
		return
	}
	if job, running := ds.Export(); running {
		if _, done, _ := job.Status(); !done {
			job.Cancel()
		}
	}
}

// Sweep expires idle datasets until the context is cancelled.
func (m *Manager) Sweep(ctx context.Context) {
	ttl := m.cfg.DatasetTTL()
	ticker := time.NewTicker(ttl / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.expire(ttl)
		}
	}
}

func (m *Manager) expire(ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)
	m.mu.Lock()
	var expired []string
	for id, ds := range m.datasets {
		ds.mu.Lock()
		idle := ds.lastAccess.Before(cutoff)
		ds.mu.Unlock()
		if idle {
			expired = append(expired, id)
			delete(m.datasets, id)
		}
	}
	m.mu.Unlock()
	for _, id := range expired {
		logger.Info("dataset expired", "dataset", id)
	}
}
