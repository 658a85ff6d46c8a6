package inspector

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmani/ad-mosaic/internal/config"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	cfg := config.InspectorConfig{
		ChunkSize:         2,
		ScrollThreshold:   100,
		DebounceMillis:    5,
		DatasetTTLMinutes: 60,
	}
	return NewManager(cfg, NewMemorySnapshotStore())
}

var sessionCSV = []byte("BRAND,CREATIVE_URL_SUPPLIER,IMPRESSIONS\n" +
	"A,http://x/a.jpg,10\n" +
	"B,http://x/b.mp4,0\n" +
	"C,,5\n")

func TestManagerCreateAndView(t *testing.T) {
	m := testManager(t)
	ds, err := m.Create(context.Background(), "ads.csv", sessionCSV)
	require.NoError(t, err)

	got, err := m.Get(ds.ID)
	require.NoError(t, err)
	assert.Same(t, ds, got)

	v := ds.View(ViewParams{})
	assert.Equal(t, 3, v.MatchCount)
	assert.Len(t, v.Rows, 2, "initial window is one chunk")
}

func TestManagerCreateParseFailure(t *testing.T) {
	m := testManager(t)
	_, err := m.Create(context.Background(), "empty.csv", []byte("BRAND\n"))
	require.ErrorIs(t, err, ErrEmptyFile)
}

func TestManagerCreateMirrorsSnapshot(t *testing.T) {
	snaps := NewMemorySnapshotStore()
	m := NewManager(config.InspectorConfig{ChunkSize: 20, DatasetTTLMinutes: 60}, snaps)

	_, err := m.Create(context.Background(), "ads.csv", sessionCSV)
	require.NoError(t, err)

	snap, err := snaps.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ads.csv", snap.Name)
	assert.Len(t, snap.Records, 3)
}

func TestManagerRestore(t *testing.T) {
	m := testManager(t)
	_, err := m.Restore(context.Background())
	require.ErrorIs(t, err, ErrNoSnapshot)

	_, err = m.Create(context.Background(), "ads.csv", sessionCSV)
	require.NoError(t, err)

	ds, err := m.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ads.csv", ds.Name)
	assert.Equal(t, 3, ds.View(ViewParams{}).MatchCount)
}

func TestDatasetEditByIdentity(t *testing.T) {
	m := testManager(t)
	ds, err := m.Create(context.Background(), "ads.csv", sessionCSV)
	require.NoError(t, err)

	require.NoError(t, ds.SetFaulty(1, true))
	require.NoError(t, ds.SetRemark(1, "broken asset"))

	v := ds.View(ViewParams{FaultyOnly: true})
	require.Len(t, v.Rows, 1)
	assert.Equal(t, 1, v.Rows[0].ID)
	assert.Equal(t, "broken asset", v.Rows[0].Remark)

	require.Error(t, ds.SetFaulty(99, true))
}

func TestDatasetViewConcurrentWithEdits(t *testing.T) {
	m := testManager(t)
	ds, err := m.Create(context.Background(), "ads.csv", sessionCSV)
	require.NoError(t, err)

	// Views are JSON-encoded after the dataset lock is released, so the
	// rows must not share field maps with the store.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = ds.UpdateField(0, "BRAND", TextCell("Z"))
		}
	}()
	for i := 0; i < 200; i++ {
		_, err := json.Marshal(ds.View(ViewParams{}))
		require.NoError(t, err)
	}
	<-done
}

func TestDatasetScrollGrowsWindow(t *testing.T) {
	m := testManager(t)
	ds, err := m.Create(context.Background(), "ads.csv", sessionCSV)
	require.NoError(t, err)

	triggered := ds.Loader().Observe(ScrollEvent{
		Offset: 950, Viewport: 500, ContentHeight: 1500, MatchCount: 3,
	})
	require.True(t, triggered)

	require.Eventually(t, func() bool {
		return len(ds.View(ViewParams{}).Rows) == 3
	}, time.Second, time.Millisecond)
}

func TestDatasetExportJob(t *testing.T) {
	m := testManager(t)
	ds, err := m.Create(context.Background(), "ads.csv", sessionCSV)
	require.NoError(t, err)

	job, err := ds.StartExport(NewExporter(nil, 300, 500), ModeWithoutMedia, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, done, _ := job.Status()
		return done
	}, time.Second, time.Millisecond)

	progress, _, jobErr := job.Status()
	require.NoError(t, jobErr)
	assert.Equal(t, 100.0, progress)

	data, filename, ok := job.File()
	require.True(t, ok)
	assert.Equal(t, "ads.xlsx", filename)
	assert.NotEmpty(t, data)
}

func TestManagerDelete(t *testing.T) {
	m := testManager(t)
	ds, err := m.Create(context.Background(), "ads.csv", sessionCSV)
	require.NoError(t, err)

	m.Delete(ds.ID)
	_, err = m.Get(ds.ID)
	require.ErrorIs(t, err, ErrDatasetNotFound)
}

func TestManagerExpire(t *testing.T) {
	m := testManager(t)
	ds, err := m.Create(context.Background(), "ads.csv", sessionCSV)
	require.NoError(t, err)

	ds.mu.Lock()
	ds.lastAccess = time.Now().Add(-2 * time.Hour)
	ds.mu.Unlock()

	m.expire(time.Hour)
	_, err = m.Get(ds.ID)
	require.ErrorIs(t, err, ErrDatasetNotFound)
}
