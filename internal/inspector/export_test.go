package inspector

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type stubRenderer struct {
	calls []string
	fail  map[string]bool
}

func (r *stubRenderer) Thumbnail(_ context.Context, url string) ([]byte, int, int, error) {
	r.calls = append(r.calls, url)
	if r.fail[url] {
		return nil, 0, 0, errors.New("asset unreachable")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		return nil, 0, 0, err
	}
	return buf.Bytes(), 4, 4, nil
}

func readSheet(t *testing.T, data []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	return rows
}

func TestExportWithoutMedia(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.SetRemark(0, "keep"))
	require.NoError(t, s.SetFaulty(1, true))

	e := NewExporter(nil, 300, 500)
	data, name, err := e.Export(context.Background(), "ads.csv", s, ModeWithoutMedia, nil)
	require.NoError(t, err)
	assert.Equal(t, "ads.xlsx", name)

	rows := readSheet(t, data)
	require.Len(t, rows, 4, "header plus one row per record")
	assert.Equal(t, []string{"BRAND", "CREATIVE_URL_SUPPLIER", "IMPRESSIONS", "remark", "isFaulty"}, rows[0])
	assert.Equal(t, "keep", rows[1][3])
	assert.Equal(t, "TRUE", rows[2][4])
}

func TestExportWithMedia(t *testing.T) {
	s := testStore(t)
	r := &stubRenderer{}
	e := NewExporter(r, 300, 500)

	var progress []float64
	data, name, err := e.Export(context.Background(), "ads.csv", s, ModeWithMedia, func(p float64) {
		progress = append(progress, p)
	})
	require.NoError(t, err)
	assert.Equal(t, "ads_with_media.xlsx", name)

	// Record 3 has no media URL; only the two real assets are fetched,
	// in record order.
	assert.Equal(t, []string{"http://x/a.jpg", "http://x/b.mp4"}, r.calls)

	rows := readSheet(t, data)
	assert.Equal(t, "Media Preview", rows[0][len(rows[0])-1])

	require.Len(t, progress, 3)
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1])
	}
	assert.Equal(t, 100.0, progress[len(progress)-1])
}

func TestExportContinuesPastMediaFailure(t *testing.T) {
	s := testStore(t)
	r := &stubRenderer{fail: map[string]bool{"http://x/a.jpg": true}}
	e := NewExporter(r, 300, 500)

	var last float64
	data, _, err := e.Export(context.Background(), "ads.csv", s, ModeWithMedia, func(p float64) { last = p })
	require.NoError(t, err, "one bad asset must not abort the export")
	assert.Equal(t, 100.0, last)

	rows := readSheet(t, data)
	assert.Len(t, rows, 4)
}

func TestExportCancelled(t *testing.T) {
	s := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewExporter(nil, 300, 500)
	_, _, err := e.Export(ctx, "ads.csv", s, ModeWithoutMedia, nil)
	require.Error(t, err, "a cancelled export must not produce a file")
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "report.xlsx", exportFilename("report.xlsx", ModeWithoutMedia))
	assert.Equal(t, "report_with_media.xlsx", exportFilename("report.csv", ModeWithMedia))
	assert.Equal(t, "dataset.xlsx", exportFilename("", ModeWithoutMedia))
}
