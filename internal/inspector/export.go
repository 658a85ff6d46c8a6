package inspector

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pmani/ad-mosaic/internal/pkg/logger"
)

// ExportMode selects whether media thumbnails are embedded in the output.
type ExportMode string

const (
	ModeWithoutMedia ExportMode = "without_media"
	ModeWithMedia    ExportMode = "with_media"
)

// MediaRenderer turns a media URL into an embeddable thumbnail. Video URLs
// yield a decoded still frame; image URLs yield the scaled image. The
// returned bytes are PNG encoded and already fit the configured bounding
// box; width and height are the rendered dimensions in pixels.
type MediaRenderer interface {
	Thumbnail(ctx context.Context, url string) (png []byte, width, height int, err error)
}

// mediaHeader is the trailing column thumbnails are anchored to.
const mediaHeader = "Media Preview"

// Exporter serializes the full store back to a spreadsheet. It always
// exports every record in original order, ignoring whatever view filters
// are active.
type Exporter struct {
	renderer MediaRenderer
	maxW     int
	maxH     int
}

// NewExporter builds an exporter. renderer may be nil when only
// without-media exports are needed.
func NewExporter(renderer MediaRenderer, maxWidth, maxHeight int) *Exporter {
	return &Exporter{renderer: renderer, maxW: maxWidth, maxH: maxHeight}
}

// Export writes the store to an xlsx workbook and returns the file bytes
// and the download filename, derived from the upload name with the
// extension stripped and a mode suffix appended.
//
// In with-media mode each record's asset is fetched sequentially, one in
// flight at a time, and embedded in the trailing preview column. A single
// record's fetch or decode failure skips that record's thumbnail and the
// export continues. progress, when non-nil, is called after each record
// with a monotonically non-decreasing percentage that reaches 100 only
// after the last record.
func (e *Exporter) Export(ctx context.Context, name string, s *Store, mode ExportMode, progress func(float64)) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(name)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, "", fmt.Errorf("naming sheet: %w", err)
	}

	header := exportHeader(s)
	withMedia := mode == ModeWithMedia && e.renderer != nil
	if withMedia {
		header = append(header, mediaHeader)
	}
	for i, col := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return nil, "", fmt.Errorf("writing header: %w", err)
		}
	}
	if withMedia {
		colName, _ := excelize.ColumnNumberToName(len(header))
		// Excel column width is in character units, roughly 7px each.
		f.SetColWidth(sheet, colName, colName, float64(e.maxW)/7)
	}

	total := s.Len()
	for i, rec := range s.Records() {
		if err := ctx.Err(); err != nil {
			return nil, "", fmt.Errorf("export cancelled: %w", err)
		}
		row := i + 2
		if err := e.writeRow(f, sheet, header, row, rec); err != nil {
			return nil, "", err
		}
		if withMedia && rec.MediaURL != "" {
			e.embedThumbnail(ctx, f, sheet, len(header), row, rec)
		}
		if progress != nil {
			progress(float64(i+1) / float64(total) * 100)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("serializing workbook: %w", err)
	}
	return buf.Bytes(), exportFilename(name, mode), nil
}

func (e *Exporter) writeRow(f *excelize.File, sheet string, header []string, row int, rec Record) error {
	for i, col := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		var v any
		switch col {
		case mediaHeader:
			continue
		case remarkColumn:
			v = rec.Remark
		case "isFaulty":
			v = rec.IsFaulty
		default:
			c, ok := rec.Fields[col]
			if !ok || c.IsEmpty() {
				continue
			}
			switch c.Kind {
			case CellNumber:
				v = c.Num
			case CellBool:
				v = c.Bool
			default:
				v = c.Text
			}
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("writing row %d: %w", row, err)
		}
	}
	return nil
}

// embedThumbnail fetches and anchors one record's preview. Failures are
// logged and skipped so one bad asset cannot abort a multi-hundred-row
// export.
func (e *Exporter) embedThumbnail(ctx context.Context, f *excelize.File, sheet string, col, row int, rec Record) {
	png, _, h, err := e.renderer.Thumbnail(ctx, rec.MediaURL)
	if err != nil {
		logger.Warn("skipping media embed", "record_id", rec.ID, "url", rec.MediaURL, "error", err.Error())
		return
	}
	cell, _ := excelize.CoordinatesToCellName(col, row)
	// Excel row height is in points, 0.75pt per pixel.
	f.SetRowHeight(sheet, row, float64(h)*0.75)
	err = f.AddPictureFromBytes(sheet, cell, &excelize.Picture{
		Extension: ".png",
		File:      png,
		Format:    &excelize.GraphicOptions{OffsetX: 2, OffsetY: 2},
	})
	if err != nil {
		logger.Warn("skipping media embed", "record_id", rec.ID, "url", rec.MediaURL, "error", err.Error())
	}
}

// exportHeader derives the output header from the source columns with the
// annotation fields appended, excluding any duplicates the source already
// carried.
func exportHeader(s *Store) []string {
	header := make([]string, 0, len(s.Columns())+2)
	hasRemark, hasFaulty := false, false
	for _, col := range s.Columns() {
		header = append(header, col)
		switch col {
		case remarkColumn:
			hasRemark = true
		case "isFaulty":
			hasFaulty = true
		}
	}
	if !hasRemark {
		header = append(header, remarkColumn)
	}
	if !hasFaulty {
		header = append(header, "isFaulty")
	}
	return header
}

func exportFilename(name string, mode ExportMode) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = "dataset"
	}
	if mode == ModeWithMedia {
		base += "_with_media"
	}
	return base + ".xlsx"
}

// sheetName derives a legal worksheet name from the upload filename: at
// most 31 characters with the characters Excel forbids replaced.
func sheetName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		return "Dataset"
	}
	base = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, base)
	if len(base) > 31 {
		base = base[:31]
	}
	return base
}
