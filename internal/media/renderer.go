package media

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/pmani/ad-mosaic/internal/config"
)

// Renderer implements the exporter's thumbnail pipeline: fetch the asset,
// take a still frame when it is a video, then scale the result into the
// configured bounding box.
type Renderer struct {
	fetcher   *Fetcher
	extractor *FrameExtractor
	maxW      int
	maxH      int
}

// NewRenderer wires a renderer from the export configuration.
func NewRenderer(cfg config.ExportConfig) *Renderer {
	return &Renderer{
		fetcher:   NewFetcher(cfg.FetchTimeout()),
		extractor: NewFrameExtractor(cfg.FFmpegPath),
		maxW:      cfg.ThumbnailWidth,
		maxH:      cfg.ThumbnailHeight,
	}
}

// NewRendererWithParts is for tests.
func NewRendererWithParts(f *Fetcher, e *FrameExtractor, maxW, maxH int) *Renderer {
	return &Renderer{fetcher: f, extractor: e, maxW: maxW, maxH: maxH}
}

// Thumbnail produces a PNG preview for one media URL along with its
// rendered dimensions.
func (r *Renderer) Thumbnail(ctx context.Context, url string) ([]byte, int, int, error) {
	data, contentType, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, 0, 0, err
	}

	if IsVideoURL(url) || contentType == "video/mp4" {
		data, err = r.extractor.ExtractFrame(ctx, data)
		if err != nil {
			return nil, 0, 0, err
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decoding %s: %w", url, err)
	}

	thumb := FitThumbnail(img, r.maxW, r.maxH)
	png, err := EncodePNG(thumb)
	if err != nil {
		return nil, 0, 0, err
	}
	b := thumb.Bounds()
	return png, b.Dx(), b.Dy(), nil
}
