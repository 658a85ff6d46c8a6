package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// frameOffsetSeconds is where the representative still is taken from.
const frameOffsetSeconds = "1"

// videoExtensions are the URL suffixes treated as video assets.
var videoExtensions = []string{".mp4", ".webm", ".mov", ".m4v", ".ogg"}

// IsVideoURL reports whether a media URL points at a video by extension.
func IsVideoURL(url string) bool {
	u := strings.ToLower(url)
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	for _, ext := range videoExtensions {
		if strings.HasSuffix(u, ext) {
			return true
		}
	}
	return false
}

// FrameExtractor decodes a representative still frame from video bytes by
// shelling out to ffmpeg.
type FrameExtractor struct {
	ffmpegPath string
}

// NewFrameExtractor builds an extractor. path defaults to "ffmpeg" on PATH.
func NewFrameExtractor(path string) *FrameExtractor {
	if path == "" {
		path = "ffmpeg"
	}
	return &FrameExtractor{ffmpegPath: path}
}

// ExtractFrame seeks one second into the video and decodes a single frame
// as PNG. Input and output both stream through pipes; no temp files.
func (e *FrameExtractor) ExtractFrame(ctx context.Context, video []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, e.ffmpegPath,
		"-ss", frameOffsetSeconds,
		"-i", "pipe:0",
		"-frames:v", "1",
		"-f", "image2",
		"-vcodec", "png",
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(video)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame extraction: %w: %s", err, lastLine(errBuf.String()))
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame")
	}
	return out.Bytes(), nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return s
}
