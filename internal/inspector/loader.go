package inspector

import (
	"sync"
	"time"
)

// LoaderState is the incremental loader's state machine position.
type LoaderState int

const (
	Idle LoaderState = iota
	LoadingMore
)

func (s LoaderState) String() string {
	if s == LoadingMore {
		return "loading_more"
	}
	return "idle"
}

// ScrollEvent is the telemetry the client posts while scrolling the table:
// the container's scroll offset, its viewport height, its total scrollable
// content height, and how many records match the current filters.
type ScrollEvent struct {
	Offset        int `json:"offset"`
	Viewport      int `json:"viewport"`
	ContentHeight int `json:"content_height"`
	MatchCount    int `json:"match_count"`
}

// Loader grows the view window in fixed chunks as the user approaches the
// end of the rendered content. A trigger only fires from Idle; while the
// debounce is pending the loader is LoadingMore and further scroll events
// are ignored, so overlapping events cannot double-grow the window. The
// window never shrinks.
type Loader struct {
	mu        sync.Mutex
	state     LoaderState
	window    int
	chunk     int
	threshold int
	debounce  time.Duration
}

// NewLoader creates a loader with its window at one chunk.
func NewLoader(chunk, threshold int, debounce time.Duration) *Loader {
	return &Loader{window: chunk, chunk: chunk, threshold: threshold, debounce: debounce}
}

// WindowSize returns the current window size.
func (l *Loader) WindowSize() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.window
}

// State returns the loader's current state.
func (l *Loader) State() LoaderState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Observe feeds one scroll event to the state machine. It returns true when
// the event scheduled a window growth. Growth happens after the debounce
// delay; the caller re-queries the view afterwards.
func (l *Loader) Observe(ev ScrollEvent) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != Idle {
		return false
	}
	if ev.Offset+ev.Viewport < ev.ContentHeight-l.threshold {
		return false
	}
	if l.window >= ev.MatchCount {
		return false
	}

	l.state = LoadingMore
	time.AfterFunc(l.debounce, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.window += l.chunk
		l.state = Idle
	})
	return true
}
