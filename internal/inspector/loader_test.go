package inspector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nearBottom(matches int) ScrollEvent {
	return ScrollEvent{Offset: 950, Viewport: 500, ContentHeight: 1500, MatchCount: matches}
}

func TestLoaderGrowsAfterDebounce(t *testing.T) {
	l := NewLoader(20, 100, 5*time.Millisecond)
	assert.Equal(t, 20, l.WindowSize())

	require.True(t, l.Observe(nearBottom(100)))
	assert.Equal(t, LoadingMore, l.State())

	require.Eventually(t, func() bool {
		return l.WindowSize() == 40 && l.State() == Idle
	}, time.Second, time.Millisecond)
}

func TestLoaderReentrancyGuard(t *testing.T) {
	l := NewLoader(20, 100, 20*time.Millisecond)

	require.True(t, l.Observe(nearBottom(100)))
	// Rapid repeat events while the debounce is pending must not stack.
	assert.False(t, l.Observe(nearBottom(100)))
	assert.False(t, l.Observe(nearBottom(100)))

	require.Eventually(t, func() bool { return l.State() == Idle }, time.Second, time.Millisecond)
	assert.Equal(t, 40, l.WindowSize())
}

func TestLoaderIgnoresScrollFarFromBottom(t *testing.T) {
	l := NewLoader(20, 100, time.Millisecond)
	ev := ScrollEvent{Offset: 0, Viewport: 500, ContentHeight: 5000, MatchCount: 100}
	assert.False(t, l.Observe(ev))
	assert.Equal(t, 20, l.WindowSize())
}

func TestLoaderStopsWhenAllMatchesVisible(t *testing.T) {
	l := NewLoader(20, 100, time.Millisecond)
	assert.False(t, l.Observe(nearBottom(20)), "no more data to reveal")
	assert.False(t, l.Observe(nearBottom(7)))
	assert.Equal(t, 20, l.WindowSize())
}

func TestLoaderWindowNeverDecreases(t *testing.T) {
	l := NewLoader(20, 100, time.Millisecond)
	last := l.WindowSize()
	for i := 0; i < 5; i++ {
		l.Observe(nearBottom(1000))
		require.Eventually(t, func() bool { return l.State() == Idle }, time.Second, time.Millisecond)
		cur := l.WindowSize()
		assert.GreaterOrEqual(t, cur, last)
		last = cur
	}
	assert.Equal(t, 120, last)
}
