package service

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/vaiolabs/vaio-board/supervisor"

	"github.com/stretchr/testify/assert"
)

func newTestTracker(grace time.Duration) *StatusTracker {
	t := NewStatusTracker()
	t.grace = grace
	return t
}

func TestTrackerSockets(t *testing.T) {
	tracker := newTestTracker(time.Second)

	tracker.AddSocket("/modules/ollama", "s1")
	tracker.AddSocket("/modules/ollama", "s2")
	assert.Equal(t, 2, tracker.SocketCount("/modules/ollama"))

	assert.False(t, tracker.RemoveSocket("/modules/ollama", "s1"))
	assert.True(t, tracker.RemoveSocket("/modules/ollama", "s2"))
	assert.Equal(t, 0, tracker.SocketCount("/modules/ollama"))
}

func TestTrackerStatusCache(t *testing.T) {
	tracker := newTestTracker(time.Second)

	assert.Equal(t, supervisor.Unknown, tracker.Status("ollama"))

	tracker.SetStatus("ollama", supervisor.Running)
	assert.Equal(t, supervisor.Running, tracker.Status("ollama"))

	snapshot := tracker.Statuses()
	assert.Equal(t, supervisor.Running, snapshot["ollama"])
}

func TestWatchdogFiresOnceAfterGrace(t *testing.T) {
	tracker := newTestTracker(50 * time.Millisecond)

	var fired atomic.Int32
	tracker.StartWatchdog("/modules/ollama", func() {
		fired.Add(1)
	})

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestWatchdogCancelledByReconnect(t *testing.T) {
	tracker := newTestTracker(50 * time.Millisecond)

	var fired atomic.Int32
	tracker.StartWatchdog("/modules/ollama", func() {
		fired.Add(1)
	})

	// reconnect inside the grace window
	tracker.AddSocket("/modules/ollama", "s1")

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestWatchdogRearmReplacesTimer(t *testing.T) {
	tracker := newTestTracker(50 * time.Millisecond)

	var fired atomic.Int32
	tracker.StartWatchdog("/modules/ollama", func() { fired.Add(1) })
	tracker.StartWatchdog("/modules/ollama", func() { fired.Add(1) })

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestWatchdogExplicitCancel(t *testing.T) {
	tracker := newTestTracker(50 * time.Millisecond)

	var fired atomic.Int32
	tracker.StartWatchdog("/modules/ollama", func() { fired.Add(1) })
	tracker.CancelWatchdog("/modules/ollama")

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}
