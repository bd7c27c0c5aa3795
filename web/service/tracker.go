package service

import (
	"sync"
	"time"

	"github.com/vaiolabs/vaio-board/logger"
	"github.com/vaiolabs/vaio-board/supervisor"
)

// DisconnectGrace is how long a module namespace may sit empty before its
// watchers are told the module went offline. A reconnect within the window
// cancels the pending broadcast.
const DisconnectGrace = 10 * time.Second

// StatusTracker tracks which sockets watch which module namespace, caches the
// last known status per module, and debounces disconnects with per-namespace
// watchdog timers.
type StatusTracker struct {
	mu sync.Mutex

	sockets   map[string]map[string]bool
	statuses  map[string]supervisor.Status
	watchdogs map[string]*time.Timer

	grace time.Duration
}

func NewStatusTracker() *StatusTracker {
	return &StatusTracker{
		sockets:   make(map[string]map[string]bool),
		statuses:  make(map[string]supervisor.Status),
		watchdogs: make(map[string]*time.Timer),
		grace:     DisconnectGrace,
	}
}

// AddSocket registers a socket in a namespace and cancels any pending
// offline watchdog for it.
func (t *StatusTracker) AddSocket(namespace, socketId string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sockets[namespace] == nil {
		t.sockets[namespace] = make(map[string]bool)
	}
	t.sockets[namespace][socketId] = true
	t.cancelWatchdogLocked(namespace)
}

// RemoveSocket removes a socket from a namespace and reports whether it was
// the last one watching.
func (t *StatusTracker) RemoveSocket(namespace, socketId string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	sockets := t.sockets[namespace]
	if sockets == nil {
		return true
	}
	delete(sockets, socketId)
	if len(sockets) == 0 {
		delete(t.sockets, namespace)
		return true
	}
	return false
}

// SocketCount returns how many sockets currently watch a namespace.
func (t *StatusTracker) SocketCount(namespace string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sockets[namespace])
}

// SetStatus caches the last known status for a module.
func (t *StatusTracker) SetStatus(module string, status supervisor.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statuses[module] = status
}

// Status returns the cached status for a module, Unknown when never seen.
func (t *StatusTracker) Status(module string) supervisor.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	if status, ok := t.statuses[module]; ok {
		return status
	}
	return supervisor.Unknown
}

// Statuses returns a copy of the whole status snapshot.
func (t *StatusTracker) Statuses() map[string]supervisor.Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := make(map[string]supervisor.Status, len(t.statuses))
	for module, status := range t.statuses {
		snapshot[module] = status
	}
	return snapshot
}

// StartWatchdog arms the offline timer for a namespace. onExpire fires once
// after the grace period unless a reconnect (or explicit cancel) happens
// first; re-arming replaces any pending timer.
func (t *StatusTracker) StartWatchdog(namespace string, onExpire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelWatchdogLocked(namespace)
	t.watchdogs[namespace] = time.AfterFunc(t.grace, func() {
		t.mu.Lock()
		delete(t.watchdogs, namespace)
		stillEmpty := len(t.sockets[namespace]) == 0
		t.mu.Unlock()

		if !stillEmpty {
			return
		}
		logger.Debugf("namespace %s empty for %s, broadcasting offline", namespace, t.grace)
		onExpire()
	})
}

// CancelWatchdog stops a pending offline timer for a namespace, if any.
func (t *StatusTracker) CancelWatchdog(namespace string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelWatchdogLocked(namespace)
}

func (t *StatusTracker) cancelWatchdogLocked(namespace string) {
	if timer, ok := t.watchdogs[namespace]; ok {
		timer.Stop()
		delete(t.watchdogs, namespace)
	}
}

// Stop cancels every pending watchdog; used on shutdown.
func (t *StatusTracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for namespace, timer := range t.watchdogs {
		timer.Stop()
		delete(t.watchdogs, namespace)
	}
}
