package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vaiolabs/vaio-board/database"
	"github.com/vaiolabs/vaio-board/database/model"
	"github.com/vaiolabs/vaio-board/supervisor"
	"github.com/vaiolabs/vaio-board/web/entity"

	"github.com/stretchr/testify/assert"
)

type fakeSupervisor struct {
	available bool
	status    supervisor.Status
}

func (f *fakeSupervisor) Available() bool { return f.available }

func (f *fakeSupervisor) Start(ctx context.Context, name string) supervisor.Status {
	if !f.available {
		return supervisor.Simulated
	}
	f.status = supervisor.Running
	return f.status
}

func (f *fakeSupervisor) Stop(ctx context.Context, name string) supervisor.Status {
	if !f.available {
		return supervisor.Stopped
	}
	f.status = supervisor.Stopped
	return f.status
}

func (f *fakeSupervisor) Status(ctx context.Context, name string) supervisor.Status {
	if !f.available {
		return supervisor.Simulated
	}
	return f.status
}

type fakeLookup struct {
	modules map[string]*model.Module
}

func (f *fakeLookup) FindByKey(key string) (*model.Module, error) {
	return f.modules[key], nil
}

type recordingHub struct {
	mu       sync.Mutex
	events   []string
	payloads []any
}

func (h *recordingHub) Broadcast(namespace, event string, data any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, namespace+":"+event)
	h.payloads = append(h.payloads, data)
}

func (h *recordingHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func newTestLifecycle(sup *fakeSupervisor, lookup *fakeLookup) (*LifecycleService, *StatusTracker, *recordingHub) {
	tracker := newTestTracker(50 * time.Millisecond)
	hub := &recordingHub{}
	return NewLifecycleService(sup, lookup, tracker, hub), tracker, hub
}

func TestLifecycleStatusForUnknownModule(t *testing.T) {
	lifecycle, _, _ := newTestLifecycle(
		&fakeSupervisor{available: true, status: supervisor.Running},
		&fakeLookup{modules: map[string]*model.Module{}},
	)

	status := lifecycle.StatusFor(context.Background(), "ghost")
	assert.Equal(t, supervisor.NotInstalled, status)
}

func TestLifecycleStartBroadcastsAndCaches(t *testing.T) {
	lookup := &fakeLookup{modules: map[string]*model.Module{
		"ollama": {Id: 1, Module: "ollama", ModuleType: model.ModuleTypeService, SupportsStatus: true},
	}}
	lifecycle, tracker, hub := newTestLifecycle(&fakeSupervisor{available: true, status: supervisor.Stopped}, lookup)

	status := lifecycle.Start(context.Background(), "ollama")
	assert.Equal(t, supervisor.Running, status)
	assert.Equal(t, supervisor.Running, tracker.Status("ollama"))
	assert.Equal(t, 1, hub.count())
	assert.Equal(t, "/modules/ollama:statusUpdate", hub.events[0])
}

func TestLifecycleStopWithoutSupervisor(t *testing.T) {
	lookup := &fakeLookup{modules: map[string]*model.Module{
		"ollama": {Id: 1, Module: "ollama", ModuleType: model.ModuleTypeService, SupportsStatus: true},
	}}
	lifecycle, tracker, _ := newTestLifecycle(&fakeSupervisor{available: false}, lookup)

	status := lifecycle.Stop(context.Background(), "ollama")
	assert.Equal(t, supervisor.Stopped, status)
	assert.Equal(t, supervisor.Stopped, tracker.Status("ollama"))
}

func TestLifecycleStatusForUnavailableSupervisor(t *testing.T) {
	lookup := &fakeLookup{modules: map[string]*model.Module{
		"ollama": {Id: 1, Module: "ollama", ModuleType: model.ModuleTypeService, SupportsStatus: true},
	}}
	lifecycle, _, _ := newTestLifecycle(&fakeSupervisor{available: false}, lookup)

	status := lifecycle.StatusFor(context.Background(), "ollama")
	assert.Equal(t, supervisor.Simulated, status)
}

func TestPollOnceBroadcastsModuleType(t *testing.T) {
	setup()
	defer teardown()

	db := database.GetDB()
	err := db.Create(&model.Service{
		Name:           "ollama",
		SupportsStatus: true,
		ModuleType:     model.ModuleTypeService,
		Status:         string(supervisor.Stopped),
	}).Error
	assert.NoError(t, err)

	lifecycle, tracker, hub := newTestLifecycle(
		&fakeSupervisor{available: true, status: supervisor.Running},
		&fakeLookup{modules: map[string]*model.Module{}},
	)

	lifecycle.PollOnce(context.Background())
	assert.Equal(t, supervisor.Running, tracker.Status("ollama"))

	// one per-module change broadcast plus the status namespace list
	assert.Equal(t, 2, hub.count())
	update, ok := hub.payloads[0].(entity.StatusUpdate)
	assert.True(t, ok)
	assert.Equal(t, "ollama", update.Name)
	assert.Equal(t, string(supervisor.Running), update.Status)
	assert.Equal(t, string(model.ModuleTypeService), update.ModuleType)

	list, ok := hub.payloads[1].([]entity.StatusUpdate)
	assert.True(t, ok)
	assert.Len(t, list, 1)
	assert.Equal(t, string(model.ModuleTypeService), list[0].ModuleType)
}

func TestDisconnectWatchdogBroadcastsOfflineOnce(t *testing.T) {
	lookup := &fakeLookup{modules: map[string]*model.Module{}}
	lifecycle, tracker, hub := newTestLifecycle(&fakeSupervisor{available: true}, lookup)

	namespace := ModuleNamespace("ollama")
	lifecycle.HandleConnect(namespace, "s1")
	lifecycle.HandleDisconnect(namespace, "s1", "ollama")

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 1, hub.count())
	assert.Equal(t, namespace+":statusUpdate", hub.events[0])
	assert.Equal(t, supervisor.Offline, tracker.Status("ollama"))
}

func TestDisconnectWatchdogCancelledByReconnect(t *testing.T) {
	lookup := &fakeLookup{modules: map[string]*model.Module{}}
	lifecycle, _, hub := newTestLifecycle(&fakeSupervisor{available: true}, lookup)

	namespace := ModuleNamespace("ollama")
	lifecycle.HandleConnect(namespace, "s1")
	lifecycle.HandleDisconnect(namespace, "s1", "ollama")
	// reconnect inside the grace window
	lifecycle.HandleConnect(namespace, "s2")

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 0, hub.count())
}

func TestDisconnectNotLastSocketKeepsQuiet(t *testing.T) {
	lookup := &fakeLookup{modules: map[string]*model.Module{}}
	lifecycle, _, hub := newTestLifecycle(&fakeSupervisor{available: true}, lookup)

	namespace := ModuleNamespace("ollama")
	lifecycle.HandleConnect(namespace, "s1")
	lifecycle.HandleConnect(namespace, "s2")
	lifecycle.HandleDisconnect(namespace, "s1", "ollama")

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 0, hub.count())
}
