package service

import (
	"context"

	"github.com/vaiolabs/vaio-board/database"
	"github.com/vaiolabs/vaio-board/database/model"
	"github.com/vaiolabs/vaio-board/logger"
	"github.com/vaiolabs/vaio-board/supervisor"
	"github.com/vaiolabs/vaio-board/web/entity"
)

// SupervisorClient is the slice of the supervisor package the lifecycle
// service needs. Tests substitute a fake.
type SupervisorClient interface {
	Available() bool
	Start(ctx context.Context, name string) supervisor.Status
	Stop(ctx context.Context, name string) supervisor.Status
	Status(ctx context.Context, name string) supervisor.Status
}

// ModuleLookup resolves a module key to its registry row. A miss returns
// (nil, nil), never an error.
type ModuleLookup interface {
	FindByKey(key string) (*model.Module, error)
}

// Broadcaster pushes events to WebSocket namespaces.
type Broadcaster interface {
	Broadcast(namespace, event string, data any)
}

// ModuleNamespace is the WebSocket namespace for one module's status stream.
func ModuleNamespace(name string) string {
	return "/modules/" + name
}

// StatusNamespace carries the raw service status list for all modules.
const StatusNamespace = "/status"

// LifecycleService implements the module status synchronization protocol:
// every start/stop/status answer is derived from the supervisor, cached in
// the tracker, persisted to the Service row and broadcast to the module's
// namespace. No error escapes to the transport; failures become statuses.
type LifecycleService struct {
	client  SupervisorClient
	modules ModuleLookup
	tracker *StatusTracker
	hub     Broadcaster
}

func NewLifecycleService(client SupervisorClient, modules ModuleLookup, tracker *StatusTracker, hub Broadcaster) *LifecycleService {
	return &LifecycleService{
		client:  client,
		modules: modules,
		tracker: tracker,
		hub:     hub,
	}
}

// Start starts a module's process and returns the resulting status.
func (s *LifecycleService) Start(ctx context.Context, name string) supervisor.Status {
	module, err := s.modules.FindByKey(name)
	if err != nil {
		logger.Warningf("module lookup for %s failed: %v", name, err)
		return s.settle(name, supervisor.Error, "")
	}
	if module == nil {
		return s.settle(name, supervisor.NotInstalled, "")
	}

	status := s.client.Start(ctx, name)
	return s.settle(name, status, string(module.ModuleType))
}

// Stop stops a module's process and returns the resulting status.
func (s *LifecycleService) Stop(ctx context.Context, name string) supervisor.Status {
	module, err := s.modules.FindByKey(name)
	if err != nil {
		logger.Warningf("module lookup for %s failed: %v", name, err)
		return s.settle(name, supervisor.Error, "")
	}
	if module == nil {
		return s.settle(name, supervisor.NotInstalled, "")
	}

	status := s.client.Stop(ctx, name)
	return s.settle(name, status, string(module.ModuleType))
}

// StatusFor answers the current status of a module without side effects on
// the process: lookup miss maps to NOT_INSTALLED, supervisor trouble to
// SIMULATED/UNAVAILABLE.
func (s *LifecycleService) StatusFor(ctx context.Context, name string) supervisor.Status {
	module, err := s.modules.FindByKey(name)
	if err != nil {
		logger.Warningf("module lookup for %s failed: %v", name, err)
		return supervisor.Error
	}
	if module == nil {
		return supervisor.NotInstalled
	}

	status := s.client.Status(ctx, name)
	s.tracker.SetStatus(name, status)
	return status
}

// settle records a status everywhere it lives: tracker cache, Service row,
// and the module's WebSocket namespace.
func (s *LifecycleService) settle(name string, status supervisor.Status, moduleType string) supervisor.Status {
	s.tracker.SetStatus(name, status)
	s.persist(name, status)
	if s.hub != nil {
		s.hub.Broadcast(ModuleNamespace(name), "statusUpdate", entity.StatusUpdate{
			Name:       name,
			Status:     string(status),
			ModuleType: moduleType,
		})
	}
	return status
}

func (s *LifecycleService) persist(name string, status supervisor.Status) {
	db := database.GetDB()
	if db == nil {
		return
	}
	err := db.Model(model.Service{}).
		Where("name = ?", name).
		Update("status", string(status)).
		Error
	if err != nil {
		logger.Warningf("persisting status %s for %s failed: %v", status, name, err)
	}
}

// PollOnce derives the status of every registered service, diffs against the
// last snapshot, updates rows and broadcasts changes. Run from a cron job.
func (s *LifecycleService) PollOnce(ctx context.Context) {
	db := database.GetDB()
	if db == nil {
		return
	}

	var services []*model.Service
	if err := db.Model(model.Service{}).Find(&services).Error; err != nil {
		logger.Warning("service status poll failed:", err)
		return
	}

	previous := s.tracker.Statuses()
	statusList := make([]entity.StatusUpdate, 0, len(services))

	for _, svc := range services {
		if !svc.SupportsStatus {
			continue
		}
		status := s.client.Status(ctx, svc.Name)
		s.tracker.SetStatus(svc.Name, status)

		statusList = append(statusList, entity.StatusUpdate{
			Name:       svc.Name,
			Status:     string(status),
			ModuleType: string(svc.ModuleType),
		})

		if previous[svc.Name] == status {
			continue
		}
		s.persist(svc.Name, status)
		if s.hub != nil {
			s.hub.Broadcast(ModuleNamespace(svc.Name), "statusUpdate", entity.StatusUpdate{
				Name:       svc.Name,
				Status:     string(status),
				ModuleType: string(svc.ModuleType),
			})
		}
	}

	if s.hub != nil && len(statusList) > 0 {
		s.hub.Broadcast(StatusNamespace, "service_status", statusList)
	}
}

// HandleDisconnect arms the offline watchdog when the last socket leaves a
// module namespace. After the grace period with no reconnect, every watcher
// that rejoined meanwhile is told the module is OFFLINE exactly once.
func (s *LifecycleService) HandleDisconnect(namespace, socketId, moduleName string) {
	if !s.tracker.RemoveSocket(namespace, socketId) {
		return
	}
	s.tracker.StartWatchdog(namespace, func() {
		s.tracker.SetStatus(moduleName, supervisor.Offline)
		if s.hub != nil {
			s.hub.Broadcast(namespace, "statusUpdate", entity.StatusUpdate{
				Name:   moduleName,
				Status: string(supervisor.Offline),
			})
		}
	})
}

// HandleConnect registers a socket and cancels any pending offline watchdog.
func (s *LifecycleService) HandleConnect(namespace, socketId string) {
	s.tracker.AddSocket(namespace, socketId)
}
