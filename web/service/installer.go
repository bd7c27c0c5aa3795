package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vaiolabs/vaio-board/config"
	"github.com/vaiolabs/vaio-board/database"
	"github.com/vaiolabs/vaio-board/database/model"
	"github.com/vaiolabs/vaio-board/logger"
	"github.com/vaiolabs/vaio-board/supervisor"
	"github.com/vaiolabs/vaio-board/util/common"
)

// SupervisorAdmin is the slice of the supervisor client the installer needs.
type SupervisorAdmin interface {
	Available() bool
	Stop(ctx context.Context, name string) supervisor.Status
	Reread(ctx context.Context) error
	Update(ctx context.Context) error
}

// InstallerService registers a module's process with the supervisor: it
// writes the program config, reloads the supervisor and keeps the module and
// service rows in sync. Everything degrades to simulated bookkeeping when no
// supervisor is present.
type InstallerService struct {
	admin   SupervisorAdmin
	modules *ModuleService
}

func NewInstallerService(admin SupervisorAdmin, modules *ModuleService) *InstallerService {
	return &InstallerService{admin: admin, modules: modules}
}

func confDir() string {
	return filepath.Join(filepath.Dir(config.GetSupervisorConfPath()), "conf.d")
}

func programConfPath(name string) string {
	return filepath.Join(confDir(), name+".conf")
}

func programConf(name, command string, autostart bool) string {
	logDir := config.GetLogFolder()
	return fmt.Sprintf(`[program:%s]
command=%s
autostart=%t
autorestart=true
stdout_logfile=%s
stderr_logfile=%s
`, name, command,
		autostart,
		filepath.Join(logDir, name+".log"),
		filepath.Join(logDir, name+".err.log"))
}

// Install registers a module under the supervisor and records it as
// installed. Idempotent: re-installing an installed module only rewrites the
// program config.
func (s *InstallerService) Install(ctx context.Context, name, command string, moduleType model.ModuleType, autostart bool, userId int) (*model.Module, error) {
	if command == "" {
		return nil, common.NewError("install command can not be empty")
	}

	module, err := s.modules.CreateOrGetModule(name, moduleType, userId)
	if err != nil {
		return nil, err
	}

	if s.admin.Available() {
		if err := os.MkdirAll(confDir(), 0o750); err != nil {
			return nil, err
		}
		conf := programConf(module.Module, command, autostart)
		if err := os.WriteFile(programConfPath(module.Module), []byte(conf), 0o640); err != nil {
			return nil, err
		}
		if err := s.admin.Reread(ctx); err != nil {
			return nil, err
		}
		if err := s.admin.Update(ctx); err != nil {
			return nil, err
		}
	} else {
		logger.Infof("supervisor unavailable, simulated install of %s", module.Module)
	}

	if err := s.ensureService(module, command, autostart); err != nil {
		return nil, err
	}
	if err := s.modules.SetInstalled(module.Module, userId, true); err != nil {
		return nil, err
	}
	module.IsInstalled = true
	return module, nil
}

// Uninstall stops the module's process, removes its supervisor config and
// marks the module as not installed. The module row itself survives.
func (s *InstallerService) Uninstall(ctx context.Context, name string, userId int) error {
	module, err := s.modules.GetByKey(ModuleKey(name), userId)
	if err != nil {
		return err
	}
	if module == nil {
		return common.NewErrorf("module not found: %s", name)
	}

	if s.admin.Available() {
		s.admin.Stop(ctx, module.Module)
		if err := os.Remove(programConfPath(module.Module)); err != nil && !os.IsNotExist(err) {
			return err
		}
		if err := s.admin.Reread(ctx); err != nil {
			return err
		}
		if err := s.admin.Update(ctx); err != nil {
			return err
		}
	} else {
		logger.Infof("supervisor unavailable, simulated uninstall of %s", module.Module)
	}

	db := database.GetDB()
	err = db.Model(model.Service{}).
		Where("name = ?", module.Module).
		Update("status", string(supervisor.Uninstalled)).
		Error
	if err != nil {
		return err
	}
	return s.modules.SetInstalled(module.Module, userId, false)
}

// ensureService creates the Service row for an installed module if missing.
func (s *InstallerService) ensureService(module *model.Module, command string, autostart bool) error {
	db := database.GetDB()

	existing := &model.Service{}
	err := db.Model(model.Service{}).
		Where("name = ?", module.Module).
		First(existing).
		Error
	if err == nil {
		return nil
	}
	if !database.IsNotFound(err) {
		return err
	}

	svc := &model.Service{
		Name:            module.Module,
		Description:     module.Description,
		Path:            command,
		Autostart:       autostart,
		Visible:         true,
		SupportsStatus:  true,
		SocketNamespace: ModuleNamespace(module.Module),
		Status:          string(supervisor.Stopped),
		ModuleType:      module.ModuleType,
		ModuleId:        module.Id,
		UserId:          module.UserId,
	}
	return db.Create(svc).Error
}

// GetServices lists all registered services.
func (s *InstallerService) GetServices() ([]*model.Service, error) {
	db := database.GetDB()

	var services []*model.Service
	if err := db.Model(model.Service{}).Order("name").Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}
