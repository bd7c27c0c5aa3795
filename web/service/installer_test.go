package service

import (
	"context"
	"testing"

	"github.com/vaiolabs/vaio-board/database/model"
	"github.com/vaiolabs/vaio-board/supervisor"

	"github.com/stretchr/testify/assert"
)

type fakeAdmin struct {
	available bool
}

func (f *fakeAdmin) Available() bool { return f.available }

func (f *fakeAdmin) Stop(ctx context.Context, name string) supervisor.Status {
	return supervisor.Stopped
}

func (f *fakeAdmin) Reread(ctx context.Context) error { return nil }
func (f *fakeAdmin) Update(ctx context.Context) error { return nil }

func TestSimulatedInstallIsIdempotent(t *testing.T) {
	setup()
	defer teardown()

	modules := newTestModuleService()
	installer := NewInstallerService(&fakeAdmin{available: false}, modules)

	module, err := installer.Install(context.Background(), "Ollama", "/usr/bin/ollama serve", model.ModuleTypeService, true, 1)
	assert.NoError(t, err)
	assert.True(t, module.IsInstalled)
	assert.Equal(t, "ollama", module.Module)

	again, err := installer.Install(context.Background(), "Ollama", "/usr/bin/ollama serve", model.ModuleTypeService, true, 1)
	assert.NoError(t, err)
	assert.Equal(t, module.Id, again.Id)

	services, err := installer.GetServices()
	assert.NoError(t, err)
	assert.Len(t, services, 1)
	assert.Equal(t, "ollama", services[0].Name)
	assert.True(t, services[0].Autostart)
}

func TestUninstallMarksModule(t *testing.T) {
	setup()
	defer teardown()

	modules := newTestModuleService()
	installer := NewInstallerService(&fakeAdmin{available: false}, modules)

	_, err := installer.Install(context.Background(), "Ollama", "/usr/bin/ollama serve", model.ModuleTypeService, false, 1)
	assert.NoError(t, err)

	err = installer.Uninstall(context.Background(), "Ollama", 1)
	assert.NoError(t, err)

	module, err := modules.GetByKey("ollama", 1)
	assert.NoError(t, err)
	assert.False(t, module.IsInstalled)

	// uninstalling an unknown module is an error
	err = installer.Uninstall(context.Background(), "ghost", 1)
	assert.Error(t, err)
}

func TestInstallRequiresCommand(t *testing.T) {
	setup()
	defer teardown()

	modules := newTestModuleService()
	installer := NewInstallerService(&fakeAdmin{available: false}, modules)

	_, err := installer.Install(context.Background(), "Ollama", "", model.ModuleTypeService, false, 1)
	assert.Error(t, err)
}
