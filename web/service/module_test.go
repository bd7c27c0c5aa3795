package service

import (
	"testing"
	"time"

	"github.com/vaiolabs/vaio-board/caching"
	"github.com/vaiolabs/vaio-board/database/model"

	"github.com/stretchr/testify/assert"
)

func newTestModuleService() *ModuleService {
	cache := caching.NewCache()
	cache.Init(time.Minute)
	return NewModuleService(cache)
}

func TestModuleKey(t *testing.T) {
	assert.Equal(t, "example", ModuleKey("Example"))
	assert.Equal(t, "stable_diffusion", ModuleKey("Stable Diffusion"))
	assert.Equal(t, "ollama", ModuleKey("  Ollama  "))
}

func TestPaneComponentFor(t *testing.T) {
	assert.Equal(t, "ExamplePane", PaneComponentFor("example"))
	assert.Equal(t, "OllamaPane", PaneComponentFor("ollama"))
	assert.Equal(t, "", PaneComponentFor(""))
}

func TestCreateModuleDefaults(t *testing.T) {
	setup()
	defer teardown()

	service := newTestModuleService()

	m := &model.Module{
		Name:       "Example",
		ModuleType: model.ModuleTypeUser,
		UserId:     1,
	}
	err := service.CreateModule(m)
	assert.NoError(t, err)

	assert.Equal(t, "example", m.Module)
	assert.Equal(t, "ExamplePane", m.PaneComponent)
	assert.Equal(t, "ExamplePane", m.StaticIdentifier)
	assert.Equal(t, "Example Module", m.Description)
	assert.Equal(t, "general", m.Category)
}

func TestCreateOrGetModuleIdempotent(t *testing.T) {
	setup()
	defer teardown()

	service := newTestModuleService()

	first, err := service.CreateOrGetModule("Stable Diffusion", model.ModuleTypeService, 1)
	assert.NoError(t, err)
	assert.Equal(t, "stable_diffusion", first.Module)

	second, err := service.CreateOrGetModule("Stable Diffusion", model.ModuleTypeService, 1)
	assert.NoError(t, err)
	assert.Equal(t, first.Id, second.Id)

	modules, err := service.GetModules("", 0)
	assert.NoError(t, err)
	assert.Len(t, modules, 1)

	// same key for another user is a separate module
	other, err := service.CreateOrGetModule("Stable Diffusion", model.ModuleTypeService, 2)
	assert.NoError(t, err)
	assert.NotEqual(t, first.Id, other.Id)
}

func TestGetByKeyMissIsNotAnError(t *testing.T) {
	setup()
	defer teardown()

	service := newTestModuleService()

	m, err := service.GetByKey("nope", 1)
	assert.NoError(t, err)
	assert.Nil(t, m)

	m, err = service.FindByKey("nope")
	assert.NoError(t, err)
	assert.Nil(t, m)
}

func TestModuleCacheInvalidation(t *testing.T) {
	setup()
	defer teardown()

	service := newTestModuleService()

	created, err := service.CreateOrGetModule("Ollama", model.ModuleTypeService, 1)
	assert.NoError(t, err)

	// warm the cache
	cached, err := service.GetByKey("ollama", 1)
	assert.NoError(t, err)
	assert.Equal(t, created.Id, cached.Id)

	cached.Visible = false
	err = service.UpdateModule(cached)
	assert.NoError(t, err)

	reloaded, err := service.GetByKey("ollama", 1)
	assert.NoError(t, err)
	assert.False(t, reloaded.Visible)
}
