package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/vaiolabs/vaio-board/caching"
	"github.com/vaiolabs/vaio-board/database"
	"github.com/vaiolabs/vaio-board/database/model"
	"github.com/vaiolabs/vaio-board/logger"
	"github.com/vaiolabs/vaio-board/util/common"
)

// ModuleService is the module registry: CRUD over registered dashboard
// modules with a read-through cache on the natural key.
type ModuleService struct {
	cache *caching.Cache
}

func NewModuleService(cache *caching.Cache) *ModuleService {
	return &ModuleService{cache: cache}
}

// ModuleKey derives the registry key from a display name:
// lowercased, spaces become underscores.
func ModuleKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// PaneComponentFor derives the default pane component name from a module key,
// e.g. "example" -> "ExamplePane".
func PaneComponentFor(key string) string {
	if key == "" {
		return ""
	}
	return strings.ToUpper(key[:1]) + key[1:] + "Pane"
}

func cacheKey(moduleKey string, userId int) string {
	return "module:" + moduleKey + ":" + strconv.Itoa(userId)
}

// ApplyDefaults fills the derived fields of a module before it is stored.
func (s *ModuleService) ApplyDefaults(m *model.Module) {
	if m.Module == "" {
		m.Module = ModuleKey(m.Name)
	}
	if m.Description == "" {
		m.Description = m.Name + " Module"
	}
	if m.PaneComponent == "" {
		m.PaneComponent = PaneComponentFor(m.Module)
	}
	if m.StaticIdentifier == "" {
		m.StaticIdentifier = m.PaneComponent
	}
	if m.Category == "" {
		m.Category = "general"
	}
	if m.DefaultSize.W == 0 {
		m.DefaultSize.W = 4
	}
	if m.DefaultSize.H == 0 {
		m.DefaultSize.H = 4
	}
	if !model.ValidModuleType(string(m.ModuleType)) {
		m.ModuleType = model.ModuleTypeUser
	}
}

// CreateOrGetModule returns the existing module for (key, user) or creates it
// with derived defaults. Safe to call repeatedly with the same name.
func (s *ModuleService) CreateOrGetModule(name string, moduleType model.ModuleType, userId int) (*model.Module, error) {
	key := ModuleKey(name)

	existing, err := s.GetByKey(key, userId)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	m := &model.Module{
		Name:       name,
		Module:     key,
		ModuleType: moduleType,
		Visible:    true,
		CreatedAt:  time.Now(),
		UserId:     userId,
	}
	s.ApplyDefaults(m)

	db := database.GetDB()
	if err := db.Create(m).Error; err != nil {
		return nil, err
	}
	s.invalidate(key, userId)
	return m, nil
}

// GetByKey looks a module up by its natural key. A miss is not an error:
// callers treat (nil, nil) as NOT_INSTALLED.
func (s *ModuleService) GetByKey(key string, userId int) (*model.Module, error) {
	ck := cacheKey(key, userId)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ck); ok {
			if m, ok := cached.(*model.Module); ok {
				return m, nil
			}
		}
	}

	db := database.GetDB()
	m := &model.Module{}
	err := db.Model(model.Module{}).
		Where("module = ? and user_id = ?", key, userId).
		First(m).
		Error
	if database.IsNotFound(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ck, m)
	}
	return m, nil
}

// FindByKey looks a module up by key alone, regardless of owner. Like
// GetByKey, a miss returns (nil, nil).
func (s *ModuleService) FindByKey(key string) (*model.Module, error) {
	db := database.GetDB()
	m := &model.Module{}
	err := db.Model(model.Module{}).
		Where("module = ?", key).
		First(m).
		Error
	if database.IsNotFound(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return m, nil
}

// GetById returns the module or a not-found error.
func (s *ModuleService) GetById(id int) (*model.Module, error) {
	db := database.GetDB()
	m := &model.Module{}
	err := db.Model(model.Module{}).
		Where("id = ?", id).
		First(m).
		Error
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetModules lists modules, optionally filtered by type and owner.
func (s *ModuleService) GetModules(moduleType model.ModuleType, userId int) ([]*model.Module, error) {
	db := database.GetDB()
	query := db.Model(model.Module{})
	if moduleType != "" {
		query = query.Where("module_type = ?", moduleType)
	}
	if userId > 0 {
		query = query.Where("user_id = ?", userId)
	}

	var modules []*model.Module
	if err := query.Order("name").Find(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

// CreateModule stores a new module after validating its type and filling defaults.
func (s *ModuleService) CreateModule(m *model.Module) error {
	if m.Name == "" {
		return common.NewError("module name can not be empty")
	}
	if !model.ValidModuleType(string(m.ModuleType)) {
		return common.NewErrorf("invalid module type: %s", m.ModuleType)
	}
	s.ApplyDefaults(m)
	m.CreatedAt = time.Now()

	db := database.GetDB()
	if err := db.Create(m).Error; err != nil {
		return err
	}
	s.invalidate(m.Module, m.UserId)
	return nil
}

func (s *ModuleService) UpdateModule(m *model.Module) error {
	if !model.ValidModuleType(string(m.ModuleType)) {
		return common.NewErrorf("invalid module type: %s", m.ModuleType)
	}
	db := database.GetDB()
	if err := db.Save(m).Error; err != nil {
		return err
	}
	s.invalidate(m.Module, m.UserId)
	return nil
}

func (s *ModuleService) DeleteModule(id int) error {
	m, err := s.GetById(id)
	if err != nil {
		return err
	}
	db := database.GetDB()
	if err := db.Delete(&model.Module{}, id).Error; err != nil {
		return err
	}
	s.invalidate(m.Module, m.UserId)
	return nil
}

// SetInstalled flips the installed flag, used by the installer.
func (s *ModuleService) SetInstalled(key string, userId int, installed bool) error {
	db := database.GetDB()
	err := db.Model(model.Module{}).
		Where("module = ? and user_id = ?", key, userId).
		Update("is_installed", installed).
		Error
	if err != nil {
		return err
	}
	s.invalidate(key, userId)
	return nil
}

func (s *ModuleService) invalidate(key string, userId int) {
	if s.cache == nil {
		return
	}
	s.cache.Delete(cacheKey(key, userId))
	logger.Debugf("module cache invalidated for %s", key)
}
