package service

import (
	"errors"
	"time"

	"github.com/vaiolabs/vaio-board/database"
	"github.com/vaiolabs/vaio-board/database/model"
)

// ErrNotOwner is returned when a user touches a layout they do not own.
var ErrNotOwner = errors.New("layout belongs to another user")

// LayoutService manages named dashboard layout snapshots.
type LayoutService struct {
	sessionService *SessionService
}

func NewLayoutService(sessionService *SessionService) *LayoutService {
	return &LayoutService{sessionService: sessionService}
}

func (s *LayoutService) GetLayouts(userId int) ([]*model.PaneLayout, error) {
	db := database.GetDB()

	var layouts []*model.PaneLayout
	err := db.Model(model.PaneLayout{}).
		Where("user_id = ?", userId).
		Order("updated_at desc").
		Find(&layouts).
		Error
	if err != nil {
		return nil, err
	}
	return layouts, nil
}

// GetLayout fetches a layout and enforces ownership.
func (s *LayoutService) GetLayout(id, userId int) (*model.PaneLayout, error) {
	db := database.GetDB()

	layout := &model.PaneLayout{}
	err := db.Model(model.PaneLayout{}).
		Where("id = ?", id).
		First(layout).
		Error
	if err != nil {
		return nil, err
	}
	if layout.UserId != userId {
		return nil, ErrNotOwner
	}
	return layout, nil
}

func (s *LayoutService) CreateLayout(userId int, name string, modules []string, grid model.GridLayout) (*model.PaneLayout, error) {
	if name == "" {
		return nil, errors.New("layout name can not be empty")
	}

	layout := &model.PaneLayout{
		UserId:    userId,
		Name:      name,
		Modules:   NormalizeModuleIds(modules),
		Grid:      NormalizeGrid(grid),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	db := database.GetDB()
	if err := db.Create(layout).Error; err != nil {
		return nil, err
	}
	return layout, nil
}

func (s *LayoutService) UpdateLayout(id, userId int, name string, modules []string, grid model.GridLayout) (*model.PaneLayout, error) {
	layout, err := s.GetLayout(id, userId)
	if err != nil {
		return nil, err
	}

	if name != "" {
		layout.Name = name
	}
	if modules != nil {
		layout.Modules = NormalizeModuleIds(modules)
	}
	if grid != nil {
		layout.Grid = NormalizeGrid(grid)
	}
	layout.UpdatedAt = time.Now()

	db := database.GetDB()
	if err := db.Save(layout).Error; err != nil {
		return nil, err
	}
	return layout, nil
}

func (s *LayoutService) DeleteLayout(id, userId int) error {
	layout, err := s.GetLayout(id, userId)
	if err != nil {
		return err
	}
	db := database.GetDB()
	return db.Delete(layout).Error
}

// ApplyLayout copies a saved layout's grid and module list into the user's
// live session.
func (s *LayoutService) ApplyLayout(id, userId int) (*model.UserSession, error) {
	layout, err := s.GetLayout(id, userId)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessionService.GetOrCreate(userId)
	if err != nil {
		return nil, err
	}

	sess.GridLayout = NormalizeGrid(layout.Grid)
	sess.ActiveModules = NormalizeModuleIds(layout.Modules)
	sess.LastActive = time.Now()

	db := database.GetDB()
	if err := db.Save(sess).Error; err != nil {
		return nil, err
	}
	return sess, nil
}

// FromSession snapshots the user's current session into a new named layout.
func (s *LayoutService) FromSession(userId int, name string) (*model.PaneLayout, error) {
	sess, err := s.sessionService.GetOrCreate(userId)
	if err != nil {
		return nil, err
	}
	return s.CreateLayout(userId, name, sess.ActiveModules, sess.GridLayout)
}
