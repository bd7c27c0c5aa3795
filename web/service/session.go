package service

import (
	"strings"
	"time"

	"github.com/vaiolabs/vaio-board/database"
	"github.com/vaiolabs/vaio-board/database/model"
	"github.com/vaiolabs/vaio-board/logger"
)

// Breakpoints are the responsive grid breakpoints every stored layout carries.
var Breakpoints = []string{"lg", "md", "sm", "xs", "xxs"}

// SessionService owns the per-user dashboard session: grid layout, active
// modules, preferences and pane state.
type SessionService struct{}

// NormalizeItemId validates a grid/module identifier of the form
// MODULETYPE-STATICID-INSTANCEID. The type segment is uppercased and must
// name a known module type. Returns the normalized id and whether it is valid.
func NormalizeItemId(id string) (string, bool) {
	parts := strings.Split(id, "-")
	if len(parts) != 3 {
		return "", false
	}
	for _, part := range parts {
		if part == "" {
			return "", false
		}
	}
	parts[0] = strings.ToUpper(parts[0])
	if !model.ValidModuleType(parts[0]) {
		return "", false
	}
	return strings.Join(parts, "-"), true
}

// NormalizeGrid self-heals a stored or submitted grid layout: every known
// breakpoint becomes a (possibly empty) list, unknown breakpoints are
// dropped, and items with malformed ids are dropped silently.
func NormalizeGrid(grid model.GridLayout) model.GridLayout {
	normalized := make(model.GridLayout, len(Breakpoints))
	for _, bp := range Breakpoints {
		items := grid[bp]
		kept := make([]model.GridItem, 0, len(items))
		for _, item := range items {
			id, ok := NormalizeItemId(item.I)
			if !ok {
				logger.Debugf("dropping grid item with malformed id %q", item.I)
				continue
			}
			item.I = id
			kept = append(kept, item)
		}
		normalized[bp] = kept
	}
	return normalized
}

// NormalizeModuleIds filters an active-module list the same way grid items
// are filtered.
func NormalizeModuleIds(ids []string) []string {
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		normalized, ok := NormalizeItemId(id)
		if !ok {
			logger.Debugf("dropping malformed module id %q", id)
			continue
		}
		kept = append(kept, normalized)
	}
	return kept
}

func emptyGrid() model.GridLayout {
	grid := make(model.GridLayout, len(Breakpoints))
	for _, bp := range Breakpoints {
		grid[bp] = []model.GridItem{}
	}
	return grid
}

// GetOrCreate returns the user's session, creating an empty one on first use.
// The returned session always has all five breakpoints as lists.
func (s *SessionService) GetOrCreate(userId int) (*model.UserSession, error) {
	db := database.GetDB()

	sess := &model.UserSession{}
	err := db.Model(model.UserSession{}).
		Where("user_id = ?", userId).
		First(sess).
		Error
	if database.IsNotFound(err) {
		sess = &model.UserSession{
			UserId:        userId,
			GridLayout:    emptyGrid(),
			ActiveModules: []string{},
			Preferences:   map[string]any{},
			PaneStates:    map[string]any{},
			LastActive:    time.Now(),
			CreatedAt:     time.Now(),
		}
		if err := db.Create(sess).Error; err != nil {
			return nil, err
		}
		return sess, nil
	} else if err != nil {
		return nil, err
	}

	sess.GridLayout = NormalizeGrid(sess.GridLayout)
	if sess.ActiveModules == nil {
		sess.ActiveModules = []string{}
	}
	if sess.Preferences == nil {
		sess.Preferences = map[string]any{}
	}
	if sess.PaneStates == nil {
		sess.PaneStates = map[string]any{}
	}
	return sess, nil
}

// UpdateGrid validates and stores a submitted grid layout. Last writer wins.
func (s *SessionService) UpdateGrid(userId int, grid model.GridLayout) (*model.UserSession, error) {
	sess, err := s.GetOrCreate(userId)
	if err != nil {
		return nil, err
	}

	sess.GridLayout = NormalizeGrid(grid)
	sess.LastActive = time.Now()

	db := database.GetDB()
	if err := db.Save(sess).Error; err != nil {
		return nil, err
	}
	return sess, nil
}

// ClearGrid resets the grid to empty breakpoints.
func (s *SessionService) ClearGrid(userId int) (*model.UserSession, error) {
	return s.UpdateGrid(userId, emptyGrid())
}

// UpdateActiveModules stores the active module list, dropping malformed ids.
func (s *SessionService) UpdateActiveModules(userId int, ids []string) (*model.UserSession, error) {
	sess, err := s.GetOrCreate(userId)
	if err != nil {
		return nil, err
	}

	sess.ActiveModules = NormalizeModuleIds(ids)
	sess.LastActive = time.Now()

	db := database.GetDB()
	if err := db.Save(sess).Error; err != nil {
		return nil, err
	}
	return sess, nil
}

// GetPaneState returns the stored state blob for a pane id, nil when unset.
func (s *SessionService) GetPaneState(userId int, paneId string) (any, error) {
	sess, err := s.GetOrCreate(userId)
	if err != nil {
		return nil, err
	}
	return sess.PaneStates[paneId], nil
}

// SetPaneState stores a state blob for a pane id.
func (s *SessionService) SetPaneState(userId int, paneId string, state any) error {
	sess, err := s.GetOrCreate(userId)
	if err != nil {
		return err
	}

	sess.PaneStates[paneId] = state
	sess.LastActive = time.Now()

	db := database.GetDB()
	return db.Save(sess).Error
}

// UpdatePreferences replaces the user's preference blob.
func (s *SessionService) UpdatePreferences(userId int, prefs map[string]any) (*model.UserSession, error) {
	sess, err := s.GetOrCreate(userId)
	if err != nil {
		return nil, err
	}

	if prefs == nil {
		prefs = map[string]any{}
	}
	sess.Preferences = prefs
	sess.LastActive = time.Now()

	db := database.GetDB()
	if err := db.Save(sess).Error; err != nil {
		return nil, err
	}
	return sess, nil
}

// DeleteSession removes the user's session row entirely.
func (s *SessionService) DeleteSession(userId int) error {
	db := database.GetDB()
	return db.Where("user_id = ?", userId).Delete(&model.UserSession{}).Error
}

// CleanSession drops session entries for modules that no longer resolve to a
// registered module key.
func (s *SessionService) CleanSession(userId int, known map[string]bool) (*model.UserSession, error) {
	sess, err := s.GetOrCreate(userId)
	if err != nil {
		return nil, err
	}

	kept := make([]string, 0, len(sess.ActiveModules))
	for _, id := range sess.ActiveModules {
		parts := strings.Split(id, "-")
		if len(parts) == 3 && known[parts[1]] {
			kept = append(kept, id)
		}
	}
	sess.ActiveModules = kept

	for bp, items := range sess.GridLayout {
		filtered := make([]model.GridItem, 0, len(items))
		for _, item := range items {
			parts := strings.Split(item.I, "-")
			if len(parts) == 3 && known[parts[1]] {
				filtered = append(filtered, item)
			}
		}
		sess.GridLayout[bp] = filtered
	}

	sess.LastActive = time.Now()
	db := database.GetDB()
	if err := db.Save(sess).Error; err != nil {
		return nil, err
	}
	return sess, nil
}
