package service

import (
	"testing"

	"github.com/vaiolabs/vaio-board/database"
	"github.com/vaiolabs/vaio-board/database/model"

	"github.com/stretchr/testify/assert"
)

func TestLayoutOwnership(t *testing.T) {
	setup()
	defer teardown()

	sessions := &SessionService{}
	service := NewLayoutService(sessions)

	layout, err := service.CreateLayout(1, "work", []string{"SERVICE-OllamaPane-1"}, model.GridLayout{})
	assert.NoError(t, err)

	// owner can read it
	got, err := service.GetLayout(layout.Id, 1)
	assert.NoError(t, err)
	assert.Equal(t, "work", got.Name)

	// another user cannot
	_, err = service.GetLayout(layout.Id, 2)
	assert.Equal(t, ErrNotOwner, err)
	err = service.DeleteLayout(layout.Id, 2)
	assert.Equal(t, ErrNotOwner, err)

	// missing layout is a not-found error
	_, err = service.GetLayout(9999, 1)
	assert.True(t, database.IsNotFound(err))
}

func TestApplyLayoutCopiesIntoSession(t *testing.T) {
	setup()
	defer teardown()

	sessions := &SessionService{}
	service := NewLayoutService(sessions)

	grid := model.GridLayout{
		"lg": {{I: "service-OllamaPane-1", Fields: map[string]any{"x": 0, "y": 0, "w": 6, "h": 4}}},
	}
	layout, err := service.CreateLayout(1, "work", []string{"service-OllamaPane-1"}, grid)
	assert.NoError(t, err)

	sess, err := service.ApplyLayout(layout.Id, 1)
	assert.NoError(t, err)
	assert.Equal(t, []string{"SERVICE-OllamaPane-1"}, sess.ActiveModules)
	assert.Equal(t, "SERVICE-OllamaPane-1", sess.GridLayout["lg"][0].I)
}

func TestFromSessionSnapshots(t *testing.T) {
	setup()
	defer teardown()

	sessions := &SessionService{}
	service := NewLayoutService(sessions)

	_, err := sessions.UpdateActiveModules(1, []string{"USER-ExamplePane-1"})
	assert.NoError(t, err)

	layout, err := service.FromSession(1, "snapshot")
	assert.NoError(t, err)
	assert.Equal(t, "snapshot", layout.Name)
	assert.Equal(t, []string{"USER-ExamplePane-1"}, layout.Modules)

	// a name is required
	_, err = service.FromSession(1, "")
	assert.Error(t, err)
}
