package service

import (
	"testing"

	"github.com/vaiolabs/vaio-board/database/model"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeItemId(t *testing.T) {
	id, ok := NormalizeItemId("service-OllamaPane-abc123")
	assert.True(t, ok)
	assert.Equal(t, "SERVICE-OllamaPane-abc123", id)

	id, ok = NormalizeItemId("SYSTEM-CpuPane-1")
	assert.True(t, ok)
	assert.Equal(t, "SYSTEM-CpuPane-1", id)

	// wrong part count
	_, ok = NormalizeItemId("SYSTEM-CpuPane")
	assert.False(t, ok)
	_, ok = NormalizeItemId("SYSTEM-Cpu-Pane-1")
	assert.False(t, ok)

	// unknown module type
	_, ok = NormalizeItemId("WIDGET-CpuPane-1")
	assert.False(t, ok)

	// empty segments
	_, ok = NormalizeItemId("-CpuPane-1")
	assert.False(t, ok)
	_, ok = NormalizeItemId("")
	assert.False(t, ok)
}

func TestNormalizeGrid(t *testing.T) {
	grid := model.GridLayout{
		"lg": {
			{I: "user-ExamplePane-1", Fields: map[string]any{"x": 0, "y": 0, "w": 4, "h": 4}},
			{I: "bogus", Fields: map[string]any{"x": 1, "y": 1, "w": 2, "h": 2}},
		},
		"bogus-breakpoint": {
			{I: "SYSTEM-CpuPane-1"},
		},
	}

	normalized := NormalizeGrid(grid)

	// all five breakpoints present as lists
	assert.Len(t, normalized, 5)
	for _, bp := range Breakpoints {
		assert.NotNil(t, normalized[bp])
	}

	// malformed item dropped, valid item uppercased
	assert.Len(t, normalized["lg"], 1)
	assert.Equal(t, "USER-ExamplePane-1", normalized["lg"][0].I)

	// unknown breakpoint dropped
	_, exists := normalized["bogus-breakpoint"]
	assert.False(t, exists)
}

func TestSessionGetOrCreate(t *testing.T) {
	setup()
	defer teardown()

	service := SessionService{}

	sess, err := service.GetOrCreate(1)
	assert.NoError(t, err)
	assert.Len(t, sess.GridLayout, 5)
	assert.NotNil(t, sess.ActiveModules)
	assert.NotNil(t, sess.Preferences)

	// second call returns the same session
	again, err := service.GetOrCreate(1)
	assert.NoError(t, err)
	assert.Equal(t, sess.Id, again.Id)
}

func TestSessionUpdateGrid(t *testing.T) {
	setup()
	defer teardown()

	service := SessionService{}

	grid := model.GridLayout{
		"lg": {
			{I: "service-OllamaPane-x1", Fields: map[string]any{"x": 0, "y": 0, "w": 6, "h": 4}},
			{I: "not-valid", Fields: map[string]any{"x": 0, "y": 0, "w": 1, "h": 1}},
		},
	}
	sess, err := service.UpdateGrid(7, grid)
	assert.NoError(t, err)
	assert.Len(t, sess.GridLayout["lg"], 1)
	assert.Equal(t, "SERVICE-OllamaPane-x1", sess.GridLayout["lg"][0].I)

	// persisted round trip
	reloaded, err := service.GetOrCreate(7)
	assert.NoError(t, err)
	assert.Len(t, reloaded.GridLayout["lg"], 1)
	assert.Equal(t, "SERVICE-OllamaPane-x1", reloaded.GridLayout["lg"][0].I)
	assert.EqualValues(t, 6, reloaded.GridLayout["lg"][0].Fields["w"])
	assert.Len(t, reloaded.GridLayout["xxs"], 0)
}

func TestGridKeepsUnknownPositionFields(t *testing.T) {
	setup()
	defer teardown()

	service := SessionService{}

	grid := model.GridLayout{
		"lg": {
			{I: "SERVICE-OllamaPane-1", Fields: map[string]any{
				"x":           0,
				"y":           0,
				"w":           6,
				"h":           4,
				"maxW":        8,
				"moved":       false,
				"isDraggable": true,
			}},
		},
	}
	_, err := service.UpdateGrid(3, grid)
	assert.NoError(t, err)

	reloaded, err := service.GetOrCreate(3)
	assert.NoError(t, err)
	assert.Len(t, reloaded.GridLayout["lg"], 1)

	fields := reloaded.GridLayout["lg"][0].Fields
	assert.EqualValues(t, 8, fields["maxW"])
	assert.Equal(t, false, fields["moved"])
	assert.Equal(t, true, fields["isDraggable"])
}

func TestSessionUpdateActiveModules(t *testing.T) {
	setup()
	defer teardown()

	service := SessionService{}

	sess, err := service.UpdateActiveModules(1, []string{
		"user-ExamplePane-1",
		"garbage",
		"SERVICE-OllamaPane-2",
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"USER-ExamplePane-1", "SERVICE-OllamaPane-2"}, sess.ActiveModules)
}

func TestSessionPaneStateRoundTrip(t *testing.T) {
	setup()
	defer teardown()

	service := SessionService{}

	err := service.SetPaneState(1, "pane-a", map[string]any{"collapsed": true})
	assert.NoError(t, err)

	state, err := service.GetPaneState(1, "pane-a")
	assert.NoError(t, err)
	stateMap, ok := state.(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, true, stateMap["collapsed"])

	missing, err := service.GetPaneState(1, "pane-b")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
