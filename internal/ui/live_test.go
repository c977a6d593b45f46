package ui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestLiveModel_StatusLineShowsCounters(t *testing.T) {
	// Given: a tracker with counters
	tracker := NewProgressTracker()
	tracker.Update(ProgressEvent{FilesScanned: 120, FilesSkipped: 2, Occurrences: 37})
	m := newLiveModel(tracker, NoColorStyles())

	// When: rendering
	view := m.View()

	// Then: every counter is visible
	assert.Contains(t, view, "120 files")
	assert.Contains(t, view, "2 skipped")
	assert.Contains(t, view, "37 occurrences")
	assert.Contains(t, view, "/s")
}

func TestLiveModel_CompleteQuitsWithOutcomeLine(t *testing.T) {
	m := newLiveModel(NewProgressTracker(), NoColorStyles())

	_, cmd := m.Update(completeMsg(CompletionStats{Occurrences: 3, FilesScanned: 2, Duration: 2 * time.Second}))

	assert.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, "Search completed (3 occurrences in 2 files, 0 skipped, 2.0s)\n", m.View())
}

func TestLiveModel_CompleteFailed(t *testing.T) {
	m := newLiveModel(NewProgressTracker(), NoColorStyles())

	m.Update(completeMsg(CompletionStats{Outcome: OutcomeFailed, Err: errors.New("read failed")}))

	assert.Equal(t, "Error: read failed\n", m.View())
}

func TestLiveModel_WindowSize(t *testing.T) {
	m := newLiveModel(NewProgressTracker(), NoColorStyles())
	m.Update(tea.WindowSizeMsg{Width: 200, Height: 40})
	assert.Equal(t, 200, m.width)
}

func TestLiveRenderer_StopBeforeStart(t *testing.T) {
	r := NewLiveRenderer(NewConfig(nil))
	assert.NoError(t, r.Stop())
	// Not started: status lines are dropped rather than blocking.
	r.Started("/src", "x")
	r.Complete(CompletionStats{})
}
