package windowing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qtmcp/probe/internal/hostmock"
	"github.com/qtmcp/probe/internal/hostobj"
	"github.com/qtmcp/probe/internal/registry"
	"github.com/qtmcp/probe/internal/windowing"
)

var rect = hostobj.Rect{X: 0, Y: 0, Width: 400, Height: 300}

func TestTracker_ActiveWindowFallsBackToFirstVisible(t *testing.T) {
	reg := registry.New()
	win := hostmock.New("QMainWindow").WithWidget(rect)
	reg.ScanExisting(win)

	tr := windowing.New(reg)
	active, ok := tr.ActiveWindow()
	require.True(t, ok)
	assert.Equal(t, win, active)
}

func TestTracker_SetActiveWindowOverrides(t *testing.T) {
	reg := registry.New()
	win1 := hostmock.New("QMainWindow").WithWidget(rect)
	win2 := hostmock.New("QDialog").WithWidget(rect)
	reg.ScanExisting(win1)
	reg.ScanExisting(win2)

	tr := windowing.New(reg)
	tr.SetActiveWindow(win2)
	active, ok := tr.ActiveWindow()
	require.True(t, ok)
	assert.Equal(t, win2, active)
}

func TestTracker_FocusedWidget(t *testing.T) {
	reg := registry.New()
	tr := windowing.New(reg)
	_, ok := tr.FocusedWidget()
	assert.False(t, ok)

	btn := hostmock.New("QPushButton").WithWidget(rect)
	tr.SetFocusedWidget(btn)
	f, ok := tr.FocusedWidget()
	require.True(t, ok)
	assert.Equal(t, btn, f)
}
