package input_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qtmcp/probe/internal/hostmock"
	"github.com/qtmcp/probe/internal/hostobj"
	"github.com/qtmcp/probe/internal/input"
	"github.com/qtmcp/probe/internal/rpcerr"
)

func TestParseCombo(t *testing.T) {
	combo, err := input.ParseCombo("ctrl+shift+s")
	require.NoError(t, err)
	assert.Equal(t, []string{"ctrl", "shift"}, combo.Modifiers)
	assert.Equal(t, "S", combo.Key)

	combo, err = input.ParseCombo("Return")
	require.NoError(t, err)
	assert.Empty(t, combo.Modifiers)
	assert.Equal(t, "Return", combo.Key)

	_, err = input.ParseCombo("ctrl+bogus_key_name_xyz")
	require.Error(t, err)
	rerr, ok := err.(*rpcerr.Error)
	require.True(t, ok)
	assert.Equal(t, rpcerr.KeyParseError, rerr.Kind)
}

func TestSimulator_MouseClick_GuardsVisibility(t *testing.T) {
	backend := hostmock.NewInputBackend()
	sim := input.New(backend)

	obj := hostmock.New("QPushButton")
	obj.WithWidget(hostobj.Rect{Width: 50, Height: 20})
	obj.SetVisible(false)

	err := sim.MouseClick(obj, hostobj.Point{X: 5, Y: 5}, "left")
	require.Error(t, err)
	rerr, ok := err.(*rpcerr.Error)
	require.True(t, ok)
	assert.Equal(t, rpcerr.WidgetNotVisible, rerr.Kind)
}

func TestSimulator_MouseClick_RecordsPressAndRelease(t *testing.T) {
	backend := hostmock.NewInputBackend()
	sim := input.New(backend)

	obj := hostmock.New("QPushButton")
	obj.WithWidget(hostobj.Rect{Width: 50, Height: 20})

	require.NoError(t, sim.MouseClick(obj, hostobj.Point{X: 5, Y: 5}, "left"))
	require.Len(t, backend.Events, 2)
	assert.Equal(t, "press", backend.Events[0].Kind)
	assert.Equal(t, "release", backend.Events[1].Kind)
}

func TestSimulator_MouseDrag_Interpolates(t *testing.T) {
	backend := hostmock.NewInputBackend()
	sim := input.New(backend)

	obj := hostmock.New("QWidget")
	obj.WithWidget(hostobj.Rect{Width: 200, Height: 200})

	require.NoError(t, sim.MouseDrag(obj, hostobj.Point{X: 0, Y: 0}, hostobj.Point{X: 100, Y: 0}, "left"))
	assert.Equal(t, "press", backend.Events[0].Kind)
	assert.Equal(t, "release", backend.Events[len(backend.Events)-1].Kind)
	moves := 0
	for _, e := range backend.Events {
		if e.Kind == "move" {
			moves++
		}
	}
	assert.Greater(t, moves, 1)
}

func TestSimulator_SendKeySequence_InvalidCombo(t *testing.T) {
	backend := hostmock.NewInputBackend()
	sim := input.New(backend)
	obj := hostmock.New("QLineEdit")
	obj.WithWidget(hostobj.Rect{Width: 100, Height: 20})

	err := sim.SendKeySequence(obj, "nonsense+++")
	require.Error(t, err)
}

func TestSimulator_CaptureWidget_Base64PNG(t *testing.T) {
	backend := hostmock.NewInputBackend()
	sim := input.New(backend)
	obj := hostmock.New("QWidget")
	obj.WithWidget(hostobj.Rect{Width: 32, Height: 32})

	out, err := sim.CaptureWidget(obj)
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(out)
	require.NoError(t, err)
	assert.True(t, len(raw) > 8 && string(raw[1:4]) == "PNG")
}

func TestSimulator_Capture_ErrorOnNoPixels(t *testing.T) {
	backend := hostmock.NewInputBackend()
	backend.FailCapture = rpcerr.New(rpcerr.ScreenCaptureError, "no display", nil)
	sim := input.New(backend)
	obj := hostmock.New("QWidget")
	obj.WithWidget(hostobj.Rect{Width: 32, Height: 32})

	_, err := sim.CaptureWidget(obj)
	require.Error(t, err)
}
