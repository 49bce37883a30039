package cu_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qtmcp/probe/api/cu"
	"github.com/qtmcp/probe/internal/aliasmap"
	"github.com/qtmcp/probe/internal/hostmock"
	"github.com/qtmcp/probe/internal/hostobj"
	"github.com/qtmcp/probe/internal/probe"
	"github.com/qtmcp/probe/internal/registry"
	"github.com/qtmcp/probe/internal/rpcdispatch"
)

func newTestEnv(t *testing.T, withActiveWindow bool) (*rpcdispatch.Dispatcher, *probe.Env, *hostmock.Object) {
	t.Helper()
	reg := registry.New()
	win := hostmock.New("QMainWindow").WithWidget(hostobj.Rect{X: 0, Y: 0, Width: 800, Height: 600})
	reg.ScanExisting(win)

	aliases := aliasmap.New(t.TempDir() + "/names.json")
	proc := probe.NewProcess(reg, aliases, hostmock.NewInputBackend(), func() bool { return false })
	if withActiveWindow {
		proc.Windows.SetActiveWindow(win)
	}
	env := probe.NewEnv(proc, func(string, any) {})

	d := rpcdispatch.New()
	cu.Register(d, env)
	return d, env, win
}

func call(t *testing.T, d *rpcdispatch.Dispatcher, method string, params any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	req := map[string]any{"jsonrpc": "2.0", "id": 1, "method": method, "params": json.RawMessage(raw)}
	reqBytes, err := json.Marshal(req)
	require.NoError(t, err)
	respBytes := d.HandleMessage(reqBytes)
	require.NotNil(t, respBytes)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(respBytes, &resp))
	return resp
}

func envelopeResult(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	envelope := resp["result"].(map[string]any)
	return envelope["result"].(map[string]any)
}

func TestCuClick_NoActiveWindow(t *testing.T) {
	d, _, win := newTestEnv(t, false)
	// The tracker falls back to any visible top-level window, so hide the
	// only one.
	win.SetVisible(false)
	resp := call(t, d, "cu.click", map[string]any{"x": 10, "y": 10})
	errObj := resp["error"].(map[string]any)
	assert.Equal(t, float64(-32060), errObj["code"])
}

func TestCuClick_CoordinateOutOfBounds(t *testing.T) {
	d, _, _ := newTestEnv(t, true)
	resp := call(t, d, "cu.click", map[string]any{"x": 9000, "y": 9000})
	errObj := resp["error"].(map[string]any)
	assert.Equal(t, float64(-32061), errObj["code"])

	data := errObj["data"].(map[string]any)
	assert.Equal(t, float64(800), data["windowWidth"])
	assert.Equal(t, float64(600), data["windowHeight"])
}

func TestCuClick_Success(t *testing.T) {
	d, env, _ := newTestEnv(t, true)
	resp := call(t, d, "cu.click", map[string]any{"x": 10, "y": 10})
	require.Nil(t, resp["error"])
	result := envelopeResult(t, resp)
	assert.Equal(t, true, result["success"])

	pos, ok := env.Windows.CursorPosition()
	require.True(t, ok)
	assert.Equal(t, 10.0, pos.X)
}

func TestCuType_NoFocusedWidget(t *testing.T) {
	d, _, _ := newTestEnv(t, true)
	resp := call(t, d, "cu.type", map[string]any{"text": "hello"})
	errObj := resp["error"].(map[string]any)
	assert.Equal(t, float64(-32062), errObj["code"])
}

func TestCuType_Success(t *testing.T) {
	d, env, win := newTestEnv(t, true)
	field := win.AddChild("QLineEdit").WithWidget(hostobj.Rect{X: 0, Y: 0, Width: 100, Height: 20})
	env.Windows.SetFocusedWidget(field)

	resp := call(t, d, "cu.type", map[string]any{"text": "hello"})
	require.Nil(t, resp["error"])
	result := envelopeResult(t, resp)
	assert.Equal(t, true, result["success"])
}

func TestCuCursorPosition_UnknownUntilFirstMove(t *testing.T) {
	d, _, _ := newTestEnv(t, true)
	resp := call(t, d, "cu.cursorPosition", map[string]any{})
	result := envelopeResult(t, resp)
	assert.Equal(t, false, result["known"])
}
