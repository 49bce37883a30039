package qt_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qtmcp/probe/api/qt"
	"github.com/qtmcp/probe/internal/aliasmap"
	"github.com/qtmcp/probe/internal/hostmock"
	"github.com/qtmcp/probe/internal/hostobj"
	"github.com/qtmcp/probe/internal/probe"
	"github.com/qtmcp/probe/internal/registry"
	"github.com/qtmcp/probe/internal/rpcdispatch"
)

func newTestEnv(t *testing.T) (*rpcdispatch.Dispatcher, *probe.Env, *hostmock.Object) {
	t.Helper()
	reg := registry.New()
	win := hostmock.New("QMainWindow").WithWidget(hostobj.Rect{X: 0, Y: 0, Width: 800, Height: 600})
	win.SetDisplayName("mainWindow")
	btn := win.AddChild("QPushButton").WithWidget(hostobj.Rect{X: 10, Y: 10, Width: 80, Height: 24})
	btn.SetDisplayName("okButton")
	reg.ScanExisting(win)

	aliases := aliasmap.New(t.TempDir() + "/names.json")
	proc := probe.NewProcess(reg, aliases, hostmock.NewInputBackend(), func() bool { return false })
	proc.Windows.SetActiveWindow(win)
	env := probe.NewEnv(proc, func(string, any) {})

	d := rpcdispatch.New()
	qt.Register(d, env)
	return d, env, btn
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
	require.Nil(t, resp["error"], "unexpected error response: %v", resp["error"])
	return resp
}

// envelopeResult unwraps a non-raw handler's {result, meta} envelope.
func envelopeResult(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	envelope := resp["result"].(map[string]any)
	return envelope["result"].(map[string]any)
}

func TestQtPing_BypassesEnvelope(t *testing.T) {
	d, _, _ := newTestEnv(t)
	resp := call(t, d, "qt.ping", map[string]any{})
	result, ok := resp["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, result["pong"])
}

func TestQtVersion(t *testing.T) {
	d, _, _ := newTestEnv(t)
	resp := call(t, d, "qt.version", map[string]any{})
	result, ok := resp["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "1.0.0", result["version"])
}

func TestQtObjectsFind(t *testing.T) {
	d, _, _ := newTestEnv(t)
	resp := call(t, d, "qt.objects.find", map[string]any{"displayName": "okButton"})
	result := envelopeResult(t, resp)
	assert.Equal(t, "/mainWindow/okButton", result["objectId"])
}

func TestQtProperties_RoundTripsThroughGetSet(t *testing.T) {
	d, _, btn := newTestEnv(t)
	btn.DefineProperty("text", "QString", true, true, true, hostobj.StringValue("Submit"))

	id := "/mainWindow/okButton"
	getResp := call(t, d, "qt.properties.get", map[string]any{"objectId": id, "name": "text"})
	getResult := envelopeResult(t, getResp)
	assert.Equal(t, "Submit", getResult["value"])

	setResp := call(t, d, "qt.properties.set", map[string]any{"objectId": id, "name": "text", "value": "Changed"})
	setResult := envelopeResult(t, setResp)
	assert.Equal(t, true, setResult["success"])

	getResp2 := call(t, d, "qt.properties.get", map[string]any{"objectId": id, "name": "text"})
	getResult2 := envelopeResult(t, getResp2)
	assert.Equal(t, "Changed", getResult2["value"])
}

func TestQtLegacyAliasMirrorsNativeMethod(t *testing.T) {
	d, _, _ := newTestEnv(t)
	resp := call(t, d, "qtmcp.ping", map[string]any{})
	result := resp["result"].(map[string]any)
	assert.Equal(t, true, result["pong"])
}

func TestQtModes(t *testing.T) {
	d, _, _ := newTestEnv(t)
	resp := call(t, d, "qt.modes", map[string]any{})
	result := envelopeResult(t, resp)
	assert.Equal(t, "all", result["mode"])
}
