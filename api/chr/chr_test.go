package chr_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qtmcp/probe/api/chr"
	"github.com/qtmcp/probe/internal/aliasmap"
	"github.com/qtmcp/probe/internal/hostmock"
	"github.com/qtmcp/probe/internal/hostobj"
	"github.com/qtmcp/probe/internal/probe"
	"github.com/qtmcp/probe/internal/qlog"
	"github.com/qtmcp/probe/internal/registry"
	"github.com/qtmcp/probe/internal/rpcdispatch"
)

func newTestEnv(t *testing.T) (*rpcdispatch.Dispatcher, *probe.Env, *hostmock.Object) {
	t.Helper()
	reg := registry.New()
	win := hostmock.New("QMainWindow").WithWidget(hostobj.Rect{X: 0, Y: 0, Width: 800, Height: 600})
	win.WithAccessible("window").WithName("Main Window").WithBounds(hostobj.Rect{X: 0, Y: 0, Width: 800, Height: 600})

	btn := win.AddChild("QPushButton").WithWidget(hostobj.Rect{X: 10, Y: 10, Width: 80, Height: 24})
	btn.SetDisplayName("okButton")
	btn.WithAccessible("button").WithName("OK").WithBounds(hostobj.Rect{X: 10, Y: 10, Width: 80, Height: 24}).
		WithPress(func() bool { return true })

	reg.ScanExisting(win)

	aliases := aliasmap.New(t.TempDir() + "/names.json")
	proc := probe.NewProcess(reg, aliases, hostmock.NewInputBackend(), func() bool { return false })
	proc.Windows.SetActiveWindow(win)
	env := probe.NewEnv(proc, func(string, any) {})

	d := rpcdispatch.New()
	chr.Register(d, env)
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

func envelopeResult(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	envelope := resp["result"].(map[string]any)
	return envelope["result"].(map[string]any)
}

func TestChrReadPage_ReturnsTree(t *testing.T) {
	d, _, _ := newTestEnv(t)
	resp := call(t, d, "chr.readPage", map[string]any{})
	result := envelopeResult(t, resp)
	tree, ok := result["tree"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "window", tree["role"])
}

func TestChrFind_MintsRefAndAppends(t *testing.T) {
	d, _, _ := newTestEnv(t)

	resp1 := call(t, d, "chr.find", map[string]any{"query": "OK"})
	result1 := envelopeResult(t, resp1)
	assert.Equal(t, float64(1), result1["count"])

	resp2 := call(t, d, "chr.find", map[string]any{"query": "OK"})
	result2 := envelopeResult(t, resp2)
	matches2 := result2["matches"].([]any)
	first := matches2[0].(map[string]any)
	assert.Equal(t, "ref_2", first["ref"])
}

func TestChrClick_UsesPressStrategy(t *testing.T) {
	d, _, _ := newTestEnv(t)
	findResp := call(t, d, "chr.find", map[string]any{"query": "OK"})
	matches := envelopeResult(t, findResp)["matches"].([]any)
	ref := matches[0].(map[string]any)["ref"].(string)

	resp := call(t, d, "chr.click", map[string]any{"ref": ref})
	result := envelopeResult(t, resp)
	assert.Equal(t, "press", result["method"])
}

func TestChrGetPageText(t *testing.T) {
	d, _, _ := newTestEnv(t)
	resp := call(t, d, "chr.getPageText", map[string]any{})
	result := envelopeResult(t, resp)
	assert.Contains(t, result["text"], "OK")
}

func TestChrTabsContext(t *testing.T) {
	d, _, _ := newTestEnv(t)
	resp := call(t, d, "chr.tabsContext", map[string]any{})
	result := envelopeResult(t, resp)
	assert.Equal(t, float64(1), result["count"])
}

func TestChrReadConsoleMessages_EmptyByDefault(t *testing.T) {
	d, _, _ := newTestEnv(t)
	resp := call(t, d, "chr.readConsoleMessages", map[string]any{})
	result := envelopeResult(t, resp)
	messages, ok := result["messages"].([]any)
	require.True(t, ok)
	assert.Empty(t, messages)
}

func TestChrReadConsoleMessages_ReturnsCapturedEntries(t *testing.T) {
	d, env, _ := newTestEnv(t)
	env.Console.Add(qlog.Entry{Severity: qlog.SeverityError, Message: "boom"})

	resp := call(t, d, "chr.readConsoleMessages", map[string]any{"onlyErrors": true})
	result := envelopeResult(t, resp)
	messages := result["messages"].([]any)
	require.Len(t, messages, 1)
	entry := messages[0].(map[string]any)
	assert.Equal(t, "boom", entry["message"])
}
