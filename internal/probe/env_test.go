package probe_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qtmcp/probe/internal/aliasmap"
	"github.com/qtmcp/probe/internal/hostmock"
	"github.com/qtmcp/probe/internal/hostobj"
	"github.com/qtmcp/probe/internal/probe"
	"github.com/qtmcp/probe/internal/registry"
)

func refNumber(t *testing.T, ref string) int {
	t.Helper()
	n, err := strconv.Atoi(strings.TrimPrefix(ref, "#"))
	require.NoError(t, err)
	return n
}

func newTestProcess(t *testing.T) (*probe.Process, *hostmock.Object) {
	t.Helper()
	reg := registry.New()
	win := hostmock.New("QMainWindow").WithWidget(hostobj.Rect{X: 0, Y: 0, Width: 800, Height: 600})
	reg.ScanExisting(win)
	aliases := aliasmap.New(t.TempDir() + "/names.json")
	proc := probe.NewProcess(reg, aliases, hostmock.NewInputBackend(), func() bool { return false })
	return proc, win
}

func TestNewEnv_BuildsFreshSessionPerConnection(t *testing.T) {
	proc, _ := newTestProcess(t)

	var delivered []string
	env1 := probe.NewEnv(proc, func(method string, params any) { delivered = append(delivered, method) })
	env2 := probe.NewEnv(proc, func(method string, params any) {})

	assert.NotEqual(t, env1.Session.ID, env2.Session.ID)
	assert.NotSame(t, env1.Monitor, env2.Monitor)
}

func TestEnv_Disconnect_ClearsSessionState(t *testing.T) {
	proc, win := newTestProcess(t)
	env := probe.NewEnv(proc, func(string, any) {})

	h, err := env.Session.Resolver.Resolve(registry.ObjectID(win))
	require.NoError(t, err)
	ref, exposed := env.Session.Refs.Expose(h)
	require.True(t, exposed)
	_, ok := env.Session.Refs.Resolve(refNumber(t, ref))
	require.True(t, ok)

	env.Disconnect()
	_, ok = env.Session.Refs.Resolve(refNumber(t, ref))
	assert.False(t, ok)
	assert.False(t, env.Monitor.LifecycleEnabled())
}
