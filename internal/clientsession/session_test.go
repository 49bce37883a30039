package clientsession_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qtmcp/probe/internal/accessibility"
	"github.com/qtmcp/probe/internal/aliasmap"
	"github.com/qtmcp/probe/internal/clientsession"
	"github.com/qtmcp/probe/internal/hostmock"
	"github.com/qtmcp/probe/internal/hostobj"
	"github.com/qtmcp/probe/internal/registry"
	"github.com/qtmcp/probe/internal/signalmon"
)

type staticWindows struct{ win hostobj.Object }

func (s staticWindows) Windows() []hostobj.Object            { return []hostobj.Object{s.win} }
func (s staticWindows) ActiveWindow() (hostobj.Object, bool) { return s.win, true }

func TestSession_DisconnectClearsEverything(t *testing.T) {
	reg := registry.New()
	aliases := aliasmap.New(t.TempDir() + "/names.json")
	monitor := signalmon.New(func(string, any) {})
	reg.SetLifecycleCallback(monitor.HandleLifecycleEvent)

	win := hostmock.New("QMainWindow")
	win.WithWidget(hostobj.Rect{Width: 100, Height: 100})
	reg.ScanExisting(win)

	sess := clientsession.New(reg, aliases, monitor, staticWindows{win: win}, nil)
	require.NotEmpty(t, sess.ID)

	h, err := sess.Resolver.Resolve(win.ClassName())
	require.NoError(t, err)
	ref, ok := sess.Refs.Expose(h)
	require.True(t, ok)
	assert.Equal(t, "#1", ref)

	_, err = sess.AccRefs.Resolve("ref_1")
	require.Error(t, err)

	subID, err := monitor.Subscribe(h, win.ClassName(), "nonexistent")
	assert.Error(t, err)
	assert.Empty(t, subID)

	sess.Disconnect()

	_, ok = sess.Refs.Resolve(1)
	assert.False(t, ok)
	assert.False(t, monitor.LifecycleEnabled())
	assert.Equal(t, 0, monitor.SubscriptionCount())
}

var _ accessibility.Clicker = (*noopClicker)(nil)

type noopClicker struct{}

func (noopClicker) ClickCenter(hostobj.Object, hostobj.Point) error { return nil }
