package accessibility_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qtmcp/probe/internal/accessibility"
	"github.com/qtmcp/probe/internal/hostmock"
	"github.com/qtmcp/probe/internal/hostobj"
	"github.com/qtmcp/probe/internal/rpcerr"
)

type fakeWindows struct {
	windows []hostobj.Object
	active  hostobj.Object
}

func (f *fakeWindows) Windows() []hostobj.Object { return f.windows }
func (f *fakeWindows) ActiveWindow() (hostobj.Object, bool) {
	if f.active == nil {
		return nil, false
	}
	return f.active, true
}

func buildPage() (*hostmock.Object, *fakeWindows) {
	win := hostmock.New("QMainWindow")
	win.WithWidget(hostobj.Rect{X: 0, Y: 0, Width: 800, Height: 600})
	win.WithAccessible("window").WithName("Main Window")

	button := win.AddChild("QPushButton")
	button.WithWidget(hostobj.Rect{X: 10, Y: 10, Width: 80, Height: 24})
	pressed := false
	button.WithAccessible("button").WithName("Save").WithPress(func() bool { pressed = true; return true })
	_ = pressed

	label := win.AddChild("QLabel")
	label.WithWidget(hostobj.Rect{X: 10, Y: 40, Width: 200, Height: 20})
	label.DefineProperty("text", "QString", true, false, true, hostobj.StringValue("Status: idle"))
	label.WithAccessible("statictext").WithName("Status: idle")

	windows := &fakeWindows{windows: []hostobj.Object{win}, active: win}
	return win, windows
}

func TestWalker_ReadPage_MintsRefsAndTree(t *testing.T) {
	_, windows := buildPage()
	refs := accessibility.NewRefStore()
	w := accessibility.New(refs, windows, nil)

	result, err := w.ReadPage(accessibility.ReadPageOptions{Filter: "all"})
	require.NoError(t, err)
	require.NotNil(t, result.Tree)
	assert.Equal(t, "window", result.Tree.Role)
	require.Len(t, result.Tree.Children, 2)
	assert.NotNil(t, result.Tree.Children[0].Ref)
	assert.Equal(t, "ref_2", *result.Tree.Children[0].Ref)
	assert.False(t, result.Truncated)
}

func TestWalker_ReadPage_InteractiveFilterDropsStaticText(t *testing.T) {
	_, windows := buildPage()
	refs := accessibility.NewRefStore()
	w := accessibility.New(refs, windows, nil)

	result, err := w.ReadPage(accessibility.ReadPageOptions{Filter: "interactive"})
	require.NoError(t, err)
	require.Len(t, result.Tree.Children, 1)
	assert.Equal(t, "button", result.Tree.Children[0].Role)
}

func TestWalker_Find_AppendsWithoutClearing(t *testing.T) {
	_, windows := buildPage()
	refs := accessibility.NewRefStore()
	w := accessibility.New(refs, windows, nil)

	_, err := w.ReadPage(accessibility.ReadPageOptions{Filter: "all"})
	require.NoError(t, err)
	maxAfterReadPage := refs.Max()

	found, err := w.Find("status")
	require.NoError(t, err)
	require.Len(t, found.Matches, 1)
	assert.Greater(t, refs.Max(), maxAfterReadPage)

	// ref_1 minted by read_page must still resolve.
	_, err = refs.Resolve("ref_1")
	assert.NoError(t, err)
}

func TestWalker_ReadPage_ClearsPriorRefs(t *testing.T) {
	_, windows := buildPage()
	refs := accessibility.NewRefStore()
	w := accessibility.New(refs, windows, nil)

	// A first read_page mints ref_1..ref_3, so the find ref below is ref_4,
	// outside the range the second read_page renumbers from 1.
	_, err := w.ReadPage(accessibility.ReadPageOptions{Filter: "all"})
	require.NoError(t, err)

	found, err := w.Find("save")
	require.NoError(t, err)
	require.Len(t, found.Matches, 1)
	staleRef := found.Matches[0].Ref

	_, err = w.ReadPage(accessibility.ReadPageOptions{Filter: "all"})
	require.NoError(t, err)

	_, err = refs.Resolve(staleRef)
	require.Error(t, err)
	rerr, ok := err.(*rpcerr.Error)
	require.True(t, ok)
	assert.Equal(t, rpcerr.RefNotFound, rerr.Kind)
}

func TestWalker_Click_PrefersPressAction(t *testing.T) {
	_, windows := buildPage()
	refs := accessibility.NewRefStore()
	w := accessibility.New(refs, windows, nil)

	_, err := w.ReadPage(accessibility.ReadPageOptions{Filter: "all"})
	require.NoError(t, err)

	result, err := w.Click("ref_2")
	require.NoError(t, err)
	assert.Equal(t, "press", result.Method)
}

func TestWalker_FormInput_EditableText(t *testing.T) {
	win := hostmock.New("QMainWindow")
	win.WithWidget(hostobj.Rect{Width: 400, Height: 300})
	win.WithAccessible("window")
	field := win.AddChild("QLineEdit")
	field.WithWidget(hostobj.Rect{X: 0, Y: 0, Width: 100, Height: 20})
	acc := field.WithAccessible("textbox").WithEditableText("")

	windows := &fakeWindows{windows: []hostobj.Object{win}, active: win}
	refs := accessibility.NewRefStore()
	w := accessibility.New(refs, windows, nil)

	_, err := w.ReadPage(accessibility.ReadPageOptions{Filter: "all"})
	require.NoError(t, err)

	require.NoError(t, w.FormInput("ref_2", "hello"))
	assert.Equal(t, "hello", acc.EditableText())
}

func TestWalker_TabsContext(t *testing.T) {
	win, windows := buildPage()
	win.SetDisplayName("mainWindow")
	refs := accessibility.NewRefStore()
	w := accessibility.New(refs, windows, nil)

	ctx := w.TabsContext()
	require.Equal(t, 1, ctx.Count)
	assert.True(t, ctx.Windows[0].IsActive)
	assert.Equal(t, "QMainWindow", ctx.Windows[0].ClassName)
}

func TestRefStore_ResolveUnknown(t *testing.T) {
	refs := accessibility.NewRefStore()
	_, err := refs.Resolve("ref_99")
	require.Error(t, err)
	rerr, ok := err.(*rpcerr.Error)
	require.True(t, ok)
	assert.Equal(t, rpcerr.RefNotFound, rerr.Kind)
}
