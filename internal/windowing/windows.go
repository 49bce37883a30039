// Package windowing tracks the probe's notion of "the active window" and
// "the focused widget" — state no single spec §4 component owns outright
// but that both internal/accessibility (tabs_context/find/navigate) and
// the cu.* computer-use surface (no-active-window/no-focused-widget
// errors) need a shared view of. Grounded on the registry's own
// mutex-guarded-index shape (internal/registry/hooks.go).
package windowing

import (
	deadlock "github.com/sasha-s/go-deadlock"

	"github.com/qtmcp/probe/internal/hostobj"
	"github.com/qtmcp/probe/internal/registry"
)

// Tracker is a process-wide (not session-scoped) view of top-level
// windows and input focus, built over the registry.
type Tracker struct {
	mu deadlock.Mutex

	reg *registry.Registry

	active  hostobj.Object
	focused hostobj.Object

	cursor    hostobj.Point
	cursorSet bool
}

// New creates a Tracker over reg. No window is active and nothing is
// focused until the host notifies the tracker (SetActiveWindow/
// SetFocusedWidget), typically wired to the host's own window-activation
// and focus-changed signals.
func New(reg *registry.Registry) *Tracker {
	return &Tracker{reg: reg}
}

// Windows returns every live top-level (parentless) widget currently
// registered, implementing accessibility.WindowProvider.
func (t *Tracker) Windows() []hostobj.Object {
	var out []hostobj.Object
	for _, h := range t.reg.AllObjects() {
		obj, ok := h.Resolve()
		if !ok || !obj.IsWidget() || obj.Parent() != nil {
			continue
		}
		out = append(out, obj)
	}
	return out
}

// ActiveWindow returns the window last marked active via
// SetActiveWindow, falling back to the first visible top-level widget if
// none was set or the one set is hidden.
func (t *Tracker) ActiveWindow() (hostobj.Object, bool) {
	t.mu.Lock()
	active := t.active
	t.mu.Unlock()
	if active != nil {
		if v, ok := active.Visible(); !ok || v {
			return active, true
		}
	}
	for _, w := range t.Windows() {
		if v, ok := w.Visible(); !ok || v {
			return w, true
		}
	}
	return nil, false
}

// SetActiveWindow records obj as the active window (wired to the host's
// window-activation signal).
func (t *Tracker) SetActiveWindow(obj hostobj.Object) {
	t.mu.Lock()
	t.active = obj
	t.mu.Unlock()
}

// FocusedWidget returns the widget last marked focused via
// SetFocusedWidget.
func (t *Tracker) FocusedWidget() (hostobj.Object, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.focused, t.focused != nil
}

// SetFocusedWidget records obj as holding input focus (wired to the
// host's focus-changed signal). Passing nil clears focus.
func (t *Tracker) SetFocusedWidget(obj hostobj.Object) {
	t.mu.Lock()
	t.focused = obj
	t.mu.Unlock()
}

// CursorPosition returns the pointer position recorded by the most recent
// cu.* mouse operation, for cu.cursorPosition.
func (t *Tracker) CursorPosition() (hostobj.Point, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursor, t.cursorSet
}

// SetCursorPosition records the pointer's last known screen position.
func (t *Tracker) SetCursorPosition(p hostobj.Point) {
	t.mu.Lock()
	t.cursor = p
	t.cursorSet = true
	t.mu.Unlock()
}
