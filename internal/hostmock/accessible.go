package hostmock

import (
	"strings"

	"github.com/qtmcp/probe/internal/hostobj"
)

// accessible is a mock accessibility façade bound to a mock Object.
type accessible struct {
	obj    *Object
	role   string
	name   string
	hasNm  bool
	desc   string
	hasDsc bool
	bounds hostobj.Rect
	hasB   bool
	states hostobj.States

	pressFn func() bool
	toggled bool
	canTog  bool

	editable     bool
	text         string
	valueCapable bool
	value        float64

	comboOptions []string
	comboSelect  string

	shortcut string
	hasSC    bool
}

func (a *accessible) WithName(n string) *accessible      { a.name, a.hasNm = n, true; return a }
func (a *accessible) WithDescription(d string) *accessible { a.desc, a.hasDsc = d, true; return a }
func (a *accessible) WithBounds(r hostobj.Rect) *accessible { a.bounds, a.hasB = r, true; return a }
func (a *accessible) WithStates(s hostobj.States) *accessible { a.states = s; return a }
func (a *accessible) WithPress(fn func() bool) *accessible { a.pressFn = fn; return a }
func (a *accessible) WithToggle() *accessible              { a.canTog = true; return a }
func (a *accessible) WithEditableText(initial string) *accessible {
	a.editable, a.text = true, initial
	return a
}
func (a *accessible) WithNumericValue(initial float64) *accessible {
	a.valueCapable, a.value = true, initial
	return a
}
func (a *accessible) WithComboOptions(opts ...string) *accessible { a.comboOptions = opts; return a }
func (a *accessible) WithShortcut(combo string) *accessible       { a.shortcut, a.hasSC = combo, true; return a }

func (a *accessible) Valid() bool {
	a.obj.mu.Lock()
	defer a.obj.mu.Unlock()
	return !a.obj.destroyed
}

func (a *accessible) Role() string { return a.role }

func (a *accessible) Name() (string, bool) {
	if a.hasNm {
		return a.name, true
	}
	return "", false
}

func (a *accessible) Description() (string, bool) {
	if a.hasDsc {
		return a.desc, true
	}
	return "", false
}

func (a *accessible) Bounds() (hostobj.Rect, bool) { return a.bounds, a.hasB }
func (a *accessible) States() hostobj.States       { return a.states }

func (a *accessible) Children() []hostobj.AccessibleInterface {
	var out []hostobj.AccessibleInterface
	for _, c := range a.obj.Children() {
		if mc, ok := c.(*Object); ok {
			if acc, ok := mc.Accessible(); ok {
				out = append(out, acc)
			}
		}
	}
	return out
}

func (a *accessible) Underlying() hostobj.Object { return a.obj }

func (a *accessible) Press() bool {
	if a.pressFn == nil {
		return false
	}
	return a.pressFn()
}

func (a *accessible) Toggle() bool {
	if !a.canTog {
		return false
	}
	a.states.Checked = !a.states.Checked
	return true
}

func (a *accessible) SetEditableText(text string) bool {
	if !a.editable {
		return false
	}
	a.text = text
	return true
}

func (a *accessible) SetNumericValue(v float64) bool {
	if !a.valueCapable {
		return false
	}
	a.value = v
	return true
}

func (a *accessible) SetStringValue(v string) bool {
	if !a.valueCapable {
		return false
	}
	return a.SetEditableText(v) || true
}

func (a *accessible) ComboOptions() ([]string, bool) {
	if a.comboOptions == nil {
		return nil, false
	}
	return a.comboOptions, true
}

func (a *accessible) SelectComboOption(text string) bool {
	for _, opt := range a.comboOptions {
		if strings.EqualFold(opt, text) {
			a.comboSelect = opt
			return true
		}
	}
	return false
}

func (a *accessible) Shortcut() (string, bool) { return a.shortcut, a.hasSC }

// EditableText exposes the current editable text value for test assertions.
func (a *accessible) EditableText() string { return a.text }

// NumericValue exposes the current numeric value for test assertions.
func (a *accessible) NumericValue() float64 { return a.value }

// SelectedOption exposes the option chosen via SelectComboOption.
func (a *accessible) SelectedOption() string { return a.comboSelect }
