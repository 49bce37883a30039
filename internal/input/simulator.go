package input

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"

	"github.com/qtmcp/probe/internal/hostobj"
	"github.com/qtmcp/probe/internal/rpcerr"
)

// Backend is the host-specific half of the input simulator: it performs
// the actual synthetic event delivery and pixel capture against a live
// widget. A real deployment implements it over the host toolkit's event
// injection and window-grabbing APIs; internal/hostmock provides a
// reference implementation for tests and the demo binary.
type Backend interface {
	MousePress(obj hostobj.Object, pos hostobj.Point, button string) error
	MouseRelease(obj hostobj.Object, pos hostobj.Point, button string) error
	MouseMove(obj hostobj.Object, pos hostobj.Point) error
	SendText(obj hostobj.Object, text string) error
	SendKey(obj hostobj.Object, combo KeyCombo) error
	Scroll(obj hostobj.Object, pos hostobj.Point, dx, dy int) error

	CaptureWidget(obj hostobj.Object) (image.Image, error)
	CaptureWindow(obj hostobj.Object) (image.Image, error)
	CaptureWindowLogical(obj hostobj.Object) (image.Image, error)
	CaptureRegion(obj hostobj.Object, rect hostobj.Rect) (image.Image, error)
	CaptureScreen(obj hostobj.Object) (image.Image, error)
}

// Simulator implements spec §4.5's operations over a Backend, adding the
// widget-visibility/enabled guard every interaction requires and the PNG
// encoding every capture returns.
type Simulator struct {
	Backend Backend
}

// New wraps backend in a Simulator.
func New(backend Backend) *Simulator {
	return &Simulator{Backend: backend}
}

func guardInteractable(obj hostobj.Object) error {
	if v, ok := obj.Visible(); ok && !v {
		return rpcerr.New(rpcerr.WidgetNotVisible, "widget is not visible", nil)
	}
	if e, ok := obj.Enabled(); ok && !e {
		return rpcerr.New(rpcerr.WidgetNotEnabled, "widget is not enabled", nil)
	}
	return nil
}

var validButtons = map[string]bool{"left": true, "right": true, "middle": true}

func checkButton(button string) error {
	if !validButtons[button] {
		return rpcerr.New(rpcerr.InvalidParams, "button must be one of left, right, middle", map[string]any{"button": button})
	}
	return nil
}

// MouseClick presses then releases button at position on obj.
func (s *Simulator) MouseClick(obj hostobj.Object, pos hostobj.Point, button string) error {
	if err := checkButton(button); err != nil {
		return err
	}
	if err := guardInteractable(obj); err != nil {
		return err
	}
	if err := s.Backend.MousePress(obj, pos, button); err != nil {
		return err
	}
	return s.Backend.MouseRelease(obj, pos, button)
}

// ClickCenter implements accessibility.Clicker, always using the left
// button.
func (s *Simulator) ClickCenter(obj hostobj.Object, center hostobj.Point) error {
	return s.MouseClick(obj, center, "left")
}

// MouseDoubleClick delivers two clicks in immediate succession.
func (s *Simulator) MouseDoubleClick(obj hostobj.Object, pos hostobj.Point, button string) error {
	if err := s.MouseClick(obj, pos, button); err != nil {
		return err
	}
	return s.MouseClick(obj, pos, button)
}

// MousePress delivers a button-down event without a matching release.
func (s *Simulator) MousePress(obj hostobj.Object, pos hostobj.Point, button string) error {
	if err := checkButton(button); err != nil {
		return err
	}
	if err := guardInteractable(obj); err != nil {
		return err
	}
	return s.Backend.MousePress(obj, pos, button)
}

// MouseRelease delivers a button-up event.
func (s *Simulator) MouseRelease(obj hostobj.Object, pos hostobj.Point, button string) error {
	if err := checkButton(button); err != nil {
		return err
	}
	if err := guardInteractable(obj); err != nil {
		return err
	}
	return s.Backend.MouseRelease(obj, pos, button)
}

// MouseMove moves the pointer to position without pressing any button.
func (s *Simulator) MouseMove(obj hostobj.Object, pos hostobj.Point) error {
	if err := guardInteractable(obj); err != nil {
		return err
	}
	return s.Backend.MouseMove(obj, pos)
}

const dragSteps = 8

// MouseDrag presses at start, delivers interpolated moves to end, and
// releases (spec §4.5).
func (s *Simulator) MouseDrag(obj hostobj.Object, start, end hostobj.Point, button string) error {
	if err := checkButton(button); err != nil {
		return err
	}
	if err := guardInteractable(obj); err != nil {
		return err
	}
	if err := s.Backend.MousePress(obj, start, button); err != nil {
		return err
	}
	for i := 1; i <= dragSteps; i++ {
		t := float64(i) / float64(dragSteps)
		p := hostobj.Point{
			X: start.X + (end.X-start.X)*t,
			Y: start.Y + (end.Y-start.Y)*t,
		}
		if err := s.Backend.MouseMove(obj, p); err != nil {
			return err
		}
	}
	return s.Backend.MouseRelease(obj, end, button)
}

// SendText types string into obj via the backend's text-injection path.
func (s *Simulator) SendText(obj hostobj.Object, text string) error {
	if err := guardInteractable(obj); err != nil {
		return err
	}
	return s.Backend.SendText(obj, text)
}

// SendKey delivers a single parsed key combo.
func (s *Simulator) SendKey(obj hostobj.Object, combo KeyCombo) error {
	if err := guardInteractable(obj); err != nil {
		return err
	}
	return s.Backend.SendKey(obj, combo)
}

// SendKeySequence parses and delivers a "ctrl+shift+s"-style combo string.
func (s *Simulator) SendKeySequence(obj hostobj.Object, sequence string) error {
	combo, err := ParseCombo(sequence)
	if err != nil {
		return err
	}
	return s.SendKey(obj, combo)
}

// Scroll delivers a wheel event; positive dy scrolls content down
// (wheel-up convention, spec §4.5).
func (s *Simulator) Scroll(obj hostobj.Object, pos hostobj.Point, dx, dy int) error {
	if err := guardInteractable(obj); err != nil {
		return err
	}
	return s.Backend.Scroll(obj, pos, dx, dy)
}

func encodePNG(img image.Image, err error) (string, error) {
	if err != nil {
		return "", err
	}
	if img == nil || img.Bounds().Empty() {
		return "", rpcerr.New(rpcerr.ScreenCaptureError, "capture returned no pixels", nil)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", rpcerr.Internal(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// CaptureWidget returns base64-encoded PNG bytes of obj's rendered content.
func (s *Simulator) CaptureWidget(obj hostobj.Object) (string, error) {
	return encodePNG(s.Backend.CaptureWidget(obj))
}

// CaptureWindow returns base64-encoded PNG bytes of obj's containing
// window, in physical pixels.
func (s *Simulator) CaptureWindow(obj hostobj.Object) (string, error) {
	return encodePNG(s.Backend.CaptureWindow(obj))
}

// CaptureWindowLogical is CaptureWindow but in logical (device-independent)
// pixels, matching mouse-coordinate space 1:1.
func (s *Simulator) CaptureWindowLogical(obj hostobj.Object) (string, error) {
	return encodePNG(s.Backend.CaptureWindowLogical(obj))
}

// CaptureRegion returns base64-encoded PNG bytes of rect within obj's
// window.
func (s *Simulator) CaptureRegion(obj hostobj.Object, rect hostobj.Rect) (string, error) {
	return encodePNG(s.Backend.CaptureRegion(obj, rect))
}

// CaptureScreen returns base64-encoded PNG bytes of the whole screen
// obj's window is on.
func (s *Simulator) CaptureScreen(obj hostobj.Object) (string, error) {
	return encodePNG(s.Backend.CaptureScreen(obj))
}
