package hostmock

import (
	"image"
	"image/color"
	"sync"

	"github.com/qtmcp/probe/internal/hostobj"
	"github.com/qtmcp/probe/internal/input"
)

// InputEvent records one call made against an InputBackend, for test
// assertions.
type InputEvent struct {
	Kind   string
	Obj    hostobj.Object
	Pos    hostobj.Point
	Button string
	Text   string
	Combo  input.KeyCombo
	DX, DY int
}

// InputBackend is a pure-Go stand-in for the real host event-injection and
// screen-capture APIs, implementing input.Backend.
type InputBackend struct {
	mu     sync.Mutex
	Events []InputEvent

	// FailCapture, if set, is returned by every Capture* method instead of
	// an image.
	FailCapture error
}

func NewInputBackend() *InputBackend { return &InputBackend{} }

func (b *InputBackend) record(e InputEvent) {
	b.mu.Lock()
	b.Events = append(b.Events, e)
	b.mu.Unlock()
}

func (b *InputBackend) MousePress(obj hostobj.Object, pos hostobj.Point, button string) error {
	b.record(InputEvent{Kind: "press", Obj: obj, Pos: pos, Button: button})
	return nil
}

func (b *InputBackend) MouseRelease(obj hostobj.Object, pos hostobj.Point, button string) error {
	b.record(InputEvent{Kind: "release", Obj: obj, Pos: pos, Button: button})
	return nil
}

func (b *InputBackend) MouseMove(obj hostobj.Object, pos hostobj.Point) error {
	b.record(InputEvent{Kind: "move", Obj: obj, Pos: pos})
	return nil
}

func (b *InputBackend) SendText(obj hostobj.Object, text string) error {
	b.record(InputEvent{Kind: "text", Obj: obj, Text: text})
	return nil
}

func (b *InputBackend) SendKey(obj hostobj.Object, combo input.KeyCombo) error {
	b.record(InputEvent{Kind: "key", Obj: obj, Combo: combo})
	return nil
}

func (b *InputBackend) Scroll(obj hostobj.Object, pos hostobj.Point, dx, dy int) error {
	b.record(InputEvent{Kind: "scroll", Obj: obj, Pos: pos, DX: dx, DY: dy})
	return nil
}

func (b *InputBackend) solidImage(w, h int) (image.Image, error) {
	if b.FailCapture != nil {
		return nil, b.FailCapture
	}
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	return img, nil
}

func (b *InputBackend) CaptureWidget(obj hostobj.Object) (image.Image, error) {
	g, _ := obj.Geometry()
	return b.solidImage(int(g.Width), int(g.Height))
}

func (b *InputBackend) CaptureWindow(obj hostobj.Object) (image.Image, error) {
	return b.solidImage(1024, 768)
}

func (b *InputBackend) CaptureWindowLogical(obj hostobj.Object) (image.Image, error) {
	return b.solidImage(512, 384)
}

func (b *InputBackend) CaptureRegion(obj hostobj.Object, rect hostobj.Rect) (image.Image, error) {
	return b.solidImage(int(rect.Width), int(rect.Height))
}

func (b *InputBackend) CaptureScreen(obj hostobj.Object) (image.Image, error) {
	return b.solidImage(1920, 1080)
}
