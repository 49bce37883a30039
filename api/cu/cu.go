// Package cu implements the probe's computer-use API surface (spec §6
// cu.*): screen-coordinate mouse and keyboard control against whatever
// window currently has host focus, as opposed to qt.ui.*'s
// objectId-addressed widget actions.
package cu

import (
	"encoding/json"

	"github.com/qtmcp/probe/internal/hostobj"
	"github.com/qtmcp/probe/internal/probe"
	"github.com/qtmcp/probe/internal/rpcdispatch"
	"github.com/qtmcp/probe/internal/rpcerr"
	"github.com/qtmcp/probe/internal/rpcparams"
)

// Register binds every cu.* method to d.
func Register(d *rpcdispatch.Dispatcher, env *probe.Env) {
	d.RegisterMethod("cu.screenshot", screenshot(env))
	d.RegisterMethod("cu.click", click(env, "left"))
	d.RegisterMethod("cu.rightClick", click(env, "right"))
	d.RegisterMethod("cu.middleClick", click(env, "middle"))
	d.RegisterMethod("cu.doubleClick", doubleClick(env))
	d.RegisterMethod("cu.mouseMove", mouseMove(env))
	d.RegisterMethod("cu.drag", drag(env))
	d.RegisterMethod("cu.mouseDown", mouseDown(env))
	d.RegisterMethod("cu.mouseUp", mouseUp(env))
	d.RegisterMethod("cu.type", typeText(env))
	d.RegisterMethod("cu.key", key(env))
	d.RegisterMethod("cu.scroll", scroll(env))
	d.RegisterMethod("cu.cursorPosition", cursorPosition(env))
}

func activeWindow(env *probe.Env) (hostobj.Object, error) {
	win, ok := env.Windows.ActiveWindow()
	if !ok {
		return nil, rpcerr.New(rpcerr.NoActiveWindow, "no active window", nil)
	}
	return win, nil
}

func focusedWidget(env *probe.Env) (hostobj.Object, error) {
	w, ok := env.Windows.FocusedWidget()
	if !ok {
		return nil, rpcerr.New(rpcerr.NoFocusedWidget, "no widget has focus", nil)
	}
	return w, nil
}

func checkBounds(win hostobj.Object, p hostobj.Point) error {
	g, ok := win.Geometry()
	if !ok {
		return nil
	}
	if p.X < g.X || p.X > g.X+g.Width || p.Y < g.Y || p.Y > g.Y+g.Height {
		return rpcerr.New(rpcerr.CoordinateOutOfBounds, "point is outside the active window", map[string]any{
			"point":       p,
			"windowWidth": g.Width, "windowHeight": g.Height,
		})
	}
	return nil
}

type pointParams struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p pointParams) point() hostobj.Point { return hostobj.Point{X: p.X, Y: p.Y} }

func screenshot(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(json.RawMessage) (any, error) {
		win, err := activeWindow(env)
		if err != nil {
			return nil, err
		}
		png, err := env.Sim.CaptureScreen(win)
		if err != nil {
			return nil, err
		}
		return map[string]any{"image": png, "format": "png;base64"}, nil
	}
}

func resolveClickTarget(env *probe.Env, raw json.RawMessage) (hostobj.Object, hostobj.Point, error) {
	var p pointParams
	if err := rpcparams.Decode(raw, &p); err != nil {
		return nil, hostobj.Point{}, err
	}
	win, err := activeWindow(env)
	if err != nil {
		return nil, hostobj.Point{}, err
	}
	pt := p.point()
	if err := checkBounds(win, pt); err != nil {
		return nil, hostobj.Point{}, err
	}
	return win, pt, nil
}

func click(env *probe.Env, button string) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		win, pt, err := resolveClickTarget(env, raw)
		if err != nil {
			return nil, err
		}
		if err := env.Sim.MouseClick(win, pt, button); err != nil {
			return nil, err
		}
		env.Windows.SetCursorPosition(pt)
		return map[string]any{"success": true}, nil
	}
}

func doubleClick(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		win, pt, err := resolveClickTarget(env, raw)
		if err != nil {
			return nil, err
		}
		if err := env.Sim.MouseDoubleClick(win, pt, "left"); err != nil {
			return nil, err
		}
		env.Windows.SetCursorPosition(pt)
		return map[string]any{"success": true}, nil
	}
}

func mouseMove(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		win, pt, err := resolveClickTarget(env, raw)
		if err != nil {
			return nil, err
		}
		if err := env.Sim.MouseMove(win, pt); err != nil {
			return nil, err
		}
		env.Windows.SetCursorPosition(pt)
		return map[string]any{"success": true}, nil
	}
}

type dragParams struct {
	StartX float64 `json:"startX"`
	StartY float64 `json:"startY"`
	EndX   float64 `json:"endX"`
	EndY   float64 `json:"endY"`
	Button string  `json:"button,omitempty"`
}

func drag(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p dragParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		win, err := activeWindow(env)
		if err != nil {
			return nil, err
		}
		start := hostobj.Point{X: p.StartX, Y: p.StartY}
		end := hostobj.Point{X: p.EndX, Y: p.EndY}
		if err := checkBounds(win, start); err != nil {
			return nil, err
		}
		if err := checkBounds(win, end); err != nil {
			return nil, err
		}
		button := p.Button
		if button == "" {
			button = "left"
		}
		if err := env.Sim.MouseDrag(win, start, end, button); err != nil {
			return nil, err
		}
		env.Windows.SetCursorPosition(end)
		return map[string]any{"success": true}, nil
	}
}

type buttonPointParams struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button string  `json:"button,omitempty"`
}

func mouseDown(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p buttonPointParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		win, err := activeWindow(env)
		if err != nil {
			return nil, err
		}
		pt := hostobj.Point{X: p.X, Y: p.Y}
		if err := checkBounds(win, pt); err != nil {
			return nil, err
		}
		button := p.Button
		if button == "" {
			button = "left"
		}
		if err := env.Sim.MousePress(win, pt, button); err != nil {
			return nil, err
		}
		env.Windows.SetCursorPosition(pt)
		return map[string]any{"success": true}, nil
	}
}

func mouseUp(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p buttonPointParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		win, err := activeWindow(env)
		if err != nil {
			return nil, err
		}
		pt := hostobj.Point{X: p.X, Y: p.Y}
		if err := checkBounds(win, pt); err != nil {
			return nil, err
		}
		button := p.Button
		if button == "" {
			button = "left"
		}
		if err := env.Sim.MouseRelease(win, pt, button); err != nil {
			return nil, err
		}
		env.Windows.SetCursorPosition(pt)
		return map[string]any{"success": true}, nil
	}
}

type textParams struct {
	Text string `json:"text"`
}

func typeText(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p textParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		if err := rpcparams.Require(p.Text != "", "text"); err != nil {
			return nil, err
		}
		widget, err := focusedWidget(env)
		if err != nil {
			return nil, err
		}
		if err := env.Sim.SendText(widget, p.Text); err != nil {
			return nil, err
		}
		return map[string]any{"success": true}, nil
	}
}

type keyParams struct {
	Combo string `json:"combo"`
}

func key(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p keyParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		if err := rpcparams.Require(p.Combo != "", "combo"); err != nil {
			return nil, err
		}
		widget, err := focusedWidget(env)
		if err != nil {
			return nil, err
		}
		if err := env.Sim.SendKeySequence(widget, p.Combo); err != nil {
			return nil, err
		}
		return map[string]any{"success": true}, nil
	}
}

type scrollParams struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	DX int     `json:"dx"`
	DY int     `json:"dy"`
}

func scroll(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p scrollParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		win, err := activeWindow(env)
		if err != nil {
			return nil, err
		}
		pt := hostobj.Point{X: p.X, Y: p.Y}
		if err := checkBounds(win, pt); err != nil {
			return nil, err
		}
		if err := env.Sim.Scroll(win, pt, p.DX, p.DY); err != nil {
			return nil, err
		}
		return map[string]any{"success": true}, nil
	}
}

func cursorPosition(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(json.RawMessage) (any, error) {
		pt, ok := env.Windows.CursorPosition()
		if !ok {
			return map[string]any{"known": false}, nil
		}
		return map[string]any{"known": true, "x": pt.X, "y": pt.Y}, nil
	}
}
