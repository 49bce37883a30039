// Package input is the probe's input simulator and screenshot subsystem
// (spec §4.5): synthetic mouse/keyboard events and pixel capture, routed
// through a host-specific Backend.
package input

import (
	"fmt"
	"strings"

	"github.com/qtmcp/probe/internal/rpcerr"
)

// names maps both xdotool-style and chrome-style key names to a single
// canonical key code, case-insensitively (spec §4.5 "Key-name mapping").
var names = map[string]string{
	"return": "Return", "enter": "Return",
	"escape": "Escape", "esc": "Escape",
	"tab": "Tab",
	"up": "Up", "arrowup": "Up",
	"down": "Down", "arrowdown": "Down",
	"left": "Left", "arrowleft": "Left",
	"right": "Right", "arrowright": "Right",
	"control": "Control", "ctrl": "Control", "control_l": "Control", "control_r": "Control",
	"alt": "Alt", "alt_l": "Alt", "alt_r": "Alt",
	"shift": "Shift", "shift_l": "Shift", "shift_r": "Shift",
	"super": "Super", "super_l": "Super", "meta": "Super",
	"space": "Space",
	"backspace": "BackSpace",
	"delete": "Delete", "del": "Delete",
	"home": "Home",
	"end":  "End",
	"pageup": "Prior", "pagedown": "Next",
	"f1": "F1", "f2": "F2", "f3": "F3", "f4": "F4", "f5": "F5", "f6": "F6",
	"f7": "F7", "f8": "F8", "f9": "F9", "f10": "F10", "f11": "F11", "f12": "F12",
}

var modifierNames = map[string]bool{"ctrl": true, "shift": true, "alt": true, "meta": true, "super": true}

// KeyCombo is a parsed "ctrl+shift+s"-style key chord.
type KeyCombo struct {
	Modifiers []string
	Key       string
}

// KeyCode looks up name in the key-name table, case-insensitively. A
// single printable rune not otherwise listed is accepted as its own
// uppercase code (so "a", "A", "1" all work).
func KeyCode(name string) (string, bool) {
	lower := strings.ToLower(name)
	if code, ok := names[lower]; ok {
		return code, true
	}
	r := []rune(name)
	if len(r) == 1 {
		return strings.ToUpper(name), true
	}
	return "", false
}

// ParseCombo parses a "+"-separated key combo: all but the last token are
// modifiers drawn from {ctrl, shift, alt, meta, super}; the last token is
// the key itself. Fails KeyParseError if the key name is unrecognized or a
// modifier token is not one of the five (spec §4.5).
func ParseCombo(combo string) (KeyCombo, error) {
	parts := strings.Split(combo, "+")
	if len(parts) == 0 || parts[len(parts)-1] == "" {
		return KeyCombo{}, rpcerr.New(rpcerr.KeyParseError, "empty key combo", map[string]any{"combo": combo})
	}

	keyToken := parts[len(parts)-1]
	code, ok := KeyCode(keyToken)
	if !ok {
		return KeyCombo{}, rpcerr.New(rpcerr.KeyParseError, fmt.Sprintf("unrecognized key %q", keyToken), map[string]any{"combo": combo})
	}

	mods := make([]string, 0, len(parts)-1)
	for _, m := range parts[:len(parts)-1] {
		lower := strings.ToLower(m)
		if !modifierNames[lower] {
			return KeyCombo{}, rpcerr.New(rpcerr.KeyParseError, fmt.Sprintf("unrecognized modifier %q", m), map[string]any{"combo": combo})
		}
		mods = append(mods, lower)
	}
	return KeyCombo{Modifiers: mods, Key: code}, nil
}
