// value.go — host value types and their JSON serialization/parsing.
//
// QtMCP never talks to the host toolkit's native value types directly from
// the JSON-RPC layer; every value that crosses the wire passes through the
// conversions in this file first. The mapping is deliberately lossy for
// unknown types (see ToJSON's KindUnknown case) rather than failing closed.
package hostobj

import (
	"fmt"
	"strconv"
	"strings"
)

// Point is a 2-D coordinate pair.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is a position plus extent.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Color is an RGBA color with 0-255 channels.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// Kind tags the dynamic type of a Value so conversions don't need reflection
// at every call site.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindPoint
	KindSize
	KindRect
	KindColor
	KindList
	KindStringList
	KindMap
	KindUnknown
)

// Value is a tagged union over every host property/argument/return type the
// meta-inspector needs to move across the JSON boundary. Only one of the
// fields matching Kind is meaningful at a time.
type Value struct {
	Kind        Kind
	Bool        bool
	Int         int64
	Float       float64
	Str         string
	Point       Point
	Size        Size
	Rect        Rect
	Color       Color
	List        []Value
	StringList  []string
	Map         map[string]Value
	UnknownType string
	UnknownRepr string
}

func BoolValue(b bool) Value          { return Value{Kind: KindBool, Bool: b} }
func IntValue(i int64) Value          { return Value{Kind: KindInt, Int: i} }
func FloatValue(f float64) Value      { return Value{Kind: KindFloat, Float: f} }
func StringValue(s string) Value      { return Value{Kind: KindString, Str: s} }
func PointValue(p Point) Value        { return Value{Kind: KindPoint, Point: p} }
func SizeValue(s Size) Value          { return Value{Kind: KindSize, Size: s} }
func RectValue(r Rect) Value          { return Value{Kind: KindRect, Rect: r} }
func ColorValue(c Color) Value        { return Value{Kind: KindColor, Color: c} }
func ListValue(v []Value) Value       { return Value{Kind: KindList, List: v} }
func StringListValue(v []string) Value {
	return Value{Kind: KindStringList, StringList: v}
}
func MapValue(v map[string]Value) Value { return Value{Kind: KindMap, Map: v} }

// ToJSON converts a host Value into a plain Go value ready for
// encoding/json.Marshal, following the table in spec §4.2.
func ToJSON(v Value) any {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindString:
		return v.Str
	case KindPoint:
		return map[string]any{"x": v.Point.X, "y": v.Point.Y}
	case KindSize:
		return map[string]any{"width": v.Size.Width, "height": v.Size.Height}
	case KindRect:
		return map[string]any{"x": v.Rect.X, "y": v.Rect.Y, "width": v.Rect.Width, "height": v.Rect.Height}
	case KindColor:
		return map[string]any{"r": v.Color.R, "g": v.Color.G, "b": v.Color.B, "a": v.Color.A}
	case KindList:
		out := make([]any, len(v.List))
		for i, item := range v.List {
			out[i] = ToJSON(item)
		}
		return out
	case KindStringList:
		out := make([]any, len(v.StringList))
		for i, s := range v.StringList {
			out[i] = s
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.Map))
		for k, item := range v.Map {
			out[k] = ToJSON(item)
		}
		return out
	case KindUnknown:
		return map[string]any{"_type": v.UnknownType, "value": v.UnknownRepr}
	default:
		return nil
	}
}

// FromJSON parses a decoded JSON value into a host Value, using hint to
// disambiguate structurally-ambiguous shapes (a bare {r,g,b,a} object could
// be a color or a map; hint picks the intended target type). hint may be
// empty, in which case the most literal Kind is inferred.
func FromJSON(raw any, hint Kind) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Value{}, fmt.Errorf("null value cannot be converted")
	case bool:
		return BoolValue(x), nil
	case string:
		if hint == KindColor {
			if c, ok := parseHexColor(x); ok {
				return ColorValue(c), nil
			}
			return Value{}, fmt.Errorf("%q is not a valid hex color", x)
		}
		return StringValue(x), nil
	case float64:
		if hint == KindInt {
			return IntValue(int64(x)), nil
		}
		return FloatValue(x), nil
	case []any:
		if hint == KindStringList {
			out := make([]string, 0, len(x))
			for _, item := range x {
				s, ok := item.(string)
				if !ok {
					return Value{}, fmt.Errorf("string list element is not a string")
				}
				out = append(out, s)
			}
			return StringListValue(out), nil
		}
		out := make([]Value, 0, len(x))
		for _, item := range x {
			v, err := FromJSON(item, KindInvalid)
			if err != nil {
				return Value{}, err
			}
			out = append(out, v)
		}
		return ListValue(out), nil
	case map[string]any:
		return fromJSONObject(x, hint)
	default:
		return Value{}, fmt.Errorf("unsupported JSON value %T", raw)
	}
}

func fromJSONObject(m map[string]any, hint Kind) (Value, error) {
	hasKeys := func(keys ...string) bool {
		for _, k := range keys {
			if _, ok := m[k]; !ok {
				return false
			}
		}
		return true
	}
	numOf := func(k string) float64 {
		f, _ := m[k].(float64)
		return f
	}

	switch {
	case hint == KindColor || (hasKeys("r", "g", "b") && len(m) <= 4):
		a := 255.0
		if _, ok := m["a"]; ok {
			a = numOf("a")
		}
		return ColorValue(Color{R: uint8(numOf("r")), G: uint8(numOf("g")), B: uint8(numOf("b")), A: uint8(a)}), nil
	case hint == KindRect || hasKeys("x", "y", "width", "height"):
		return RectValue(Rect{X: numOf("x"), Y: numOf("y"), Width: numOf("width"), Height: numOf("height")}), nil
	case hint == KindPoint || hasKeys("x", "y"):
		return PointValue(Point{X: numOf("x"), Y: numOf("y")}), nil
	case hint == KindSize || hasKeys("width", "height"):
		return SizeValue(Size{Width: numOf("width"), Height: numOf("height")}), nil
	default:
		out := make(map[string]Value, len(m))
		for k, raw := range m {
			v, err := FromJSON(raw, KindInvalid)
			if err != nil {
				return Value{}, err
			}
			out[k] = v
		}
		return MapValue(out), nil
	}
}

func parseHexColor(s string) (Color, bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 && len(s) != 8 {
		return Color{}, false
	}
	parse := func(sub string) (uint8, bool) {
		n, err := strconv.ParseUint(sub, 16, 8)
		if err != nil {
			return 0, false
		}
		return uint8(n), true
	}
	r, ok1 := parse(s[0:2])
	g, ok2 := parse(s[2:4])
	b, ok3 := parse(s[4:6])
	if !ok1 || !ok2 || !ok3 {
		return Color{}, false
	}
	a := uint8(255)
	if len(s) == 8 {
		av, ok := parse(s[6:8])
		if !ok {
			return Color{}, false
		}
		a = av
	}
	return Color{R: r, G: g, B: b, A: a}, true
}
