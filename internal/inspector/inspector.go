// Package inspector is the probe's meta-inspector (spec §4.2): reflective
// read/write access to an Object's properties, methods, and signals, with
// the JSON value conversions spec §4.2's tables describe.
package inspector

import (
	"github.com/samber/lo"

	"github.com/qtmcp/probe/internal/hostobj"
	"github.com/qtmcp/probe/internal/rpcerr"
)

// ObjectInfo is the result of object_info (spec §4.2).
type ObjectInfo struct {
	ClassName    string   `json:"className"`
	DisplayName  string   `json:"displayName"`
	SuperClasses []string `json:"superClasses"`
	Visible      *bool    `json:"visible,omitempty"`
	Enabled      *bool    `json:"enabled,omitempty"`
	Geometry     *hostobj.Rect `json:"geometry,omitempty"`
}

// Info builds an ObjectInfo for obj; widget-only fields are included only
// when obj is widget-typed.
func Info(obj hostobj.Object) ObjectInfo {
	info := ObjectInfo{
		ClassName:    obj.ClassName(),
		DisplayName:  obj.DisplayName(),
		SuperClasses: obj.SuperClasses(),
	}
	if !obj.IsWidget() {
		return info
	}
	if v, ok := obj.Visible(); ok {
		info.Visible = &v
	}
	if e, ok := obj.Enabled(); ok {
		info.Enabled = &e
	}
	if g, ok := obj.Geometry(); ok {
		info.Geometry = &g
	}
	return info
}

// PropertyInfo is one row of list_properties.
type PropertyInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Readable bool   `json:"readable"`
	Writable bool   `json:"writable"`
	Stored   bool   `json:"stored"`
	Value    any    `json:"value,omitempty"`
}

// ListProperties returns every declared property, with its current value
// serialized to JSON for readable properties.
func ListProperties(obj hostobj.Object) []PropertyInfo {
	descs := obj.Properties()
	return lo.Map(descs, func(d hostobj.PropertyDescriptor, _ int) PropertyInfo {
		pi := PropertyInfo{Name: d.Name, Type: d.Type, Readable: d.Readable, Writable: d.Writable, Stored: d.Stored}
		if d.Readable {
			if v, ok := obj.GetProperty(d.Name); ok {
				pi.Value = hostobj.ToJSON(v)
			}
		}
		return pi
	})
}

func findProperty(obj hostobj.Object, name string) (hostobj.PropertyDescriptor, bool) {
	for _, d := range obj.Properties() {
		if d.Name == name {
			return d, true
		}
	}
	return hostobj.PropertyDescriptor{}, false
}

// GetProperty reads and serializes one named property.
func GetProperty(obj hostobj.Object, name string) (any, error) {
	desc, ok := findProperty(obj, name)
	if !ok {
		return nil, rpcerr.New(rpcerr.PropertyNotFound, "no such property", map[string]any{"property": name})
	}
	if !desc.Readable {
		return nil, rpcerr.New(rpcerr.PropertyNotFound, "property is not readable", map[string]any{"property": name})
	}
	v, ok := obj.GetProperty(name)
	if !ok {
		return nil, rpcerr.New(rpcerr.PropertyNotFound, "no such property", map[string]any{"property": name})
	}
	return hostobj.ToJSON(v), nil
}

// SetProperty parses raw (a decoded JSON value) against the declared
// type of name and writes it.
func SetProperty(obj hostobj.Object, name string, raw any) error {
	desc, ok := findProperty(obj, name)
	if !ok {
		return rpcerr.New(rpcerr.PropertyNotFound, "no such property", map[string]any{"property": name})
	}
	if !desc.Writable {
		return rpcerr.New(rpcerr.PropertyReadOnly, "property is read-only", map[string]any{"property": name})
	}
	v, err := hostobj.FromJSON(raw, hintForType(desc.Type))
	if err != nil {
		return rpcerr.New(rpcerr.PropertyTypeMismatch, err.Error(), map[string]any{"property": name, "declaredType": desc.Type})
	}
	if err := obj.SetProperty(name, v); err != nil {
		return rpcerr.New(rpcerr.PropertyTypeMismatch, err.Error(), map[string]any{"property": name, "declaredType": desc.Type})
	}
	return nil
}

// MethodInfo is one row of list_methods (signals are excluded).
type MethodInfo struct {
	Name           string   `json:"name"`
	Signature      string   `json:"signature"`
	ReturnType     string   `json:"returnType"`
	ParameterTypes []string `json:"parameterTypes"`
	Access         string   `json:"access"`
}

// ListMethods returns every declared invokable method.
func ListMethods(obj hostobj.Object) []MethodInfo {
	return lo.Map(obj.Methods(), func(d hostobj.MethodDescriptor, _ int) MethodInfo {
		return MethodInfo{Name: d.Name, Signature: d.Signature, ReturnType: d.ReturnType, ParameterTypes: d.ParameterTypes, Access: d.Access}
	})
}

func findMethod(obj hostobj.Object, name string) (hostobj.MethodDescriptor, bool) {
	for _, d := range obj.Methods() {
		if d.Name == name {
			return d, true
		}
	}
	return hostobj.MethodDescriptor{}, false
}

// InvokeMethod parses args against the declared parameter types and
// invokes name, returning the JSON-serialized result.
func InvokeMethod(obj hostobj.Object, name string, args []any) (any, error) {
	desc, ok := findMethod(obj, name)
	if !ok {
		return nil, rpcerr.New(rpcerr.MethodNotFoundOnObject, "no such method", map[string]any{"method": name})
	}
	if len(args) != len(desc.ParameterTypes) {
		return nil, rpcerr.New(rpcerr.MethodArgumentMismatch, "argument count mismatch", map[string]any{
			"method": name, "expected": len(desc.ParameterTypes), "got": len(args),
		})
	}
	values := make([]hostobj.Value, len(args))
	for i, a := range args {
		v, err := hostobj.FromJSON(a, hintForType(desc.ParameterTypes[i]))
		if err != nil {
			return nil, rpcerr.New(rpcerr.MethodArgumentMismatch, err.Error(), map[string]any{"method": name, "argumentIndex": i})
		}
		values[i] = v
	}
	result, err := obj.Invoke(name, values)
	if err != nil {
		return nil, rpcerr.New(rpcerr.MethodInvocationFailed, err.Error(), map[string]any{"method": name})
	}
	return hostobj.ToJSON(result), nil
}

// SignalInfo is one row of list_signals.
type SignalInfo struct {
	Name           string   `json:"name"`
	Signature      string   `json:"signature"`
	ParameterTypes []string `json:"parameterTypes"`
}

// ListSignals returns every declared signal.
func ListSignals(obj hostobj.Object) []SignalInfo {
	return lo.Map(obj.Signals(), func(d hostobj.SignalDescriptor, _ int) SignalInfo {
		return SignalInfo{Name: d.Name, Signature: d.Signature, ParameterTypes: d.ParameterTypes}
	})
}

// InheritanceChain returns [className, ..., root-class-name].
func InheritanceChain(obj hostobj.Object) []string {
	chain := append([]string{obj.ClassName()}, obj.SuperClasses()...)
	return lo.Uniq(chain)
}

// hintForType maps a host-declared type name to the Value Kind used to
// disambiguate JSON parsing (spec §4.2 "Value parsing").
func hintForType(typeName string) hostobj.Kind {
	switch typeName {
	case "QColor", "color":
		return hostobj.KindColor
	case "QRect", "QRectF", "rect":
		return hostobj.KindRect
	case "QPoint", "QPointF", "point":
		return hostobj.KindPoint
	case "QSize", "QSizeF", "size":
		return hostobj.KindSize
	case "int", "qlonglong", "uint":
		return hostobj.KindInt
	case "double", "float":
		return hostobj.KindFloat
	case "bool":
		return hostobj.KindBool
	case "QString":
		return hostobj.KindString
	case "QStringList":
		return hostobj.KindStringList
	default:
		return hostobj.KindInvalid
	}
}
