// Package hostmock is a pure-Go stand-in for a real host GUI toolkit
// binding, implementing hostobj.Object and hostobj.AccessibleInterface.
// It is used by every test in this module and by the cmd/qtmcp-host demo
// binary, which has no real Qt process to attach to.
package hostmock

import (
	"fmt"
	"sync"

	"github.com/qtmcp/probe/internal/hostobj"
)

// Object is a mutable, in-memory stand-in for a real host UI object.
// It is deliberately simple: properties and methods are plain Go maps,
// not a reflected struct, so tests can shape arbitrary widget trees.
type Object struct {
	mu sync.Mutex

	className    string
	superClasses []string
	displayName  string
	parent       *Object
	children     []*Object

	isWidget bool
	geometry hostobj.Rect
	hasGeo   bool
	visible  bool
	enabled  bool

	properties map[string]*property
	methods    map[string]*method
	signals    map[string]*signalState

	qmlContext map[string]hostobj.Value
	qmlType    string
	isQml      bool

	model *hostobj.ItemModel

	destroyed bool
	epoch     uint64

	accessible *accessible
}

type property struct {
	desc  hostobj.PropertyDescriptor
	value hostobj.Value
}

type method struct {
	desc hostobj.MethodDescriptor
	fn   func(args []hostobj.Value) (hostobj.Value, error)
}

type signalState struct {
	desc      hostobj.SignalDescriptor
	listeners []func(args []hostobj.Value)
}

// New creates a mock top-level object with the given class name.
func New(className string) *Object {
	return &Object{
		className:  className,
		visible:    true,
		enabled:    true,
		properties: map[string]*property{},
		methods:    map[string]*method{},
		signals:    map[string]*signalState{},
	}
}

// WithSuperClasses sets the inheritance chain reported after the object's
// own class name (root class last).
func (o *Object) WithSuperClasses(classes ...string) *Object {
	o.superClasses = classes
	return o
}

// WithWidget marks the object as widget-typed with the given geometry.
func (o *Object) WithWidget(geom hostobj.Rect) *Object {
	o.isWidget = true
	o.geometry = geom
	o.hasGeo = true
	return o
}

// AddChild appends a child constructed with the given class name,
// mirroring the host's AddObject hook firing before the child is
// otherwise configured.
func (o *Object) AddChild(className string) *Object {
	child := New(className)
	child.parent = o
	o.mu.Lock()
	o.children = append(o.children, child)
	o.mu.Unlock()
	return child
}

// Destroy marks the object (and its subtree) destroyed and bumps the
// epoch counter so every outstanding Handle invalidates.
func (o *Object) Destroy() {
	o.mu.Lock()
	if o.destroyed {
		o.mu.Unlock()
		return
	}
	o.destroyed = true
	o.epoch++
	children := append([]*Object(nil), o.children...)
	o.mu.Unlock()
	for _, c := range children {
		c.Destroy()
	}
}

// Epoch returns a pointer to the object's liveness counter, for minting
// hostobj.Handle values.
func (o *Object) Epoch() *uint64 { return &o.epoch }

// SetDisplayName implements hostobj.Object.
func (o *Object) SetDisplayName(name string) {
	o.mu.Lock()
	o.displayName = name
	o.mu.Unlock()
}

func (o *Object) ClassName() string      { return o.className }
func (o *Object) SuperClasses() []string { return o.superClasses }
func (o *Object) DisplayName() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.displayName
}

func (o *Object) TextProperty() (string, bool) {
	v, ok := o.GetProperty("text")
	if !ok || v.Kind != hostobj.KindString {
		return "", false
	}
	return v.Str, true
}

func (o *Object) Parent() hostobj.Object {
	if o.parent == nil {
		return nil
	}
	return o.parent
}

func (o *Object) Children() []hostobj.Object {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]hostobj.Object, len(o.children))
	for i, c := range o.children {
		out[i] = c
	}
	return out
}

func (o *Object) IsWidget() bool { return o.isWidget }

func (o *Object) Geometry() (hostobj.Rect, bool) { return o.geometry, o.hasGeo }

func (o *Object) Visible() (bool, bool) {
	if !o.isWidget {
		return false, false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.visible, true
}

func (o *Object) SetVisible(v bool) {
	o.mu.Lock()
	o.visible = v
	o.mu.Unlock()
}

func (o *Object) Enabled() (bool, bool) {
	if !o.isWidget {
		return false, false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.enabled, true
}

func (o *Object) SetEnabled(v bool) {
	o.mu.Lock()
	o.enabled = v
	o.mu.Unlock()
}

// DefineProperty registers a readable/writable property with an initial
// value.
func (o *Object) DefineProperty(name, typ string, readable, writable, stored bool, initial hostobj.Value) *Object {
	o.mu.Lock()
	o.properties[name] = &property{
		desc:  hostobj.PropertyDescriptor{Name: name, Type: typ, Readable: readable, Writable: writable, Stored: stored},
		value: initial,
	}
	o.mu.Unlock()
	return o
}

func (o *Object) Properties() []hostobj.PropertyDescriptor {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]hostobj.PropertyDescriptor, 0, len(o.properties))
	for _, p := range o.properties {
		out = append(out, p.desc)
	}
	return out
}

func (o *Object) GetProperty(name string) (hostobj.Value, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.properties[name]
	if !ok || !p.desc.Readable {
		return hostobj.Value{}, false
	}
	return p.value, true
}

func (o *Object) SetProperty(name string, v hostobj.Value) error {
	o.mu.Lock()
	p, ok := o.properties[name]
	if !ok {
		o.mu.Unlock()
		return fmt.Errorf("unknown property %q", name)
	}
	if !p.desc.Writable {
		o.mu.Unlock()
		return fmt.Errorf("property %q is read-only", name)
	}
	p.value = v
	o.mu.Unlock()
	return nil
}

// DefineMethod registers an invokable method.
func (o *Object) DefineMethod(name string, paramTypes []string, returnType string, fn func([]hostobj.Value) (hostobj.Value, error)) *Object {
	o.mu.Lock()
	o.methods[name] = &method{
		desc: hostobj.MethodDescriptor{
			Name: name, Signature: name + "(" + joinTypes(paramTypes) + ")",
			ReturnType: returnType, ParameterTypes: paramTypes, Access: "public",
		},
		fn: fn,
	}
	o.mu.Unlock()
	return o
}

func joinTypes(types []string) string {
	out := ""
	for i, t := range types {
		if i > 0 {
			out += ","
		}
		out += t
	}
	return out
}

func (o *Object) Methods() []hostobj.MethodDescriptor {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]hostobj.MethodDescriptor, 0, len(o.methods))
	for _, m := range o.methods {
		out = append(out, m.desc)
	}
	return out
}

func (o *Object) Invoke(name string, args []hostobj.Value) (hostobj.Value, error) {
	o.mu.Lock()
	m, ok := o.methods[name]
	o.mu.Unlock()
	if !ok {
		return hostobj.Value{}, fmt.Errorf("unknown method %q", name)
	}
	if len(args) != len(m.desc.ParameterTypes) {
		return hostobj.Value{}, fmt.Errorf("method %q expects %d arguments, got %d", name, len(m.desc.ParameterTypes), len(args))
	}
	return m.fn(args)
}

// DefineSignal registers a signal.
func (o *Object) DefineSignal(name string, paramTypes []string) *Object {
	o.mu.Lock()
	o.signals[name] = &signalState{desc: hostobj.SignalDescriptor{
		Name: name, Signature: name + "(" + joinTypes(paramTypes) + ")", ParameterTypes: paramTypes,
	}}
	o.mu.Unlock()
	return o
}

func (o *Object) Signals() []hostobj.SignalDescriptor {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]hostobj.SignalDescriptor, 0, len(o.signals))
	for _, s := range o.signals {
		out = append(out, s.desc)
	}
	return out
}

func (o *Object) Subscribe(name string, fn func(args []hostobj.Value)) (func(), bool) {
	o.mu.Lock()
	s, ok := o.signals[name]
	if !ok {
		o.mu.Unlock()
		return nil, false
	}
	s.listeners = append(s.listeners, fn)
	idx := len(s.listeners) - 1
	o.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			o.mu.Lock()
			if idx < len(s.listeners) {
				s.listeners[idx] = nil
			}
			o.mu.Unlock()
		})
	}
	return unsub, true
}

// Emit fires a signal synchronously against every live listener, in
// registration order, on the calling goroutine — mirroring the host
// toolkit's single-thread-per-emission model (spec §4.3).
func (o *Object) Emit(name string, args ...hostobj.Value) {
	o.mu.Lock()
	s, ok := o.signals[name]
	var listeners []func(args []hostobj.Value)
	if ok {
		listeners = append(listeners, s.listeners...)
	}
	o.mu.Unlock()
	if !ok {
		return
	}
	for _, fn := range listeners {
		if fn != nil {
			fn(args)
		}
	}
}

func (o *Object) Accessible() (hostobj.AccessibleInterface, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.accessible == nil {
		return nil, false
	}
	return o.accessible, true
}

// WithAccessible attaches an accessibility façade to this object.
func (o *Object) WithAccessible(role string) *accessible {
	a := &accessible{obj: o, role: role}
	o.mu.Lock()
	o.accessible = a
	o.mu.Unlock()
	return a
}

func (o *Object) QmlContext() (map[string]hostobj.Value, string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.isQml {
		return nil, "", false
	}
	return o.qmlContext, o.qmlType, true
}

// WithQmlContext marks the object as QML-backed.
func (o *Object) WithQmlContext(qmlType string, props map[string]hostobj.Value) *Object {
	o.isQml = true
	o.qmlType = qmlType
	o.qmlContext = props
	return o
}

func (o *Object) AsModel() (hostobj.ItemModel, bool) {
	if o.model == nil {
		return hostobj.ItemModel{}, false
	}
	return *o.model, true
}

// WithModel attaches an item-model façade.
func (o *Object) WithModel(m hostobj.ItemModel) *Object {
	o.model = &m
	return o
}
