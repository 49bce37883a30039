// object.go — the host-toolkit binding contract.
//
// QtMCP never owns a UI-Object; it holds only a weak handle to one (spec
// §3, §5, §9). In a real deployment, Object is implemented by a thin cgo
// shim over the host GUI toolkit's meta-object system; internal/hostmock
// provides a pure-Go reference implementation used by every test in this
// module and by the cmd/qtmcp-host demo binary.
package hostobj

// PropertyDescriptor describes one declared property of an Object.
type PropertyDescriptor struct {
	Name     string
	Type     string
	Readable bool
	Writable bool
	Stored   bool
}

// MethodDescriptor describes one declared callable method.
type MethodDescriptor struct {
	Name           string
	Signature      string
	ReturnType     string
	ParameterTypes []string
	Access         string // "public", "protected", "private"
}

// SignalDescriptor describes one declared signal.
type SignalDescriptor struct {
	Name           string
	Signature      string
	ParameterTypes []string
}

// Object is the reflective façade QtMCP uses to inspect and drive a live
// host UI object. Every method must be safe to call only while the caller
// holds a live Handle (see Resolve); Object implementations are not
// expected to be safe to use after the underlying host object is
// destroyed — callers detect that via Handle.Resolve returning ok=false,
// never by calling into a stale Object.
type Object interface {
	ClassName() string
	SuperClasses() []string
	DisplayName() string
	SetDisplayName(name string)
	TextProperty() (string, bool)
	Parent() Object
	Children() []Object

	IsWidget() bool
	Geometry() (Rect, bool)
	Visible() (bool, bool)
	Enabled() (bool, bool)

	Properties() []PropertyDescriptor
	GetProperty(name string) (Value, bool)
	SetProperty(name string, v Value) error

	Methods() []MethodDescriptor
	Invoke(name string, args []Value) (Value, error)

	Signals() []SignalDescriptor
	// Subscribe registers fn to be called whenever the named signal fires.
	// The returned unsubscribe func is idempotent. ok is false if the
	// signal does not exist.
	Subscribe(signal string, fn func(args []Value)) (unsubscribe func(), ok bool)

	// Accessible returns the platform accessibility façade for this
	// object, if the host toolkit exposes one for it.
	Accessible() (AccessibleInterface, bool)

	// QmlContext returns QML-engine context properties and the QML type
	// name for this object, if it is QML-backed.
	QmlContext() (map[string]Value, string, bool)

	// AsModel returns the item-model façade for this object, if it
	// implements one.
	AsModel() (ItemModel, bool)
}

// ItemModel is the reflective façade over a host item-model object
// (spec §C, qt.models.*).
type ItemModel struct {
	RowCount    int
	ColumnCount int
	RoleNames   map[int]string
	// Data returns the value at (row, column) for the given role, or
	// false if out of bounds or the role is unknown.
	Data func(row, column, role int) (Value, bool)
}

// AccessibleInterface is the platform accessibility façade for one
// element, used by internal/accessibility.
type AccessibleInterface interface {
	Valid() bool
	Role() string
	Name() (string, bool)
	Description() (string, bool)
	Bounds() (Rect, bool)
	States() States
	Children() []AccessibleInterface
	Underlying() Object

	// Press invokes the default action ("press"), if offered.
	Press() bool
	// Toggle invokes the toggle action, if offered.
	Toggle() bool
	// SetEditableText replaces editable text content, if offered.
	SetEditableText(text string) bool
	// SetNumericValue sets a numeric value-interface value, if offered.
	SetNumericValue(v float64) bool
	// SetStringValue sets a value-interface value from a string, if offered.
	SetStringValue(v string) bool
	// ComboOptions returns selectable option labels for combo-like
	// widgets, if applicable.
	ComboOptions() ([]string, bool)
	// SelectComboOption selects the option whose text matches, if
	// applicable.
	SelectComboOption(text string) bool
	// Shortcut returns the key combo bound to this action element, if any.
	Shortcut() (string, bool)
}

// States holds the boolean accessibility state flags spec §4.4 asks to be
// surfaced (only the truthy entries are serialized).
type States struct {
	Focused  bool
	Disabled bool
	Checked  bool
	Selected bool
	Expanded bool
	ReadOnly bool
}

// EpochSource is implemented by Object bindings that can hand out a
// pointer to their own liveness counter, letting the registry mint weak
// Handles without the host toolkit exposing real weak pointers. A real
// cgo binding implements this over the host's destroyed() signal; the
// pure-Go hostmock.Object implements it directly.
type EpochSource interface {
	Epoch() *uint64
}

// Handle is a (pointer, epoch) weak reference to an Object, per the design
// notes in spec §9: Go has no host-destroy-aware weak pointer, so QtMCP
// models "destroyed by the host" explicitly rather than relying on GC.
type Handle struct {
	obj   Object
	epoch *uint64
	born  uint64
}

// NewHandle mints a weak handle bound to the object's current epoch.
// epoch is a pointer to the object binding's own liveness counter (see
// EpochSource); bumping
// *epoch invalidates every Handle minted before the bump.
func NewHandle(obj Object, epoch *uint64) Handle {
	return Handle{obj: obj, epoch: epoch, born: *epoch}
}

// Resolve returns the live Object if the handle has not been invalidated.
func (h Handle) Resolve() (Object, bool) {
	if h.obj == nil || h.epoch == nil || *h.epoch != h.born {
		return nil, false
	}
	return h.obj, true
}

// Valid reports whether the handle still resolves.
func (h Handle) Valid() bool {
	_, ok := h.Resolve()
	return ok
}
