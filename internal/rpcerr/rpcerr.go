// Package rpcerr is the probe's error taxonomy (spec §7). It replaces the
// teacher's closed set of snake_case string codes
// (internal/mcp.StructuredError) with spec.md's numeric JSON-RPC error
// ranges, keeping the teacher's shape of "every failure is a typed,
// structured value with a machine-actionable data payload" — no nil ever
// surfaces to a client (spec §4.2).
package rpcerr

import (
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// Kind names one entry in spec §7's taxonomy.
type Kind string

const (
	ParseError      Kind = "parse-error"
	InvalidRequest  Kind = "invalid-request"
	MethodNotFound  Kind = "method-not-found"
	InvalidParams   Kind = "invalid-params"
	InternalError   Kind = "internal-error"

	ObjectNotFound  Kind = "object-not-found"
	ObjectStale     Kind = "object-stale"
	ObjectNotWidget Kind = "object-not-widget"

	PropertyNotFound     Kind = "property-not-found"
	PropertyReadOnly     Kind = "property-read-only"
	PropertyTypeMismatch Kind = "property-type-mismatch"

	MethodNotFoundOnObject  Kind = "method-not-found-on-object"
	MethodInvocationFailed  Kind = "method-invocation-failed"
	MethodArgumentMismatch  Kind = "method-argument-mismatch"

	SignalNotFound       Kind = "signal-not-found"
	SubscriptionNotFound Kind = "subscription-not-found"

	WidgetNotVisible  Kind = "widget-not-visible"
	WidgetNotEnabled  Kind = "widget-not-enabled"
	ScreenCaptureError Kind = "screen-capture-error"

	NameNotFound  Kind = "name-not-found"
	NameExists    Kind = "name-exists"
	NameLoadError Kind = "name-load-error"

	NoActiveWindow      Kind = "no-active-window"
	CoordinateOutOfBounds Kind = "coordinate-out-of-bounds"
	NoFocusedWidget     Kind = "no-focused-widget"
	KeyParseError       Kind = "key-parse-error"

	RefNotFound          Kind = "ref-not-found"
	RefStale             Kind = "ref-stale"
	FormInputUnsupported Kind = "form-input-unsupported"
	TreeTooLarge         Kind = "tree-too-large"
	FindTooManyResults   Kind = "find-too-many-results"
	NavigateInvalid      Kind = "navigate-invalid"
	ConsoleNotAvailable  Kind = "console-not-available"

	QmlNotAvailable     Kind = "qml-not-available"
	QmlContextNotFound  Kind = "qml-context-not-found"
	NotQmlItem          Kind = "not-qml-item"

	ModelNotFound    Kind = "model-not-found"
	IndexOutOfBounds Kind = "index-out-of-bounds"
	RoleNotFound     Kind = "role-not-found"
	NotAModel        Kind = "not-a-model"
)

var codes = map[Kind]int{
	ParseError:     -32700,
	InvalidRequest: -32600,
	MethodNotFound: -32601,
	InvalidParams:  -32602,
	InternalError:  -32603,

	ObjectNotFound:  -32001,
	ObjectStale:     -32002,
	ObjectNotWidget: -32003,

	PropertyNotFound:     -32010,
	PropertyReadOnly:     -32011,
	PropertyTypeMismatch: -32012,

	MethodNotFoundOnObject: -32020,
	MethodInvocationFailed: -32021,
	MethodArgumentMismatch: -32022,

	SignalNotFound:       -32030,
	SubscriptionNotFound: -32031,

	WidgetNotVisible:   -32040,
	WidgetNotEnabled:   -32041,
	ScreenCaptureError: -32042,

	NameNotFound:  -32050,
	NameExists:    -32051,
	NameLoadError: -32052,

	NoActiveWindow:        -32060,
	CoordinateOutOfBounds: -32061,
	NoFocusedWidget:       -32062,
	KeyParseError:         -32063,

	RefNotFound:          -32070,
	RefStale:             -32071,
	FormInputUnsupported: -32072,
	TreeTooLarge:         -32073,
	FindTooManyResults:   -32074,
	NavigateInvalid:      -32075,
	ConsoleNotAvailable:  -32076,

	QmlNotAvailable:    -32080,
	QmlContextNotFound: -32081,
	NotQmlItem:         -32082,

	ModelNotFound:    -32090,
	IndexOutOfBounds: -32091,
	RoleNotFound:     -32092,
	NotAModel:        -32093,
}

// Code returns the JSON-RPC integer code for a Kind.
func Code(k Kind) int {
	if c, ok := codes[k]; ok {
		return c
	}
	return codes[InternalError]
}

// Error is the structured error value every probe operation returns on
// failure; it carries a machine-readable Kind/Code plus a Data payload
// with the relevant ids/hints spec §7 calls for.
type Error struct {
	Kind    Kind
	Message string
	Data    map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a structured error of the given kind.
func New(kind Kind, message string, data map[string]any) *Error {
	return &Error{Kind: kind, Message: message, Data: data}
}

// Newf is New with a formatted message.
func Newf(kind Kind, data map[string]any, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...), data)
}

// Internal wraps an unexpected failure as an internal-error (-32603). The
// stack trace captured by go-errors is attached for server-side logging
// (internal/qlog) and is never placed in the client-visible Data payload.
func Internal(cause error) *Error {
	wrapped := goerrors.Wrap(cause, 1)
	return &Error{Kind: InternalError, Message: cause.Error(), cause: wrapped}
}

// StackTrace returns the captured stack trace for an Internal error, or
// empty if e was not constructed via Internal.
func (e *Error) StackTrace() string {
	if ge, ok := e.cause.(*goerrors.Error); ok {
		return string(ge.Stack())
	}
	return ""
}
