package rpcdispatch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/qtmcp/probe/internal/qlog"
	"github.com/qtmcp/probe/internal/rpcerr"
)

var log = qlog.For("rpcdispatch")

// HandlerFunc is one registered method's implementation. It receives the
// raw params JSON (nil/empty for a method that takes none) and returns
// either a JSON-marshalable result or an error — an *rpcerr.Error for a
// structured domain failure, or any other error for an opaque
// internal-error (spec §4.6, §7).
type HandlerFunc func(params json.RawMessage) (any, error)

// Meta lets a handler attach extra envelope metadata (e.g. objectId)
// beyond the timestamp the dispatcher always adds. Return *Meta instead of
// a bare value from a HandlerFunc to use it.
type Meta struct {
	Value any
	Extra map[string]any
}

type methodEntry struct {
	handler HandlerFunc
	raw     bool // bypasses the {result, meta} envelope (spec §4.6 "Test-only diagnostic methods")
}

// Dispatcher routes framed JSON-RPC 2.0 messages to registered handlers
// and wraps successful results in the standard envelope (spec §4.6).
type Dispatcher struct {
	methods map[string]methodEntry
	now     func() int64
}

// New creates an empty Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{
		methods: map[string]methodEntry{},
		now:     func() int64 { return time.Now().UnixMilli() },
	}
}

// RegisterMethod binds name to handler. Registering the same name twice
// replaces the previous handler — callers are expected to build the full
// method table once at startup (spec §6's qt./cu./chr. namespaces plus the
// legacy qtmcp.* aliases).
func (d *Dispatcher) RegisterMethod(name string, handler HandlerFunc) {
	d.methods[name] = methodEntry{handler: handler}
}

// RegisterRaw binds name to handler, but its successful result is placed
// directly in the JSON-RPC response without the {result, meta} envelope —
// for the diagnostic methods spec §4.6 calls out (ping, echo, getVersion).
func (d *Dispatcher) RegisterRaw(name string, handler HandlerFunc) {
	d.methods[name] = methodEntry{handler: handler, raw: true}
}

// HandleMessage parses raw as a single JSON-RPC 2.0 message and returns
// the response bytes to send back, or nil for a notification (spec §4.6).
func (d *Dispatcher) HandleMessage(raw []byte) []byte {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return mustMarshal(errorResponse(nil, rpcerr.Code(rpcerr.ParseError), "malformed JSON", nil))
	}

	if req.JSONRPC != "2.0" || req.Method == "" {
		return mustMarshal(errorResponse(nil, rpcerr.Code(rpcerr.InvalidRequest), "missing jsonrpc 2.0 or method", nil))
	}

	entry, ok := d.methods[req.Method]
	if !ok {
		if req.IsNotification() {
			log.Warnf("no handler registered for notification method %q", req.Method)
			return nil
		}
		return mustMarshal(errorResponse(req.ID, rpcerr.Code(rpcerr.MethodNotFound), "method not found: "+req.Method, map[string]any{"method": req.Method}))
	}

	result, err := func() (result any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("handler %q panicked: %v", req.Method, r)
				err = rpcerr.Internal(panicError{r})
			}
		}()
		return entry.handler(req.Params)
	}()

	if req.IsNotification() {
		if err != nil {
			log.Errorf("notification handler %q failed: %v", req.Method, err)
		}
		return nil
	}

	if err != nil {
		code, message, data := classify(err)
		return mustMarshal(errorResponse(req.ID, code, message, data))
	}

	payload := d.envelope(entry, result)
	resultJSON, merr := json.Marshal(payload)
	if merr != nil {
		return mustMarshal(errorResponse(req.ID, rpcerr.Code(rpcerr.InternalError), "failed to marshal result", nil))
	}
	return mustMarshal(Response{JSONRPC: "2.0", ID: req.ID, Result: resultJSON})
}

func (d *Dispatcher) envelope(entry methodEntry, result any) any {
	if entry.raw {
		return result
	}
	meta := map[string]any{"timestamp": d.now()}
	value := result
	if m, ok := result.(*Meta); ok {
		value = m.Value
		for k, v := range m.Extra {
			meta[k] = v
		}
	}
	return map[string]any{"result": value, "meta": meta}
}

// SendNotification formats a probe-to-client notification (spec §4.6),
// used by the signal monitor's delivery callback.
func (d *Dispatcher) SendNotification(method string, params any) []byte {
	return mustMarshal(OutgoingNotification{JSONRPC: "2.0", Method: method, Params: params})
}

func classify(err error) (code int, message string, data map[string]any) {
	if re, ok := err.(*rpcerr.Error); ok {
		if re.Kind == rpcerr.InternalError {
			log.Errorf("internal error: %s\n%s", re.Error(), re.StackTrace())
		}
		return rpcerr.Code(re.Kind), re.Error(), re.Data
	}
	wrapped := rpcerr.Internal(err)
	log.Errorf("internal error: %s\n%s", wrapped.Error(), wrapped.StackTrace())
	return rpcerr.Code(rpcerr.InternalError), wrapped.Error(), nil
}

func errorResponse(id any, code int, message string, data map[string]any) Response {
	return Response{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message, Data: data}}
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		log.Errorf("failed to marshal outgoing message: %v", err)
		return []byte(`{"jsonrpc":"2.0","id":null,"error":{"code":-32603,"message":"internal-error"}}`)
	}
	return b
}

type panicError struct{ v any }

func (p panicError) Error() string { return fmt.Sprintf("panic in handler: %v", p.v) }
