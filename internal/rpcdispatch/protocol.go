// Package rpcdispatch is the probe's JSON-RPC 2.0 dispatcher and response
// envelope (spec §4.6). Its request/response framing is grounded on the
// teacher's internal/mcp package, generalized from an MCP-only transport
// to the bare JSON-RPC 2.0 contract spec.md describes: no MCP tool-call
// wrapping, a wider domain-specific error-code range, and every success
// wrapped in a {result, meta} envelope instead of an MCP content block.
package rpcdispatch

import (
	"bytes"
	"encoding/json"
)

// Request is one incoming JSON-RPC 2.0 message, which may be a request
// (idPresent true) or a notification (idPresent false).
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`

	idPresent       bool
	idExplicitNull  bool
	idInvalidFormat bool
}

// UnmarshalJSON tracks whether id was present at all and, if present,
// whether it was null or a type the JSON-RPC spec disallows (only string,
// number, or null are legal request ids).
func (r *Request) UnmarshalJSON(data []byte) error {
	type rawRequest struct {
		JSONRPC string          `json:"jsonrpc"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params,omitempty"`
	}
	var raw rawRequest
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var object map[string]json.RawMessage
	if err := json.Unmarshal(data, &object); err != nil {
		return err
	}

	r.JSONRPC = raw.JSONRPC
	r.Method = raw.Method
	r.Params = raw.Params
	r.ID = nil

	rawID, ok := object["id"]
	r.idPresent = ok
	if !ok {
		return nil
	}

	trimmed := bytes.TrimSpace(rawID)
	if bytes.Equal(trimmed, []byte("null")) {
		r.idExplicitNull = true
		return nil
	}
	var parsed any
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return err
	}
	switch parsed.(type) {
	case string, float64:
		r.ID = parsed
	default:
		r.idInvalidFormat = true
	}
	return nil
}

// IsNotification reports whether this message has no id member at all —
// the JSON-RPC 2.0 definition of a notification (spec §4.6).
func (r Request) IsNotification() bool {
	return !r.idPresent
}

// Response is an outgoing JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object (spec §7 "Error shape").
type RPCError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// OutgoingNotification is a probe-to-client notification (spec §4.6):
// jsonrpc/method/params, no id.
type OutgoingNotification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}
