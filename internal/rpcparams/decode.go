// Package rpcparams decodes a JSON-RPC method's raw params into a typed
// struct, turning a malformed or missing required field into the
// invalid-params error spec §7 names rather than a panic or a generic
// internal-error.
package rpcparams

import (
	"encoding/json"

	"github.com/qtmcp/probe/internal/rpcerr"
)

// Decode unmarshals raw into dst. An empty/nil raw is treated as `{}`, so
// methods that take only optional parameters can be called with no
// params object at all.
func Decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return rpcerr.New(rpcerr.InvalidParams, "malformed params: "+err.Error(), nil)
	}
	return nil
}

// Require fails with invalid-params, naming field, if the condition
// (field present and non-empty) does not hold.
func Require(ok bool, field string) error {
	if ok {
		return nil
	}
	return rpcerr.New(rpcerr.InvalidParams, "missing required parameter: "+field, map[string]any{"parameter": field})
}
