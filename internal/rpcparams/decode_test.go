package rpcparams_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qtmcp/probe/internal/rpcerr"
	"github.com/qtmcp/probe/internal/rpcparams"
)

type decodeTarget struct {
	Name string `json:"name"`
}

func TestDecode_EmptyRawTreatedAsEmptyObject(t *testing.T) {
	var dst decodeTarget
	err := rpcparams.Decode(nil, &dst)
	require.NoError(t, err)
	assert.Equal(t, "", dst.Name)
}

func TestDecode_ValidJSON(t *testing.T) {
	var dst decodeTarget
	err := rpcparams.Decode(json.RawMessage(`{"name":"widget"}`), &dst)
	require.NoError(t, err)
	assert.Equal(t, "widget", dst.Name)
}

func TestDecode_MalformedJSONReturnsInvalidParams(t *testing.T) {
	var dst decodeTarget
	err := rpcparams.Decode(json.RawMessage(`{not json`), &dst)
	require.Error(t, err)
	rpcErr, ok := err.(*rpcerr.Error)
	require.True(t, ok)
	assert.Equal(t, rpcerr.InvalidParams, rpcErr.Kind)
}

func TestRequire_PassesWhenOK(t *testing.T) {
	assert.NoError(t, rpcparams.Require(true, "field"))
}

func TestRequire_FailsWhenNotOK(t *testing.T) {
	err := rpcparams.Require(false, "objectId")
	require.Error(t, err)
	rpcErr, ok := err.(*rpcerr.Error)
	require.True(t, ok)
	assert.Equal(t, rpcerr.InvalidParams, rpcErr.Kind)
}
