package rpcdispatch_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qtmcp/probe/internal/rpcdispatch"
	"github.com/qtmcp/probe/internal/rpcerr"
)

func TestHandleMessage_SuccessWrapsEnvelope(t *testing.T) {
	d := rpcdispatch.New()
	d.RegisterMethod("qt.ping", func(json.RawMessage) (any, error) {
		return "pong", nil
	})

	out := d.HandleMessage([]byte(`{"jsonrpc":"2.0","id":1,"method":"qt.ping"}`))
	require.NotNil(t, out)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Equal(t, float64(1), resp["id"])
	result := resp["result"].(map[string]any)
	assert.Equal(t, "pong", result["result"])
	meta := result["meta"].(map[string]any)
	assert.NotNil(t, meta["timestamp"])
}

func TestHandleMessage_RawBypassesEnvelope(t *testing.T) {
	d := rpcdispatch.New()
	d.RegisterRaw("ping", func(json.RawMessage) (any, error) {
		return "pong", nil
	})
	out := d.HandleMessage([]byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	var resp map[string]any
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Equal(t, "pong", resp["result"])
}

func TestHandleMessage_NotificationReturnsNil(t *testing.T) {
	d := rpcdispatch.New()
	called := false
	d.RegisterMethod("qt.fireAndForget", func(json.RawMessage) (any, error) {
		called = true
		return nil, nil
	})
	out := d.HandleMessage([]byte(`{"jsonrpc":"2.0","method":"qt.fireAndForget"}`))
	assert.Nil(t, out)
	assert.True(t, called)
}

func TestHandleMessage_MethodNotFound(t *testing.T) {
	d := rpcdispatch.New()
	out := d.HandleMessage([]byte(`{"jsonrpc":"2.0","id":"a","method":"qt.nope"}`))
	var resp map[string]any
	require.NoError(t, json.Unmarshal(out, &resp))
	errObj := resp["error"].(map[string]any)
	assert.Equal(t, float64(rpcerr.Code(rpcerr.MethodNotFound)), errObj["code"])
}

func TestHandleMessage_ParseErrorHasNullID(t *testing.T) {
	d := rpcdispatch.New()
	out := d.HandleMessage([]byte(`{not json`))
	var resp map[string]any
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Nil(t, resp["id"])
	errObj := resp["error"].(map[string]any)
	assert.Equal(t, float64(rpcerr.Code(rpcerr.ParseError)), errObj["code"])
}

func TestHandleMessage_InvalidRequestMissingMethod(t *testing.T) {
	d := rpcdispatch.New()
	out := d.HandleMessage([]byte(`{"jsonrpc":"2.0","id":1}`))
	var resp map[string]any
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Nil(t, resp["id"])
	errObj := resp["error"].(map[string]any)
	assert.Equal(t, float64(rpcerr.Code(rpcerr.InvalidRequest)), errObj["code"])
}

func TestHandleMessage_DomainErrorPropagates(t *testing.T) {
	d := rpcdispatch.New()
	d.RegisterMethod("qt.objects.info", func(json.RawMessage) (any, error) {
		return nil, rpcerr.New(rpcerr.ObjectNotFound, "no such object", map[string]any{"objectId": "x"})
	})
	out := d.HandleMessage([]byte(`{"jsonrpc":"2.0","id":2,"method":"qt.objects.info"}`))
	var resp map[string]any
	require.NoError(t, json.Unmarshal(out, &resp))
	errObj := resp["error"].(map[string]any)
	assert.Equal(t, float64(rpcerr.Code(rpcerr.ObjectNotFound)), errObj["code"])
	data := errObj["data"].(map[string]any)
	assert.Equal(t, "x", data["objectId"])
}

func TestHandleMessage_PanicBecomesInternalError(t *testing.T) {
	d := rpcdispatch.New()
	d.RegisterMethod("qt.boom", func(json.RawMessage) (any, error) {
		panic("kaboom")
	})
	out := d.HandleMessage([]byte(`{"jsonrpc":"2.0","id":3,"method":"qt.boom"}`))
	var resp map[string]any
	require.NoError(t, json.Unmarshal(out, &resp))
	errObj := resp["error"].(map[string]any)
	assert.Equal(t, float64(rpcerr.Code(rpcerr.InternalError)), errObj["code"])
}

func TestSendNotification(t *testing.T) {
	d := rpcdispatch.New()
	out := d.SendNotification("qtmcp.signalEmitted", map[string]any{"subscriptionId": "sub_1"})
	var n map[string]any
	require.NoError(t, json.Unmarshal(out, &n))
	assert.Equal(t, "qtmcp.signalEmitted", n["method"])
	assert.Nil(t, n["id"])
}

func TestMeta_AddsExtraFields(t *testing.T) {
	d := rpcdispatch.New()
	d.RegisterMethod("qt.objects.find", func(json.RawMessage) (any, error) {
		return &rpcdispatch.Meta{Value: map[string]any{"found": true}, Extra: map[string]any{"objectId": "/Main/Button"}}, nil
	})
	out := d.HandleMessage([]byte(`{"jsonrpc":"2.0","id":1,"method":"qt.objects.find"}`))
	var resp map[string]any
	require.NoError(t, json.Unmarshal(out, &resp))
	result := resp["result"].(map[string]any)
	meta := result["meta"].(map[string]any)
	assert.Equal(t, "/Main/Button", meta["objectId"])
}
