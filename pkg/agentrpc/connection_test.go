package agentrpc

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func TestConnection_Send_WireShape(t *testing.T) {
	var buf bytes.Buffer
	conn := NewConnection(strings.NewReader(""), &buf, nopCloser{}, nil)

	require.NoError(t, conn.SendResult(json.RawMessage(`"7"`), map[string]string{"ok": "yes"}))

	var env Envelope
	require.NoError(t, json.Unmarshal(bytes.TrimRight(buf.Bytes(), "\n"), &env))
	assert.Equal(t, json.RawMessage(`"7"`), env.ID)
	assert.JSONEq(t, `{"ok":"yes"}`, string(env.Result))
	assert.Nil(t, env.Error)
}

func TestConnection_SendError_WireShape(t *testing.T) {
	var buf bytes.Buffer
	conn := NewConnection(strings.NewReader(""), &buf, nopCloser{}, nil)

	require.NoError(t, conn.SendError(json.RawMessage(`"7"`), MethodNotFound, "no such method"))

	var env Envelope
	require.NoError(t, json.Unmarshal(bytes.TrimRight(buf.Bytes(), "\n"), &env))
	require.NotNil(t, env.Error)
	assert.Equal(t, MethodNotFound, env.Error.Code)
	assert.Equal(t, "no such method", env.Error.Message)
}

func TestConnection_SendNotification_HasNoID(t *testing.T) {
	var buf bytes.Buffer
	conn := NewConnection(strings.NewReader(""), &buf, nopCloser{}, nil)

	require.NoError(t, conn.SendNotification("channels/changed", map[string]string{"x": "y"}))

	var env Envelope
	require.NoError(t, json.Unmarshal(bytes.TrimRight(buf.Bytes(), "\n"), &env))
	assert.Equal(t, "channels/changed", env.Method)
	assert.Empty(t, env.ID)
}

func TestConnection_ReadPump_SkipsMalformedLines(t *testing.T) {
	input := "not json at all\n" + `{"jsonrpc":"2.0","method":"ping","id":"1"}` + "\n"
	conn := NewConnection(strings.NewReader(input), &bytes.Buffer{}, nopCloser{}, nil)

	env, ok := <-conn.Incoming()
	require.True(t, ok)
	assert.Equal(t, "ping", env.Method)

	_, ok = <-conn.Incoming()
	assert.False(t, ok)

	select {
	case <-conn.Done():
	default:
		t.Fatal("expected Done() to be closed once the reader hits EOF")
	}
}
