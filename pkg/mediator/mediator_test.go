package mediator

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zkat/gamemanager/pkg/agentrpc"
	"github.com/zkat/gamemanager/pkg/engine"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newTestMediator wires a Mediator against an in-memory agent connection
// (no real stdio/TCP) and an engine.Manager that never spawns a process,
// so handlers touching neither the lobby nor StartGame are safe to drive
// directly.
func newTestMediator(t *testing.T) (*Mediator, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	agent := agentrpc.NewConnection(strings.NewReader(""), &out, nopCloser{}, nil)
	engines := engine.NewManager("", t.TempDir(), t.TempDir(), nil)
	return New(agent, engines, nil, nil), &out
}

func lastEnvelope(t *testing.T, out *bytes.Buffer) agentrpc.Envelope {
	t.Helper()
	lines := bytes.Split(bytes.TrimRight(out.Bytes(), "\n"), []byte("\n"))
	require.NotEmpty(t, lines)
	var env agentrpc.Envelope
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &env))
	return env
}

func TestHandleAgentEnvelope_UnknownMethod_RequestGetsMethodNotFound(t *testing.T) {
	md, out := newTestMediator(t)

	md.handleAgentEnvelope(agentrpc.Envelope{Method: "bogus/method", ID: json.RawMessage(`"1"`)})

	env := lastEnvelope(t, out)
	require.NotNil(t, env.Error)
	assert.Equal(t, agentrpc.MethodNotFound, env.Error.Code)
}

func TestHandleAgentEnvelope_UnknownNotification_NoReply(t *testing.T) {
	md, out := newTestMediator(t)

	md.handleAgentEnvelope(agentrpc.Envelope{Method: "bogus/notification"})

	assert.Empty(t, out.Bytes())
}

func TestHandleAgentEnvelope_BareResponse_Dropped(t *testing.T) {
	md, out := newTestMediator(t)

	md.handleAgentEnvelope(agentrpc.Envelope{ID: json.RawMessage(`"1"`), Result: json.RawMessage(`{}`)})

	assert.Empty(t, out.Bytes())
}

func TestDispatchTool_UnknownTool(t *testing.T) {
	md, _ := newTestMediator(t)
	result := md.dispatchTool("no_such_tool", map[string]interface{}{})
	assert.True(t, result.IsError)
}

func TestDispatchTool_MissingRequiredArgument(t *testing.T) {
	md, _ := newTestMediator(t)
	result := md.dispatchTool("lobby_matchmaker_status", map[string]interface{}{})
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "queue")
}

func TestDispatchTool_RequiresLobbyConnection(t *testing.T) {
	md, _ := newTestMediator(t)
	result := md.dispatchTool("lobby_login", map[string]interface{}{"name": "a", "password": "b"})
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "not connected")
}

func TestHandleStateRollback_AlwaysNotImplemented(t *testing.T) {
	md, out := newTestMediator(t)

	md.handleStateRollback(agentrpc.Envelope{ID: json.RawMessage(`"1"`), Params: json.RawMessage(`{"checkpoint":"abc"}`)})

	env := lastEnvelope(t, out)
	var result agentrpc.RollbackResult
	require.NoError(t, json.Unmarshal(env.Result, &result))
	assert.False(t, result.Success)
	assert.Equal(t, "abc", result.Checkpoint)
	assert.Equal(t, "not implemented", result.Reason)
}

func TestHandleChannelsList_EmptyManager(t *testing.T) {
	md, out := newTestMediator(t)

	md.handleChannelsList(agentrpc.Envelope{ID: json.RawMessage(`"1"`)})

	env := lastEnvelope(t, out)
	var result struct {
		Channels []agentrpc.ChannelDescriptor `json:"channels"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &result))
	assert.Empty(t, result.Channels)
}

func TestHandleChannelsPublish_RejectsMissingTypeField(t *testing.T) {
	md, out := newTestMediator(t)

	md.handleChannelsPublish(agentrpc.Envelope{
		ID: json.RawMessage(`"1"`),
		Params: json.RawMessage(`{"channelId":"game:local-1","content":[{"type":"text","text":"{\"unit_id\":1}"}]}`),
	})

	env := lastEnvelope(t, out)
	var result struct {
		Delivered bool   `json:"delivered"`
		Error     string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &result))
	assert.False(t, result.Delivered)
	assert.NotEmpty(t, result.Error)
}

func TestHandleChannelsPublish_RejectsMissingChannelID(t *testing.T) {
	md, out := newTestMediator(t)

	md.handleChannelsPublish(agentrpc.Envelope{
		ID:     json.RawMessage(`"1"`),
		Params: json.RawMessage(`{"content":[{"type":"text","text":"{\"type\":\"stop\"}"}]}`),
	})

	env := lastEnvelope(t, out)
	var result struct {
		Delivered bool `json:"delivered"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &result))
	assert.False(t, result.Delivered)
}
