package mediator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zkat/gamemanager/pkg/lobby"
)

func TestSuppressedPushKinds_HighFrequencyEventsAreSuppressed(t *testing.T) {
	suppressed := []lobby.EventKind{
		lobby.EventUserJoined, lobby.EventUserLeft, lobby.EventBattleUpdated,
		lobby.EventChannelUserJoined, lobby.EventChannelUserLeft, lobby.EventConnectSpring,
	}
	for _, kind := range suppressed {
		assert.True(t, suppressedPushKinds[kind], "expected %v to be suppressed", kind)
	}

	assert.False(t, suppressedPushKinds[lobby.EventChatMessage])
	assert.False(t, suppressedPushKinds[lobby.EventConnected])
}

func TestLobbyEventPayload_ChatMessage(t *testing.T) {
	ev := lobby.Event{Kind: lobby.EventChatMessage, ChatUser: "bob", ChatText: "hi", ChatPlace: 0}
	name, payload := lobbyEventPayload(ev)

	assert.Equal(t, "chat_message", name)
	assert.Equal(t, "bob", payload["user"])
	assert.Equal(t, "hi", payload["text"])
}

func TestLobbyEventPayload_UnknownKindReturnsEmptyName(t *testing.T) {
	name, payload := lobbyEventPayload(lobby.Event{Kind: lobby.EventUserJoined})
	assert.Equal(t, "", name)
	assert.Nil(t, payload)
}

func TestPushLobbyEvent_SuppressedKindSendsNothing(t *testing.T) {
	md, out := newTestMediator(t)

	md.pushLobbyEvent(lobby.Event{Kind: lobby.EventUserJoined})

	assert.Empty(t, out.Bytes())
}

func TestPushLobbyEvent_ForwardsAsPushEventRequest(t *testing.T) {
	md, out := newTestMediator(t)

	md.pushLobbyEvent(lobby.Event{Kind: lobby.EventConnected, Engine: "105", Game: "Zero-K"})

	env := lastEnvelope(t, out)
	assert.Equal(t, "pushEvent", env.Method)
	assert.NotEmpty(t, env.ID)
}
