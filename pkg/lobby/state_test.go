package lobby

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(t *testing.T, command string, data interface{}) Message {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return Message{Command: command, Data: raw}
}

func TestState_Handle_Welcome(t *testing.T) {
	s := NewState()
	events := s.Handle(nil, msg(t, "Welcome", WelcomeData{Engine: "105", Game: "Zero-K", UserCount: 12}))

	require.Len(t, events, 1)
	assert.Equal(t, EventConnected, events[0].Kind)
	assert.True(t, s.Connected)
	assert.Equal(t, "Zero-K", s.ServerGame)
}

func TestState_Handle_UserJoinOnlyOnce(t *testing.T) {
	s := NewState()
	u := UserData{AccountID: 1, Name: "bob"}

	events := s.Handle(nil, msg(t, "User", u))
	require.Len(t, events, 1)
	assert.Equal(t, EventUserJoined, events[0].Kind)

	// a second User message for the same name upserts but does not re-emit UserJoined
	events = s.Handle(nil, msg(t, "User", u))
	assert.Len(t, events, 0)
}

func TestState_Handle_Deterministic(t *testing.T) {
	sequence := []Message{
		msg(t, "Welcome", WelcomeData{Engine: "105", Game: "Zero-K"}),
		msg(t, "User", UserData{AccountID: 1, Name: "bob"}),
		msg(t, "Say", SayData{User: "bob", Text: "hi", Place: 0}),
		msg(t, "UserDisconnected", UserDisconnectedData{Name: "bob", Reason: "quit"}),
	}

	run := func() []EventKind {
		s := NewState()
		var kinds []EventKind
		for _, m := range sequence {
			for _, ev := range s.Handle(nil, m) {
				kinds = append(kinds, ev.Kind)
			}
		}
		return kinds
	}

	first := run()
	second := run()
	assert.Equal(t, first, second)
	assert.Equal(t, []EventKind{EventConnected, EventUserJoined, EventChatMessage, EventUserLeft}, first)
}

func TestState_Handle_ChannelUserIdempotent(t *testing.T) {
	s := NewState()
	s.Handle(nil, msg(t, "JoinChannelResponse", JoinChannelResponseData{Success: true, ChannelName: "main"}))

	s.Handle(nil, msg(t, "ChannelUserAdded", ChannelUserAddedData{ChannelName: "main", UserName: "bob"}))
	s.Handle(nil, msg(t, "ChannelUserAdded", ChannelUserAddedData{ChannelName: "main", UserName: "bob"}))

	assert.Equal(t, []string{"bob"}, s.Channels["main"].Users)
}

func TestState_Reset(t *testing.T) {
	s := NewState()
	s.Handle(nil, msg(t, "Welcome", WelcomeData{Engine: "105", Game: "Zero-K"}))
	require.True(t, s.Connected)

	s.Reset()

	assert.Equal(t, NewState(), s)
}
