package lobby

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	assert.Equal(t, "CY9rzUYh03PK3k6DJie09g==", HashPassword("test"))
}

func TestParseLine_RoundTrip(t *testing.T) {
	msg := ParseLine(`Say {"User":"bob","Text":"hi","Place":0}`)
	require.Equal(t, "Say", msg.Command)

	var back SayData
	require.NoError(t, json.Unmarshal(msg.Data, &back))
	assert.Equal(t, "bob", back.User)
	assert.Equal(t, "hi", back.Text)

	wire := msg.ToWire()
	again := ParseLine(wire)
	assert.Equal(t, msg.Command, again.Command)
	assert.JSONEq(t, string(msg.Data), string(again.Data))
}

func TestParseLine_BareCommand(t *testing.T) {
	msg := ParseLine("Ping\n")
	assert.Equal(t, "Ping", msg.Command)
	assert.JSONEq(t, "{}", string(msg.Data))
}

func TestParseLine_NonJSONTail(t *testing.T) {
	msg := ParseLine("SomeCommand not json at all\n")
	assert.Equal(t, "SomeCommand", msg.Command)

	var s string
	require.NoError(t, json.Unmarshal(msg.Data, &s))
	assert.Equal(t, "not json at all", s)
}

func TestParseLine_Empty(t *testing.T) {
	assert.Equal(t, Message{}, ParseLine(""))
}

func TestNewCommand(t *testing.T) {
	msg, err := NewCommand("JoinChannel", JoinChannelCommand{ChannelName: "main"})
	require.NoError(t, err)
	assert.Equal(t, "JoinChannel", msg.Command)
	assert.JSONEq(t, `{"ChannelName":"main"}`, string(msg.Data))
}
