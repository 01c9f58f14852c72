package saibridge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_Marshal_OmitsAbsentFields(t *testing.T) {
	name := "armflash"
	ev := Event{Type: "unit_created", UnitID: 7, DefID: 3, TeamID: 0, UnitName: &name}

	raw, err := ev.marshal()
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &m))

	assert.Equal(t, "unit_created", m["type"])
	assert.Equal(t, "armflash", m["unit_name"])
	assert.NotContains(t, m, "attacker_name")
	assert.NotContains(t, m, "frame")
}

func TestNewEvent_SetsType(t *testing.T) {
	ev := newEvent("release")
	assert.Equal(t, "release", ev.Type)
	assert.Zero(t, ev.Reason)
}

func TestMarshalJSON_Helper(t *testing.T) {
	raw, err := marshalJSON(Event{Type: "message", Text: "hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"message","text":"hi"}`, string(raw))
}
