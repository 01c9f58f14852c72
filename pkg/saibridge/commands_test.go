package saibridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand_RoundTrip(t *testing.T) {
	line := []byte(`{"type":"move","unit_id":7,"x":1.5,"y":0,"z":-2.5,"queue":true}`)
	cmd, err := ParseCommand(line)
	require.NoError(t, err)

	assert.Equal(t, "move", cmd.Type)
	assert.EqualValues(t, 7, cmd.UnitID)
	assert.Equal(t, float32(1.5), cmd.X)
	assert.Equal(t, float32(-2.5), cmd.Z)
	assert.True(t, cmd.Queue)
}

func TestParseCommand_MalformedJSON(t *testing.T) {
	_, err := ParseCommand([]byte(`not json`))
	assert.Error(t, err)
}

func TestDispatch_UnknownTypeErrorsBeforeTouchingCallbacks(t *testing.T) {
	var cb Callbacks
	err := Dispatch(cb, Command{Type: "nonexistent"})
	assert.Error(t, err)
}
