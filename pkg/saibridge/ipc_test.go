package saibridge

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendEvent_DropsOldestOnOverflow(t *testing.T) {
	c := &Client{done: make(chan struct{})}

	filler := strings.Repeat("x", 2048)
	for i := 0; i < 200; i++ {
		require.NoError(t, c.SendEvent(Event{Type: "message", Text: filler}))
	}
	require.NoError(t, c.SendEvent(Event{Type: "message", Text: "LAST_EVENT_MARKER"}))

	assert.LessOrEqual(t, len(c.buf), outboundBufferCap)
	assert.True(t, bytes.Contains(c.buf, []byte("LAST_EVENT_MARKER")))
}

func TestClient_SendEvent_UnderCapKeepsEverything(t *testing.T) {
	c := &Client{done: make(chan struct{})}

	require.NoError(t, c.SendEvent(Event{Type: "message", Text: "first"}))
	require.NoError(t, c.SendEvent(Event{Type: "message", Text: "second"}))

	assert.True(t, bytes.Contains(c.buf, []byte("first")))
	assert.True(t, bytes.Contains(c.buf, []byte("second")))
}

func TestTrimNL(t *testing.T) {
	assert.Equal(t, []byte("hello"), trimNL([]byte("hello\n")))
	assert.Equal(t, []byte("hello"), trimNL([]byte("hello\r\n")))
	assert.Equal(t, []byte("hello"), trimNL([]byte("hello")))
}
