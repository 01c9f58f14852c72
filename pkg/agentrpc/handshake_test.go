package agentrpc

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwaitInitialize_ConsumesInitializedNotification(t *testing.T) {
	server, agent := net.Pipe()
	defer server.Close()
	defer agent.Close()

	gm := NewConnection(server, server, server, nil)

	type outcome struct {
		leftover *Envelope
		err      error
	}
	resultCh := make(chan outcome, 1)
	go func() {
		leftover, err := AwaitInitialize(gm)
		resultCh <- outcome{leftover, err}
	}()

	go func() {
		agent.Write([]byte(`{"jsonrpc":"2.0","id":"1","method":"initialize","params":{}}` + "\n"))
	}()

	reader := bufio.NewReader(agent)
	replyLine, err := reader.ReadBytes('\n')
	require.NoError(t, err)
	var reply Envelope
	require.NoError(t, json.Unmarshal(replyLine, &reply))
	assert.Equal(t, json.RawMessage(`"1"`), reply.ID)
	assert.NotEmpty(t, reply.Result)

	go func() {
		agent.Write([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n"))
	}()

	select {
	case res := <-resultCh:
		require.NoError(t, res.err)
		assert.Nil(t, res.leftover)
	case <-time.After(2 * time.Second):
		t.Fatal("AwaitInitialize did not return")
	}
}

func TestAwaitInitialize_ReturnsLeftoverEnvelope(t *testing.T) {
	server, agent := net.Pipe()
	defer server.Close()
	defer agent.Close()

	gm := NewConnection(server, server, server, nil)

	type outcome struct {
		leftover *Envelope
		err      error
	}
	resultCh := make(chan outcome, 1)
	go func() {
		leftover, err := AwaitInitialize(gm)
		resultCh <- outcome{leftover, err}
	}()

	go func() {
		agent.Write([]byte(`{"jsonrpc":"2.0","id":"1","method":"initialize","params":{}}` + "\n"))
	}()

	reader := bufio.NewReader(agent)
	_, err := reader.ReadBytes('\n')
	require.NoError(t, err)

	go func() {
		agent.Write([]byte(`{"jsonrpc":"2.0","id":"2","method":"tools/list","params":{}}` + "\n"))
	}()

	select {
	case res := <-resultCh:
		require.NoError(t, res.err)
		require.NotNil(t, res.leftover)
		assert.Equal(t, "tools/list", res.leftover.Method)
	case <-time.After(2 * time.Second):
		t.Fatal("AwaitInitialize did not return")
	}
}
