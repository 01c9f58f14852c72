package engine

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocChannelID(t *testing.T) {
	m := NewManager("", "", "", nil)

	assert.Equal(t, "game:local-1", m.allocChannelID("local"))
	assert.Equal(t, "game:local-2", m.allocChannelID("local"))
	assert.Equal(t, "game:mp-1", m.allocChannelID("mp"))
	assert.Equal(t, "game:local-3", m.allocChannelID("local"))
}

func TestStopGame_DoubleStopIsNoop(t *testing.T) {
	dir := t.TempDir()
	m := NewManager("", dir, dir, nil)

	sockPath := dir + "/game_local-1.sock"
	require.NoError(t, os.WriteFile(sockPath, []byte{}, 0o644))

	inst := &Instance{ChannelID: "game:local-1", Config: Config{SocketPath: sockPath}, exited: make(chan struct{})}
	m.instances["game:local-1"] = inst

	assert.NotPanics(t, func() {
		m.StopGame("game:local-1")
		m.StopGame("game:local-1")
	})
	assert.Empty(t, m.Instances())
}

func TestInstances_Snapshot(t *testing.T) {
	m := NewManager("", "", "", nil)
	m.instances["a"] = &Instance{ChannelID: "a", Status: StatusRunning}
	m.instances["b"] = &Instance{ChannelID: "b", Status: StatusStarting}

	snapshot := m.Instances()
	assert.Len(t, snapshot, 2)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "starting", StatusStarting.String())
	assert.Equal(t, "running", StatusRunning.String())
	assert.Equal(t, "stopped", StatusStopped.String())
	assert.Equal(t, "crashed", StatusCrashed.String())
}
