package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateScript_Local(t *testing.T) {
	cfg := Config{
		Map: "Comet Catcher Redux", Game: "Zero-K v1.12.1.0",
		SocketPath: "/tmp/game-manager.sock", AgentAI: "AgentBridge", AgentTeam: 0,
		OpponentAI: "CircuitAINovice", OpponentTeam: 1,
	}
	script := generateScript(cfg)

	assert.True(t, strings.Contains(script, "Mapname=Comet Catcher Redux;"))
	assert.True(t, strings.Contains(script, "socket_path=/tmp/game-manager.sock;"))
	assert.True(t, strings.Contains(script, "[AI1]"))
	assert.True(t, strings.Contains(script, "IsHost=1;"))
}

func TestGenerateScript_LocalNoOpponent(t *testing.T) {
	cfg := Config{Map: "m", Game: "g", SocketPath: "/tmp/x.sock", AgentAI: "AgentBridge"}
	script := generateScript(cfg)
	assert.False(t, strings.Contains(script, "[AI1]"))
}

func TestGenerateScript_Multiplayer(t *testing.T) {
	cfg := Config{Multiplayer: &MultiplayerConfig{HostIP: "1.2.3.4", HostPort: 8452, PlayerName: "agent", ScriptPassword: "pw"}}
	script := generateScript(cfg)

	assert.True(t, strings.Contains(script, "HostIP=1.2.3.4;"))
	assert.True(t, strings.Contains(script, "IsHost=0;"))
}
