package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 9800, cfg.MCPLPort)
	assert.Equal(t, "/usr/local/bin", cfg.EnginePath)
	assert.Equal(t, "zero-k.info", cfg.LobbyHost)
	assert.Equal(t, 8200, cfg.LobbyPort)
	assert.Equal(t, ":8089", cfg.HTTPAddr)
	assert.Equal(t, 2*time.Second, cfg.TickInterval)
}

func TestLoad_NoOverridesKeepsDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, Default().EnginePath, cfg.EnginePath)
	assert.Equal(t, Default().MCPLPort, cfg.MCPLPort)
}

func TestLoad_EnvironmentOverridesDefault(t *testing.T) {
	t.Setenv("ENGINE_PATH", "/custom/engines")
	t.Setenv("SOCKET_DIR", "/custom/sockets")

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "/custom/engines", cfg.EnginePath)
	assert.Equal(t, "/custom/sockets", cfg.SocketDir)
}

func TestLoad_FlagOverridesDefault(t *testing.T) {
	v := viper.New()
	v.Set("engine-path", "/from/flag")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", cfg.EnginePath)
}
