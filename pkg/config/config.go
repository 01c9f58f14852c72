// Package config loads GameManager's runtime configuration from flags,
// environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every knob GameManager needs at startup. Fields mirror
// the environment variables named in the external-interfaces section:
// ENGINE_PATH, SOCKET_DIR, MCPL_PORT, plus the --stdio transport switch.
type Config struct {
	Debug bool

	// Stdio selects the stdio agent transport instead of the TCP listener.
	Stdio bool

	// MCPLPort is the TCP port the agent RPC listener binds when Stdio is false.
	MCPLPort int

	// EnginePath is the directory containing the spring / spring-headless binaries.
	EnginePath string

	// SocketDir is the directory under which per-channel Unix IPC sockets are created.
	SocketDir string

	// WriteDir is the base directory engine instances are launched with --write-dir.
	WriteDir string

	// LobbyHost / LobbyPort hold a default lobby server address. Nothing reads
	// them: lobby_connect requires host and port in every call.
	LobbyHost string
	LobbyPort int

	// HTTPAddr is the address the health-check/metrics mux listens on.
	HTTPAddr string

	// TickInterval holds the engine-supervisor tick period. The mediator does
	// not read it; its loop ticks on its own fixed 2-second interval.
	TickInterval time.Duration
}

// Default returns the configuration's zero-value defaults, matching the
// literals named in spec.md §6.
func Default() *Config {
	return &Config{
		MCPLPort:     9800,
		EnginePath:   "/usr/local/bin",
		SocketDir:    "/tmp",
		WriteDir:     "/tmp/game-manager-write",
		LobbyHost:    "zero-k.info",
		LobbyPort:    8200,
		HTTPAddr:     ":8089",
		TickInterval: 2 * time.Second,
	}
}

// Load builds a Config from an optional .env file, environment variables,
// and the viper instance populated with CLI flags by the caller. v is
// expected to already have its flag set bound (see cmd/gamemanager/root.go).
func Load(v *viper.Viper) (*Config, error) {
	// Mirrors the teacher's godotenv.Load() call in cmd/server/main.go: a
	// missing .env file is not an error, a malformed one is.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v.SetEnvPrefix("")
	v.AutomaticEnv()

	cfg := Default()

	if v.IsSet("debug") {
		cfg.Debug = v.GetBool("debug")
	}
	if v.IsSet("stdio") {
		cfg.Stdio = v.GetBool("stdio")
	}
	if p := v.GetString("mcpl_port"); p != "" {
		if _, err := fmt.Sscanf(p, "%d", &cfg.MCPLPort); err != nil {
			return nil, fmt.Errorf("parsing MCPL_PORT: %w", err)
		}
	} else if v.IsSet("mcpl-port") {
		cfg.MCPLPort = v.GetInt("mcpl-port")
	}
	if p := v.GetString("engine_path"); p != "" {
		cfg.EnginePath = p
	} else if v.IsSet("engine-path") {
		cfg.EnginePath = v.GetString("engine-path")
	}
	if p := v.GetString("socket_dir"); p != "" {
		cfg.SocketDir = p
	} else if v.IsSet("socket-dir") {
		cfg.SocketDir = v.GetString("socket-dir")
	}
	if p := v.GetString("write_dir"); p != "" {
		cfg.WriteDir = p
	} else if v.IsSet("write-dir") {
		cfg.WriteDir = v.GetString("write-dir")
	}
	if p := v.GetString("http_addr"); p != "" {
		cfg.HTTPAddr = p
	} else if v.IsSet("http-addr") {
		cfg.HTTPAddr = v.GetString("http-addr")
	}

	return cfg, nil
}
