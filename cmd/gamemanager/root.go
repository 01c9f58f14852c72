package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zkat/gamemanager/pkg/agentrpc"
	"github.com/zkat/gamemanager/pkg/config"
	"github.com/zkat/gamemanager/pkg/engine"
	"github.com/zkat/gamemanager/pkg/mediator"
	"github.com/zkat/gamemanager/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

var v = viper.New()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gamemanager",
		Short: "Mediates between an agent, a lobby server, and engine instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMain()
		},
	}

	flags := cmd.PersistentFlags()
	flags.Bool("debug", false, "enable debug logging")
	flags.Bool("stdio", false, "use stdio for the agent RPC transport instead of a TCP listener")
	flags.Int("mcpl-port", 9800, "TCP port for the agent RPC listener when --stdio is not set")
	flags.String("engine-path", "/usr/local/bin", "directory containing the spring/spring-headless binaries")
	flags.String("socket-dir", "/tmp", "directory for per-channel engine IPC sockets")
	flags.String("write-dir", "/tmp/game-manager-write", "base write-dir passed to spawned engine instances")
	flags.String("http-addr", ":8089", "address the health/metrics HTTP server listens on")

	_ = v.BindPFlags(flags)

	return cmd
}

// run executes the CLI and returns the process exit code, matching the
// teacher's pattern of a pure main() that only translates the result to
// os.Exit.
func run() int {
	if err := newRootCmd().Execute(); err != nil {
		return 1
	}
	return 0
}

func initLogger(debug bool) *zap.Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger
}

func runMain() error {
	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	engines := engine.NewManager(cfg.EnginePath, cfg.WriteDir, cfg.SocketDir, logger)

	go serveHTTP(cfg.HTTPAddr, registry, logger)

	agentConn, closer, err := acceptAgentConnection(cfg, logger)
	if err != nil {
		logger.Error("failed to establish agent transport", zap.Error(err))
		return err
	}
	defer closer()

	leftover, err := agentrpc.AwaitInitialize(agentConn)
	if err != nil {
		logger.Error("agent handshake failed", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	med := mediator.New(agentConn, engines, logger, m)
	return med.Run(ctx, leftover)
}

// acceptAgentConnection opens the agent RPC transport per --stdio /
// --mcpl-port, returning a ready Connection and a cleanup func.
func acceptAgentConnection(cfg *config.Config, logger *zap.Logger) (*agentrpc.Connection, func(), error) {
	if cfg.Stdio {
		conn := agentrpc.NewConnection(os.Stdin, os.Stdout, io.NopCloser(os.Stdin), logger)
		return conn, func() {}, nil
	}

	addr := fmt.Sprintf(":%d", cfg.MCPLPort)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("binding agent listener on %s: %w", addr, err)
	}
	logger.Info("waiting for agent connection", zap.String("addr", addr))

	netConn, err := listener.Accept()
	if err != nil {
		listener.Close()
		return nil, nil, fmt.Errorf("accepting agent connection: %w", err)
	}

	conn := agentrpc.NewConnection(netConn, netConn, netConn, logger)
	return conn, func() { listener.Close() }, nil
}
