package engine

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

// IPCEvent is one parsed line read off a channel's IPC connection, handed
// up to the mediator for channels/incoming forwarding.
type IPCEvent struct {
	ChannelID string
	Line      []byte
}

// StatusChange is emitted by Tick when an instance transitions state —
// MED turns these into channels/changed notifications.
type StatusChange struct {
	ChannelID string
	Instance  Instance
	Removed   bool
}

// Manager owns the set of tracked engine instances and their IPC listeners.
// The maps and counters are mutex-protected. Accepts happen inside Tick, not
// on goroutines; the per-connection readLoop goroutines only feed ipcEvents
// and the per-child wait goroutines only record the exit. All status
// transitions are applied only from Tick, which MED calls from its single
// loop iteration (spec.md §5).
type Manager struct {
	mu        sync.Mutex
	instances map[string]*Instance
	nextLocal uint32
	nextMP    uint32

	engineDir string
	writeDir  string
	socketDir string

	listeners   map[string]net.Listener
	connections map[string]net.Conn
	ipcEvents   chan IPCEvent

	logger *zap.Logger
}

// NewManager constructs a Manager rooted at the given engine/write/socket
// directories.
func NewManager(engineDir, writeDir, socketDir string, logger *zap.Logger) *Manager {
	return &Manager{
		instances:   make(map[string]*Instance),
		listeners:   make(map[string]net.Listener),
		connections: make(map[string]net.Conn),
		ipcEvents:   make(chan IPCEvent, 256),
		engineDir:   engineDir,
		writeDir:    writeDir,
		socketDir:   socketDir,
		logger:      logger,
	}
}

// allocChannelID returns the next ChannelId for the given kind ("local" or
// "mp"), formatted "game:<kind>-<n>" with a monotonic per-kind counter.
func (m *Manager) allocChannelID(kind string) string {
	switch kind {
	case "mp":
		m.nextMP++
		return fmt.Sprintf("game:mp-%d", m.nextMP)
	default:
		m.nextLocal++
		return fmt.Sprintf("game:local-%d", m.nextLocal)
	}
}

func (m *Manager) socketPath(channelID string) string {
	safe := filepath.Base(channelID)
	return filepath.Join(m.socketDir, safe+".sock")
}

// StartLocalGame spawns a local skirmish: GM as host, the agent's AI on one
// team, an optional opponent AI on the other.
func (m *Manager) StartLocalGame(mapName, game, agentAI, opponentAI string) (string, error) {
	cfg := Config{
		Map: mapName, Game: game, EngineDir: m.engineDir, WriteDir: m.writeDir,
		Headless: true, AgentAI: agentAI, AgentTeam: 0,
		OpponentAI: opponentAI, OpponentTeam: 1,
	}
	return m.start("local", cfg)
}

// StartMultiplayerGame spawns a client connecting to an existing host — the
// path ConnectSpring is designed, per spec.md §9, to eventually drive.
func (m *Manager) StartMultiplayerGame(mp MultiplayerConfig) (string, error) {
	cfg := Config{
		EngineDir: m.engineDir, WriteDir: m.writeDir, Headless: true,
		Multiplayer: &mp,
	}
	return m.start("mp", cfg)
}

// StartGame is the generic dispatcher the agent-facing channels/open tool
// uses: it always launches a local skirmish because the tool surface never
// supplies multiplayer host parameters (see SPEC_FULL.md supplement #4).
func (m *Manager) StartGame(mapName, game string) (string, error) {
	return m.StartLocalGame(mapName, game, "AgentBridge", "CircuitAINovice")
}

func (m *Manager) start(kind string, cfg Config) (string, error) {
	m.mu.Lock()
	channelID := m.allocChannelID(kind)
	cfg.SocketPath = m.socketPath(channelID)
	m.mu.Unlock()

	listener, err := m.listenFor(channelID, cfg.SocketPath)
	if err != nil {
		return "", pkgerrors.Wrapf(err, "creating IPC listener for %s", channelID)
	}

	scriptPath, err := m.writeScript(channelID, cfg)
	if err != nil {
		listener.Close()
		delete(m.listeners, channelID)
		return "", pkgerrors.Wrapf(err, "writing launch script for %s", channelID)
	}

	binary, err := resolveEngineBinary(cfg.EngineDir, cfg.Headless)
	if err != nil {
		return "", err
	}

	cmd := exec.Command(binary, "--write-dir", cfg.WriteDir, scriptPath)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		m.mu.Lock()
		delete(m.listeners, channelID)
		m.mu.Unlock()
		listener.Close()
		return "", pkgerrors.Wrapf(err, "spawning engine binary for %s", channelID)
	}

	inst := &Instance{ChannelID: channelID, Config: cfg, Status: StatusStarting, cmd: cmd, exited: make(chan struct{})}
	go func() {
		inst.exitErr = cmd.Wait()
		close(inst.exited)
	}()

	m.mu.Lock()
	m.instances[channelID] = inst
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("engine instance starting", zap.String("channel_id", channelID), zap.String("binary", binary))
	}

	return channelID, nil
}

func (m *Manager) listenFor(channelID, socketPath string) (net.Listener, error) {
	_ = os.Remove(socketPath)
	l, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.listeners[channelID] = l
	m.mu.Unlock()
	return l, nil
}

func (m *Manager) writeScript(channelID string, cfg Config) (string, error) {
	tempDir := filepath.Join(cfg.WriteDir, "temp")
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", err
	}
	scriptPath := filepath.Join(tempDir, fmt.Sprintf("gm_script_%s.txt", filepath.Base(channelID)))
	body := generateScript(cfg)
	if err := os.WriteFile(scriptPath, []byte(body), 0o644); err != nil {
		return "", err
	}
	return scriptPath, nil
}

// StopGame closes the IPC, kills the child, and removes the instance.
// Double-stop of the same ChannelId is idempotent: a second call on an
// already-absent instance is a no-op (spec.md §8).
func (m *Manager) StopGame(channelID string) {
	m.mu.Lock()
	inst, ok := m.instances[channelID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.instances, channelID)
	conn := m.connections[channelID]
	delete(m.connections, channelID)
	listener := m.listeners[channelID]
	delete(m.listeners, channelID)
	m.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if listener != nil {
		listener.Close()
	}
	if inst.cmd != nil && inst.cmd.Process != nil {
		_ = inst.cmd.Process.Kill()
	}
	_ = os.Remove(inst.Config.SocketPath)
}

// Instances returns a snapshot of the current instance table, for
// channels/list.
func (m *Manager) Instances() []Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Instance, 0, len(m.instances))
	for _, inst := range m.instances {
		out = append(out, *inst)
	}
	return out
}

// Connected reports whether channelID currently has an accepted IPC
// connection.
func (m *Manager) Connected(channelID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.connections[channelID]
	return ok
}

// Tick runs one supervisor cycle: accept_pending, check_all, drain — fired
// by MED every TickInterval (spec.md §4.3).
func (m *Manager) Tick() []StatusChange {
	var changes []StatusChange
	changes = append(changes, m.acceptPending()...)
	changes = append(changes, m.checkAll()...)
	m.drain()
	return changes
}

func (m *Manager) acceptPending() []StatusChange {
	var changes []StatusChange

	m.mu.Lock()
	pending := make(map[string]net.Listener)
	for id, l := range m.listeners {
		if _, connected := m.connections[id]; !connected {
			pending[id] = l
		}
	}
	m.mu.Unlock()

	for id, l := range pending {
		ul, ok := l.(*net.UnixListener)
		if !ok {
			continue
		}
		if err := ul.SetDeadline(time.Now().Add(time.Millisecond)); err != nil {
			continue
		}
		conn, err := ul.Accept()
		if err != nil {
			continue
		}

		m.mu.Lock()
		m.connections[id] = conn
		if inst, ok := m.instances[id]; ok {
			inst.Status = StatusRunning
			changes = append(changes, StatusChange{ChannelID: id, Instance: *inst})
		}
		m.mu.Unlock()

		go m.readLoop(id, conn)

		if m.logger != nil {
			m.logger.Info("engine instance connected", zap.String("channel_id", id))
		}
	}

	return changes
}

func (m *Manager) readLoop(channelID string, conn net.Conn) {
	buf := make([]byte, 0, 4096)
	reader := newLineReader(conn)
	for {
		line, err := reader.ReadLine()
		if err != nil {
			return
		}
		if len(line) == 0 {
			continue
		}
		cp := append(buf[:0:0], line...)
		select {
		case m.ipcEvents <- IPCEvent{ChannelID: channelID, Line: cp}:
		default:
			if m.logger != nil {
				m.logger.Warn("ipc event channel full, dropping event", zap.String("channel_id", channelID))
			}
		}
	}
}

func (m *Manager) checkAll() []StatusChange {
	var changes []StatusChange

	m.mu.Lock()
	toCheck := make([]*Instance, 0, len(m.instances))
	for _, inst := range m.instances {
		if inst.cmd != nil {
			toCheck = append(toCheck, inst)
		}
	}
	m.mu.Unlock()

	for _, inst := range toCheck {
		var exited bool
		var exitErr error
		select {
		case <-inst.exited:
			exited = true
			exitErr = inst.exitErr
		default:
		}
		if !exited {
			continue
		}

		m.mu.Lock()
		if exitErr == nil {
			inst.Status = StatusStopped
		} else {
			inst.Status = StatusCrashed
			inst.CrashReason = exitErr.Error()
		}
		conn := m.connections[inst.ChannelID]
		delete(m.connections, inst.ChannelID)
		delete(m.instances, inst.ChannelID)
		listener := m.listeners[inst.ChannelID]
		delete(m.listeners, inst.ChannelID)
		m.mu.Unlock()

		if conn != nil {
			conn.Close()
		}
		if listener != nil {
			listener.Close()
		}

		changes = append(changes, StatusChange{ChannelID: inst.ChannelID, Instance: *inst, Removed: true})

		if m.logger != nil {
			m.logger.Info("engine instance exited",
				zap.String("channel_id", inst.ChannelID),
				zap.String("status", inst.Status.String()))
		}
	}

	return changes
}

// drain is a no-op placeholder: readLoop goroutines already push parsed
// lines into m.ipcEvents continuously; DrainEvents below is what MED calls
// to collect them without blocking.
func (m *Manager) drain() {}

// DrainEvents returns every IPC event queued since the last call, without
// blocking — MED calls this once per tick (spec.md §4.3's "drain" step).
func (m *Manager) DrainEvents() []IPCEvent {
	var out []IPCEvent
	for {
		select {
		case ev := <-m.ipcEvents:
			out = append(out, ev)
		default:
			return out
		}
	}
}

// SendCommand writes one JSON command line to channelID's IPC connection.
// A short write deadline keeps one stalled channel from blocking MED's
// cooperative loop indefinitely; that is a different concern from the
// plugin's own outbound policy (see pkg/saibridge/ipc.go), since here GM is
// the writer and the engine-side poll loop the (fast, trusted) reader.
func (m *Manager) SendCommand(channelID string, data []byte) error {
	m.mu.Lock()
	conn, ok := m.connections[channelID]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("no connected engine for channel %s", channelID)
	}

	_ = conn.SetWriteDeadline(time.Now().Add(500 * time.Millisecond))
	defer conn.SetWriteDeadline(time.Time{})

	if _, err := conn.Write(append(append([]byte{}, data...), '\n')); err != nil {
		return pkgerrors.Wrapf(err, "writing command to channel %s", channelID)
	}
	return nil
}

// Shutdown stops every tracked instance, aggregating any errors.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.instances))
	for id := range m.instances {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var result *multierror.Error
	for _, id := range ids {
		func() {
			defer func() {
				if r := recover(); r != nil {
					result = multierror.Append(result, fmt.Errorf("stopping %s: %v", id, r))
				}
			}()
			m.StopGame(id)
		}()
	}
	return result.ErrorOrNil()
}
