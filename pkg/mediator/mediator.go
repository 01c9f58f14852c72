// Package mediator implements the single-threaded cooperative event loop
// that ties the agent RPC connection, the lobby client, and the engine
// supervisor together: translating agent tool calls into lobby/engine
// actions and translating lobby/engine events into agent notifications.
// The loop shape is grounded in the teacher's Hub.Run select loop
// (pkg/server/hub.go in the original layout) — register/unregister/inbound
// channels collapsed here into agent-inbound/lobby-inbound/tick, since this
// mediator serves exactly one agent connection instead of a connection set.
package mediator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zkat/gamemanager/pkg/agentrpc"
	"github.com/zkat/gamemanager/pkg/engine"
	"github.com/zkat/gamemanager/pkg/lobby"
	"github.com/zkat/gamemanager/pkg/metrics"
)

const tickInterval = 2 * time.Second

// Mediator owns every piece of state MED is allowed to mutate: the lobby
// session, its observed state, and the engine instance table. Nothing here
// is touched from any goroutine other than the one running Run — the lobby
// and agent read pumps only ever hand finished messages across channels.
type Mediator struct {
	agent *agentrpc.Connection
	logger *zap.Logger
	metrics *metrics.Metrics

	engines *engine.Manager

	lobbyClient *lobby.Client
	lobbyState  *lobby.State
	lobbyMsgs   chan lobby.Message
	lobbyDone   chan struct{}

	lobbyHost string
	lobbyPort int

	matchmakerStatus map[string]lobby.MatchMakerStatusData
}

// New constructs a Mediator. The lobby connection itself is established
// lazily via the lobby_connect tool, matching the agent-driven handshake
// order spec'd for the RPC surface.
func New(agent *agentrpc.Connection, engines *engine.Manager, logger *zap.Logger, m *metrics.Metrics) *Mediator {
	return &Mediator{
		agent:            agent,
		logger:           logger,
		metrics:          m,
		engines:          engines,
		lobbyState:       lobby.NewState(),
		matchmakerStatus: make(map[string]lobby.MatchMakerStatusData),
	}
}

// Run drives the loop until the agent transport closes or ctx is done. If
// leftover is non-nil it is processed as the first iteration's input — the
// handshake may have already read one envelope past "initialize" looking
// for "notifications/initialized" and found something else instead.
func (md *Mediator) Run(ctx context.Context, leftover *agentrpc.Envelope) error {
	if leftover != nil {
		md.handleAgentEnvelope(*leftover)
	}

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			md.shutdown()
			return nil

		case env, ok := <-md.agent.Incoming():
			if !ok {
				md.shutdown()
				return nil
			}
			md.handleAgentEnvelope(env)

		case msg, ok := <-md.lobbyMsgsOrNil():
			if !ok {
				md.handleLobbyDisconnect("connection closed")
				continue
			}
			md.handleLobbyMessage(msg)

		case <-ticker.C:
			md.handleTick()
		}
	}
}

// lobbyMsgsOrNil returns nil (a channel select never fires on) when no
// lobby connection is active, so the select above simply skips that case
// instead of busy-looping on a closed/unset channel.
func (md *Mediator) lobbyMsgsOrNil() chan lobby.Message {
	return md.lobbyMsgs
}

func (md *Mediator) handleAgentEnvelope(env agentrpc.Envelope) {
	switch env.Method {
	case "tools/list":
		_ = md.agent.SendResult(env.ID, map[string]interface{}{"tools": toolCatalogue()})

	case "tools/call":
		md.handleToolsCall(env)

	case "channels/open":
		md.handleChannelsOpen(env)

	case "channels/close":
		md.handleChannelsClose(env)

	case "channels/list":
		md.handleChannelsList(env)

	case "channels/publish":
		md.handleChannelsPublish(env)

	case "state/rollback":
		md.handleStateRollback(env)

	case "":
		// a bare response to a GM-originated request (channels/incoming,
		// pushEvent) — nothing to correlate it against, so it is dropped.

	default:
		if env.IsRequest() {
			_ = md.agent.SendError(env.ID, agentrpc.MethodNotFound, "unknown method: "+env.Method)
		} else if md.logger != nil {
			md.logger.Debug("unhandled agent notification", zap.String("method", env.Method))
		}
	}
}

func (md *Mediator) handleTick() {
	changes := md.engines.Tick()
	if len(changes) > 0 {
		md.emitChannelsChanged(changes)
	}

	for _, ev := range md.engines.DrainEvents() {
		md.forwardIPCEvent(ev)
	}
}

func (md *Mediator) forwardIPCEvent(ev engine.IPCEvent) {
	if md.metrics != nil {
		md.metrics.IPCEventsTotal.Inc()
	}
	params := agentrpc.ChannelsIncomingParams{
		ChannelID: ev.ChannelID,
		Content:   []agentrpc.ToolContent{{Type: "text", Text: string(ev.Line)}},
	}
	id, _ := json.Marshal(uuid.NewString())
	if err := md.agent.SendRequest(id, "channels/incoming", params); err != nil && md.logger != nil {
		md.logger.Warn("failed to forward channel event", zap.String("channel_id", ev.ChannelID), zap.Error(err))
	}
}

func (md *Mediator) emitChannelsChanged(changes []engine.StatusChange) {
	var added, updated []agentrpc.ChannelDescriptor
	var removed []string

	for _, c := range changes {
		if c.Removed {
			removed = append(removed, c.ChannelID)
			if md.metrics != nil {
				if c.Instance.Status.String() == "crashed" {
					md.metrics.EnginesCrashed.Inc()
				}
			}
			continue
		}
		updated = append(updated, descriptorFor(c.Instance))
	}

	if md.metrics != nil {
		md.metrics.ChannelsOpen.Set(float64(len(md.engines.Instances())))
	}

	if len(added) == 0 && len(updated) == 0 && len(removed) == 0 {
		return
	}
	_ = md.agent.SendNotification("channels/changed", agentrpc.ChannelsChangedParams{
		Added: added, Updated: updated, Removed: removed,
	})
}

// announceChannelAdded sends a channels/changed{added:[...]} notification
// for a freshly started channel — spec requires this precede the first
// channels/incoming for that ChannelId, which the tick loop only ever
// reaches after this tool call returns.
func (md *Mediator) announceChannelAdded(channelID string) {
	for _, inst := range md.engines.Instances() {
		if inst.ChannelID != channelID {
			continue
		}
		if md.metrics != nil {
			md.metrics.ChannelsOpen.Set(float64(len(md.engines.Instances())))
		}
		_ = md.agent.SendNotification("channels/changed", agentrpc.ChannelsChangedParams{
			Added: []agentrpc.ChannelDescriptor{descriptorFor(inst)},
		})
		return
	}
}

func descriptorFor(inst engine.Instance) agentrpc.ChannelDescriptor {
	return agentrpc.ChannelDescriptor{
		ID:        inst.ChannelID,
		Type:      "engine",
		Label:     inst.Config.Map + " / " + inst.Config.Game,
		Direction: "bidirectional",
		Metadata: map[string]interface{}{
			"map":    inst.Config.Map,
			"game":   inst.Config.Game,
			"status": inst.Status.String(),
		},
	}
}

// connectLobby dials the lobby server and starts its read pump, feeding
// md.lobbyMsgs. Safe to call only from the loop goroutine.
func (md *Mediator) connectLobby(ctx context.Context, host string, port int) error {
	client, err := lobby.Connect(ctx, host, port)
	if err != nil {
		return err
	}
	md.lobbyClient = client
	md.lobbyHost, md.lobbyPort = host, port
	md.lobbyMsgs = make(chan lobby.Message, 64)
	md.lobbyDone = make(chan struct{})

	go func() {
		defer close(md.lobbyMsgs)
		defer close(md.lobbyDone)
		for {
			msg, err := client.Recv()
			if err != nil {
				return
			}
			md.lobbyMsgs <- msg
		}
	}()

	if md.metrics != nil {
		md.metrics.LobbyConnected.Set(1)
	}
	return nil
}

func (md *Mediator) handleLobbyMessage(msg lobby.Message) {
	if msg.Command == "Ping" {
		if err := md.lobbyClient.SendPing(); err != nil && md.logger != nil {
			md.logger.Warn("failed to reply to lobby ping", zap.Error(err))
		}
		return
	}

	events := md.lobbyState.Handle(md.logger, msg)
	for _, ev := range events {
		if ev.Kind == lobby.EventMatchMakerStatus {
			md.matchmakerStatus[ev.MatchMakerStatus.Queue] = ev.MatchMakerStatus
		}
		md.pushLobbyEvent(ev)
	}
}

func (md *Mediator) handleLobbyDisconnect(reason string) {
	md.lobbyClient = nil
	md.lobbyMsgs = nil
	md.lobbyDone = nil
	md.lobbyState.Reset()
	if md.metrics != nil {
		md.metrics.LobbyConnected.Set(0)
	}
	md.pushLobbyEvent(lobby.Event{Kind: lobby.EventDisconnected, DisconnectReason: reason})
}

func (md *Mediator) shutdown() {
	if err := md.engines.Shutdown(); err != nil && md.logger != nil {
		md.logger.Warn("errors stopping engine instances during shutdown", zap.Error(err))
	}
	if md.lobbyClient != nil {
		_ = md.lobbyClient.Close()
	}
}
