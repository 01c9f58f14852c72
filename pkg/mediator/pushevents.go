package mediator

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zkat/gamemanager/pkg/agentrpc"
	"github.com/zkat/gamemanager/pkg/lobby"
)

// suppressedPushKinds are lobby events translated into State but never
// forwarded to the agent as pushEvent notifications — high-frequency or
// internal-only. ConnectSpring is parsed but not acted on: nothing bridges
// it to ES.StartMultiplayerGame (see the ConnectSpring open question in
// DESIGN.md).
var suppressedPushKinds = map[lobby.EventKind]bool{
	lobby.EventUserJoined:        true,
	lobby.EventUserLeft:          true,
	lobby.EventBattleUpdated:     true,
	lobby.EventChannelUserJoined: true,
	lobby.EventChannelUserLeft:   true,
	lobby.EventConnectSpring:     true,
}

// pushLobbyEvent forwards ev to the agent as a pushEvent request, unless
// its kind is suppressed.
func (md *Mediator) pushLobbyEvent(ev lobby.Event) {
	if suppressedPushKinds[ev.Kind] {
		return
	}

	name, payload := lobbyEventPayload(ev)
	if name == "" {
		return
	}

	params := agentrpc.PushEventParams{
		FeatureSet: "lobby",
		EventID:    uuid.NewString(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Payload:    payload,
	}

	id, _ := json.Marshal(params.EventID)
	if err := md.agent.SendRequest(id, "pushEvent", struct {
		Type string `json:"type"`
		agentrpc.PushEventParams
	}{Type: "lobby." + name, PushEventParams: params}); err != nil && md.logger != nil {
		md.logger.Warn("failed to push lobby event", zap.String("kind", name), zap.Error(err))
	}

	if md.metrics != nil {
		md.metrics.PushEventsTotal.Inc()
	}
}

// lobbyEventPayload maps an Event's populated field(s) onto a plain
// payload map, keyed by the same name MED tags the pushEvent "type" with.
func lobbyEventPayload(ev lobby.Event) (string, map[string]interface{}) {
	switch ev.Kind {
	case lobby.EventConnected:
		return "connected", map[string]interface{}{"engine": ev.Engine, "game": ev.Game}

	case lobby.EventDisconnected:
		return "disconnected", map[string]interface{}{"reason": ev.DisconnectReason}

	case lobby.EventLoggedIn:
		return "logged_in", map[string]interface{}{"username": ev.Username}

	case lobby.EventLoginFailed:
		return "login_failed", map[string]interface{}{"code": ev.LoginCode, "message": ev.LoginMsg}

	case lobby.EventRegisterSuccess:
		return "register_success", map[string]interface{}{}

	case lobby.EventRegisterFailed:
		return "register_failed", map[string]interface{}{"code": ev.RegisterCode, "reason": ev.RegisterReason}

	case lobby.EventChatMessage:
		return "chat_message", map[string]interface{}{
			"user": ev.ChatUser, "text": ev.ChatText, "target": ev.ChatTarget,
			"place": ev.ChatPlace, "is_emote": ev.ChatIsEmote, "time": ev.ChatTime,
		}

	case lobby.EventBattleOpened:
		return "battle_opened", map[string]interface{}{"battle": ev.Battle}

	case lobby.EventBattleClosed:
		return "battle_closed", map[string]interface{}{"battle_id": ev.ClosedBattleID}

	case lobby.EventChannelJoined:
		return "channel_joined", map[string]interface{}{"channel": ev.JoinedChannel, "users": ev.JoinedUsers, "topic": ev.JoinedTopic}

	case lobby.EventMatchMakerSetup:
		return "matchmaker_setup", map[string]interface{}{"queues": ev.MatchMakerQueues}

	case lobby.EventMatchMakerStatus:
		return "matchmaker_status", map[string]interface{}{"status": ev.MatchMakerStatus}

	case lobby.EventAreYouReady:
		return "are_you_ready", map[string]interface{}{"data": ev.AreYouReady}

	case lobby.EventAreYouReadyUpdate:
		return "are_you_ready_update", map[string]interface{}{"data": ev.AreYouReadyUpd}

	case lobby.EventAreYouReadyResult:
		return "are_you_ready_result", map[string]interface{}{"data": ev.AreYouReadyRes}

	default:
		return "", nil
	}
}
