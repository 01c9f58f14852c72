package mediator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zkat/gamemanager/pkg/agentrpc"
	"github.com/zkat/gamemanager/pkg/lobby"
)

// toolDef is one entry of the static catalogue returned by tools/list.
type toolDef struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func objSchema(props map[string]interface{}, required ...string) map[string]interface{} {
	s := map[string]interface{}{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func strProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

// toolCatalogue is the fixed list of tools the agent may call. Every name
// here has a matching case in dispatchTool — none fall through to the
// unknown-tool branch.
func toolCatalogue() []toolDef {
	return []toolDef{
		{"lobby_connect", "Connect to the lobby server.", objSchema(map[string]interface{}{
			"host": strProp("Lobby server hostname"),
			"port": map[string]interface{}{"type": "integer", "description": "Lobby server port"},
		}, "host", "port")},
		{"lobby_login", "Log in with an existing account.", objSchema(map[string]interface{}{
			"name":     strProp("Account name"),
			"password": strProp("Plaintext password, hashed before transmission"),
		}, "name", "password")},
		{"lobby_register", "Register a new account.", objSchema(map[string]interface{}{
			"name":     strProp("Account name"),
			"password": strProp("Plaintext password, hashed before transmission"),
		}, "name", "password")},
		{"lobby_disconnect", "Disconnect from the lobby server.", objSchema(map[string]interface{}{})},
		{"lobby_say", "Send a chat message.", objSchema(map[string]interface{}{
			"place":  map[string]interface{}{"type": "integer", "description": "0 channel, 1 battle, 2 battle-private, 3 msg-box, 4 user, 5 server"},
			"target": strProp("Target channel, user, or battle, depending on place"),
			"text":   strProp("Message text"),
		}, "place", "text")},
		{"lobby_join_channel", "Join a chat channel.", objSchema(map[string]interface{}{
			"channel":  strProp("Channel name"),
			"password": strProp("Channel password, if any"),
		}, "channel")},
		{"lobby_leave_channel", "Leave a chat channel.", objSchema(map[string]interface{}{
			"channel": strProp("Channel name"),
		}, "channel")},
		{"lobby_list_battles", "List currently known battles.", objSchema(map[string]interface{}{})},
		{"lobby_list_users", "List currently known users.", objSchema(map[string]interface{}{})},
		{"lobby_join_battle", "Join a battle room.", objSchema(map[string]interface{}{
			"battle_id": map[string]interface{}{"type": "integer", "description": "Battle id"},
			"password":  strProp("Battle password, if any"),
		}, "battle_id")},
		{"lobby_leave_battle", "Leave the current battle room.", objSchema(map[string]interface{}{})},
		{"lobby_matchmaker_join", "Queue for one or more matchmaker queues.", objSchema(map[string]interface{}{
			"queues": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		}, "queues")},
		{"lobby_matchmaker_leave", "Leave all matchmaker queues.", objSchema(map[string]interface{}{})},
		{"lobby_matchmaker_accept", "Respond to an are-you-ready prompt.", objSchema(map[string]interface{}{
			"ready": map[string]interface{}{"type": "boolean"},
		}, "ready")},
		{"lobby_matchmaker_status", "Report the last known status of a matchmaker queue.", objSchema(map[string]interface{}{
			"queue": strProp("Queue name"),
		}, "queue")},
		{"lobby_start_game", "Start a local skirmish engine instance.", objSchema(map[string]interface{}{
			"map":  strProp("Map name, e.g. \"Comet Catcher Redux\""),
			"game": strProp("Game/mod name, e.g. \"Zero-K v1.12.1.0\""),
		})},
	}
}

const (
	defaultMap  = "Comet Catcher Redux"
	defaultGame = "Zero-K v1.12.1.0"
)

func (md *Mediator) handleToolsCall(env agentrpc.Envelope) {
	var req struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(env.Params, &req); err != nil {
		_ = md.agent.SendResult(env.ID, agentrpc.ErrorResult("malformed tools/call params: "+err.Error()))
		return
	}

	var args map[string]interface{}
	if len(req.Arguments) > 0 {
		if err := json.Unmarshal(req.Arguments, &args); err != nil {
			_ = md.agent.SendResult(env.ID, agentrpc.ErrorResult("arguments must be a JSON object: "+err.Error()))
			return
		}
	}
	if args == nil {
		args = map[string]interface{}{}
	}

	if md.metrics != nil {
		md.metrics.ToolCallsTotal.WithLabelValues(req.Name).Inc()
	}

	result := md.dispatchTool(req.Name, args)
	_ = md.agent.SendResult(env.ID, result)
}

func stringArg(args map[string]interface{}, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func numberArg(args map[string]interface{}, key string) (float64, bool) {
	v, ok := args[key]
	if !ok {
		return 0, false
	}
	n, ok := v.(float64)
	return n, ok
}

func boolArg(args map[string]interface{}, key string) (bool, bool) {
	v, ok := args[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func missingArg(name string) agentrpc.ToolResult {
	return agentrpc.ErrorResult(fmt.Sprintf("missing required argument %q", name))
}

func (md *Mediator) dispatchTool(name string, args map[string]interface{}) agentrpc.ToolResult {
	switch name {
	case "lobby_connect":
		return md.toolLobbyConnect(args)
	case "lobby_login":
		return md.toolLobbyLogin(args)
	case "lobby_register":
		return md.toolLobbyRegister(args)
	case "lobby_disconnect":
		return md.toolLobbyDisconnect()
	case "lobby_say":
		return md.toolLobbySay(args)
	case "lobby_join_channel":
		return md.toolJoinChannel(args)
	case "lobby_leave_channel":
		return md.toolLeaveChannel(args)
	case "lobby_list_battles":
		return md.toolListBattles()
	case "lobby_list_users":
		return md.toolListUsers()
	case "lobby_join_battle":
		return md.toolJoinBattle(args)
	case "lobby_leave_battle":
		return md.toolLeaveBattle()
	case "lobby_matchmaker_join":
		return md.toolMatchmakerJoin(args)
	case "lobby_matchmaker_leave":
		return md.toolMatchmakerLeave()
	case "lobby_matchmaker_accept":
		return md.toolMatchmakerAccept(args)
	case "lobby_matchmaker_status":
		return md.toolMatchmakerStatus(args)
	case "lobby_start_game":
		return md.toolStartGame(args)
	default:
		return agentrpc.ErrorResult("unknown tool: " + name)
	}
}

func (md *Mediator) requireLobby() (*lobby.Client, agentrpc.ToolResult, bool) {
	if md.lobbyClient == nil {
		return nil, agentrpc.ErrorResult("not connected to lobby"), false
	}
	return md.lobbyClient, agentrpc.ToolResult{}, true
}

func (md *Mediator) toolLobbyConnect(args map[string]interface{}) agentrpc.ToolResult {
	host, ok := stringArg(args, "host")
	if !ok {
		return missingArg("host")
	}
	portF, ok := numberArg(args, "port")
	if !ok {
		return missingArg("port")
	}
	if md.lobbyClient != nil {
		return agentrpc.ErrorResult("already connected to lobby")
	}
	if err := md.connectLobby(context.Background(), host, int(portF)); err != nil {
		return agentrpc.ErrorResult("failed to connect: " + err.Error())
	}
	return agentrpc.TextResult(fmt.Sprintf("connected to %s:%d", host, int(portF)))
}

func (md *Mediator) toolLobbyLogin(args map[string]interface{}) agentrpc.ToolResult {
	client, errResult, ok := md.requireLobby()
	if !ok {
		return errResult
	}
	name, ok := stringArg(args, "name")
	if !ok {
		return missingArg("name")
	}
	password, ok := stringArg(args, "password")
	if !ok {
		return missingArg("password")
	}
	cmd := lobby.LoginCommand{Name: name, PasswordHash: lobby.HashPassword(password), LobbyVersion: "gamemanager 0.1"}
	if err := client.SendCommand("Login", cmd); err != nil {
		return agentrpc.ErrorResult("failed to send login: " + err.Error())
	}
	return agentrpc.TextResult("login request sent")
}

func (md *Mediator) toolLobbyRegister(args map[string]interface{}) agentrpc.ToolResult {
	client, errResult, ok := md.requireLobby()
	if !ok {
		return errResult
	}
	name, ok := stringArg(args, "name")
	if !ok {
		return missingArg("name")
	}
	password, ok := stringArg(args, "password")
	if !ok {
		return missingArg("password")
	}
	cmd := lobby.RegisterCommand{Name: name, PasswordHash: lobby.HashPassword(password)}
	if err := client.SendCommand("Register", cmd); err != nil {
		return agentrpc.ErrorResult("failed to send register: " + err.Error())
	}
	return agentrpc.TextResult("register request sent")
}

func (md *Mediator) toolLobbyDisconnect() agentrpc.ToolResult {
	if md.lobbyClient == nil {
		return agentrpc.ErrorResult("not connected to lobby")
	}
	_ = md.lobbyClient.Close()
	md.handleLobbyDisconnect("disconnected by agent")
	return agentrpc.TextResult("disconnected")
}

func (md *Mediator) toolLobbySay(args map[string]interface{}) agentrpc.ToolResult {
	client, errResult, ok := md.requireLobby()
	if !ok {
		return errResult
	}
	placeF, ok := numberArg(args, "place")
	if !ok {
		return missingArg("place")
	}
	text, ok := stringArg(args, "text")
	if !ok {
		return missingArg("text")
	}
	target, _ := stringArg(args, "target")
	cmd := lobby.SayCommand{Place: lobby.Place(int(placeF)), Target: target, Text: text}
	if err := client.SendCommand("Say", cmd); err != nil {
		return agentrpc.ErrorResult("failed to send chat message: " + err.Error())
	}
	return agentrpc.TextResult("message sent")
}

func (md *Mediator) toolJoinChannel(args map[string]interface{}) agentrpc.ToolResult {
	client, errResult, ok := md.requireLobby()
	if !ok {
		return errResult
	}
	channel, ok := stringArg(args, "channel")
	if !ok {
		return missingArg("channel")
	}
	password, _ := stringArg(args, "password")
	cmd := lobby.JoinChannelCommand{ChannelName: channel, Password: password}
	if err := client.SendCommand("JoinChannel", cmd); err != nil {
		return agentrpc.ErrorResult("failed to join channel: " + err.Error())
	}
	return agentrpc.TextResult("join channel request sent")
}

func (md *Mediator) toolLeaveChannel(args map[string]interface{}) agentrpc.ToolResult {
	client, errResult, ok := md.requireLobby()
	if !ok {
		return errResult
	}
	channel, ok := stringArg(args, "channel")
	if !ok {
		return missingArg("channel")
	}
	if err := client.SendCommand("LeaveChannel", lobby.LeaveChannelCommand{ChannelName: channel}); err != nil {
		return agentrpc.ErrorResult("failed to leave channel: " + err.Error())
	}
	return agentrpc.TextResult("leave channel request sent")
}

func (md *Mediator) toolListBattles() agentrpc.ToolResult {
	data, err := json.Marshal(md.lobbyState.Battles)
	if err != nil {
		return agentrpc.ErrorResult("failed to marshal battles: " + err.Error())
	}
	return agentrpc.TextResult(string(data))
}

func (md *Mediator) toolListUsers() agentrpc.ToolResult {
	data, err := json.Marshal(md.lobbyState.Users)
	if err != nil {
		return agentrpc.ErrorResult("failed to marshal users: " + err.Error())
	}
	return agentrpc.TextResult(string(data))
}

func (md *Mediator) toolJoinBattle(args map[string]interface{}) agentrpc.ToolResult {
	client, errResult, ok := md.requireLobby()
	if !ok {
		return errResult
	}
	idF, ok := numberArg(args, "battle_id")
	if !ok {
		return missingArg("battle_id")
	}
	password, _ := stringArg(args, "password")
	cmd := lobby.JoinBattleCommand{BattleID: int64(idF), Password: password}
	if err := client.SendCommand("JoinBattle", cmd); err != nil {
		return agentrpc.ErrorResult("failed to join battle: " + err.Error())
	}
	return agentrpc.TextResult("join battle request sent")
}

func (md *Mediator) toolLeaveBattle() agentrpc.ToolResult {
	client, errResult, ok := md.requireLobby()
	if !ok {
		return errResult
	}
	if err := client.SendCommand("LeaveBattle", lobby.LeaveBattleCommand{}); err != nil {
		return agentrpc.ErrorResult("failed to leave battle: " + err.Error())
	}
	return agentrpc.TextResult("leave battle request sent")
}

func (md *Mediator) toolMatchmakerJoin(args map[string]interface{}) agentrpc.ToolResult {
	client, errResult, ok := md.requireLobby()
	if !ok {
		return errResult
	}
	raw, ok := args["queues"]
	if !ok {
		return missingArg("queues")
	}
	items, ok := raw.([]interface{})
	if !ok {
		return agentrpc.ErrorResult("queues must be an array of strings")
	}
	queues := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return agentrpc.ErrorResult("queues must be an array of strings")
		}
		queues = append(queues, s)
	}
	if err := client.SendCommand("MatchMakerQueueRequest", lobby.MatchMakerQueueRequestCommand{Queues: queues}); err != nil {
		return agentrpc.ErrorResult("failed to join matchmaker queue: " + err.Error())
	}
	return agentrpc.TextResult("matchmaker join request sent")
}

func (md *Mediator) toolMatchmakerLeave() agentrpc.ToolResult {
	client, errResult, ok := md.requireLobby()
	if !ok {
		return errResult
	}
	if err := client.SendCommand("MatchMakerLeave", lobby.MatchMakerLeaveCommand{}); err != nil {
		return agentrpc.ErrorResult("failed to leave matchmaker queues: " + err.Error())
	}
	return agentrpc.TextResult("matchmaker leave request sent")
}

func (md *Mediator) toolMatchmakerAccept(args map[string]interface{}) agentrpc.ToolResult {
	client, errResult, ok := md.requireLobby()
	if !ok {
		return errResult
	}
	ready, ok := boolArg(args, "ready")
	if !ok {
		return missingArg("ready")
	}
	if err := client.SendCommand("AreYouReadyResponse", lobby.AreYouReadyResponseCommand{Ready: ready}); err != nil {
		return agentrpc.ErrorResult("failed to send are-you-ready response: " + err.Error())
	}
	return agentrpc.TextResult("are-you-ready response sent")
}

func (md *Mediator) toolMatchmakerStatus(args map[string]interface{}) agentrpc.ToolResult {
	queue, ok := stringArg(args, "queue")
	if !ok {
		return missingArg("queue")
	}
	status, ok := md.matchmakerStatus[queue]
	if !ok {
		return agentrpc.TextResult(fmt.Sprintf("no status observed yet for queue %q", queue))
	}
	data, _ := json.Marshal(status)
	return agentrpc.TextResult(string(data))
}

func (md *Mediator) toolStartGame(args map[string]interface{}) agentrpc.ToolResult {
	mapName, ok := stringArg(args, "map")
	if !ok {
		mapName = defaultMap
	}
	game, ok := stringArg(args, "game")
	if !ok {
		game = defaultGame
	}
	channelID, err := md.engines.StartGame(mapName, game)
	if err != nil {
		return agentrpc.ErrorResult("failed to start game: " + err.Error())
	}
	md.announceChannelAdded(channelID)
	return agentrpc.TextResult("started channel " + channelID)
}
