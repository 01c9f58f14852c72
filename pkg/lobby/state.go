package lobby

import (
	"encoding/json"

	"go.uber.org/zap"
)

// UserInfo mirrors one entry of LobbyState.Users.
type UserInfo struct {
	AccountID   int64
	Name        string
	DisplayName string
	Clan        string
	Country     string
	IsBot       bool
	IsAdmin     bool
	Level       int32
	Elo         float64
	BattleID    *int64
}

// BattleInfo mirrors one entry of LobbyState.Battles.
type BattleInfo struct {
	BattleID            int64
	Title               string
	Founder             string
	Map                 string
	Game                string
	Engine              string
	MaxPlayers          int32
	PlayerCount         int32
	SpectatorCount      int32
	IsRunning           bool
	IsPasswordProtected bool
	Mode                *string
}

// ChannelInfo mirrors one entry of LobbyState.Channels.
type ChannelInfo struct {
	Name  string
	Topic *string
	Users []string
}

// State is the lobby state owned by MED via the Client. No field is
// authoritative without a received message; every update is event-driven.
type State struct {
	Connected    bool
	LoggedIn     bool
	MyUsername   *string
	ServerEngine string
	ServerGame   string
	UserCount    int32
	Users        map[string]UserInfo
	Battles      map[int64]BattleInfo
	Channels     map[string]ChannelInfo
	MyBattle     *int64
}

// NewState returns a zero-value State with initialized maps — this is the
// "default" every field resets to after a lobby disconnect.
func NewState() *State {
	return &State{
		Users:    make(map[string]UserInfo),
		Battles:  make(map[int64]BattleInfo),
		Channels: make(map[string]ChannelInfo),
	}
}

// EventKind tags the Event union below.
type EventKind int

const (
	EventConnected EventKind = iota
	EventDisconnected
	EventLoggedIn
	EventLoginFailed
	EventRegisterSuccess
	EventRegisterFailed
	EventUserJoined
	EventUserLeft
	EventChatMessage
	EventBattleOpened
	EventBattleUpdated
	EventBattleClosed
	EventChannelJoined
	EventChannelUserJoined
	EventChannelUserLeft
	EventConnectSpring
	EventMatchMakerSetup
	EventMatchMakerStatus
	EventAreYouReady
	EventAreYouReadyUpdate
	EventAreYouReadyResult
)

// Event is emitted by State.Handle, zero or more per processed Message.
// Exactly one of the typed fields below is meaningful, selected by Kind —
// this mirrors the Rust source's enum-with-payload shape without Go union
// types; MED switches on Kind and reads the matching field.
type Event struct {
	Kind EventKind

	Engine, Game string // Connected

	DisconnectReason string // Disconnected

	Username string // LoggedIn

	LoginCode int32  // LoginFailed
	LoginMsg  string // LoginFailed

	RegisterCode   int32  // RegisterFailed
	RegisterReason string // RegisterFailed

	User UserInfo // UserJoined

	LeftName, LeftReason string // UserLeft

	ChatUser, ChatText, ChatTarget string // ChatMessage
	ChatPlace                      int32
	ChatIsEmote                    bool
	ChatTime                       string

	Battle BattleInfo // BattleOpened / BattleUpdated

	ClosedBattleID int64 // BattleClosed

	JoinedChannel string   // ChannelJoined
	JoinedUsers   []string
	JoinedTopic   *string

	ChannelName, ChannelUser string // ChannelUser{Joined,Left}

	ConnectSpring ConnectSpringData

	MatchMakerQueues []string            // MatchMakerSetup
	MatchMakerStatus MatchMakerStatusData
	AreYouReady      AreYouReadyData
	AreYouReadyUpd   AreYouReadyUpdateData
	AreYouReadyRes   AreYouReadyResultData
}

// Handle applies one wire message to State, returning the events it
// produced. The same Message sequence from a fresh State always produces
// an identical Event sequence (spec.md §8).
func (s *State) Handle(logger *zap.Logger, msg Message) []Event {
	var events []Event

	switch msg.Command {
	case "Welcome":
		var d WelcomeData
		if err := json.Unmarshal(msg.Data, &d); err == nil {
			s.Connected = true
			s.ServerEngine = d.Engine
			s.ServerGame = d.Game
			s.UserCount = d.UserCount
			events = append(events, Event{Kind: EventConnected, Engine: d.Engine, Game: d.Game})
		}

	case "LoginResponse":
		var d LoginResponseData
		if err := json.Unmarshal(msg.Data, &d); err == nil {
			if d.ResultCode == LoginOK {
				s.LoggedIn = true
				name := d.Name
				s.MyUsername = &name
				events = append(events, Event{Kind: EventLoggedIn, Username: d.Name})
			} else {
				events = append(events, Event{Kind: EventLoginFailed, LoginCode: d.ResultCode, LoginMsg: d.Message})
			}
		}

	case "RegisterResponse":
		var d RegisterResponseData
		if err := json.Unmarshal(msg.Data, &d); err == nil {
			if d.ResultCode == RegisterOK {
				events = append(events, Event{Kind: EventRegisterSuccess})
			} else {
				reason := ""
				if d.BanReason != nil {
					reason = *d.BanReason
				}
				events = append(events, Event{Kind: EventRegisterFailed, RegisterCode: d.ResultCode, RegisterReason: reason})
			}
		}

	case "User":
		var d UserData
		if err := json.Unmarshal(msg.Data, &d); err == nil {
			info := UserInfo{
				AccountID: d.AccountID, Name: d.Name, DisplayName: d.DisplayName,
				Clan: d.Clan, Country: d.Country, IsBot: d.IsBot, IsAdmin: d.IsAdmin,
				Level: d.Level, Elo: d.EffectiveElo, BattleID: d.BattleID,
			}
			_, existed := s.Users[d.Name]
			s.Users[d.Name] = info
			if !existed {
				events = append(events, Event{Kind: EventUserJoined, User: info})
			}
		}

	case "UserDisconnected":
		var d UserDisconnectedData
		if err := json.Unmarshal(msg.Data, &d); err == nil {
			delete(s.Users, d.Name)
			events = append(events, Event{Kind: EventUserLeft, LeftName: d.Name, LeftReason: d.Reason})
		}

	case "Say":
		var d SayData
		if err := json.Unmarshal(msg.Data, &d); err == nil {
			events = append(events, Event{
				Kind: EventChatMessage, ChatUser: d.User, ChatText: d.Text,
				ChatTarget: d.Target, ChatPlace: d.Place, ChatIsEmote: d.IsEmote, ChatTime: d.Time,
			})
		}

	case "BattleAdded":
		var d BattleAddedData
		if err := json.Unmarshal(msg.Data, &d); err == nil {
			info := battleInfoFromHeader(d.Header)
			s.Battles[info.BattleID] = info
			events = append(events, Event{Kind: EventBattleOpened, Battle: info})
		}

	case "BattleUpdate":
		var d BattleUpdateData
		if err := json.Unmarshal(msg.Data, &d); err == nil {
			info := battleInfoFromHeader(d.Header)
			s.Battles[info.BattleID] = info
			events = append(events, Event{Kind: EventBattleUpdated, Battle: info})
		}

	case "BattleRemoved":
		var d BattleRemovedData
		if err := json.Unmarshal(msg.Data, &d); err == nil {
			delete(s.Battles, d.BattleID)
			events = append(events, Event{Kind: EventBattleClosed, ClosedBattleID: d.BattleID})
		}

	case "JoinChannelResponse":
		var d JoinChannelResponseData
		if err := json.Unmarshal(msg.Data, &d); err == nil && d.Success {
			var users []string
			var topic *string
			if d.Channel != nil {
				users = d.Channel.Users
				if d.Channel.Topic != nil {
					t := d.Channel.Topic.Text
					topic = &t
				}
			}
			s.Channels[d.ChannelName] = ChannelInfo{Name: d.ChannelName, Topic: topic, Users: users}
			events = append(events, Event{Kind: EventChannelJoined, JoinedChannel: d.ChannelName, JoinedUsers: users, JoinedTopic: topic})
		}

	case "ChannelUserAdded":
		var d ChannelUserAddedData
		if err := json.Unmarshal(msg.Data, &d); err == nil {
			if ch, ok := s.Channels[d.ChannelName]; ok {
				if !containsStr(ch.Users, d.UserName) {
					ch.Users = append(ch.Users, d.UserName)
					s.Channels[d.ChannelName] = ch
				}
			}
			events = append(events, Event{Kind: EventChannelUserJoined, ChannelName: d.ChannelName, ChannelUser: d.UserName})
		}

	case "ChannelUserRemoved":
		var d ChannelUserRemovedData
		if err := json.Unmarshal(msg.Data, &d); err == nil {
			if ch, ok := s.Channels[d.ChannelName]; ok {
				ch.Users = removeStr(ch.Users, d.UserName)
				s.Channels[d.ChannelName] = ch
			}
			events = append(events, Event{Kind: EventChannelUserLeft, ChannelName: d.ChannelName, ChannelUser: d.UserName})
		}

	case "ConnectSpring":
		var d ConnectSpringData
		if err := json.Unmarshal(msg.Data, &d); err == nil {
			events = append(events, Event{Kind: EventConnectSpring, ConnectSpring: d})
		}

	case "MatchMakerSetup":
		var d MatchMakerSetupData
		if err := json.Unmarshal(msg.Data, &d); err == nil {
			events = append(events, Event{Kind: EventMatchMakerSetup, MatchMakerQueues: d.Queues})
		}

	case "MatchMakerStatus":
		var d MatchMakerStatusData
		if err := json.Unmarshal(msg.Data, &d); err == nil {
			events = append(events, Event{Kind: EventMatchMakerStatus, MatchMakerStatus: d})
		}

	case "AreYouReady":
		var d AreYouReadyData
		if err := json.Unmarshal(msg.Data, &d); err == nil {
			events = append(events, Event{Kind: EventAreYouReady, AreYouReady: d})
		}

	case "AreYouReadyUpdate":
		var d AreYouReadyUpdateData
		if err := json.Unmarshal(msg.Data, &d); err == nil {
			events = append(events, Event{Kind: EventAreYouReadyUpdate, AreYouReadyUpd: d})
		}

	case "AreYouReadyResult":
		var d AreYouReadyResultData
		if err := json.Unmarshal(msg.Data, &d); err == nil {
			events = append(events, Event{Kind: EventAreYouReadyResult, AreYouReadyRes: d})
		}

	case "Ping":
		// handled by the caller (Client auto-replies with "Ping {}")

	default:
		if logger != nil {
			logger.Debug("unhandled lobby command", zap.String("command", msg.Command))
		}
	}

	return events
}

// Reset restores State to its zero-value defaults, as required after any
// lobby disconnect (spec.md §3, §8).
func (s *State) Reset() {
	*s = *NewState()
}

func battleInfoFromHeader(h BattleHeader) BattleInfo {
	return BattleInfo{
		BattleID: h.BattleID, Title: h.Title, Founder: h.Founder, Map: h.Map,
		Game: h.Game, Engine: h.Engine, MaxPlayers: h.MaxPlayers,
		PlayerCount: h.PlayerCount, SpectatorCount: h.SpectatorCount,
		IsRunning: h.IsRunning, IsPasswordProtected: h.IsPasswordProtected, Mode: h.Mode,
	}
}

func containsStr(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func removeStr(xs []string, x string) []string {
	out := xs[:0]
	for _, v := range xs {
		if v != x {
			out = append(out, v)
		}
	}
	return out
}
