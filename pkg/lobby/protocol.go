// Package lobby implements the line-oriented lobby-server protocol: wire
// encoding, observed state tracking, and the TCP client connection.
package lobby

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Place identifies where a Say message was addressed.
type Place int

const (
	PlaceChannel       Place = 0
	PlaceBattle        Place = 1
	PlaceBattlePrivate Place = 2
	PlaceMsgBox        Place = 3
	PlaceUser          Place = 4
	PlaceServer        Place = 5
)

// Login result codes carried in LoginResponse.ResultCode.
const (
	LoginOK             = 0
	LoginInvalidName    = 1
	LoginInvalidPass    = 2
	LoginBanned         = 4
	RegisterOK          = 0
)

// Message is one line of the wire protocol: `Command<SP>JSON\n`.
type Message struct {
	Command string
	Data    json.RawMessage
}

// ToWire renders a Message back to its wire form, "Command {...}\n".
func (m Message) ToWire() string {
	data := m.Data
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	return fmt.Sprintf("%s %s\n", m.Command, string(data))
}

// ParseLine splits a received line into a Message. A line with no space is
// a bare command with an empty object payload. A line whose tail after the
// first space fails to parse as JSON is treated, for compatibility with
// server quirks, as a command carrying a single JSON string payload equal
// to that tail.
func ParseLine(line string) Message {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return Message{}
	}

	idx := strings.IndexByte(line, ' ')
	if idx < 0 {
		return Message{Command: line, Data: json.RawMessage("{}")}
	}

	cmd := line[:idx]
	tail := strings.TrimSpace(line[idx+1:])
	if tail == "" {
		return Message{Command: cmd, Data: json.RawMessage("{}")}
	}

	var probe json.RawMessage
	if err := json.Unmarshal([]byte(tail), &probe); err != nil {
		asString, _ := json.Marshal(tail)
		return Message{Command: cmd, Data: json.RawMessage(asString)}
	}
	return Message{Command: cmd, Data: probe}
}

// NewCommand builds a Message by marshalling an arbitrary payload struct
// (PascalCase JSON tags, per the wire protocol's field naming convention).
func NewCommand(command string, payload interface{}) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("marshalling %s payload: %w", command, err)
	}
	return Message{Command: command, Data: data}, nil
}

// HashPassword reproduces the lobby server's password hash:
// base64(MD5(utf8(password))). This is the wire protocol's own choice,
// not an endorsement of it as a credential scheme.
func HashPassword(password string) string {
	sum := md5.Sum([]byte(password))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// --- Outgoing command payloads (PascalCase per wire convention) ---

type LoginCommand struct {
	Name         string `json:"Name"`
	PasswordHash string `json:"PasswordHash"`
	LobbyVersion string `json:"LobbyVersion"`
	UserID       string `json:"UserID,omitempty"`
}

type RegisterCommand struct {
	Name         string `json:"Name"`
	PasswordHash string `json:"PasswordHash"`
}

type SayCommand struct {
	Place Place  `json:"Place"`
	Target string `json:"Target,omitempty"`
	Text   string `json:"Text"`
}

type JoinChannelCommand struct {
	ChannelName string `json:"ChannelName"`
	Password    string `json:"Password,omitempty"`
}

type LeaveChannelCommand struct {
	ChannelName string `json:"ChannelName"`
}

type JoinBattleCommand struct {
	BattleID int64  `json:"BattleID"`
	Password string `json:"Password,omitempty"`
}

type LeaveBattleCommand struct{}

type MatchMakerQueueRequestCommand struct {
	Queues []string `json:"Queues"`
}

type MatchMakerLeaveCommand struct{}

type AreYouReadyResponseCommand struct {
	Ready bool `json:"Ready"`
}

// --- Incoming payloads ---

type WelcomeData struct {
	Engine    string `json:"Engine"`
	Game      string `json:"Game"`
	UserCount int32  `json:"UserCount"`
}

type LoginResponseData struct {
	ResultCode int32  `json:"ResultCode"`
	Name       string `json:"Name"`
	Message    string `json:"Message"`
}

type RegisterResponseData struct {
	ResultCode int32   `json:"ResultCode"`
	BanReason  *string `json:"BanReason,omitempty"`
}

type UserData struct {
	AccountID    int64    `json:"AccountID"`
	Name         string   `json:"Name"`
	DisplayName  string   `json:"DisplayName"`
	Clan         string   `json:"Clan"`
	Country      string   `json:"Country"`
	IsBot        bool     `json:"IsBot"`
	IsAdmin      bool     `json:"IsAdmin"`
	Level        int32    `json:"Level"`
	EffectiveElo float64  `json:"EffectiveElo"`
	BattleID     *int64   `json:"BattleID,omitempty"`
}

type UserDisconnectedData struct {
	Name   string `json:"Name"`
	Reason string `json:"Reason"`
}

type SayData struct {
	User    string `json:"User"`
	Text    string `json:"Text"`
	Target  string `json:"Target"`
	Place   int32  `json:"Place"`
	IsEmote bool   `json:"IsEmote"`
	Time    string `json:"Time"`
}

type BattleHeader struct {
	BattleID             int64   `json:"BattleID"`
	Title                string  `json:"Title"`
	Founder              string  `json:"Founder"`
	Map                  string  `json:"Map"`
	Game                 string  `json:"Game"`
	Engine               string  `json:"Engine"`
	MaxPlayers           int32   `json:"MaxPlayers"`
	PlayerCount          int32   `json:"PlayerCount"`
	SpectatorCount       int32   `json:"SpectatorCount"`
	IsRunning            bool    `json:"IsRunning"`
	IsPasswordProtected  bool    `json:"IsPasswordProtected"`
	Mode                 *string `json:"Mode,omitempty"`
}

type BattleAddedData struct {
	Header BattleHeader `json:"Header"`
}

type BattleUpdateData struct {
	Header BattleHeader `json:"Header"`
}

type BattleRemovedData struct {
	BattleID int64 `json:"BattleID"`
}

type ChannelTopic struct {
	Text string `json:"Text"`
}

type ChannelData struct {
	Topic     *ChannelTopic `json:"Topic,omitempty"`
	Users     []string      `json:"Users"`
	IsDeluge  bool          `json:"IsDeluge"`
}

type JoinChannelResponseData struct {
	Success     bool         `json:"Success"`
	ChannelName string       `json:"ChannelName"`
	Channel     *ChannelData `json:"Channel,omitempty"`
}

type ChannelUserAddedData struct {
	ChannelName string `json:"ChannelName"`
	UserName    string `json:"UserName"`
}

type ChannelUserRemovedData struct {
	ChannelName string `json:"ChannelName"`
	UserName    string `json:"UserName"`
}

type ConnectSpringData struct {
	Engine         string `json:"Engine"`
	Game           string `json:"Game"`
	IP             string `json:"IP"`
	Port           int32  `json:"Port"`
	Map            string `json:"Map"`
	ScriptPassword string `json:"ScriptPassword"`
	Mode           string `json:"Mode"`
	Title          string `json:"Title"`
	IsSpectator    bool   `json:"IsSpectator"`
}

// MatchMakerSetupData / MatchMakerStatusData / AreYouReady* are parsed into
// typed events but never applied to LobbyState (spec.md §4.4).

type MatchMakerSetupData struct {
	Queues []string `json:"Queues"`
}

type MatchMakerStatusData struct {
	Queue       string `json:"Queue"`
	PlayerCount int32  `json:"PlayerCount"`
}

type AreYouReadyData struct {
	Queue string `json:"Queue"`
}

type AreYouReadyUpdateData struct {
	Queue        string `json:"Queue"`
	ReadyCount   int32  `json:"ReadyCount"`
	RequiredCount int32 `json:"RequiredCount"`
}

type AreYouReadyResultData struct {
	Queue   string `json:"Queue"`
	Started bool   `json:"Started"`
}
