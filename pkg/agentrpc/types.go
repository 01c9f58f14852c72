// Package agentrpc implements the GM-facing half of the agent RPC surface:
// request/response/notification framing and the handshake, tool, and
// channel types the mediator dispatches against. The wire framing itself
// (line-delimited JSON-RPC-shaped envelopes over stdio or TCP) is this
// package's own responsibility — spec.md marks the *external* RPC
// transport/handshake library out of scope as a fixed third-party
// contract, but no such library exists in this corpus, so the envelope is
// implemented directly here in the teacher's connection-pump idiom.
package agentrpc

import "encoding/json"

// Envelope is one line of the wire protocol: a JSON-RPC-shaped request,
// response, or notification. ID is present on requests/responses and
// absent on notifications.
type Envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC-shaped error object. -32601 is "method not found",
// the code spec.md §7 names for Contract errors on invalid methods.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const MethodNotFound = -32601

// IsNotification reports whether e carries no ID (no reply expected).
func (e Envelope) IsNotification() bool {
	return len(e.ID) == 0
}

// IsRequest reports whether e has a Method and an ID — incoming call.
func (e Envelope) IsRequest() bool {
	return e.Method != "" && len(e.ID) > 0
}

// IsResponse reports whether e carries an ID but no Method — a reply to one
// of our own outbound requests. Result and Error are not inspected.
func (e Envelope) IsResponse() bool {
	return e.Method == "" && len(e.ID) > 0
}

// ToolContent is the shape every tool reply's content array element takes.
type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the shape of every tools/call reply (spec.md §4.5).
type ToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

func TextResult(text string) ToolResult {
	return ToolResult{Content: []ToolContent{{Type: "text", Text: text}}}
}

func ErrorResult(text string) ToolResult {
	return ToolResult{Content: []ToolContent{{Type: "text", Text: text}}, IsError: true}
}

// ChannelDescriptor is one entry of channels/list and channels/changed.
type ChannelDescriptor struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"channel_type"`
	Label     string                 `json:"label"`
	Direction string                 `json:"direction"`
	Address   map[string]string      `json:"address,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// ChannelsChangedParams is the notification MED emits whenever channel
// membership or metadata changes.
type ChannelsChangedParams struct {
	Added   []ChannelDescriptor `json:"added,omitempty"`
	Updated []ChannelDescriptor `json:"updated,omitempty"`
	Removed []string            `json:"removed,omitempty"`
}

// ChannelsIncomingParams carries one forwarded engine IPC event.
type ChannelsIncomingParams struct {
	ChannelID string        `json:"channelId"`
	Content   []ToolContent `json:"content"`
}

// PushEventParams is the shape of the pushEvent request MED sends for
// lobby events (spec.md §4.5, §6).
type PushEventParams struct {
	FeatureSet string                 `json:"feature_set"`
	EventID    string                 `json:"event_id"`
	Timestamp  string                 `json:"timestamp"`
	Origin     map[string]interface{} `json:"origin,omitempty"`
	Payload    map[string]interface{} `json:"payload"`
}

// FeatureSet describes one named capability group advertised at handshake.
type FeatureSet struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Uses        []string `json:"uses"`
	Rollback    bool     `json:"rollback"`
	HostState   bool     `json:"host_state"`
}

// Capabilities is advertised inside the initialize response.
type Capabilities struct {
	Version     string       `json:"version"`
	PushEvents  bool         `json:"push_events"`
	Channels    bool         `json:"channels"`
	Rollback    bool         `json:"rollback"`
	FeatureSets []FeatureSet `json:"feature_sets"`
}

// DefaultCapabilities is the capability block this GM advertises: push
// events, channels, and rollback are all present at the protocol level,
// while both feature sets are non-reversible, since state/rollback always
// answers "not implemented".
func DefaultCapabilities() Capabilities {
	return Capabilities{
		Version:    "0.4",
		PushEvents: true,
		Channels:   true,
		Rollback:   true,
		FeatureSets: []FeatureSet{
			{Name: "lobby", Description: "Lobby operations — non-reversible", Uses: []string{"connect", "chat", "matchmaking"}, Rollback: false, HostState: false},
			{Name: "game", Description: "Game operations — non-reversible", Uses: []string{"commands", "observation", "state"}, Rollback: false, HostState: false},
		},
	}
}

// RollbackResult is always returned by state/rollback in this
// implementation — engine savestate support doesn't exist (spec.md §9).
type RollbackResult struct {
	Success    bool   `json:"success"`
	Checkpoint string `json:"checkpoint,omitempty"`
	Reason     string `json:"reason"`
}

func NotImplementedRollback(checkpoint string) RollbackResult {
	return RollbackResult{Success: false, Checkpoint: checkpoint, Reason: "not implemented"}
}
