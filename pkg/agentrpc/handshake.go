package agentrpc

import "encoding/json"

// InitializeResult is the GM's reply to the agent's "initialize" request.
type InitializeResult struct {
	ProtocolVersion string                 `json:"protocol_version"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ServerInfo      ServerInfo             `json:"server_info"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// BuildInitializeResult assembles the handshake reply, nesting
// DefaultCapabilities under the conventional "experimental.mcpl" path the
// reference protocol uses, alongside an empty "tools" capability bucket.
func BuildInitializeResult() InitializeResult {
	return InitializeResult{
		ProtocolVersion: "2024-11-05",
		Capabilities: map[string]interface{}{
			"experimental": map[string]interface{}{
				"mcpl": DefaultCapabilities(),
			},
			"tools": map[string]interface{}{},
		},
		ServerInfo: ServerInfo{Name: "zk-game-manager", Version: "0.1.0"},
	}
}

// AwaitInitialize blocks until it reads the agent's "initialize" request,
// replies with BuildInitializeResult, then peeks at the next envelope: if
// it is "notifications/initialized" it is consumed and nil is returned for
// leftover; any other envelope is returned as leftover so the caller's main
// loop processes it as its first iteration's input instead of it being
// silently dropped. A missing notifications/initialized is tolerated,
// matching the reference handshake's tolerance for it.
func AwaitInitialize(conn *Connection) (leftover *Envelope, err error) {
	for env := range conn.Incoming() {
		if env.Method != "initialize" {
			continue
		}
		result := BuildInitializeResult()
		data, merr := json.Marshal(result)
		if merr != nil {
			return nil, merr
		}
		if serr := conn.Send(Envelope{JSONRPC: "2.0", ID: env.ID, Result: data}); serr != nil {
			return nil, serr
		}

		next, ok := <-conn.Incoming()
		if !ok {
			return nil, nil
		}
		if next.Method == "notifications/initialized" {
			return nil, nil
		}
		return &next, nil
	}
	return nil, errClosedDuringHandshake
}

var errClosedDuringHandshake = &handshakeError{"agent transport closed during handshake"}

type handshakeError struct{ msg string }

func (e *handshakeError) Error() string { return e.msg }
