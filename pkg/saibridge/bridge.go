package saibridge

/*
#include <stdlib.h>
*/
import "C"

import (
	"encoding/json"
	"os"
	"strings"
	"sync"
	"unsafe"
)

// instance is one AI slot's state, keyed by engine-supplied ai-id. Holds
// the callback table (valid from init to release only), the IPC
// connection, and a frame counter for update throttling (spec.md §3
// PluginInstance).
type instance struct {
	callbacks    Callbacks
	ipc          *Client
	frameCounter uint32
}

var (
	instancesMu sync.Mutex
	instances   []*instance
)

func getInstance(id int32) *instance {
	instancesMu.Lock()
	defer instancesMu.Unlock()
	if int(id) >= len(instances) {
		return nil
	}
	return instances[id]
}

func setInstance(id int32, inst *instance) {
	instancesMu.Lock()
	defer instancesMu.Unlock()
	for int32(len(instances)) <= id {
		instances = append(instances, nil)
	}
	instances[id] = inst
}

// socketPath resolves the GM IPC socket path in the four-tier order from
// spec.md §6: connection.json in the AI data dir, then the socket_path AI
// option, then SAI_SOCKET_PATH, then the hard default.
func socketPath(cb Callbacks) string {
	if dataDir, ok := cb.GetInfoValue("dataDir"); ok {
		path := strings.TrimRight(dataDir, "/") + "/connection.json"
		if contents, err := os.ReadFile(path); err == nil {
			var parsed struct {
				SocketPath string `json:"socket_path"`
			}
			if json.Unmarshal(contents, &parsed) == nil && parsed.SocketPath != "" {
				cb.Log("socket path from " + path)
				return parsed.SocketPath
			}
		}
	}

	if path, ok := cb.GetOptionValue("socket_path"); ok {
		cb.Log("socket path from AI option")
		return path
	}

	if path := os.Getenv("SAI_SOCKET_PATH"); path != "" {
		cb.Log("socket path from SAI_SOCKET_PATH env")
		return path
	}

	cb.Log("using default socket path")
	return "/tmp/game-manager.sock"
}

//export init
func init_(aiID C.int, callbackTable unsafe.Pointer) C.int {
	id := int32(aiID)
	cb := newCallbacks(id, callbackTable)
	cb.Log("initializing...")

	path := socketPath(cb)
	var ipc *Client
	client, err := Connect(path)
	if err != nil {
		cb.Log("failed to connect to GameManager at " + path + ": " + err.Error())
	} else {
		cb.Log("connected to GameManager at " + path)
		_ = client.SendEvent(Event{Type: "init", Frame: 0, SavedGame: false})
		ipc = client
	}

	setInstance(id, &instance{callbacks: cb, ipc: ipc})
	return 0
}

//export release
func release(aiID C.int) C.int {
	id := int32(aiID)
	inst := getInstance(id)
	if inst != nil {
		inst.callbacks.Log("releasing...")
		if inst.ipc != nil {
			_ = inst.ipc.SendEvent(Event{Type: "release", Reason: 0})
			_ = inst.ipc.Close()
		}
		setInstance(id, nil)
	}
	return 0
}

//export handleEvent
func handleEvent(aiID, topic C.int, data unsafe.Pointer) C.int {
	id := int32(aiID)
	inst := getInstance(id)
	if inst == nil {
		return -1
	}

	t := int32(topic)

	if t == EventTopicInit {
		type sInitEvent struct {
			callback  unsafe.Pointer
			savedGame int32
		}
		init := (*sInitEvent)(data)
		inst.callbacks = newCallbacks(id, init.callback)
		if inst.ipc != nil {
			_ = inst.ipc.SendEvent(Event{Type: "init", Frame: 0, SavedGame: init.savedGame != 0})
		}
		return 0
	}

	if t == EventTopicUpdate {
		inst.frameCounter++

		if inst.ipc != nil {
			for _, cmd := range inst.ipc.PollCommands(inst.callbacks.Log) {
				if err := Dispatch(inst.callbacks, cmd); err != nil {
					inst.callbacks.Log("command error: " + err.Error())
					cmdJSON, _ := json.Marshal(cmd)
					_ = inst.ipc.SendEvent(Event{Type: "command_error", Error: err.Error(), Command: string(cmdJSON)})
				}
			}
		}

		if inst.frameCounter%UpdateInterval != 0 {
			return 0
		}
	}

	if ev, ok := parseEvent(t, data); ok {
		enrichEvent(inst.callbacks, &ev)
		if inst.ipc != nil {
			if err := inst.ipc.SendEvent(ev); err != nil {
				inst.callbacks.Log("IPC send error: " + err.Error())
				inst.ipc = nil
			}
		}
	}

	return 0
}
