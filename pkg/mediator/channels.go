package mediator

import (
	"encoding/json"

	"github.com/zkat/gamemanager/pkg/agentrpc"
)

func (md *Mediator) handleChannelsOpen(env agentrpc.Envelope) {
	var req struct {
		Address struct {
			Map  string `json:"map"`
			Game string `json:"game"`
		} `json:"address"`
	}
	if len(env.Params) > 0 {
		_ = json.Unmarshal(env.Params, &req)
	}
	mapName := req.Address.Map
	if mapName == "" {
		mapName = defaultMap
	}
	game := req.Address.Game
	if game == "" {
		game = defaultGame
	}

	channelID, err := md.engines.StartGame(mapName, game)
	if err != nil {
		_ = md.agent.SendError(env.ID, agentrpc.MethodNotFound, "failed to open channel: "+err.Error())
		return
	}

	var descriptor agentrpc.ChannelDescriptor
	for _, inst := range md.engines.Instances() {
		if inst.ChannelID == channelID {
			descriptor = descriptorFor(inst)
		}
	}

	if md.metrics != nil {
		md.metrics.ChannelsOpen.Set(float64(len(md.engines.Instances())))
	}

	_ = md.agent.SendResult(env.ID, map[string]interface{}{"channel": descriptor})
	_ = md.agent.SendNotification("channels/changed", agentrpc.ChannelsChangedParams{
		Added: []agentrpc.ChannelDescriptor{descriptor},
	})
}

func (md *Mediator) handleChannelsClose(env agentrpc.Envelope) {
	var req struct {
		ChannelID string `json:"channelId"`
	}
	if len(env.Params) > 0 {
		_ = json.Unmarshal(env.Params, &req)
	}
	if req.ChannelID == "" {
		_ = md.agent.SendError(env.ID, agentrpc.MethodNotFound, "channelId is required")
		return
	}

	md.engines.StopGame(req.ChannelID)

	if md.metrics != nil {
		md.metrics.ChannelsOpen.Set(float64(len(md.engines.Instances())))
	}

	_ = md.agent.SendResult(env.ID, map[string]interface{}{"closed": true})
	_ = md.agent.SendNotification("channels/changed", agentrpc.ChannelsChangedParams{
		Removed: []string{req.ChannelID},
	})
}

func (md *Mediator) handleChannelsList(env agentrpc.Envelope) {
	instances := md.engines.Instances()
	descriptors := make([]agentrpc.ChannelDescriptor, 0, len(instances))
	for _, inst := range instances {
		d := descriptorFor(inst)
		if d.Metadata == nil {
			d.Metadata = map[string]interface{}{}
		}
		d.Metadata["connected"] = md.engines.Connected(inst.ChannelID)
		descriptors = append(descriptors, d)
	}
	_ = md.agent.SendResult(env.ID, map[string]interface{}{"channels": descriptors})
}

func (md *Mediator) handleChannelsPublish(env agentrpc.Envelope) {
	var req struct {
		ChannelID string `json:"channelId"`
		Content   []agentrpc.ToolContent `json:"content"`
	}
	if len(env.Params) > 0 {
		_ = json.Unmarshal(env.Params, &req)
	}
	if req.ChannelID == "" || len(req.Content) == 0 {
		_ = md.agent.SendResult(env.ID, map[string]interface{}{"delivered": false, "error": "channelId and content are required"})
		return
	}

	text := req.Content[0].Text
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(text), &probe); err != nil || probe.Type == "" {
		_ = md.agent.SendResult(env.ID, map[string]interface{}{"delivered": false, "error": "content text must be a JSON command object with a \"type\" field"})
		return
	}

	if err := md.engines.SendCommand(req.ChannelID, []byte(text)); err != nil {
		_ = md.agent.SendResult(env.ID, map[string]interface{}{"delivered": false, "error": err.Error()})
		return
	}

	_ = md.agent.SendResult(env.ID, map[string]interface{}{"delivered": true})
}

func (md *Mediator) handleStateRollback(env agentrpc.Envelope) {
	var req struct {
		Checkpoint string `json:"checkpoint"`
	}
	if len(env.Params) > 0 {
		_ = json.Unmarshal(env.Params, &req)
	}
	_ = md.agent.SendResult(env.ID, agentrpc.NotImplementedRollback(req.Checkpoint))
}
