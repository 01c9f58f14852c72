package agentrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvelope_Classification(t *testing.T) {
	req := Envelope{Method: "tools/list", ID: json.RawMessage(`1`)}
	assert.True(t, req.IsRequest())
	assert.False(t, req.IsNotification())
	assert.False(t, req.IsResponse())

	notif := Envelope{Method: "notifications/initialized"}
	assert.True(t, notif.IsNotification())
	assert.False(t, notif.IsRequest())
	assert.False(t, notif.IsResponse())

	resp := Envelope{ID: json.RawMessage(`1`), Result: json.RawMessage(`{}`)}
	assert.True(t, resp.IsResponse())
	assert.False(t, resp.IsRequest())
	assert.False(t, resp.IsNotification())
}

func TestTextResult_ErrorResult(t *testing.T) {
	ok := TextResult("done")
	assert.False(t, ok.IsError)
	assert.Equal(t, "done", ok.Content[0].Text)

	bad := ErrorResult("nope")
	assert.True(t, bad.IsError)
	assert.Equal(t, "nope", bad.Content[0].Text)
}

func TestNotImplementedRollback(t *testing.T) {
	r := NotImplementedRollback("ckpt-1")
	assert.False(t, r.Success)
	assert.Equal(t, "ckpt-1", r.Checkpoint)
	assert.Equal(t, "not implemented", r.Reason)
}

func TestDefaultCapabilities_AdvertisesBothFeatureSets(t *testing.T) {
	caps := DefaultCapabilities()
	assert.True(t, caps.PushEvents)
	assert.True(t, caps.Channels)
	assert.Len(t, caps.FeatureSets, 2)
	assert.Equal(t, "lobby", caps.FeatureSets[0].Name)
	assert.False(t, caps.FeatureSets[0].Rollback)
	assert.Equal(t, "game", caps.FeatureSets[1].Name)
	assert.False(t, caps.FeatureSets[1].Rollback)
}
