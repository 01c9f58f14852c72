package saibridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveUnitName_NonPositiveIDUnnamed(t *testing.T) {
	// id <= 0 must return nil without touching the callback table at all,
	// so a zero-value Callbacks is safe here.
	var cb Callbacks
	assert.Nil(t, resolveUnitName(cb, 0))
	assert.Nil(t, resolveUnitName(cb, -5))
}

func TestEnrichEvent_UnknownTypeUntouched(t *testing.T) {
	var cb Callbacks
	ev := &Event{Type: "message", Text: "gg"}
	enrichEvent(cb, ev)
	assert.Nil(t, ev.UnitName)
	assert.Nil(t, ev.AttackerName)
}

func TestEnrichEvent_NonPositiveIDsLeaveNamesNil(t *testing.T) {
	var cb Callbacks
	ev := &Event{Type: "unit_damaged", UnitID: 0, AttackerID: -1}
	enrichEvent(cb, ev)
	assert.Nil(t, ev.UnitName)
	assert.Nil(t, ev.AttackerName)
}
