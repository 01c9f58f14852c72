package saibridge

/*
// Event payload structs, as handed to handleEvent's data pointer. Field
// sets mirror the reference ABI's S*Event structs, trimmed to the fields
// EP actually forwards.

typedef struct { void *callback; int saved_game; } SInitEvent;
typedef struct { int reason; } SReleaseEvent;
typedef struct { int frame; } SUpdateEvent;
typedef struct { const char *text; int player_idx; } SMessageEvent;

typedef struct { int unit_id; int def_id; int team_id; } SUnitCreatedEvent;
typedef struct { int unit_id; int def_id; int team_id; } SUnitFinishedEvent;
typedef struct { int unit_id; } SUnitIdleEvent;
typedef struct { int unit_id; float pos[3]; } SUnitMoveFailedEvent;
typedef struct { int unit_id; int attacker_id; float damage; int weapon_def_id; float dir[3]; } SUnitDamagedEvent;
typedef struct { int unit_id; int attacker_id; int weapon_def_id; } SUnitDestroyedEvent;
typedef struct { int unit_id; int old_team_id; int new_team_id; } SUnitGivenEvent;
typedef struct { int unit_id; int old_team_id; int new_team_id; } SUnitCapturedEvent;

typedef struct { int enemy_id; int def_id; int team_id; } SEnemyEnterLOSEvent;
typedef struct { int enemy_id; } SEnemyLeaveLOSEvent;
typedef struct { int enemy_id; int def_id; int team_id; } SEnemyEnterRadarEvent;
typedef struct { int enemy_id; } SEnemyLeaveRadarEvent;
typedef struct { int enemy_id; int attacker_id; float damage; int weapon_def_id; } SEnemyDamagedEvent;
typedef struct { int enemy_id; int attacker_id; int weapon_def_id; } SEnemyDestroyedEvent;
typedef struct { int enemy_id; int def_id; int team_id; } SEnemyCreatedEvent;
typedef struct { int enemy_id; int def_id; int team_id; } SEnemyFinishedEvent;

typedef struct { int unit_id; int weapon_def_id; float pos[3]; float dir[3]; } SWeaponFiredEvent;
typedef struct { int unit_id; int command_topic_id; int command_id; } SCommandFinishedEvent;
typedef struct { const char *data; int player_idx; } SLuaMessageEvent;
*/
import "C"

import "unsafe"

// parseEvent decodes the raw event payload for topic into an Event, or
// returns (Event{}, false) for topics this bridge doesn't forward (matching
// the reference ABI's fall-through for PLAYER_COMMAND, SEISMIC_PING, LOAD,
// SAVE — spec.md's event list never names those).
func parseEvent(topic int32, data unsafe.Pointer) (Event, bool) {
	switch topic {
	case EventTopicUpdate:
		d := (*C.SUpdateEvent)(data)
		return Event{Type: "update", Frame: int32(d.frame)}, true

	case EventTopicMessage:
		d := (*C.SMessageEvent)(data)
		return Event{Type: "message", Text: C.GoString(d.text), PlayerIdx: int32(d.player_idx)}, true

	case EventTopicUnitCreated:
		d := (*C.SUnitCreatedEvent)(data)
		return Event{Type: "unit_created", UnitID: int32(d.unit_id), DefID: int32(d.def_id), TeamID: int32(d.team_id)}, true

	case EventTopicUnitFinished:
		d := (*C.SUnitFinishedEvent)(data)
		return Event{Type: "unit_finished", UnitID: int32(d.unit_id), DefID: int32(d.def_id), TeamID: int32(d.team_id)}, true

	case EventTopicUnitIdle:
		d := (*C.SUnitIdleEvent)(data)
		return Event{Type: "unit_idle", UnitID: int32(d.unit_id)}, true

	case EventTopicUnitMoveFailed:
		d := (*C.SUnitMoveFailedEvent)(data)
		return Event{Type: "unit_move_failed", UnitID: int32(d.unit_id), X: float32(d.pos[0]), Y: float32(d.pos[1]), Z: float32(d.pos[2])}, true

	case EventTopicUnitDamaged:
		d := (*C.SUnitDamagedEvent)(data)
		return Event{Type: "unit_damaged", UnitID: int32(d.unit_id), AttackerID: int32(d.attacker_id), Damage: float32(d.damage), WeaponDefID: int32(d.weapon_def_id)}, true

	case EventTopicUnitDestroyed:
		d := (*C.SUnitDestroyedEvent)(data)
		return Event{Type: "unit_destroyed", UnitID: int32(d.unit_id), AttackerID: int32(d.attacker_id), WeaponDefID: int32(d.weapon_def_id)}, true

	case EventTopicUnitGiven:
		d := (*C.SUnitGivenEvent)(data)
		return Event{Type: "unit_given", UnitID: int32(d.unit_id), OldTeamID: int32(d.old_team_id), NewTeamID: int32(d.new_team_id)}, true

	case EventTopicUnitCaptured:
		d := (*C.SUnitCapturedEvent)(data)
		return Event{Type: "unit_captured", UnitID: int32(d.unit_id), OldTeamID: int32(d.old_team_id), NewTeamID: int32(d.new_team_id)}, true

	case EventTopicEnemyEnterLOS:
		d := (*C.SEnemyEnterLOSEvent)(data)
		return Event{Type: "enemy_enter_los", UnitID: int32(d.enemy_id), DefID: int32(d.def_id), TeamID: int32(d.team_id)}, true

	case EventTopicEnemyLeaveLOS:
		d := (*C.SEnemyLeaveLOSEvent)(data)
		return Event{Type: "enemy_leave_los", UnitID: int32(d.enemy_id)}, true

	case EventTopicEnemyEnterRadar:
		d := (*C.SEnemyEnterRadarEvent)(data)
		return Event{Type: "enemy_enter_radar", UnitID: int32(d.enemy_id), DefID: int32(d.def_id), TeamID: int32(d.team_id)}, true

	case EventTopicEnemyLeaveRadar:
		d := (*C.SEnemyLeaveRadarEvent)(data)
		return Event{Type: "enemy_leave_radar", UnitID: int32(d.enemy_id)}, true

	case EventTopicEnemyDamaged:
		d := (*C.SEnemyDamagedEvent)(data)
		return Event{Type: "enemy_damaged", UnitID: int32(d.enemy_id), AttackerID: int32(d.attacker_id), Damage: float32(d.damage), WeaponDefID: int32(d.weapon_def_id)}, true

	case EventTopicEnemyDestroyed:
		d := (*C.SEnemyDestroyedEvent)(data)
		return Event{Type: "enemy_destroyed", UnitID: int32(d.enemy_id), AttackerID: int32(d.attacker_id), WeaponDefID: int32(d.weapon_def_id)}, true

	case EventTopicEnemyCreated:
		d := (*C.SEnemyCreatedEvent)(data)
		return Event{Type: "enemy_created", UnitID: int32(d.enemy_id), DefID: int32(d.def_id), TeamID: int32(d.team_id)}, true

	case EventTopicEnemyFinished:
		d := (*C.SEnemyFinishedEvent)(data)
		return Event{Type: "enemy_finished", UnitID: int32(d.enemy_id), DefID: int32(d.def_id), TeamID: int32(d.team_id)}, true

	case EventTopicWeaponFired:
		d := (*C.SWeaponFiredEvent)(data)
		return Event{Type: "weapon_fired", UnitID: int32(d.unit_id), WeaponDefID: int32(d.weapon_def_id), X: float32(d.pos[0]), Y: float32(d.pos[1]), Z: float32(d.pos[2])}, true

	case EventTopicCommandFinished:
		d := (*C.SCommandFinishedEvent)(data)
		return Event{Type: "command_finished", UnitID: int32(d.unit_id), CommandTopicID: int32(d.command_topic_id), CommandID: int32(d.command_id)}, true

	case EventTopicLuaMessage:
		d := (*C.SLuaMessageEvent)(data)
		return Event{Type: "lua_message", LuaData: C.GoString(d.data), LuaPlayerIdx: int32(d.player_idx)}, true

	default:
		return Event{}, false
	}
}

// resolveUnitName enriches id into a *string per spec.md §4.1: ids <= 0 are
// left unnamed; ids with a negative def log a warning and are left unnamed.
func resolveUnitName(cb Callbacks, id int32) *string {
	if id <= 0 {
		return nil
	}
	defID := cb.UnitDef(id)
	if defID < 0 {
		cb.Log("unit id has negative def, skipping name enrichment")
		return nil
	}
	name, ok := cb.DefName(defID)
	if !ok {
		return nil
	}
	return &name
}

// enrichEvent attaches human-readable names to unit/enemy/attacker ids.
func enrichEvent(cb Callbacks, ev *Event) {
	switch ev.Type {
	case "unit_created", "unit_finished", "unit_idle", "unit_move_failed",
		"enemy_enter_los", "enemy_enter_radar", "enemy_created", "enemy_finished",
		"unit_given", "unit_captured", "weapon_fired", "command_finished":
		ev.UnitName = resolveUnitName(cb, ev.UnitID)

	case "unit_damaged", "enemy_damaged":
		ev.UnitName = resolveUnitName(cb, ev.UnitID)
		ev.AttackerName = resolveUnitName(cb, ev.AttackerID)

	case "unit_destroyed", "enemy_destroyed":
		ev.UnitName = resolveUnitName(cb, ev.UnitID)
		ev.AttackerName = resolveUnitName(cb, ev.AttackerID)
	}
}
