package saibridge

/*
#include <stdlib.h>

typedef struct { int unit_id; int group_id; short options; int time_out; float *to_pos; } SMoveUnitCommand;
typedef struct { int unit_id; int group_id; short options; int time_out; } SStopUnitCommand;
typedef struct { int unit_id; int group_id; short options; int time_out; int to_attack_unit_id; } SAttackUnitCommand;
typedef struct { int unit_id; int group_id; short options; int time_out; int to_build_unit_def_id; float *build_pos; int facing; } SBuildUnitCommand;
typedef struct { int unit_id; int group_id; short options; int time_out; float *to_pos; } SPatrolUnitCommand;
typedef struct { int unit_id; int group_id; short options; int time_out; float *to_pos; } SFightUnitCommand;
typedef struct { int unit_id; int group_id; short options; int time_out; int to_guard_unit_id; } SGuardUnitCommand;
typedef struct { int unit_id; int group_id; short options; int time_out; int to_repair_unit_id; } SRepairUnitCommand;
typedef struct { int unit_id; int group_id; short options; int time_out; int fire_state; } SSetFireStateUnitCommand;
typedef struct { int unit_id; int group_id; short options; int time_out; int move_state; } SSetMoveStateUnitCommand;
typedef struct { const char *text; int zone; } SSendTextMessageCommand;
typedef struct { int paused; } SPauseCommand;
typedef struct { float speed; } SSetSpeedCommand;
*/
import "C"

import (
	"encoding/json"
	"fmt"
	"unsafe"
)

// Command is the tagged union of JSON commands received from GameManager.
// Dispatch covers every tag spec.md §4.2 names, including pause/unpause/
// set_speed (supplement #2 in SPEC_FULL.md: the reference plugin snapshot
// didn't dispatch these even though the GM-side mirror enum declared them).
type Command struct {
	Type string `json:"type"`

	UnitID     int32   `json:"unit_id"`
	X          float32 `json:"x"`
	Y          float32 `json:"y"`
	Z          float32 `json:"z"`
	Queue      bool    `json:"queue"`
	TargetID   int32   `json:"target_id"`
	BuildDefID int32   `json:"build_def_id"`
	Facing     int32   `json:"facing"`
	GuardID    int32   `json:"guard_id"`
	RepairID   int32   `json:"repair_id"`
	State      int32   `json:"state"`
	Text       string  `json:"text"`
	Speed      float32 `json:"speed"`
}

// ParseCommand decodes one line of inbound JSON into a Command.
func ParseCommand(line []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(line, &c); err != nil {
		return Command{}, err
	}
	return c, nil
}

func queueFlag(q bool) C.short {
	if q {
		return C.short(unitCommandOptionShiftKey)
	}
	return 0
}

// Dispatch converts cmd to its C struct and invokes Engine_handleCommand.
// Returns an error describing the non-zero engine result, if any.
func Dispatch(cb Callbacks, cmd Command) error {
	var result int32

	switch cmd.Type {
	case "move":
		pos := [3]C.float{C.float(cmd.X), C.float(cmd.Y), C.float(cmd.Z)}
		data := C.SMoveUnitCommand{unit_id: C.int(cmd.UnitID), group_id: -1, options: queueFlag(cmd.Queue), time_out: 0x7fffffff, to_pos: (*C.float)(&pos[0])}
		result = cb.HandleCommand(commandUnitMove, 0, unsafe.Pointer(&data))

	case "stop":
		data := C.SStopUnitCommand{unit_id: C.int(cmd.UnitID), group_id: -1, options: 0, time_out: 0x7fffffff}
		result = cb.HandleCommand(commandUnitStop, 0, unsafe.Pointer(&data))

	case "attack":
		data := C.SAttackUnitCommand{unit_id: C.int(cmd.UnitID), group_id: -1, options: queueFlag(cmd.Queue), time_out: 0x7fffffff, to_attack_unit_id: C.int(cmd.TargetID)}
		result = cb.HandleCommand(commandUnitAttack, 0, unsafe.Pointer(&data))

	case "build":
		pos := [3]C.float{C.float(cmd.X), C.float(cmd.Y), C.float(cmd.Z)}
		data := C.SBuildUnitCommand{unit_id: C.int(cmd.UnitID), group_id: -1, options: queueFlag(cmd.Queue), time_out: 0x7fffffff, to_build_unit_def_id: C.int(cmd.BuildDefID), build_pos: (*C.float)(&pos[0]), facing: C.int(cmd.Facing)}
		result = cb.HandleCommand(commandUnitBuild, 0, unsafe.Pointer(&data))

	case "patrol":
		pos := [3]C.float{C.float(cmd.X), C.float(cmd.Y), C.float(cmd.Z)}
		data := C.SPatrolUnitCommand{unit_id: C.int(cmd.UnitID), group_id: -1, options: queueFlag(cmd.Queue), time_out: 0x7fffffff, to_pos: (*C.float)(&pos[0])}
		result = cb.HandleCommand(commandUnitPatrol, 0, unsafe.Pointer(&data))

	case "fight":
		pos := [3]C.float{C.float(cmd.X), C.float(cmd.Y), C.float(cmd.Z)}
		data := C.SFightUnitCommand{unit_id: C.int(cmd.UnitID), group_id: -1, options: queueFlag(cmd.Queue), time_out: 0x7fffffff, to_pos: (*C.float)(&pos[0])}
		result = cb.HandleCommand(commandUnitFight, 0, unsafe.Pointer(&data))

	case "guard":
		data := C.SGuardUnitCommand{unit_id: C.int(cmd.UnitID), group_id: -1, options: queueFlag(cmd.Queue), time_out: 0x7fffffff, to_guard_unit_id: C.int(cmd.GuardID)}
		result = cb.HandleCommand(commandUnitGuard, 0, unsafe.Pointer(&data))

	case "repair":
		data := C.SRepairUnitCommand{unit_id: C.int(cmd.UnitID), group_id: -1, options: queueFlag(cmd.Queue), time_out: 0x7fffffff, to_repair_unit_id: C.int(cmd.RepairID)}
		result = cb.HandleCommand(commandUnitRepair, 0, unsafe.Pointer(&data))

	case "set_fire_state":
		data := C.SSetFireStateUnitCommand{unit_id: C.int(cmd.UnitID), group_id: -1, options: 0, time_out: 0x7fffffff, fire_state: C.int(cmd.State)}
		result = cb.HandleCommand(commandUnitSetFireState, 0, unsafe.Pointer(&data))

	case "set_move_state":
		data := C.SSetMoveStateUnitCommand{unit_id: C.int(cmd.UnitID), group_id: -1, options: 0, time_out: 0x7fffffff, move_state: C.int(cmd.State)}
		result = cb.HandleCommand(commandUnitSetMoveState, 0, unsafe.Pointer(&data))

	case "send_chat":
		cs := C.CString(cmd.Text)
		defer C.free(unsafe.Pointer(cs))
		data := C.SSendTextMessageCommand{text: cs, zone: 0}
		result = cb.HandleCommand(commandSendTextMessage, 0, unsafe.Pointer(&data))

	case "pause":
		data := C.SPauseCommand{paused: 1}
		result = cb.HandleCommand(commandAdminPause, 0, unsafe.Pointer(&data))

	case "unpause":
		data := C.SPauseCommand{paused: 0}
		result = cb.HandleCommand(commandAdminUnpause, 0, unsafe.Pointer(&data))

	case "set_speed":
		data := C.SSetSpeedCommand{speed: C.float(cmd.Speed)}
		result = cb.HandleCommand(commandAdminSetSpeed, 0, unsafe.Pointer(&data))

	default:
		return fmt.Errorf("unknown command type %q", cmd.Type)
	}

	if result != 0 {
		return fmt.Errorf("Engine_handleCommand returned %d", result)
	}
	return nil
}
