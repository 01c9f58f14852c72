package saibridge

/*
#include <stdlib.h>

// The engine hands each AI instance a fixed-order array of raw C function
// pointers (>=596 entries in the reference ABI). We never see the real
// struct layout — only the entries we need, located by index — so we model
// it as an opaque array of void* and cast each slot to the one C function
// pointer type we need at the call site. Trampolines below exist because
// cgo cannot call an arbitrary C function pointer value directly; each
// trampoline casts the void* at the given vtable slot to its true
// signature and invokes it.

typedef int   (*fn_engine_handle_command)(int, int, int, int, void*);
typedef int   (*fn_get_current_frame)(int);
typedef int   (*fn_get_my_team)(int);
typedef int   (*fn_get_my_ally_team)(int);
typedef int   (*fn_is_paused)(int);
typedef float (*fn_economy_get)(int, int, int);
typedef int   (*fn_map_get_dim)(int);
typedef void  (*fn_log)(int, const char*);
typedef const char* (*fn_get_value_by_key)(int, const char*);
typedef int   (*fn_unit_get_def)(int, int);
typedef const char* (*fn_def_get_name)(int, int);

static int call_engine_handle_command(void *fn, int aiId, int toId, int cmdId, int topicId, void *data) {
	return ((fn_engine_handle_command)fn)(aiId, toId, cmdId, topicId, data);
}

static int call_int_from_id(void *fn, int aiId) {
	return ((fn_get_current_frame)fn)(aiId);
}

static float call_economy_get(void *fn, int aiId, int resourceId, int kind) {
	return ((fn_economy_get)fn)(aiId, resourceId, kind);
}

static void call_log(void *fn, int aiId, const char *msg) {
	((fn_log)fn)(aiId, msg);
}

static const char* call_get_value_by_key(void *fn, int aiId, const char *key) {
	return ((fn_get_value_by_key)fn)(aiId, key);
}

static int call_unit_get_def(void *fn, int aiId, int unitId) {
	return ((fn_unit_get_def)fn)(aiId, unitId);
}

static const char* call_def_get_name(void *fn, int aiId, int defId) {
	return ((fn_def_get_name)fn)(aiId, defId);
}
*/
import "C"

import (
	"unsafe"
)

// Vtable slot indices for the calls EP actually needs, named after the
// reference ABI's SSkirmishAICallback layout.
const (
	idxEngineHandleCommand      = 0
	idxSkirmishAIInfoGetValue   = 22
	idxSkirmishAIOptionGetValue = 26
	idxLogLog                   = 27
	idxGameGetCurrentFrame      = 36
	idxGameGetMyTeam            = 38
	idxGameGetMyAllyTeam        = 39
	idxGameIsPaused             = 58
	idxEconomyGetCurrent        = 74
	idxEconomyGetIncome         = 75
	idxEconomyGetUsage          = 76
	idxEconomyGetStorage        = 77
	idxUnitGetDef               = 200 // curated subset; exact index not load-bearing here
	idxUnitDefGetName           = 201
	idxMapGetWidth              = 394
	idxMapGetHeight             = 395

	callbackFieldCount = 596
)

// Engine-side command topic ids and the shift-key queue flag.
const (
	commandToIDEngine = -1

	commandSendTextMessage  = 6
	commandUnitBuild        = 35
	commandUnitStop         = 36
	commandUnitMove         = 42
	commandUnitPatrol       = 43
	commandUnitFight        = 44
	commandUnitAttack       = 45
	commandUnitGuard        = 47
	commandUnitRepair       = 51
	commandUnitSetFireState = 52
	commandUnitSetMoveState = 53

	// The reference ABI excerpt available to this port has no dedicated
	// admin-command topic ids for pause/unpause/set_speed (see
	// SPEC_FULL.md supplement #2); these three placeholders route through
	// the same Engine_handleCommand entry point with their own topic ids
	// reserved above the curated unit-command range so they never alias
	// a real unit command.
	commandAdminPause    = 1000
	commandAdminUnpause  = 1001
	commandAdminSetSpeed = 1002

	unitCommandOptionShiftKey = 1 << 5
)

// Callbacks wraps the engine-provided callback table behind a safe,
// curated adapter. It is only valid between init and release for a given
// ai-id — never stored past release (spec.md §3, §9).
type Callbacks struct {
	aiID int32
	raw  unsafe.Pointer // *C.void*[callbackFieldCount], owned by the engine
}

// newCallbacks wraps a raw vtable pointer handed to init/handleEvent(topic=Init).
func newCallbacks(aiID int32, table unsafe.Pointer) Callbacks {
	return Callbacks{aiID: aiID, raw: table}
}

func (c Callbacks) slot(idx int) unsafe.Pointer {
	base := (*[callbackFieldCount]unsafe.Pointer)(c.raw)
	return base[idx]
}

func (c Callbacks) GetCurrentFrame() int32 {
	return int32(C.call_int_from_id(c.slot(idxGameGetCurrentFrame), C.int(c.aiID)))
}

func (c Callbacks) GetMyTeam() int32 {
	return int32(C.call_int_from_id(c.slot(idxGameGetMyTeam), C.int(c.aiID)))
}

func (c Callbacks) GetMyAllyTeam() int32 {
	return int32(C.call_int_from_id(c.slot(idxGameGetMyAllyTeam), C.int(c.aiID)))
}

func (c Callbacks) IsPaused() bool {
	return C.call_int_from_id(c.slot(idxGameIsPaused), C.int(c.aiID)) != 0
}

// EconomyKind selects which of {current,income,usage,storage} to read.
type EconomyKind int

const (
	EconomyCurrent EconomyKind = iota
	EconomyIncome
	EconomyUsage
	EconomyStorage
)

func (c Callbacks) Economy(resourceID int32, kind EconomyKind) float32 {
	idx := idxEconomyGetCurrent
	switch kind {
	case EconomyIncome:
		idx = idxEconomyGetIncome
	case EconomyUsage:
		idx = idxEconomyGetUsage
	case EconomyStorage:
		idx = idxEconomyGetStorage
	}
	return float32(C.call_economy_get(c.slot(idx), C.int(c.aiID), C.int(resourceID), 0))
}

func (c Callbacks) MapWidth() int32  { return int32(C.call_int_from_id(c.slot(idxMapGetWidth), C.int(c.aiID))) }
func (c Callbacks) MapHeight() int32 { return int32(C.call_int_from_id(c.slot(idxMapGetHeight), C.int(c.aiID))) }

func (c Callbacks) Log(msg string) {
	cs := C.CString(msg)
	defer C.free(unsafe.Pointer(cs))
	C.call_log(c.slot(idxLogLog), C.int(c.aiID), cs)
}

// HandleCommand is the universal command-injection entry point:
// Engine_handleCommand(ai_id, -1, commandId, topicId, dataPtr).
func (c Callbacks) HandleCommand(commandID, topicID int32, data unsafe.Pointer) int32 {
	return int32(C.call_engine_handle_command(c.slot(idxEngineHandleCommand), C.int(c.aiID), C.int(commandToIDEngine), C.int(commandID), C.int(topicID), data))
}

func (c Callbacks) getValueByKey(idx int, key string) (string, bool) {
	cs := C.CString(key)
	defer C.free(unsafe.Pointer(cs))
	res := C.call_get_value_by_key(c.slot(idx), C.int(c.aiID), cs)
	if res == nil {
		return "", false
	}
	return C.GoString(res), true
}

func (c Callbacks) GetInfoValue(key string) (string, bool) {
	return c.getValueByKey(idxSkirmishAIInfoGetValue, key)
}

func (c Callbacks) GetOptionValue(key string) (string, bool) {
	return c.getValueByKey(idxSkirmishAIOptionGetValue, key)
}

// UnitDef returns the def id for unitID, or a negative value if unknown.
func (c Callbacks) UnitDef(unitID int32) int32 {
	return int32(C.call_unit_get_def(c.slot(idxUnitGetDef), C.int(c.aiID), C.int(unitID)))
}

// DefName resolves a def id to its internal name.
func (c Callbacks) DefName(defID int32) (string, bool) {
	res := C.call_def_get_name(c.slot(idxUnitDefGetName), C.int(c.aiID), C.int(defID))
	if res == nil {
		return "", false
	}
	return C.GoString(res), true
}
