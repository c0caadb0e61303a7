package program

import "timingc/hwtime"

// OpKind is the closed set of atomic operation kinds the compiler
// understands (SPEC_FULL.md §3).
type OpKind uint8

const (
	OpTTLInit OpKind = iota
	OpTTLOn
	OpTTLOff
	OpHold // IDENTITY/HOLD
	OpRWGInit
	OpRWGSetCarrier
	OpRWGLoadCoeffs
	OpRWGUpdateParams
	OpRWGRFSwitch
	OpSyncMaster
	OpSyncSlave
)

func (k OpKind) String() string {
	switch k {
	case OpTTLInit:
		return "TTL_INIT"
	case OpTTLOn:
		return "TTL_ON"
	case OpTTLOff:
		return "TTL_OFF"
	case OpHold:
		return "HOLD"
	case OpRWGInit:
		return "RWG_INIT"
	case OpRWGSetCarrier:
		return "RWG_SET_CARRIER"
	case OpRWGLoadCoeffs:
		return "RWG_LOAD_COEFFS"
	case OpRWGUpdateParams:
		return "RWG_UPDATE_PARAMS"
	case OpRWGRFSwitch:
		return "RWG_RF_SWITCH"
	case OpSyncMaster:
		return "SYNC_MASTER"
	case OpSyncSlave:
		return "SYNC_SLAVE"
	default:
		return "UNKNOWN"
	}
}

// IsIdentity reports whether this op kind is a HOLD/IDENTITY op, the only
// kind whose boundary states may be Unspecified prior to composition.
func (k OpKind) IsIdentity() bool { return k == OpHold }

// HasLogicalDuration reports whether this op kind advances the lane clock.
// Only HOLD/IDENTITY and RWG_UPDATE_PARAMS play segments do (SPEC_FULL.md
// §4.2); everything else is logically instantaneous even though it costs
// real physical cycles, assigned later by Pass 2.
func (k OpKind) HasLogicalDuration() bool {
	return k == OpHold || k == OpRWGUpdateParams
}

// SBGTarget is one SBG's worth of the parameter bundle carried by
// RWG_LOAD_COEFFS (SPEC_FULL.md §4.2, §6).
type SBGTarget struct {
	SBGParams
}

// LoadCoeffsParams is the opaque parameter bundle for OpRWGLoadCoeffs.
type LoadCoeffsParams struct {
	Targets []SBGTarget
}

// UpdateParamsParams is the opaque parameter bundle for OpRWGUpdateParams.
type UpdateParamsParams struct {
	PUDMask uint32
	IOUMask uint32
}

// RFSwitchParams is the opaque parameter bundle for OpRWGRFSwitch.
type RFSwitchParams struct {
	On bool
}

// SyncParams is the opaque parameter bundle for OpSyncMaster/OpSyncSlave.
type SyncParams struct {
	Code uint8
}

// AtomicOp is the smallest unit of the algebra: a typed, indivisible state
// change on one channel, with an integer logical duration in cycles and an
// opaque parameter bundle. Fields are final; AtomicOp is never mutated
// after construction (SPEC_FULL.md §3, §4.2).
type AtomicOp struct {
	Channel  Channel
	Kind     OpKind
	Start    State
	End      State
	Duration hwtime.Cycle
	Params   any
}

// newAtomicOp validates the invariants common to every atomic operation
// (duration non-negative, states belong to the channel's kind) and is used
// internally by the factory layer, the sole constructor of atomic ops
// (SPEC_FULL.md §4.2).
func newAtomicOp(ch Channel, kind OpKind, start, end State, dur hwtime.Cycle, params any) (AtomicOp, error) {
	if dur < 0 {
		return AtomicOp{}, newBuildError("program.newAtomicOp", "negative duration").WithChannel(ch.String())
	}
	if start.Kind != ch.Kind || end.Kind != ch.Kind {
		return AtomicOp{}, newBuildError("program.newAtomicOp", "state kind does not match channel kind").WithChannel(ch.String())
	}
	return AtomicOp{Channel: ch, Kind: kind, Start: start, End: end, Duration: dur, Params: params}, nil
}
