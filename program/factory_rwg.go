package program

import (
	"timingc/hwtime"
	"timingc/mathx"
)

// legalRWGTransition is the RWG channel's transition table (SPEC_FULL.md
// §4.6): INIT only from Uninit; parameter loads and RF switching only once
// the channel is at least Ready.
func legalRWGTransition(kind OpKind, from RWGPhase) bool {
	switch kind {
	case OpRWGInit:
		return from == RWGUninit
	case OpRWGSetCarrier, OpRWGLoadCoeffs, OpRWGUpdateParams, OpRWGRFSwitch:
		return from == RWGReady || from == RWGActive
	default:
		return false
	}
}

// validAmplitudeCoeffs reports whether a0 (the DC/full-scale amplitude term)
// lies within the hardware's representable range; higher-order derivative
// terms are unbounded (SPEC_FULL.md §4.2).
func validAmplitudeCoeffs(coeffs [4]float64) bool {
	return mathx.Between(coeffs[0], -1.0, 1.0)
}

// RWGInit moves an RWG channel from Uninit to Ready with no carrier or SBGs
// configured yet.
func RWGInit(ch Channel) (*Morphism, error) {
	if ch.Kind != RWG {
		return nil, newBuildError("program.RWGInit", "channel is not an RWG channel").WithChannel(ch.String())
	}
	op, err := newAtomicOp(ch, OpRWGInit, RWGUninitState(), RWGReadyState(0, nil), 0, nil)
	if err != nil {
		return nil, err
	}
	return singleOpMorphism(ch, op)
}

// SetCarrier reconfigures the channel's carrier frequency while preserving
// its current SBG set and activity phase (Ready stays Ready, Active stays
// Active).
func SetCarrier(ch Channel, from State, carrierMHz float64) (*Morphism, error) {
	if ch.Kind != RWG {
		return nil, newBuildError("program.SetCarrier", "channel is not an RWG channel").WithChannel(ch.String())
	}
	if !legalRWGTransition(OpRWGSetCarrier, from.RWG) {
		return nil, newBuildError("program.SetCarrier", "channel is not initialized").WithChannel(ch.String())
	}
	to := stateWithCarrier(from, carrierMHz)
	op, err := newAtomicOp(ch, OpRWGSetCarrier, from, to, 0, nil)
	if err != nil {
		return nil, err
	}
	return singleOpMorphism(ch, op)
}

func stateWithCarrier(from State, carrierMHz float64) State {
	if from.RWG == RWGActive {
		return RWGActiveState(carrierMHz, from.SBGs)
	}
	return RWGReadyState(carrierMHz, from.SBGs)
}

// LinearRamp loads a set of per-SBG polynomial coefficients (a first-order
// ramp is the 2-coefficient case: F0/A0 plus a non-zero F1/A1 slope) and
// plays them for dur cycles, validating every target's amplitude range
// before constructing the op (SPEC_FULL.md §4.2, §4.6).
func LinearRamp(ch Channel, from State, targets []SBGTarget, dur hwtime.Cycle) (*Morphism, error) {
	if ch.Kind != RWG {
		return nil, newBuildError("program.LinearRamp", "channel is not an RWG channel").WithChannel(ch.String())
	}
	if !legalRWGTransition(OpRWGLoadCoeffs, from.RWG) {
		return nil, newBuildError("program.LinearRamp", "channel is not initialized").WithChannel(ch.String())
	}
	sbgs := cloneSBGs(from.SBGs)
	if sbgs == nil {
		sbgs = make(map[int]SBGParams, len(targets))
	}
	for _, tgt := range targets {
		if !validAmplitudeCoeffs(tgt.AmpCoeffs) {
			return nil, newBuildError("program.LinearRamp", "amplitude coefficient out of [-1,1] range").WithChannel(ch.String())
		}
		sbgs[tgt.Index] = tgt.SBGParams
	}
	loadOp, err := newAtomicOp(ch, OpRWGLoadCoeffs, from, from, 0, LoadCoeffsParams{Targets: targets})
	if err != nil {
		return nil, err
	}
	// A zero-duration play (SetState) triggers the waveform but does not
	// itself occupy any logical time, so the channel lands back in Ready —
	// the trigger plays during the next logical interval (SPEC_FULL.md
	// §4.5). A non-zero play genuinely occupies the channel, landing Active.
	playEnd := RWGActiveState(from.CarrierMHz, sbgs)
	if dur == 0 {
		playEnd = RWGReadyState(from.CarrierMHz, sbgs)
	}
	updateOp, err := newAtomicOp(ch, OpRWGUpdateParams, from, playEnd, dur, UpdateParamsParams{})
	if err != nil {
		return nil, err
	}
	l, err := NewLane(ch, loadOp, updateOp)
	if err != nil {
		return nil, err
	}
	return NewMorphism(l)
}

// SetState reconfigures a ready (or active) channel's SBGs to the given
// targets with no play window of its own: a LOAD_COEFFS immediately
// followed by a zero-duration UPDATE_PARAMS (the waveform plays during the
// *next* logical interval, SPEC_FULL.md §4.5). It is LinearRamp with a
// duration of zero.
func SetState(ch Channel, from State, targets []SBGTarget) (*Morphism, error) {
	return LinearRamp(ch, from, targets, 0)
}

// RFSwitch toggles the channel's RF output on or off without altering its
// loaded SBG parameters.
func RFSwitch(ch Channel, from State, on bool) (*Morphism, error) {
	if ch.Kind != RWG {
		return nil, newBuildError("program.RFSwitch", "channel is not an RWG channel").WithChannel(ch.String())
	}
	if !legalRWGTransition(OpRWGRFSwitch, from.RWG) {
		return nil, newBuildError("program.RFSwitch", "channel is not initialized").WithChannel(ch.String())
	}
	to := from
	if on {
		to = RWGActiveState(from.CarrierMHz, from.SBGs)
	} else {
		to = RWGReadyState(from.CarrierMHz, from.SBGs)
	}
	op, err := newAtomicOp(ch, OpRWGRFSwitch, from, to, 0, RFSwitchParams{On: on})
	if err != nil {
		return nil, err
	}
	return singleOpMorphism(ch, op)
}
