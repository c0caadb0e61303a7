package descriptor

import (
	"strconv"

	"timingc/errs"
	"timingc/hwtime"
	"timingc/program"
)

// channelState tracks what Build needs to supply as the "from" argument to
// factories that require an explicit current state, since the decoded
// program has no compiler of its own to infer it from (SPEC_FULL.md §4.5
// the factory layer's `from` parameters).
type channelState struct {
	ttl map[program.Channel]program.TTLLevel
	rwg map[program.Channel]program.State
}

// Build interprets a ProgramDescriptor into a program.Morphism: every
// StepDescriptor becomes one AutoSerial stage, and every op within a step
// composes with its siblings via Parallel (SPEC_FULL.md §6 — "decodes to
// exactly the factory calls of §4.5").
func Build(pd *ProgramDescriptor) (*program.Morphism, error) {
	channels, err := resolveChannels(pd.Boards)
	if err != nil {
		return nil, err
	}

	st := &channelState{
		ttl: make(map[program.Channel]program.TTLLevel),
		rwg: make(map[program.Channel]program.State),
	}

	var acc *program.Morphism
	for i, step := range pd.Steps {
		stepM, err := buildStep(step, channels, st)
		if err != nil {
			return nil, err
		}
		if stepM == nil {
			continue
		}
		if acc == nil {
			acc = stepM
			continue
		}
		acc, err = program.AutoSerial(acc, stepM)
		if err != nil {
			return nil, errs.New(errs.BuildError, "descriptor.Build", "step composition failed at step "+strconv.Itoa(i)).
				Wrap(err)
		}
	}
	if acc == nil {
		return nil, errs.New(errs.BuildError, "descriptor.Build", "descriptor has no steps")
	}
	return acc, nil
}

func resolveChannels(boards []BoardDescriptor) (map[string]program.Channel, error) {
	out := make(map[string]program.Channel)
	for _, b := range boards {
		for _, c := range b.Channels {
			kind, err := parseKind(c.Kind)
			if err != nil {
				return nil, err
			}
			out[channelKey(b.ID, c.Index)] = program.NewChannel(b.ID, c.Index, kind)
		}
	}
	return out, nil
}

func channelKey(board string, index int) string {
	return board + "/" + strconv.Itoa(index)
}

func parseKind(s string) (program.ChannelKind, error) {
	switch s {
	case "ttl":
		return program.TTL, nil
	case "rwg":
		return program.RWG, nil
	default:
		return 0, errs.New(errs.BuildError, "descriptor.parseKind", "unknown channel kind \""+s+"\"")
	}
}

func buildStep(step StepDescriptor, channels map[string]program.Channel, st *channelState) (*program.Morphism, error) {
	var stepM *program.Morphism
	for _, op := range step.Ops {
		ch, ok := channels[channelKey(op.Board, op.Index)]
		if !ok {
			return nil, errs.New(errs.BuildError, "descriptor.buildStep", "op references undeclared channel").
				WithChannel(op.Board + "/" + strconv.Itoa(op.Index))
		}
		m, err := buildOp(ch, op, st)
		if err != nil {
			return nil, err
		}
		if stepM == nil {
			stepM = m
			continue
		}
		stepM, err = program.Parallel(stepM, m)
		if err != nil {
			return nil, errs.New(errs.BuildError, "descriptor.buildStep", "ops within one step must target disjoint channels").
				WithChannel(ch.String()).Wrap(err)
		}
	}
	return stepM, nil
}

func buildOp(ch program.Channel, op OpDescriptor, st *channelState) (*program.Morphism, error) {
	switch op.Kind {
	case "ttl_init":
		m, err := program.TTLInit(ch)
		if err == nil {
			st.ttl[ch] = program.TTLOff
		}
		return m, err
	case "ttl_on":
		m, err := program.DriveHigh(ch, st.ttl[ch])
		if err == nil {
			st.ttl[ch] = program.TTLOn
		}
		return m, err
	case "ttl_off":
		m, err := program.DriveLow(ch, st.ttl[ch])
		if err == nil {
			st.ttl[ch] = program.TTLOff
		}
		return m, err
	case "hold":
		return program.Hold(ch, nil, hwtime.MicrosToCycles(op.DurationUS))
	case "rwg_init":
		m, err := program.RWGInit(ch)
		if err == nil {
			st.rwg[ch] = program.RWGReadyState(0, nil)
		}
		return m, err
	case "rwg_set_carrier":
		m, err := program.SetCarrier(ch, st.rwgFrom(ch), op.CarrierMHz)
		return trackRWG(ch, m, err, st)
	case "rwg_linear_ramp":
		m, err := program.LinearRamp(ch, st.rwgFrom(ch), buildTargets(op.Targets), hwtime.MicrosToCycles(op.DurationUS))
		return trackRWG(ch, m, err, st)
	case "rwg_set_state":
		m, err := program.SetState(ch, st.rwgFrom(ch), buildTargets(op.Targets))
		return trackRWG(ch, m, err, st)
	case "rwg_rf_switch":
		m, err := program.RFSwitch(ch, st.rwgFrom(ch), op.On)
		return trackRWG(ch, m, err, st)
	case "sync_master":
		return program.SyncMaster(ch, st.currentState(ch), op.Code)
	case "sync_slave":
		return program.SyncSlave(ch, st.currentState(ch), op.Code)
	default:
		// unreachable: decodeOp validates op.Kind against knownOpKinds.
		return nil, errs.New(errs.InternalAssertion, "descriptor.buildOp", "unknown op kind \""+op.Kind+"\"").WithChannel(ch.String())
	}
}

// rwgFrom returns the channel's last known concrete RWG state, or the
// uninitialized state if it has none yet (letting the factory's own
// transition-legality check report the real error).
func (st *channelState) rwgFrom(ch program.Channel) program.State {
	if s, ok := st.rwg[ch]; ok {
		return s
	}
	return program.RWGUninitState()
}

// currentState returns the channel's current state in whichever
// representation its kind uses, for SYNC_MASTER/SYNC_SLAVE's "at" argument.
func (st *channelState) currentState(ch program.Channel) program.State {
	if ch.Kind == program.RWG {
		return st.rwgFrom(ch)
	}
	return program.TTLState(st.ttl[ch])
}

func trackRWG(ch program.Channel, m *program.Morphism, err error, st *channelState) (*program.Morphism, error) {
	if err != nil {
		return nil, err
	}
	if lane, ok := m.Lane(ch); ok {
		st.rwg[ch] = lane.LastEnd()
	}
	return m, nil
}

func buildTargets(in []SBGTargetDescriptor) []program.SBGTarget {
	out := make([]program.SBGTarget, len(in))
	for i, t := range in {
		out[i] = program.SBGTarget{SBGParams: program.SBGParams{
			Index:      t.Index,
			FreqCoeffs: t.FreqCoeffs,
			AmpCoeffs:  t.AmpCoeffs,
			Phase:      t.Phase,
			ScaleExp:   t.ScaleExp,
		}}
	}
	return out
}
