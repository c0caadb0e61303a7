package program

// TTLLevel is the closed set of states a TTL channel can be in.
type TTLLevel uint8

const (
	TTLUninit TTLLevel = iota
	TTLOff
	TTLOn
)

// RWGPhase is the closed set of states an RWG channel can be in.
type RWGPhase uint8

const (
	RWGUninit RWGPhase = iota
	RWGReady
	RWGActive
)

// SBGParams is the per-sideband-generator configuration carried by a ready
// or active RWG state: polynomial coefficients for frequency and amplitude
// (orders 0..3), initial phase, the hardware's scale exponent, and a
// per-order "has this order changed since the previous segment" bitflag
// set, which Pass 1 passes through as an rwg_load_waveform argument; the
// Pass 2 cost model does not read it (SPEC_FULL.md §4.2, §9).
type SBGParams struct {
	Index      int
	FreqCoeffs [4]float64 // F0..F3 (F0 in MHz, F1..F3 its time derivatives)
	AmpCoeffs  [4]float64 // A0..A3 (full-scale fraction and derivatives)
	Phase      float64    // radians
	ScaleExp   int         // hardware scale exponent S
	Changed    [4]bool    // per-order has-changed flags
}

// State is a tagged variant over the two channel kinds. Only the fields
// relevant to Kind are meaningful; Equal is the single source of truth for
// state-continuity comparisons so callers never compare fields directly.
//
// Unspecified marks a placeholder state produced by a bare Hold/Identity
// factory call, whose real value is only known once it is anchored to a
// concrete neighbour during composition (SPEC_FULL.md §4.4(b)).
type State struct {
	Kind        ChannelKind
	Unspecified bool

	TTL TTLLevel

	RWG        RWGPhase
	CarrierMHz float64
	SBGs       map[int]SBGParams
}

// TTLState constructs a concrete TTL state.
func TTLState(level TTLLevel) State {
	return State{Kind: TTL, TTL: level}
}

// RWGUninitState constructs the RWG "uninitialized" state.
func RWGUninitState() State {
	return State{Kind: RWG, RWG: RWGUninit}
}

// RWGReadyState constructs an RWG "ready" state with the given carrier and
// SBG parameter set.
func RWGReadyState(carrierMHz float64, sbgs map[int]SBGParams) State {
	return State{Kind: RWG, RWG: RWGReady, CarrierMHz: carrierMHz, SBGs: cloneSBGs(sbgs)}
}

// RWGActiveState constructs an RWG "active" (playing) state with the given
// carrier and SBG parameter set.
func RWGActiveState(carrierMHz float64, sbgs map[int]SBGParams) State {
	return State{Kind: RWG, RWG: RWGActive, CarrierMHz: carrierMHz, SBGs: cloneSBGs(sbgs)}
}

// UnspecifiedState constructs the placeholder used internally by bare
// Hold/Identity ops before they are anchored by composition.
func UnspecifiedState(kind ChannelKind) State {
	return State{Kind: kind, Unspecified: true}
}

func cloneSBGs(in map[int]SBGParams) map[int]SBGParams {
	if in == nil {
		return nil
	}
	out := make(map[int]SBGParams, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Equal reports whether two states are identical for the purposes of lane
// continuity. Two Unspecified states of the same kind are considered equal
// (both are "whatever the channel currently is"); an Unspecified state is
// never equal to a concrete one — composition must resolve that first
// (SPEC_FULL.md §4.4(b)).
func (s State) Equal(o State) bool {
	if s.Kind != o.Kind {
		return false
	}
	if s.Unspecified != o.Unspecified {
		return false
	}
	if s.Unspecified {
		return true
	}
	switch s.Kind {
	case TTL:
		return s.TTL == o.TTL
	case RWG:
		if s.RWG != o.RWG || s.CarrierMHz != o.CarrierMHz {
			return false
		}
		return sbgsEqual(s.SBGs, o.SBGs)
	default:
		return false
	}
}

func sbgsEqual(a, b map[int]SBGParams) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || va != vb {
			return false
		}
	}
	return true
}
