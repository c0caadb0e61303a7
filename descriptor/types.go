// Package descriptor decodes a JSON-shaped program description into the
// program algebra's typed model. It is an ambient, JSON-facing convenience
// around the factory layer (SPEC_FULL.md §6) — not part of the compiler's
// contract — built for the demo CLI and for tests that want to assemble
// many channels without hand-composing every morphism.
package descriptor

// ChannelDescriptor mirrors one program.Channel: a local index on a board,
// plus its kind ("ttl" or "rwg").
type ChannelDescriptor struct {
	Index int
	Kind  string
}

// BoardDescriptor mirrors one program.Board and the channels it owns.
type BoardDescriptor struct {
	ID       string
	Channels []ChannelDescriptor
}

// SBGTargetDescriptor mirrors program.SBGTarget: one sideband generator's
// waveform coefficients, in physical units.
type SBGTargetDescriptor struct {
	Index      int
	FreqCoeffs [4]float64
	AmpCoeffs  [4]float64
	Phase      float64
	ScaleExp   int
}

// OpDescriptor names one factory call and its channel reference plus the
// parameters that call needs. Not every field applies to every Kind; see
// Build for the mapping to §4.5 factories.
type OpDescriptor struct {
	Board string
	Index int
	Kind  string

	DurationUS float64
	CarrierMHz float64
	On         bool
	Code       uint8
	Targets    []SBGTargetDescriptor
}

// StepDescriptor is one AutoSerial stage: every op in it targets a distinct
// channel and composes in Parallel with its siblings.
type StepDescriptor struct {
	Ops []OpDescriptor
}

// ProgramDescriptor is the full JSON program: a board/channel topology plus
// an ordered list of steps (SPEC_FULL.md §3, §6).
type ProgramDescriptor struct {
	Boards []BoardDescriptor
	Steps  []StepDescriptor
}
