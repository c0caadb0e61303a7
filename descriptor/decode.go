package descriptor

import (
	"context"
	"io"
	"os"

	"github.com/andreyvit/tinyjson"

	"timingc/errs"
)

// knownOpKinds is the closed set of op kinds a descriptor may name,
// mirroring §4.5's factory set exactly (SPEC_FULL.md §3: unknown op-kinds
// are a decode-time error).
var knownOpKinds = map[string]bool{
	"ttl_init":        true,
	"ttl_on":          true,
	"ttl_off":         true,
	"hold":            true,
	"rwg_init":        true,
	"rwg_set_carrier": true,
	"rwg_linear_ramp": true,
	"rwg_set_state":   true,
	"rwg_rf_switch":   true,
	"sync_master":     true,
	"sync_slave":      true,
}

// Load reads and decodes a program descriptor from path (SPEC_FULL.md §5:
// outer-edge file I/O threads a context for cancellation, matching the
// teacher's convention). The file must hold exactly one JSON object; no
// trailing data is tolerated.
func Load(ctx context.Context, path string) (*ProgramDescriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.New(errs.BuildError, "descriptor.Load", "cannot open descriptor file").Wrap(err)
	}
	defer f.Close()
	return Decode(ctx, f)
}

// Decode reads and decodes a program descriptor from r.
func Decode(ctx context.Context, r io.Reader) (*ProgramDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.New(errs.BuildError, "descriptor.Decode", "context cancelled before read").Wrap(err)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.New(errs.BuildError, "descriptor.Decode", "cannot read descriptor").Wrap(err)
	}
	return parse(raw)
}

// parse runs tinyjson's dynamic decode and walks the resulting
// map[string]any/[]any tree into the typed descriptor model. tinyjson
// panics on malformed input instead of returning an error (the teacher's
// services/config package never recovers because it only ever reads
// trusted embedded data; a descriptor file is untrusted user input, so the
// boundary here recovers and converts the panic to a BuildError).
func parse(raw []byte) (pd *ProgramDescriptor, err error) {
	defer func() {
		if r := recover(); r != nil {
			pd = nil
			err = errs.New(errs.BuildError, "descriptor.parse", "malformed descriptor JSON").Wrap(panicToError(r))
		}
	}()

	r := tinyjson.Raw(raw)
	val := r.Value()
	r.EnsureEOF()

	top, ok := val.(map[string]any)
	if !ok {
		return nil, errs.New(errs.BuildError, "descriptor.parse", "descriptor root is not a JSON object")
	}

	boards, err := decodeBoards(top["boards"])
	if err != nil {
		return nil, err
	}
	steps, err := decodeSteps(top["steps"])
	if err != nil {
		return nil, err
	}
	return &ProgramDescriptor{Boards: boards, Steps: steps}, nil
}

func decodeBoards(v any) ([]BoardDescriptor, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, errs.New(errs.BuildError, "descriptor.decodeBoards", "\"boards\" must be an array")
	}
	out := make([]BoardDescriptor, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, errs.New(errs.BuildError, "descriptor.decodeBoards", "board entry is not an object")
		}
		id, ok := obj["id"].(string)
		if !ok || id == "" {
			return nil, errs.New(errs.BuildError, "descriptor.decodeBoards", "board entry missing \"id\"")
		}
		chans, err := decodeChannels(obj["channels"])
		if err != nil {
			return nil, err
		}
		out = append(out, BoardDescriptor{ID: id, Channels: chans})
	}
	return out, nil
}

func decodeChannels(v any) ([]ChannelDescriptor, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, errs.New(errs.BuildError, "descriptor.decodeChannels", "\"channels\" must be an array")
	}
	out := make([]ChannelDescriptor, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, errs.New(errs.BuildError, "descriptor.decodeChannels", "channel entry is not an object")
		}
		idx, ok := obj["index"].(float64)
		if !ok {
			return nil, errs.New(errs.BuildError, "descriptor.decodeChannels", "channel entry missing \"index\"")
		}
		kind, ok := obj["kind"].(string)
		if !ok {
			return nil, errs.New(errs.BuildError, "descriptor.decodeChannels", "channel entry missing \"kind\"")
		}
		out = append(out, ChannelDescriptor{Index: int(idx), Kind: kind})
	}
	return out, nil
}

func decodeSteps(v any) ([]StepDescriptor, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, errs.New(errs.BuildError, "descriptor.decodeSteps", "\"steps\" must be an array")
	}
	out := make([]StepDescriptor, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, errs.New(errs.BuildError, "descriptor.decodeSteps", "step entry is not an object")
		}
		opsRaw, ok := obj["ops"].([]any)
		if !ok {
			return nil, errs.New(errs.BuildError, "descriptor.decodeSteps", "step entry missing \"ops\" array")
		}
		ops := make([]OpDescriptor, 0, len(opsRaw))
		for _, o := range opsRaw {
			op, err := decodeOp(o)
			if err != nil {
				return nil, err
			}
			ops = append(ops, op)
		}
		out = append(out, StepDescriptor{Ops: ops})
	}
	return out, nil
}

func decodeOp(v any) (OpDescriptor, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return OpDescriptor{}, errs.New(errs.BuildError, "descriptor.decodeOp", "op entry is not an object")
	}
	board, ok := obj["board"].(string)
	if !ok || board == "" {
		return OpDescriptor{}, errs.New(errs.BuildError, "descriptor.decodeOp", "op entry missing \"board\"")
	}
	index, ok := obj["index"].(float64)
	if !ok {
		return OpDescriptor{}, errs.New(errs.BuildError, "descriptor.decodeOp", "op entry missing \"index\"").WithChannel(board)
	}
	kind, ok := obj["kind"].(string)
	if !ok || kind == "" {
		return OpDescriptor{}, errs.New(errs.BuildError, "descriptor.decodeOp", "op entry missing \"kind\"").WithChannel(board)
	}
	if !knownOpKinds[kind] {
		return OpDescriptor{}, errs.New(errs.BuildError, "descriptor.decodeOp", "unknown op kind \""+kind+"\"").WithChannel(board)
	}

	op := OpDescriptor{Board: board, Index: int(index), Kind: kind}
	if f, ok := obj["duration_us"].(float64); ok {
		op.DurationUS = f
	}
	if f, ok := obj["carrier_mhz"].(float64); ok {
		op.CarrierMHz = f
	}
	if b, ok := obj["on"].(bool); ok {
		op.On = b
	}
	if f, ok := obj["code"].(float64); ok {
		op.Code = uint8(f)
	}
	if raw, ok := obj["targets"].([]any); ok {
		targets, err := decodeTargets(raw)
		if err != nil {
			return OpDescriptor{}, err
		}
		op.Targets = targets
	}
	return op, nil
}

func decodeTargets(items []any) ([]SBGTargetDescriptor, error) {
	out := make([]SBGTargetDescriptor, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, errs.New(errs.BuildError, "descriptor.decodeTargets", "target entry is not an object")
		}
		idx, _ := obj["index"].(float64)
		t := SBGTargetDescriptor{Index: int(idx)}
		if arr, ok := obj["freq_coeffs"].([]any); ok {
			t.FreqCoeffs = decodeCoeffs(arr)
		}
		if arr, ok := obj["amp_coeffs"].([]any); ok {
			t.AmpCoeffs = decodeCoeffs(arr)
		}
		if f, ok := obj["phase"].(float64); ok {
			t.Phase = f
		}
		if f, ok := obj["scale_exp"].(float64); ok {
			t.ScaleExp = int(f)
		}
		out = append(out, t)
	}
	return out, nil
}

func decodeCoeffs(arr []any) [4]float64 {
	var out [4]float64
	for i := 0; i < len(arr) && i < 4; i++ {
		if f, ok := arr[i].(float64); ok {
			out[i] = f
		}
	}
	return out
}

func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return errs.New(errs.InternalAssertion, "descriptor.parse", "non-error panic during decode")
}
