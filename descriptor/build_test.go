package descriptor

import (
	"context"
	"strings"
	"testing"

	"timingc/compiler"
)

type fakeAssembler struct{ boards map[string]bool }

func (a fakeAssembler) HasBoard(board string) bool { return a.boards[board] }

func TestBuildTTLPulseCompiles(t *testing.T) {
	pd, err := Decode(context.Background(), strings.NewReader(ttlPulseJSON))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	m, err := Build(pd)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	asm := fakeAssembler{boards: map[string]bool{"RWG_0": true}}
	out, err := compiler.Compile(m, asm, compiler.Options{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	var ttlConfigs int
	for _, c := range out["RWG_0"] {
		if c.Opcode == compiler.OpTTLConfig {
			ttlConfigs++
		}
	}
	if ttlConfigs != 3 {
		t.Fatalf("expected 3 ttl_config calls, got %d: %+v", ttlConfigs, out["RWG_0"])
	}
}

const rwgRampJSON = `{
  "boards": [
    {"id": "RWG_0", "channels": [{"index": 0, "kind": "rwg"}]}
  ],
  "steps": [
    {"ops": [{"board": "RWG_0", "index": 0, "kind": "rwg_init"}]},
    {"ops": [{"board": "RWG_0", "index": 0, "kind": "hold", "duration_us": 1}]},
    {"ops": [{"board": "RWG_0", "index": 0, "kind": "rwg_linear_ramp", "duration_us": 10,
      "targets": [{"index": 0, "freq_coeffs": [1000000, 0, 0, 0], "amp_coeffs": [0.5, 0, 0, 0]}]}]}
  ]
}`

func TestBuildRWGLinearRampCompiles(t *testing.T) {
	pd, err := Decode(context.Background(), strings.NewReader(rwgRampJSON))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	m, err := Build(pd)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	asm := fakeAssembler{boards: map[string]bool{"RWG_0": true}}
	out, err := compiler.Compile(m, asm, compiler.Options{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	var loads, plays int
	for _, c := range out["RWG_0"] {
		switch c.Opcode {
		case compiler.OpRWGLoadWaveform:
			loads++
		case compiler.OpRWGPlay:
			plays++
		}
	}
	if loads != 1 || plays != 1 {
		t.Fatalf("expected 1 load and 1 play, got loads=%d plays=%d: %+v", loads, plays, out["RWG_0"])
	}
}

func TestBuildRejectsUninitializedChannel(t *testing.T) {
	const bad = `{
    "boards": [{"id": "RWG_0", "channels": [{"index": 0, "kind": "ttl"}]}],
    "steps": [{"ops": [{"board": "RWG_0", "index": 0, "kind": "ttl_on"}]}]
  }`
	pd, err := Decode(context.Background(), strings.NewReader(bad))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, err := Build(pd); err == nil {
		t.Fatal("expected an error driving a channel high before ttl_init")
	}
}

func TestBuildRejectsUndeclaredChannelReference(t *testing.T) {
	const bad = `{
    "boards": [{"id": "RWG_0", "channels": []}],
    "steps": [{"ops": [{"board": "RWG_0", "index": 0, "kind": "ttl_init"}]}]
  }`
	pd, err := Decode(context.Background(), strings.NewReader(bad))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, err := Build(pd); err == nil {
		t.Fatal("expected an error referencing an undeclared channel")
	}
}
