package asm

import (
	"testing"

	"github.com/basm32/basm32/isa"
)

func assembleSource(t *testing.T, lines []string) ([]byte, *Assembler) {
	t.Helper()
	reader := MapReader{"main.asm": lines}
	a := NewAssembler(reader)
	image, err := a.Assemble("main.asm")
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	if a.HasErrors() {
		for _, d := range a.Diagnostics {
			t.Errorf("diagnostic: %s", d.String())
		}
		t.FailNow()
	}
	return image, a
}

func TestAssembleSimpleProgram(t *testing.T) {
	image, _ := assembleSource(t, []string{
		"MOV R0, #5",
		"MOV R1, #10",
		"ADD R2, R0, R1",
		"HALT",
	})

	want := []byte{
		isa.OpMOV, 0, 1, 5, 0,
		isa.OpMOV, 1, 1, 10, 0,
		isa.OpADD, 2, 0, 0, 1,
		isa.OpHALT,
	}
	if len(image) != len(want) {
		t.Fatalf("image length = %d, want %d (% X)", len(image), len(want), image)
	}
	for i := range want {
		if image[i] != want[i] {
			t.Fatalf("byte %d = 0x%02X, want 0x%02X", i, image[i], want[i])
		}
	}
}

func TestLabelResolutionForwardAndBackward(t *testing.T) {
	image, a := assembleSource(t, []string{
		"start:",
		"JMP forward",
		"back:",
		"NOP",
		"forward:",
		"JMP back",
	})

	sym, ok := a.Symbols().Lookup("forward")
	if !ok {
		t.Fatalf("forward label not defined")
	}
	if sym.Value != 4 {
		t.Fatalf("forward = %d, want 4", sym.Value)
	}

	// JMP forward at addr 0: opcode, target16_le(=4)
	if image[0] != isa.OpJMP || image[1] != 4 || image[2] != 0 {
		t.Fatalf("first JMP wrong: % X", image[:3])
	}
	// JMP back at addr 4: target should be 3 (address of "back:")
	if image[4] != isa.OpJMP || image[5] != 3 || image[6] != 0 {
		t.Fatalf("second JMP wrong: % X", image[4:7])
	}
}

func TestUndefinedSymbolProducesDiagnostic(t *testing.T) {
	reader := MapReader{"main.asm": {"JMP nowhere"}}
	a := NewAssembler(reader)
	_, err := a.Assemble("main.asm")
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	if !a.HasErrors() {
		t.Fatalf("expected a diagnostic for an undefined symbol")
	}
}

func TestOrgAndLabelBinding(t *testing.T) {
	_, a := assembleSource(t, []string{
		".org 0x100",
		"entry: NOP",
	})
	sym, ok := a.Symbols().Lookup("entry")
	if !ok || sym.Value != 0x100 {
		t.Fatalf("entry = %v (ok=%v), want 0x100", sym, ok)
	}
}

func TestLabelSharingOrgLineBindsToPreOrgPC(t *testing.T) {
	_, a := assembleSource(t, []string{
		"NOP",
		"here: .org 0x200",
		"NOP",
	})
	sym, ok := a.Symbols().Lookup("here")
	if !ok {
		t.Fatalf("here not defined")
	}
	if sym.Value != 1 {
		t.Fatalf("here = 0x%04X, want 1 (pre-.org PC)", sym.Value)
	}
}

func TestSectionSwitchAndDefaultOrigins(t *testing.T) {
	_, a := assembleSource(t, []string{
		".data",
		"value: .byte 42",
		".code",
		"NOP",
	})
	sym, ok := a.Symbols().Lookup("value")
	if !ok {
		t.Fatalf("value not defined")
	}
	if sym.Value != 0x4000 {
		t.Fatalf("value = 0x%04X, want 0x4000 (.data origin)", sym.Value)
	}
}

func TestSizeInvariantAcrossPasses(t *testing.T) {
	lines := []string{
		"MOV R0, #1",
		"MOV R1, R0",
		"ADD R2, R0, #7",
		"CMP R2, #8",
		"JE done",
		"NOP",
		"done:",
		"RET",
	}
	reader := MapReader{"main.asm": lines}
	a := NewAssembler(reader)
	image, err := a.Assemble("main.asm")
	if err != nil || a.HasErrors() {
		t.Fatalf("unexpected failure: err=%v diags=%v", err, a.Diagnostics)
	}
	if len(image) == 0 {
		t.Fatalf("expected non-empty image")
	}
}

func TestIncludeDirective(t *testing.T) {
	reader := MapReader{
		"main.asm": {".include \"lib.asm\"", "HALT"},
		"lib.asm":  {"NOP"},
	}
	a := NewAssembler(reader)
	image, err := a.Assemble("main.asm")
	if err != nil || a.HasErrors() {
		t.Fatalf("unexpected failure: err=%v diags=%v", err, a.Diagnostics)
	}
	if len(image) != 2 || image[0] != isa.OpNOP || image[1] != isa.OpHALT {
		t.Fatalf("image = % X, want [NOP HALT]", image)
	}
}

func TestEquDefinesConstant(t *testing.T) {
	_, a := assembleSource(t, []string{
		"LIMIT: .equ 100",
		"MOV R0, LIMIT",
	})
	sym, ok := a.Symbols().Lookup("LIMIT")
	if !ok || sym.Value != 100 {
		t.Fatalf("LIMIT = %v (ok=%v), want 100", sym, ok)
	}
}

func TestPeepholeReportsNOPRuns(t *testing.T) {
	image, _ := assembleSource(t, []string{"NOP", "NOP", "NOP", "HALT"})
	runs := PeepholeNOPs(image)
	if len(runs) != 1 || runs[0].Start != 0 || runs[0].Length != 3 {
		t.Fatalf("runs = %+v, want one run of 3 NOPs at 0", runs)
	}
}
