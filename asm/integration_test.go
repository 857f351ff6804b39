package asm

import (
	"testing"

	"github.com/basm32/basm32/disasm"
	"github.com/basm32/basm32/vm"
)

func TestAssembleAndRunBranchTaken(t *testing.T) {
	image, _ := assembleSource(t, []string{
		"MOV R0, #0",
		"CMP R0, #0",
		"JE end",
		"MOV R0, #1",
		"end: HALT",
	})

	m := vm.NewMachine()
	m.Mem.LoadImage(image)
	if err := m.Run(); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !m.Halted {
		t.Fatalf("expected the machine to halt")
	}
	if m.Regs[0] != 0 {
		t.Fatalf("R0 = %d, want 0 (branch should have skipped the second MOV)", m.Regs[0])
	}
}

func TestAssembleAndRunCallSubroutine(t *testing.T) {
	image, _ := assembleSource(t, []string{
		"CALL sub",
		"HALT",
		"sub: MOV R0, #42",
		"RET",
	})

	m := vm.NewMachine()
	startSP := m.Regs.SP()
	m.Mem.LoadImage(image)
	if err := m.Run(); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if m.Regs[0] != 42 {
		t.Fatalf("R0 = %d, want 42", m.Regs[0])
	}
	if m.Regs.SP() != startSP {
		t.Fatalf("SP = 0x%04X, want 0x%04X restored", m.Regs.SP(), startSP)
	}
	if !m.Halted {
		t.Fatalf("expected the machine to halt on returning to the HALT after CALL")
	}
}

// TestRoundTripEncodeDisassemble checks disassemble(encode(I)) reproduces
// text that re-lexes to an equivalent instruction, for one representative
// opcode per on-wire format.
func TestRoundTripEncodeDisassemble(t *testing.T) {
	sources := []string{
		"HALT",
		"INC R3",
		"MOV R0, #5",
		"MOV R2, R1",
		"ADD R2, R0, R1",
		"JMP 0x0100",
		"OUT 0x0010, R4",
	}

	for _, src := range sources {
		image, _ := assembleSource(t, []string{src})

		line := disasm.Disassemble(0, image)
		if line.Length != len(image) {
			t.Fatalf("%q: disassembled length %d, want %d", src, line.Length, len(image))
		}

		reparsed, err := parseInstructionLine("roundtrip.asm", 1, line.Text)
		if err != nil {
			t.Fatalf("%q: re-lexing disassembled text %q failed: %v", src, line.Text, err)
		}
		reencoded, err := Encode(reparsed)
		if err != nil {
			t.Fatalf("%q: re-encoding %q failed: %v", src, line.Text, err)
		}
		if len(reencoded) != len(image) {
			t.Fatalf("%q: re-encoded length %d != original %d (text %q)", src, len(reencoded), len(image), line.Text)
		}
		for i := range image {
			if reencoded[i] != image[i] {
				t.Fatalf("%q: re-encoded byte %d = 0x%02X, want 0x%02X (text %q)", src, i, reencoded[i], image[i], line.Text)
			}
		}
	}
}
