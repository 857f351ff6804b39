package disasm

import (
	"testing"

	"github.com/basm32/basm32/isa"
)

func TestDisassembleNiladic(t *testing.T) {
	line := Disassemble(0x10, []byte{isa.OpHALT})
	if line.Text != "HALT" || line.Length != 1 {
		t.Fatalf("got %+v, want HALT/1", line)
	}
}

func TestDisassembleSingleReg(t *testing.T) {
	line := Disassemble(0, []byte{isa.OpINC, 5})
	if line.Text != "INC R5" || line.Length != 2 {
		t.Fatalf("got %+v, want \"INC R5\"/2", line)
	}
}

func TestDisassembleMovImmediate(t *testing.T) {
	line := Disassemble(0, []byte{isa.OpMOV, 0, 1, 5, 0})
	if line.Text != "MOV R0, 5" || line.Length != 5 {
		t.Fatalf("got %+v, want \"MOV R0, 5\"/5", line)
	}
}

func TestDisassembleMovRegisterForm(t *testing.T) {
	line := Disassemble(0, []byte{isa.OpMOV, 2, 0, 1})
	if line.Text != "MOV R2, R1" || line.Length != 4 {
		t.Fatalf("got %+v, want \"MOV R2, R1\"/4", line)
	}
}

func TestDisassembleLoadShowsBracketedAddress(t *testing.T) {
	line := Disassemble(0, []byte{isa.OpLOAD, 3, 1, 0x00, 0x40})
	if line.Text != "LOAD R3, [0x4000]" || line.Length != 5 {
		t.Fatalf("got %+v, want \"LOAD R3, [0x4000]\"/5", line)
	}
}

func TestDisassembleLoadRegisterIndirectShowsBrackets(t *testing.T) {
	line := Disassemble(0, []byte{isa.OpLOAD, 3, 0, 1})
	if line.Text != "LOAD R3, [R1]" || line.Length != 4 {
		t.Fatalf("got %+v, want \"LOAD R3, [R1]\"/4", line)
	}
}

func TestDisassembleThreeOpArith(t *testing.T) {
	line := Disassemble(0, []byte{isa.OpADD, 2, 0, 0, 1})
	if line.Text != "ADD R2, R0, R1" || line.Length != 5 {
		t.Fatalf("got %+v, want \"ADD R2, R0, R1\"/5", line)
	}
}

func TestDisassembleBranch(t *testing.T) {
	line := Disassemble(0, []byte{isa.OpJMP, 0x00, 0x01})
	if line.Text != "JMP 0x0100" || line.Length != 3 {
		t.Fatalf("got %+v, want \"JMP 0x0100\"/3", line)
	}
}

func TestDisassembleIO(t *testing.T) {
	out := Disassemble(0, []byte{isa.OpOUT, 0x10, 0x00, 4})
	if out.Text != "OUT 0x0010, R4" || out.Length != 4 {
		t.Fatalf("got %+v, want \"OUT 0x0010, R4\"/4", out)
	}
	in := Disassemble(0, []byte{isa.OpIN, 4, 0x10, 0x00})
	if in.Text != "IN R4, 0x0010" || in.Length != 4 {
		t.Fatalf("got %+v, want \"IN R4, 0x0010\"/4", in)
	}
}

func TestDisassembleUnknownOpcodeFallsBackToDB(t *testing.T) {
	line := Disassemble(0, []byte{0xFE})
	if line.Text != "DB 0xFE" || line.Length != 1 {
		t.Fatalf("got %+v, want \"DB 0xFE\"/1", line)
	}
}

func TestDisassembleTruncatedInstructionFallsBackToDB(t *testing.T) {
	// OpADD (FormatThreeOpArith) needs at least 4 bytes; give it 2.
	line := Disassemble(0, []byte{isa.OpADD, 2})
	if line.Text != "DB 0x10" || line.Length != 1 {
		t.Fatalf("got %+v, want a DB fallback for a truncated instruction", line)
	}
}

func TestDisassembleEmptyData(t *testing.T) {
	line := Disassemble(5, nil)
	if line.Length != 0 || line.Text != "" {
		t.Fatalf("got %+v, want a zero-length empty line", line)
	}
}

func TestDisassembleRangeStopsAtCount(t *testing.T) {
	image := []byte{
		isa.OpNOP,
		isa.OpNOP,
		isa.OpHALT,
		isa.OpNOP,
	}
	lines := DisassembleRange(0, image, 2)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].Addr != 0 || lines[1].Addr != 1 {
		t.Fatalf("addrs = %d, %d, want 0, 1", lines[0].Addr, lines[1].Addr)
	}
}

func TestDisassembleRangeStopsAtEndOfData(t *testing.T) {
	image := []byte{isa.OpNOP, isa.OpHALT}
	lines := DisassembleRange(0x100, image, 10)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (ran out of data)", len(lines))
	}
	if lines[1].Addr != 0x101 {
		t.Fatalf("second line addr = 0x%X, want 0x101", lines[1].Addr)
	}
}
