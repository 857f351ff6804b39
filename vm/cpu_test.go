package vm

import (
	"testing"

	"github.com/basm32/basm32/isa"
)

func TestMovImmediateAndAdd(t *testing.T) {
	m := NewMachine()
	m.Mem.LoadImage([]byte{
		isa.OpMOV, 0, 1, 5, 0, // MOV R0, #5
		isa.OpMOV, 1, 1, 10, 0, // MOV R1, #10
		isa.OpADD, 2, 0, 0, 1, // ADD R2, R0, R1
		isa.OpHALT,
	})
	if err := m.Run(); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !m.Halted {
		t.Fatalf("expected machine to be halted")
	}
	if m.Regs[2] != 15 {
		t.Fatalf("R2 = %d, want 15", m.Regs[2])
	}
	if m.Flags.has(FlagZero) {
		t.Fatalf("ZERO should not be set for a non-zero result")
	}
}

func TestAddSetsCarryOnOverflow(t *testing.T) {
	m := NewMachine()
	m.Regs[0] = 0xFFFFFFFF
	m.Regs[1] = 2
	m.Mem.LoadImage([]byte{
		isa.OpADD, 2, 0, 0, 1, // ADD R2, R0, R1 (register form)
	})
	if err := m.Step(); err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if m.Regs[2] != 1 {
		t.Fatalf("R2 = %d, want 1 (wrapped mod 2^32)", m.Regs[2])
	}
	if !m.Flags.has(FlagCarry) {
		t.Fatalf("CARRY should be set when a+b >= 2^32")
	}
	if m.Flags.has(FlagZero) {
		t.Fatalf("ZERO should not be set for a result of 1")
	}
}

func TestSubSetsCarryOnBorrow(t *testing.T) {
	m := NewMachine()
	m.Mem.LoadImage([]byte{
		isa.OpMOV, 1, 1, 3, 0, // MOV R1, #3
		isa.OpSUB, 0, 1, 1, 5, 0, // SUB R0, R1, #5
		isa.OpHALT,
	})
	if err := m.Run(); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if m.Regs[0] != 0xFFFFFFFE {
		t.Fatalf("R0 = 0x%08X, want 0xFFFFFFFE (3-5 mod 2^32)", m.Regs[0])
	}
	if !m.Flags.has(FlagCarry) {
		t.Fatalf("CARRY should be set on a borrow")
	}
	if !m.Flags.has(FlagNegative) {
		t.Fatalf("NEGATIVE should be set for a result with bit31 set")
	}
}

func TestClrZeroesRegisterAndSetsZeroFlag(t *testing.T) {
	m := NewMachine()
	m.Regs[3] = 0xDEADBEEF
	m.Mem.LoadImage([]byte{
		isa.OpCLR, 3,
		isa.OpHALT,
	})
	if err := m.Run(); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if m.Regs[3] != 0 {
		t.Fatalf("R3 = %d, want 0", m.Regs[3])
	}
	if !m.Flags.has(FlagZero) {
		t.Fatalf("ZERO should be set after clearing a register")
	}
}

func TestPushPopRoundTrip(t *testing.T) {
	m := NewMachine()
	startSP := m.Regs.SP()
	m.Mem.LoadImage([]byte{
		isa.OpMOV, 0, 1, 0x34, 0x12, // MOV R0, #0x1234
		isa.OpPUSH, 0,
		isa.OpPOP, 1,
		isa.OpHALT,
	})
	if err := m.Run(); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if m.Regs[1] != 0x1234 {
		t.Fatalf("R1 = 0x%04X, want 0x1234", m.Regs[1])
	}
	if m.Regs.SP() != startSP {
		t.Fatalf("SP = 0x%04X after balanced push/pop, want 0x%04X", m.Regs.SP(), startSP)
	}
}

func TestCallRetPushesReturnAddress(t *testing.T) {
	m := NewMachine()
	startSP := m.Regs.SP()
	m.Mem.LoadImage([]byte{
		isa.OpCALL, 4, 0, // addr 0: CALL 4
		isa.OpHALT,       // addr 3: return address lands here
		isa.OpRET,        // addr 4: call target
	})
	if err := m.Run(); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !m.Halted {
		t.Fatalf("expected the machine to land back on HALT and halt")
	}
	if m.Regs.SP() != startSP {
		t.Fatalf("SP = 0x%04X after a balanced call/ret, want 0x%04X", m.Regs.SP(), startSP)
	}
}

func TestDivideByZeroReturnsError(t *testing.T) {
	m := NewMachine()
	m.Regs[1] = 10
	m.Regs[2] = 0
	m.Mem.LoadImage([]byte{
		isa.OpDIV, 0, 1, 0, 2, // DIV R0, R1, R2 (R2 == 0)
	})
	err := m.Step()
	if err == nil {
		t.Fatalf("expected a divide-by-zero error")
	}
	if _, ok := err.(*DivideByZeroError); !ok {
		t.Fatalf("err = %T, want *DivideByZeroError", err)
	}
}

func TestIllegalOpcodeReturnsError(t *testing.T) {
	m := NewMachine()
	m.Mem.LoadImage([]byte{0xFE})
	err := m.Step()
	if err == nil {
		t.Fatalf("expected an illegal-opcode error")
	}
	if _, ok := err.(*IllegalOpcodeError); !ok {
		t.Fatalf("err = %T, want *IllegalOpcodeError", err)
	}
}

func TestBreakpointStopsRunBeforeReexecuting(t *testing.T) {
	m := NewMachine()
	m.Mem.LoadImage([]byte{
		isa.OpNOP,
		isa.OpNOP,
		isa.OpHALT,
	})
	m.AddBreakpoint(1)
	if err := m.Run(); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if m.Halted {
		t.Fatalf("expected Run to stop at the breakpoint before halting")
	}
	if m.Regs.PC() != 1 {
		t.Fatalf("PC = %d, want 1 (stopped at breakpoint)", m.Regs.PC())
	}
	if m.Instructions != 1 {
		t.Fatalf("Instructions = %d, want 1", m.Instructions)
	}
}

func TestWatchpointLogsWriteWithoutHalting(t *testing.T) {
	m := NewMachine()
	m.Regs[0] = 0x42
	m.Mem.LoadImage([]byte{
		isa.OpSTORE, 0, 1, 0x00, 0x50, // STORE R0, [0x5000]
		isa.OpHALT,
	})
	m.Mem.AddWatch(Watchpoint{Addr: 0x5000, Size: 1, Mode: WatchWrite})
	if err := m.Run(); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(m.Mem.WatchLog) == 0 {
		t.Fatalf("expected a watch log entry for the STORE")
	}
	if m.Mem.ReadByte(0x5000) != 0x42 {
		t.Fatalf("memory at 0x5000 = %d, want 0x42", m.Mem.ReadByte(0x5000))
	}
}

func TestStepLimitEnforced(t *testing.T) {
	m := NewMachine()
	m.Mem.LoadImage([]byte{
		isa.OpJMP, 0, 0, // JMP 0 -- tight infinite loop
	})
	err := m.Run()
	if err == nil {
		t.Fatalf("expected a step-limit error for a program that never halts")
	}
	if _, ok := err.(*StepLimitError); !ok {
		t.Fatalf("err = %T, want *StepLimitError", err)
	}
}

func TestJmpAliasesShareCanonicalOpcode(t *testing.T) {
	jz, ok := isa.Lookup("JZ")
	if !ok {
		t.Fatalf("JZ not found in opcode table")
	}
	je, ok := isa.Lookup("JE")
	if !ok {
		t.Fatalf("JE not found in opcode table")
	}
	if jz.Opcode != je.Opcode {
		t.Fatalf("JZ opcode 0x%02X != JE opcode 0x%02X", jz.Opcode, je.Opcode)
	}
}
