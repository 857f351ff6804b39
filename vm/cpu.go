package vm

import (
	"github.com/basm32/basm32/isa"
)

// DefaultStepLimit is the instruction safety cap Run enforces so a
// runaway program (one that never executes HALT) can't spin forever
// under the debugger or the simulator CLI. Step is exempt: a human
// single-stepping is trusted to stop on their own.
const DefaultStepLimit = 1_000_000

// initialSP is the stack pointer's reset value: the byte just below
// 0x4000 (the assembler's default .data origin), growing down from
// there.
const initialSP = 0x3FFF

// Machine is the complete simulator state: registers, flags, the flat
// memory (which also owns watchpoints), the I/O port array, the
// breakpoint list and the run-time counters.
type Machine struct {
	Regs  Registers
	Flags Flags
	Mem   *Memory
	Ports Ports

	Breakpoints []uint32
	Halted      bool

	Instructions uint64
	Cycles       uint64
}

// NewMachine returns a machine with SP reset to initialSP and PC at 0,
// ready to run a freshly loaded image.
func NewMachine() *Machine {
	m := &Machine{Mem: &Memory{}}
	m.Regs.SetSP(initialSP)
	return m
}

// AddBreakpoint installs a breakpoint at addr if not already present.
func (m *Machine) AddBreakpoint(addr uint32) {
	for _, b := range m.Breakpoints {
		if b == addr {
			return
		}
	}
	m.Breakpoints = append(m.Breakpoints, addr)
}

// ClearBreakpoint removes the breakpoint at the given index.
func (m *Machine) ClearBreakpoint(idx int) bool {
	if idx < 0 || idx >= len(m.Breakpoints) {
		return false
	}
	m.Breakpoints = append(m.Breakpoints[:idx], m.Breakpoints[idx+1:]...)
	return true
}

func (m *Machine) atBreakpoint(addr uint32) bool {
	for _, b := range m.Breakpoints {
		if b == addr {
			return true
		}
	}
	return false
}

// Run executes instructions until HALT, a breakpoint (other than the
// one it started on), an error, or DefaultStepLimit instructions
// without halting.
func (m *Machine) Run() error {
	for steps := 0; ; steps++ {
		if m.Halted {
			return nil
		}
		if steps > 0 && m.atBreakpoint(m.Regs.PC()) {
			return nil
		}
		if steps >= DefaultStepLimit {
			return &StepLimitError{Limit: DefaultStepLimit}
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
}

// Step decodes and executes exactly one instruction. It is a no-op
// once the machine has halted.
func (m *Machine) Step() error {
	if m.Halted {
		return nil
	}

	pc := m.Regs.PC()
	opcode := m.Mem.ReadByte(pc)
	info := isa.ByOpcode[opcode]
	if info == nil {
		return &IllegalOpcodeError{Addr: pc, Opcode: opcode}
	}
	m.Mem.checkWatch(pc, 1, WatchExecute)

	nextPC := pc

	switch info.Opcode {

	// --- data movement ---

	case isa.OpMOV:
		dst, _, val, size := m.decodeTwoOpFull(pc)
		m.Regs[dst] = val
		nextPC = pc + size

	case isa.OpMOVW:
		nextPC = m.execMOVW(pc)

	case isa.OpLOAD:
		dst, addr, size := m.decodeMemOperand(pc)
		m.Regs[dst] = uint32(m.Mem.ReadByte(addr))
		nextPC = pc + size

	case isa.OpLOADH:
		dst, addr, size := m.decodeMemOperand(pc)
		m.Regs[dst] = uint32(m.Mem.ReadWord(addr))
		nextPC = pc + size

	case isa.OpLOADW:
		dst, addr, size := m.decodeMemOperand(pc)
		m.Regs[dst] = m.Mem.ReadDword(addr)
		nextPC = pc + size

	case isa.OpSTORE:
		src, addr, size := m.decodeMemOperand(pc)
		m.Mem.WriteByte(addr, byte(m.Regs[src]))
		nextPC = pc + size

	case isa.OpSTOREH:
		src, addr, size := m.decodeMemOperand(pc)
		m.Mem.WriteWord(addr, uint16(m.Regs[src]))
		nextPC = pc + size

	case isa.OpSTOREW:
		src, addr, size := m.decodeMemOperand(pc)
		m.Mem.WriteDword(addr, m.Regs[src])
		nextPC = pc + size

	case isa.OpPUSH:
		reg := int(m.Mem.ReadByte(pc + 1))
		sp := m.Regs.SP() - 2
		m.Mem.WriteWord(sp, uint16(m.Regs[reg]))
		m.Regs.SetSP(sp)
		nextPC = pc + 2

	case isa.OpPOP:
		reg := int(m.Mem.ReadByte(pc + 1))
		sp := m.Regs.SP()
		m.Regs[reg] = uint32(m.Mem.ReadWord(sp))
		m.Regs.SetSP(sp + 2)
		nextPC = pc + 2

	// --- arithmetic ---

	case isa.OpADD:
		nextPC = m.execArith(pc, func(a, b uint32) (uint32, bool) {
			sum := uint64(a) + uint64(b)
			return uint32(sum), sum > 0xFFFFFFFF
		})
	case isa.OpSUB:
		nextPC = m.execArith(pc, func(a, b uint32) (uint32, bool) {
			return a - b, a < b
		})
	case isa.OpMUL:
		nextPC = m.execArith(pc, func(a, b uint32) (uint32, bool) {
			prod := uint64(a) * uint64(b)
			return uint32(prod), prod > 0xFFFFFFFF
		})
	case isa.OpDIV:
		dst, a, b, size := m.decodeArithOperands(pc)
		if b == 0 {
			return &DivideByZeroError{Addr: pc}
		}
		m.Regs[dst] = a / b
		m.Flags.updateArith(m.Regs[dst], false)
		nextPC = pc + size
	case isa.OpMOD:
		dst, a, b, size := m.decodeArithOperands(pc)
		if b == 0 {
			return &DivideByZeroError{Addr: pc}
		}
		m.Regs[dst] = a % b
		m.Flags.updateArith(m.Regs[dst], false)
		nextPC = pc + size

	case isa.OpINC:
		reg := int(m.Mem.ReadByte(pc + 1))
		m.Regs[reg]++
		m.Flags.updateArith(m.Regs[reg], false)
		nextPC = pc + 2
	case isa.OpDEC:
		reg := int(m.Mem.ReadByte(pc + 1))
		m.Regs[reg]--
		m.Flags.updateArith(m.Regs[reg], false)
		nextPC = pc + 2

	// --- logic ---

	case isa.OpAND:
		nextPC = m.execArith(pc, func(a, b uint32) (uint32, bool) { return a & b, false })
	case isa.OpOR:
		nextPC = m.execArith(pc, func(a, b uint32) (uint32, bool) { return a | b, false })
	case isa.OpXOR:
		nextPC = m.execArith(pc, func(a, b uint32) (uint32, bool) { return a ^ b, false })
	case isa.OpSHL:
		nextPC = m.execArith(pc, func(a, b uint32) (uint32, bool) {
			if b == 0 {
				return a, false
			}
			carry := a&(1<<(32-b)) != 0
			return a << b, carry
		})
	case isa.OpSHR:
		nextPC = m.execArith(pc, func(a, b uint32) (uint32, bool) {
			if b == 0 {
				return a, false
			}
			carry := a&(1<<(b-1)) != 0
			return a >> b, carry
		})

	case isa.OpNOT:
		reg := int(m.Mem.ReadByte(pc + 1))
		m.Regs[reg] = ^m.Regs[reg]
		m.Flags.updateArith(m.Regs[reg], false)
		nextPC = pc + 2
	case isa.OpCLR:
		reg := int(m.Mem.ReadByte(pc + 1))
		m.Regs[reg] = 0
		m.Flags.updateArith(0, false)
		nextPC = pc + 2

	case isa.OpCMP:
		dst, _, val, size := m.decodeTwoOpFull(pc)
		result := m.Regs[dst] - val
		m.Flags.updateArith(result, m.Regs[dst] < val)
		nextPC = pc + size
	case isa.OpTEST:
		dst, _, val, size := m.decodeTwoOpFull(pc)
		result := m.Regs[dst] & val
		m.Flags.updateArith(result, false)
		nextPC = pc + size

	// --- control flow ---

	case isa.OpJMP:
		nextPC = uint32(m.fetchTarget(pc))
	case isa.OpJC:
		nextPC = m.branchIf(pc, m.Flags.has(FlagCarry))
	case isa.OpJNC:
		nextPC = m.branchIf(pc, !m.Flags.has(FlagCarry))
	case isa.OpJE:
		nextPC = m.branchIf(pc, m.Flags.has(FlagZero))
	case isa.OpJNE:
		nextPC = m.branchIf(pc, !m.Flags.has(FlagZero))
	case isa.OpJG:
		nextPC = m.branchIf(pc, !m.Flags.has(FlagZero) && m.Flags.has(FlagNegative) == m.Flags.has(FlagOverflow))
	case isa.OpJGE:
		nextPC = m.branchIf(pc, m.Flags.has(FlagNegative) == m.Flags.has(FlagOverflow))
	case isa.OpJL:
		nextPC = m.branchIf(pc, m.Flags.has(FlagNegative) != m.Flags.has(FlagOverflow))
	case isa.OpJLE:
		nextPC = m.branchIf(pc, m.Flags.has(FlagZero) || m.Flags.has(FlagNegative) != m.Flags.has(FlagOverflow))
	case isa.OpJO:
		nextPC = m.branchIf(pc, m.Flags.has(FlagOverflow))
	case isa.OpJNO:
		nextPC = m.branchIf(pc, !m.Flags.has(FlagOverflow))

	case isa.OpCALL:
		target := m.fetchTarget(pc)
		ret := pc + 3
		sp := m.Regs.SP() - 2
		m.Mem.WriteWord(sp, uint16(ret))
		m.Regs.SetSP(sp)
		nextPC = uint32(target)
	case isa.OpRET:
		sp := m.Regs.SP()
		nextPC = uint32(m.Mem.ReadWord(sp))
		m.Regs.SetSP(sp + 2)

	case isa.OpHALT:
		m.Halted = true
		nextPC = pc + 1

	case isa.OpNOP:
		nextPC = pc + 1

	// --- I/O ---

	case isa.OpIN:
		reg := int(m.Mem.ReadByte(pc + 1))
		port := uint16(m.Mem.ReadByte(pc+2)) | uint16(m.Mem.ReadByte(pc+3))<<8
		m.Regs[reg] = uint32(m.Ports.In(port))
		nextPC = pc + 4
	case isa.OpOUT:
		port := uint16(m.Mem.ReadByte(pc+1)) | uint16(m.Mem.ReadByte(pc+2))<<8
		reg := int(m.Mem.ReadByte(pc + 3))
		m.Ports.Out(port, uint16(m.Regs[reg]))
		nextPC = pc + 4

	default:
		return &IllegalOpcodeError{Addr: pc, Opcode: opcode}
	}

	m.Regs.SetPC(nextPC)
	m.Instructions++
	m.Cycles += uint64(info.BaseCost)
	return nil
}

func (m *Machine) branchIf(pc uint32, take bool) uint32 {
	target := m.fetchTarget(pc)
	if take {
		return uint32(target)
	}
	return pc + 3
}

func (m *Machine) fetchTarget(pc uint32) uint16 {
	return uint16(m.Mem.ReadByte(pc+1)) | uint16(m.Mem.ReadByte(pc+2))<<8
}

// decodeTwoOp16 reads a FormatTwoOpMode instruction (non-MOVW) and
// returns the destination register and the 16-bit value of its second
// operand (either a register's value or the immediate/address field).
func (m *Machine) decodeTwoOp16(pc uint32) (dst int, mode byte, val uint32, regSrc int) {
	dst = int(m.Mem.ReadByte(pc + 1))
	mode = m.Mem.ReadByte(pc + 2)
	if mode == 0 {
		regSrc = int(m.Mem.ReadByte(pc + 3))
		return dst, mode, m.Regs[regSrc], regSrc
	}
	lo := m.Mem.ReadByte(pc + 3)
	hi := m.Mem.ReadByte(pc + 4)
	return dst, mode, uint32(uint16(lo) | uint16(hi)<<8), 0
}

// decodeTwoOpFull is decodeTwoOp16 plus the instruction's total size,
// for MOV, CMP and TEST.
func (m *Machine) decodeTwoOpFull(pc uint32) (dst int, mode byte, val uint32, size uint32) {
	dst, mode, val, _ = m.decodeTwoOp16(pc)
	if mode == 0 {
		return dst, mode, val, 4
	}
	return dst, mode, val, 5
}

// decodeMemOperand reads a FormatTwoOpMode instruction used by
// LOAD*/STORE*: the register slot (destination for LOAD, source value
// for STORE) and the effective address — either a literal address
// (mode 1) or the contents of a base register (mode 0, register
// indirect).
func (m *Machine) decodeMemOperand(pc uint32) (reg int, addr uint32, size uint32) {
	reg = int(m.Mem.ReadByte(pc + 1))
	mode := m.Mem.ReadByte(pc + 2)
	if mode == 0 {
		base := int(m.Mem.ReadByte(pc + 3))
		return reg, m.Regs[base], 4
	}
	lo := m.Mem.ReadByte(pc + 3)
	hi := m.Mem.ReadByte(pc + 4)
	return reg, uint32(uint16(lo) | uint16(hi)<<8), 5
}

// execMOVW handles MOVW's wider register-or-32-bit-literal operand.
func (m *Machine) execMOVW(pc uint32) uint32 {
	dst := int(m.Mem.ReadByte(pc + 1))
	mode := m.Mem.ReadByte(pc + 2)
	if mode == 0 {
		src := int(m.Mem.ReadByte(pc + 3))
		m.Regs[dst] = m.Regs[src]
		return pc + 4
	}
	var v uint32
	for i := uint32(0); i < 4; i++ {
		v |= uint32(m.Mem.ReadByte(pc+3+i)) << (8 * i)
	}
	m.Regs[dst] = v
	return pc + 7
}

// decodeArithOperands reads a FormatThreeOpArith instruction and
// returns the destination register index plus the two operand values.
func (m *Machine) decodeArithOperands(pc uint32) (dst int, a, b uint32, size uint32) {
	dst = int(m.Mem.ReadByte(pc + 1))
	src1 := int(m.Mem.ReadByte(pc + 2))
	mode := m.Mem.ReadByte(pc + 3)
	a = m.Regs[src1]
	if mode == 0 {
		src2 := int(m.Mem.ReadByte(pc + 4))
		return dst, a, m.Regs[src2], 5
	}
	lo := m.Mem.ReadByte(pc + 4)
	hi := m.Mem.ReadByte(pc + 5)
	return dst, a, uint32(uint16(lo) | uint16(hi)<<8), 6
}

// execArith runs a FormatThreeOpArith opcode through fn, which
// computes the result and the carry/borrow/shift-out bit, stores the
// result in the destination register and updates flags.
func (m *Machine) execArith(pc uint32, fn func(a, b uint32) (uint32, bool)) uint32 {
	dst, a, b, size := m.decodeArithOperands(pc)
	result, carry := fn(a, b)
	m.Regs[dst] = result
	m.Flags.updateArith(result, carry)
	return pc + size
}
