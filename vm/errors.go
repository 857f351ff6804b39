package vm

import "fmt"

// IllegalOpcodeError is raised when the fetch/decode stage reads a byte
// with no entry in isa.ByOpcode.
type IllegalOpcodeError struct {
	Addr   uint32
	Opcode byte
}

func (e *IllegalOpcodeError) Error() string {
	return fmt.Sprintf("illegal opcode 0x%02X at 0x%04X", e.Opcode, e.Addr)
}

// DivideByZeroError is raised by DIV/MOD when the divisor is zero.
type DivideByZeroError struct {
	Addr uint32
}

func (e *DivideByZeroError) Error() string {
	return fmt.Sprintf("division by zero at 0x%04X", e.Addr)
}

// StepLimitError is raised by Run when execution exceeds the
// instruction safety cap without halting.
type StepLimitError struct {
	Limit int
}

func (e *StepLimitError) Error() string {
	return fmt.Sprintf("exceeded %d instructions without halting", e.Limit)
}
