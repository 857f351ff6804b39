package asm

import "github.com/basm32/basm32/isa"

// Instruction is one parsed line's instruction component: an optional
// label, the resolved opcode metadata, 0-4 operands, the address it
// will be emitted at, and the source position for diagnostics.
type Instruction struct {
	Label    string
	Info     *isa.Info
	Operands []Operand
	Addr     uint32
	File     string
	Line     int
}

// Directive is one parsed line's directive component.
type Directive struct {
	Name     string
	Args     []string
	Label    string
	Addr     uint32
	File     string
	Line     int
}

// ParsedLine is the result of lexing one source line: at most one of
// Instruction or Directive is non-nil. A line with only a label and a
// comment yields neither.
type ParsedLine struct {
	Label       string
	Instruction *Instruction
	Directive   *Directive
	Blank       bool
}
