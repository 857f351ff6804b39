package vm

import "github.com/basm32/basm32/isa"

// Registers is the 32-entry general-purpose register file. Indices 28-31
// are aliased to PC/SP/FP/LR but are otherwise ordinary slots: nothing
// stops code from reading or writing them through the register-form
// encoding of any instruction.
type Registers [isa.RegCount]uint32

func (r *Registers) PC() uint32     { return r[isa.RegPC] }
func (r *Registers) SetPC(v uint32) { r[isa.RegPC] = v }
func (r *Registers) SP() uint32     { return r[isa.RegSP] }
func (r *Registers) SetSP(v uint32) { r[isa.RegSP] = v }
func (r *Registers) FP() uint32     { return r[isa.RegFP] }
func (r *Registers) LR() uint32     { return r[isa.RegLR] }
