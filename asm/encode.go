package asm

import "github.com/basm32/basm32/isa"

// Size computes an instruction's on-wire size from its parsed operands,
// using the same mode decisions Encode will make, so pass 1's size
// tally and pass 2's emitted byte count can never drift apart.
func Size(inst *Instruction) (int, error) {
	switch inst.Info.Format {
	case isa.FormatNiladic:
		return 1, nil
	case isa.FormatSingleReg:
		return 2, nil
	case isa.FormatTwoOpMode:
		if len(inst.Operands) != 2 {
			return 0, &OperandError{Mnemonic: inst.Info.Mnemonic, Detail: "expects 2 operands"}
		}
		if inst.Info.Opcode == isa.OpMOVW {
			if inst.Operands[1].IsRegisterForm() {
				return 4, nil
			}
			return 7, nil
		}
		if inst.Operands[1].IsRegisterForm() {
			return 4, nil
		}
		return 5, nil
	case isa.FormatThreeOpArith:
		if len(inst.Operands) != 3 {
			return 0, &OperandError{Mnemonic: inst.Info.Mnemonic, Detail: "expects 3 operands"}
		}
		if inst.Operands[2].IsRegisterForm() {
			return 5, nil
		}
		return 6, nil
	case isa.FormatBranch:
		return 3, nil
	case isa.FormatIO:
		return 4, nil
	default:
		return 0, &OperandError{Mnemonic: inst.Info.Mnemonic, Detail: "unknown format"}
	}
}

// Encode produces the instruction's bytes. All label operands must
// already be resolved (Resolved==true) or Encode returns
// UndefinedSymbolError.
func Encode(inst *Instruction) ([]byte, error) {
	info := inst.Info
	switch info.Format {
	case isa.FormatNiladic:
		return []byte{info.Opcode}, nil

	case isa.FormatSingleReg:
		if len(inst.Operands) != 1 || inst.Operands[0].Mode != ModeRegister {
			return nil, &OperandError{Mnemonic: info.Mnemonic, Detail: "expects one register operand"}
		}
		return []byte{info.Opcode, byte(inst.Operands[0].Reg)}, nil

	case isa.FormatTwoOpMode:
		return encodeTwoOpMode(inst)

	case isa.FormatThreeOpArith:
		return encodeThreeOp(inst)

	case isa.FormatBranch:
		if len(inst.Operands) != 1 {
			return nil, &OperandError{Mnemonic: info.Mnemonic, Detail: "expects one target operand"}
		}
		target, err := inst.Operands[0].value16()
		if err != nil {
			return nil, err
		}
		return []byte{info.Opcode, byte(target), byte(target >> 8)}, nil

	case isa.FormatIO:
		return encodeIO(inst)

	default:
		return nil, &OperandError{Mnemonic: info.Mnemonic, Detail: "unknown format"}
	}
}

func encodeTwoOpMode(inst *Instruction) ([]byte, error) {
	info := inst.Info
	if len(inst.Operands) != 2 || inst.Operands[0].Mode != ModeRegister {
		return nil, &OperandError{Mnemonic: info.Mnemonic, Detail: "expects dest register plus one operand"}
	}
	dst := byte(inst.Operands[0].Reg)
	src := inst.Operands[1]

	if info.Opcode == isa.OpMOVW {
		if src.IsRegisterForm() {
			return []byte{info.Opcode, dst, 0, byte(src.Reg)}, nil
		}
		v, err := src.value32()
		if err != nil {
			return nil, err
		}
		return []byte{info.Opcode, dst, 1, byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}, nil
	}

	if src.IsRegisterForm() {
		return []byte{info.Opcode, dst, 0, byte(src.Reg)}, nil
	}
	v, err := src.value16()
	if err != nil {
		return nil, err
	}
	return []byte{info.Opcode, dst, 1, byte(v), byte(v >> 8)}, nil
}

func encodeThreeOp(inst *Instruction) ([]byte, error) {
	info := inst.Info
	if len(inst.Operands) != 3 || inst.Operands[0].Mode != ModeRegister || inst.Operands[1].Mode != ModeRegister {
		return nil, &OperandError{Mnemonic: info.Mnemonic, Detail: "expects dest, src1 registers plus one operand"}
	}
	dst := byte(inst.Operands[0].Reg)
	src1 := byte(inst.Operands[1].Reg)
	src2 := inst.Operands[2]

	if src2.IsRegisterForm() {
		return []byte{info.Opcode, dst, src1, 0, byte(src2.Reg)}, nil
	}
	v, err := src2.value16()
	if err != nil {
		return nil, err
	}
	return []byte{info.Opcode, dst, src1, 1, byte(v), byte(v >> 8)}, nil
}

func encodeIO(inst *Instruction) ([]byte, error) {
	info := inst.Info
	if len(inst.Operands) != 2 {
		return nil, &OperandError{Mnemonic: info.Mnemonic, Detail: "expects two operands"}
	}
	if info.Opcode == isa.OpOUT {
		port, err := inst.Operands[0].value16()
		if err != nil {
			return nil, err
		}
		if inst.Operands[1].Mode != ModeRegister {
			return nil, &OperandError{Mnemonic: info.Mnemonic, Detail: "second operand must be a register"}
		}
		return []byte{info.Opcode, byte(port), byte(port >> 8), byte(inst.Operands[1].Reg)}, nil
	}
	// IN: opcode, reg, port16_le
	if inst.Operands[0].Mode != ModeRegister {
		return nil, &OperandError{Mnemonic: info.Mnemonic, Detail: "first operand must be a register"}
	}
	port, err := inst.Operands[1].value16()
	if err != nil {
		return nil, err
	}
	return []byte{info.Opcode, byte(inst.Operands[0].Reg), byte(port), byte(port >> 8)}, nil
}
