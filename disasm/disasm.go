// Package disasm turns a raw byte image back into the assembler's
// canonical textual form: one line per instruction, addresses and
// register names spelled the way the assembler itself would emit them.
package disasm

import (
	"fmt"

	"github.com/basm32/basm32/isa"
)

// Line is one disassembled instruction: its address, the text, and how
// many bytes it occupied (so the caller can advance to the next one).
type Line struct {
	Addr   uint32
	Text   string
	Length int
}

// Disassemble decodes a single instruction starting at data[0] and
// returns its text and byte length. An unrecognized opcode falls back
// to a one-byte DB directive so disassembly always makes forward
// progress, mirroring how the assembler treats raw data bytes.
func Disassemble(addr uint32, data []byte) Line {
	if len(data) == 0 {
		return Line{Addr: addr, Text: "", Length: 0}
	}
	opcode := data[0]
	info := isa.ByOpcode[opcode]
	if info == nil {
		return Line{Addr: addr, Text: fmt.Sprintf("DB 0x%02X", opcode), Length: 1}
	}

	switch info.Format {
	case isa.FormatNiladic:
		return Line{Addr: addr, Text: info.Mnemonic, Length: 1}

	case isa.FormatSingleReg:
		if len(data) < 2 {
			return undersized(addr, opcode)
		}
		text := fmt.Sprintf("%s %s", info.Mnemonic, regName(data[1]))
		return Line{Addr: addr, Text: text, Length: 2}

	case isa.FormatTwoOpMode:
		return disasmTwoOp(addr, info, data)

	case isa.FormatThreeOpArith:
		return disasmThreeOp(addr, info, data)

	case isa.FormatBranch:
		if len(data) < 3 {
			return undersized(addr, opcode)
		}
		target := uint16(data[1]) | uint16(data[2])<<8
		text := fmt.Sprintf("%s 0x%04X", info.Mnemonic, target)
		return Line{Addr: addr, Text: text, Length: 3}

	case isa.FormatIO:
		return disasmIO(addr, info, data)

	default:
		return undersized(addr, opcode)
	}
}

func undersized(addr uint32, opcode byte) Line {
	return Line{Addr: addr, Text: fmt.Sprintf("DB 0x%02X", opcode), Length: 1}
}

func regName(reg byte) string { return isa.RegisterName(int(reg)) }

func disasmTwoOp(addr uint32, info *isa.Info, data []byte) Line {
	if len(data) < 3 {
		return undersized(addr, info.Opcode)
	}
	dst := regName(data[1])
	mode := data[2]

	if info.Opcode == isa.OpMOVW {
		if mode == 0 {
			if len(data) < 4 {
				return undersized(addr, info.Opcode)
			}
			text := fmt.Sprintf("%s %s, %s", info.Mnemonic, dst, regName(data[3]))
			return Line{Addr: addr, Text: text, Length: 4}
		}
		if len(data) < 7 {
			return undersized(addr, info.Opcode)
		}
		v := uint32(data[3]) | uint32(data[4])<<8 | uint32(data[5])<<16 | uint32(data[6])<<24
		text := fmt.Sprintf("%s %s, %d", info.Mnemonic, dst, v)
		return Line{Addr: addr, Text: text, Length: 7}
	}

	if mode == 0 {
		if len(data) < 4 {
			return undersized(addr, info.Opcode)
		}
		if info.IsStore || info.Opcode == isa.OpLOAD || info.Opcode == isa.OpLOADH || info.Opcode == isa.OpLOADW {
			text := fmt.Sprintf("%s %s, [%s]", info.Mnemonic, dst, regName(data[3]))
			return Line{Addr: addr, Text: text, Length: 4}
		}
		text := fmt.Sprintf("%s %s, %s", info.Mnemonic, dst, regName(data[3]))
		return Line{Addr: addr, Text: text, Length: 4}
	}
	if len(data) < 5 {
		return undersized(addr, info.Opcode)
	}
	v := uint16(data[3]) | uint16(data[4])<<8
	word := "0x" + fmt.Sprintf("%04X", v)
	if info.IsStore || info.Opcode == isa.OpLOAD || info.Opcode == isa.OpLOADH || info.Opcode == isa.OpLOADW {
		text := fmt.Sprintf("%s %s, [%s]", info.Mnemonic, dst, word)
		return Line{Addr: addr, Text: text, Length: 5}
	}
	text := fmt.Sprintf("%s %s, %d", info.Mnemonic, dst, int16(v))
	return Line{Addr: addr, Text: text, Length: 5}
}

func disasmThreeOp(addr uint32, info *isa.Info, data []byte) Line {
	if len(data) < 4 {
		return undersized(addr, info.Opcode)
	}
	dst := regName(data[1])
	src1 := regName(data[2])
	mode := data[3]

	if mode == 0 {
		if len(data) < 5 {
			return undersized(addr, info.Opcode)
		}
		text := fmt.Sprintf("%s %s, %s, %s", info.Mnemonic, dst, src1, regName(data[4]))
		return Line{Addr: addr, Text: text, Length: 5}
	}
	if len(data) < 6 {
		return undersized(addr, info.Opcode)
	}
	v := int16(uint16(data[4]) | uint16(data[5])<<8)
	text := fmt.Sprintf("%s %s, %s, %d", info.Mnemonic, dst, src1, v)
	return Line{Addr: addr, Text: text, Length: 6}
}

func disasmIO(addr uint32, info *isa.Info, data []byte) Line {
	if len(data) < 4 {
		return undersized(addr, info.Opcode)
	}
	if info.Opcode == isa.OpOUT {
		port := uint16(data[1]) | uint16(data[2])<<8
		text := fmt.Sprintf("OUT 0x%04X, %s", port, regName(data[3]))
		return Line{Addr: addr, Text: text, Length: 4}
	}
	port := uint16(data[2]) | uint16(data[3])<<8
	text := fmt.Sprintf("IN %s, 0x%04X", regName(data[1]), port)
	return Line{Addr: addr, Text: text, Length: 4}
}

// DisassembleRange decodes a run of instructions starting at addr,
// stopping once it has produced count lines or run out of data.
func DisassembleRange(base uint32, data []byte, count int) []Line {
	var lines []Line
	offset := 0
	for len(lines) < count && offset < len(data) {
		line := Disassemble(base+uint32(offset), data[offset:])
		if line.Length == 0 {
			break
		}
		lines = append(lines, line)
		offset += line.Length
	}
	return lines
}
