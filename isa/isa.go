// Package isa holds the opcode table shared by the assembler, the
// simulator and the disassembler: mnemonics, numeric opcode values,
// format classes and the per-opcode size/cycle metadata. Keeping this
// table in one place means the assembler's sizer and the simulator's
// decoder can never silently disagree about how many bytes an
// instruction occupies.
package isa

// Format classifies an instruction's on-wire layout: which operand
// slots exist and how wide each one is.
type Format int

const (
	FormatNiladic      Format = iota + 1 // opcode only: HALT, NOP, RET
	FormatSingleReg                      // opcode, reg: INC, DEC, PUSH, POP, NOT, CLR
	FormatTwoOpMode                      // opcode, reg_dst, mode, (reg | imm): MOV, LOAD*, STORE*, CMP, TEST
	FormatThreeOpArith                   // opcode, reg_dst, reg_src1, mode, (reg | imm): ADD, SUB, ...
	FormatBranch                         // opcode, target16_le
	FormatIO                             // opcode, port16_le, reg (OUT) | opcode, reg, port16_le (IN)
)

// Width distinguishes the variants of FormatTwoOpMode by data width:
// for the load/store forms it is the width of the memory access, and
// MOVW is the only form whose on-wire operand is wider than the
// default 16-bit field.
type Width int

const (
	WidthByte Width = iota + 1
	WidthHalf
	WidthWord
)

// Info is the static metadata for one opcode: everything the sizer,
// encoder, decoder and disassembler need that isn't carried by the
// specific instance's operands.
type Info struct {
	Mnemonic  string
	Opcode    byte
	Format    Format
	Width     Width // meaningful only for FormatTwoOpMode
	BaseCost  int   // cycle cost before any memory-access surcharge
	NumOps    int
	IsStore   bool // STORE/STOREH/STOREW: dest operand is a memory write, not a register
}

// Opcode numbers. Values called out as canonical in the external
// interface section keep those exact numbers; the remainder (wide
// immediate forms, wider loads/stores, carry/overflow branches, and
// MOD) fill the unused slots in the same families.
const (
	OpMOV    = 0x01
	OpMOVW   = 0x02
	OpLOAD   = 0x04
	OpLOADH  = 0x05
	OpLOADW  = 0x06
	OpSTORE  = 0x07
	OpSTOREH = 0x08
	OpSTOREW = 0x09
	OpPUSH   = 0x0A
	OpPOP    = 0x0B

	OpADD = 0x10
	OpSUB = 0x12
	OpMUL = 0x14
	OpDIV = 0x16
	OpMOD = 0x18
	OpINC = 0x1A
	OpDEC = 0x1B

	OpAND = 0x30
	OpOR  = 0x31
	OpXOR = 0x32
	OpNOT = 0x33
	OpSHL = 0x37
	OpSHR = 0x38
	OpCLR = 0x3D
	OpCMP = 0x40

	OpTEST = 0x3F

	OpJMP  = 0x50
	OpJC   = 0x51
	OpJNC  = 0x52
	OpJE   = 0x53
	OpJNE  = 0x54
	OpJG   = 0x55
	OpJGE  = 0x56
	OpJL   = 0x57
	OpJLE  = 0x58
	OpJO   = 0x59
	OpJNO  = 0x5A
	OpCALL = 0x5D
	OpRET  = 0x5E

	OpHALT = 0x70
	OpNOP  = 0x71

	OpIN  = 0x80
	OpOUT = 0x81
)

// Table maps mnemonic -> metadata. Several mnemonics (JZ/JNZ) are
// aliases that resolve to the same numeric opcode as JE/JNE, since the
// two flag predicates are identical; the disassembler only ever
// produces the canonical spelling.
var Table = map[string]*Info{
	"MOV":    {Mnemonic: "MOV", Opcode: OpMOV, Format: FormatTwoOpMode, Width: WidthByte, BaseCost: 1, NumOps: 2},
	"MOVW":   {Mnemonic: "MOVW", Opcode: OpMOVW, Format: FormatTwoOpMode, Width: WidthWord, BaseCost: 1, NumOps: 2},
	"LOAD":   {Mnemonic: "LOAD", Opcode: OpLOAD, Format: FormatTwoOpMode, Width: WidthByte, BaseCost: 2, NumOps: 2},
	"LOADH":  {Mnemonic: "LOADH", Opcode: OpLOADH, Format: FormatTwoOpMode, Width: WidthHalf, BaseCost: 2, NumOps: 2},
	"LOADW":  {Mnemonic: "LOADW", Opcode: OpLOADW, Format: FormatTwoOpMode, Width: WidthWord, BaseCost: 2, NumOps: 2},
	"STORE":  {Mnemonic: "STORE", Opcode: OpSTORE, Format: FormatTwoOpMode, Width: WidthByte, BaseCost: 2, NumOps: 2, IsStore: true},
	"STOREH": {Mnemonic: "STOREH", Opcode: OpSTOREH, Format: FormatTwoOpMode, Width: WidthHalf, BaseCost: 2, NumOps: 2, IsStore: true},
	"STOREW": {Mnemonic: "STOREW", Opcode: OpSTOREW, Format: FormatTwoOpMode, Width: WidthWord, BaseCost: 2, NumOps: 2, IsStore: true},
	"PUSH":   {Mnemonic: "PUSH", Opcode: OpPUSH, Format: FormatSingleReg, BaseCost: 2, NumOps: 1},
	"POP":    {Mnemonic: "POP", Opcode: OpPOP, Format: FormatSingleReg, BaseCost: 2, NumOps: 1},

	"ADD": {Mnemonic: "ADD", Opcode: OpADD, Format: FormatThreeOpArith, BaseCost: 1, NumOps: 3},
	"SUB": {Mnemonic: "SUB", Opcode: OpSUB, Format: FormatThreeOpArith, BaseCost: 1, NumOps: 3},
	"MUL": {Mnemonic: "MUL", Opcode: OpMUL, Format: FormatThreeOpArith, BaseCost: 3, NumOps: 3},
	"DIV": {Mnemonic: "DIV", Opcode: OpDIV, Format: FormatThreeOpArith, BaseCost: 5, NumOps: 3},
	"MOD": {Mnemonic: "MOD", Opcode: OpMOD, Format: FormatThreeOpArith, BaseCost: 5, NumOps: 3},
	"INC": {Mnemonic: "INC", Opcode: OpINC, Format: FormatSingleReg, BaseCost: 1, NumOps: 1},
	"DEC": {Mnemonic: "DEC", Opcode: OpDEC, Format: FormatSingleReg, BaseCost: 1, NumOps: 1},

	"AND": {Mnemonic: "AND", Opcode: OpAND, Format: FormatThreeOpArith, BaseCost: 1, NumOps: 3},
	"OR":  {Mnemonic: "OR", Opcode: OpOR, Format: FormatThreeOpArith, BaseCost: 1, NumOps: 3},
	"XOR": {Mnemonic: "XOR", Opcode: OpXOR, Format: FormatThreeOpArith, BaseCost: 1, NumOps: 3},
	"NOT": {Mnemonic: "NOT", Opcode: OpNOT, Format: FormatSingleReg, BaseCost: 1, NumOps: 1},
	"SHL": {Mnemonic: "SHL", Opcode: OpSHL, Format: FormatThreeOpArith, BaseCost: 1, NumOps: 3},
	"SHR": {Mnemonic: "SHR", Opcode: OpSHR, Format: FormatThreeOpArith, BaseCost: 1, NumOps: 3},
	"CLR": {Mnemonic: "CLR", Opcode: OpCLR, Format: FormatSingleReg, BaseCost: 1, NumOps: 1},
	"CMP": {Mnemonic: "CMP", Opcode: OpCMP, Format: FormatTwoOpMode, Width: WidthByte, BaseCost: 1, NumOps: 2},

	"TEST": {Mnemonic: "TEST", Opcode: OpTEST, Format: FormatTwoOpMode, Width: WidthByte, BaseCost: 1, NumOps: 2},

	"JMP":  {Mnemonic: "JMP", Opcode: OpJMP, Format: FormatBranch, BaseCost: 2, NumOps: 1},
	"JC":   {Mnemonic: "JC", Opcode: OpJC, Format: FormatBranch, BaseCost: 2, NumOps: 1},
	"JNC":  {Mnemonic: "JNC", Opcode: OpJNC, Format: FormatBranch, BaseCost: 2, NumOps: 1},
	"JE":   {Mnemonic: "JE", Opcode: OpJE, Format: FormatBranch, BaseCost: 2, NumOps: 1},
	"JZ":   {Mnemonic: "JZ", Opcode: OpJE, Format: FormatBranch, BaseCost: 2, NumOps: 1},
	"JNE":  {Mnemonic: "JNE", Opcode: OpJNE, Format: FormatBranch, BaseCost: 2, NumOps: 1},
	"JNZ":  {Mnemonic: "JNZ", Opcode: OpJNE, Format: FormatBranch, BaseCost: 2, NumOps: 1},
	"JG":   {Mnemonic: "JG", Opcode: OpJG, Format: FormatBranch, BaseCost: 2, NumOps: 1},
	"JGE":  {Mnemonic: "JGE", Opcode: OpJGE, Format: FormatBranch, BaseCost: 2, NumOps: 1},
	"JL":   {Mnemonic: "JL", Opcode: OpJL, Format: FormatBranch, BaseCost: 2, NumOps: 1},
	"JLE":  {Mnemonic: "JLE", Opcode: OpJLE, Format: FormatBranch, BaseCost: 2, NumOps: 1},
	"JO":   {Mnemonic: "JO", Opcode: OpJO, Format: FormatBranch, BaseCost: 2, NumOps: 1},
	"JNO":  {Mnemonic: "JNO", Opcode: OpJNO, Format: FormatBranch, BaseCost: 2, NumOps: 1},
	"CALL": {Mnemonic: "CALL", Opcode: OpCALL, Format: FormatBranch, BaseCost: 4, NumOps: 1},

	"RET":  {Mnemonic: "RET", Opcode: OpRET, Format: FormatNiladic, BaseCost: 4, NumOps: 0},
	"HALT": {Mnemonic: "HALT", Opcode: OpHALT, Format: FormatNiladic, BaseCost: 1, NumOps: 0},
	"NOP":  {Mnemonic: "NOP", Opcode: OpNOP, Format: FormatNiladic, BaseCost: 1, NumOps: 0},

	"IN":  {Mnemonic: "IN", Opcode: OpIN, Format: FormatIO, BaseCost: 3, NumOps: 2},
	"OUT": {Mnemonic: "OUT", Opcode: OpOUT, Format: FormatIO, BaseCost: 3, NumOps: 2},
}

// ByOpcode is the reverse index used by the simulator and disassembler:
// numeric opcode -> canonical metadata. Alias mnemonics (JZ/JNZ) are not
// distinct entries here; decoding always recovers the canonical name.
var ByOpcode [256]*Info

func init() {
	canonical := map[byte]string{
		OpJE:  "JE",
		OpJNE: "JNE",
	}
	for mnemonic, info := range Table {
		if name, ok := canonical[info.Opcode]; ok && mnemonic != name {
			continue // skip alias so ByOpcode holds the canonical spelling
		}
		ByOpcode[info.Opcode] = info
	}
}

// Lookup returns the metadata for a mnemonic, case-insensitively
// normalized by the caller (the lexer upper-cases mnemonics before the
// lookup).
func Lookup(mnemonic string) (*Info, bool) {
	info, ok := Table[mnemonic]
	return info, ok
}
