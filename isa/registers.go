package isa

import "strconv"

// Register indices: 32 general registers with the top four aliased to
// special-purpose names.
const (
	RegCount = 32

	RegPC = 28
	RegSP = 29
	RegFP = 30
	RegLR = 31
)

// RegisterAliases maps the alias spelling to its register index, for
// the lexer's register-operand parser.
var RegisterAliases = map[string]int{
	"PC": RegPC,
	"SP": RegSP,
	"FP": RegFP,
	"LR": RegLR,
}

// RegisterName returns the canonical display spelling for a register
// index: the alias for 28-31, "R<n>" otherwise — used by the
// disassembler.
func RegisterName(reg int) string {
	switch reg {
	case RegPC:
		return "PC"
	case RegSP:
		return "SP"
	case RegFP:
		return "FP"
	case RegLR:
		return "LR"
	default:
		return "R" + strconv.Itoa(reg)
	}
}
