package asm

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/basm32/basm32/isa"
)

const maxLabelLen = 63

// stripComment removes a trailing ";" comment, respecting that labels
// and strings never contain one in this grammar.
func stripComment(line string) string {
	if idx := strings.IndexByte(line, ';'); idx >= 0 {
		return line[:idx]
	}
	return line
}

func isLabelStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == '.'
}

func isLabelChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.'
}

// splitLabel peels a leading "LABEL:" off the line, if present.
func splitLabel(line string) (label, rest string) {
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" || !isLabelStart(rune(trimmed[0])) {
		return "", line
	}
	i := 0
	for i < len(trimmed) && isLabelChar(rune(trimmed[i])) {
		i++
	}
	if i == 0 || i >= len(trimmed) || trimmed[i] != ':' {
		return "", line
	}
	return trimmed[:i], trimmed[i+1:]
}

// Lex parses one source line (with the file/line recorded for
// diagnostics) into a label/directive/instruction triple.
func Lex(file string, lineNo int, rawLine string) (ParsedLine, error) {
	line := stripComment(rawLine)
	label, rest := splitLabel(line)
	if len(label) > maxLabelLen {
		return ParsedLine{}, &OperandError{Mnemonic: label, Detail: "label too long"}
	}

	rest = strings.TrimSpace(rest)
	if rest == "" {
		return ParsedLine{Label: label, Blank: label == ""}, nil
	}

	if rest[0] == '.' {
		dir, err := parseDirectiveLine(file, lineNo, rest)
		if err != nil {
			return ParsedLine{}, err
		}
		dir.Label = label
		return ParsedLine{Label: label, Directive: dir}, nil
	}

	inst, err := parseInstructionLine(file, lineNo, rest)
	if err != nil {
		return ParsedLine{}, err
	}
	inst.Label = label
	return ParsedLine{Label: label, Instruction: inst}, nil
}

// parseDirectiveLine splits ".name arg1, arg2, ..." into name and a
// comma-separated argument list. Directive-specific argument parsing
// (numbers vs strings) happens in directive.go.
func parseDirectiveLine(file string, lineNo int, rest string) (*Directive, error) {
	rest = rest[1:] // drop leading '.'
	name, argsStr := splitWord(rest)
	upper := strings.ToUpper(name)

	var args []string
	if upper == "STRING" {
		// The whole remainder is one quoted-string argument; splitting
		// on commas would break apart a string containing one.
		if trimmed := strings.TrimSpace(argsStr); trimmed != "" {
			args = []string{trimmed}
		}
	} else {
		args = splitArgs(argsStr)
	}
	return &Directive{Name: upper, Args: args, File: file, Line: lineNo}, nil
}

// parseInstructionLine splits "MNEMONIC op1, op2, ..." and resolves
// operand text into tagged Operand values.
func parseInstructionLine(file string, lineNo int, rest string) (*Instruction, error) {
	mnemonic, argsStr := splitWord(rest)
	upper := strings.ToUpper(mnemonic)
	info, ok := isa.Lookup(upper)
	if !ok {
		return nil, &UnknownMnemonicError{Mnemonic: mnemonic}
	}

	argTokens := splitArgs(argsStr)
	operands := make([]Operand, 0, len(argTokens))
	for _, tok := range argTokens {
		op, err := parseOperand(strings.TrimSpace(tok))
		if err != nil {
			return nil, &OperandError{Mnemonic: upper, Detail: err.Error()}
		}
		operands = append(operands, op)
	}

	return &Instruction{Info: info, Operands: operands, File: file, Line: lineNo}, nil
}

// splitWord splits on the first run of whitespace, returning the first
// word and the (untrimmed) remainder.
func splitWord(s string) (word, rest string) {
	s = strings.TrimLeft(s, " \t")
	i := 0
	for i < len(s) && !unicode.IsSpace(rune(s[i])) {
		i++
	}
	return s[:i], s[i:]
}

// splitArgs splits a comma-separated operand list, respecting bracket
// nesting so "[foo], [bar]" doesn't confuse a comma inside brackets
// with an argument separator (not currently reachable by the grammar,
// but keeps the splitter honest if indexed addressing adds one).
func splitArgs(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var args []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	args = append(args, strings.TrimSpace(s[start:]))
	return args
}

// parseOperand resolves one operand token into a tagged Operand, per
// the addressing-mode syntax table.
func parseOperand(tok string) (Operand, error) {
	if tok == "" {
		return Operand{}, &OperandError{Detail: "empty operand"}
	}

	if strings.HasPrefix(tok, "[") && strings.HasSuffix(tok, "]") {
		return parseBracketed(tok[1 : len(tok)-1])
	}

	if reg, ok := parseRegisterToken(tok); ok {
		return Operand{Mode: ModeRegister, Reg: reg}, nil
	}

	if strings.HasPrefix(tok, "#") {
		v, err := parseNumber(tok[1:])
		if err != nil {
			return Operand{}, err
		}
		return Operand{Mode: ModeImmediate, Imm: v}, nil
	}

	if looksNumeric(tok) {
		v, err := parseNumber(tok)
		if err != nil {
			return Operand{}, err
		}
		return Operand{Mode: ModeImmediate, Imm: v}, nil
	}

	if isValidLabel(tok) {
		return Operand{Mode: ModePCRelative, Label: tok}, nil
	}

	return Operand{}, &OperandError{Detail: "unrecognized operand " + tok}
}

// parseBracketed resolves the contents of "[...]": DIRECT for a number
// or symbol, REGISTER_INDIRECT for a bare register. A register spelling
// is always REGISTER_INDIRECT here, since the lexer has no symbol table
// to consult; a label spelled like a register cannot be addressed in
// brackets.
func parseBracketed(inner string) (Operand, error) {
	inner = strings.TrimSpace(inner)
	if looksNumeric(inner) {
		v, err := parseNumber(inner)
		if err != nil {
			return Operand{}, err
		}
		return Operand{Mode: ModeDirect, Addr: uint32(v), Resolved: true}, nil
	}
	if reg, ok := parseRegisterToken(inner); ok {
		return Operand{Mode: ModeRegisterIndirect, Reg: reg}, nil
	}
	if isValidLabel(inner) {
		return Operand{Mode: ModeDirect, Label: inner}, nil
	}
	return Operand{}, &OperandError{Detail: "invalid address expression [" + inner + "]"}
}

// parseRegisterToken recognizes R0-R31 and the PC/SP/FP/LR aliases.
// Register parse wins over a same-spelled label, so callers check this
// before treating a token as a bare label.
func parseRegisterToken(tok string) (int, bool) {
	upper := strings.ToUpper(tok)
	if reg, ok := isa.RegisterAliases[upper]; ok {
		return reg, true
	}
	if len(upper) >= 2 && upper[0] == 'R' {
		n, err := strconv.Atoi(upper[1:])
		if err == nil && n >= 0 && n < isa.RegCount {
			return n, true
		}
	}
	return 0, false
}

func isValidLabel(tok string) bool {
	if tok == "" || !isLabelStart(rune(tok[0])) {
		return false
	}
	for _, r := range tok {
		if !isLabelChar(r) {
			return false
		}
	}
	return true
}

func looksNumeric(tok string) bool {
	t := tok
	if strings.HasPrefix(t, "-") {
		t = t[1:]
	}
	if t == "" {
		return false
	}
	return unicode.IsDigit(rune(t[0]))
}

// parseNumber parses "decimal", "0xHH", "0bBB", with an optional
// leading '-'.
func parseNumber(tok string) (int32, error) {
	neg := false
	if strings.HasPrefix(tok, "-") {
		neg = true
		tok = tok[1:]
	}

	var v int64
	var err error
	switch {
	case strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X"):
		v, err = strconv.ParseInt(tok[2:], 16, 64)
	case strings.HasPrefix(tok, "0b") || strings.HasPrefix(tok, "0B"):
		v, err = strconv.ParseInt(tok[2:], 2, 64)
	default:
		v, err = strconv.ParseInt(tok, 10, 64)
	}
	if err != nil {
		return 0, &OperandError{Detail: "bad numeric literal " + tok}
	}
	if neg {
		v = -v
	}
	return int32(v), nil
}
