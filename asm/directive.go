package asm

import (
	"strconv"
	"strings"
)

const maxIncludeDepth = 16

// applyDirective executes one directive against the assembler's
// current state. When emit is false (pass 1 sizing) it only advances
// PC; when true (pass 2) it also writes bytes into the current
// section's buffer. .align writes its zero padding in both passes. A label sharing a line with .org
// is bound by the caller before applyDirective runs, so it always
// resolves to the pre-.org PC.
func (a *Assembler) applyDirective(d *Directive, emit bool) error {
	switch d.Name {
	case "CODE", "TEXT":
		return a.switchSection(".text")
	case "DATA":
		return a.switchSection(".data")
	case "ORG":
		return a.directiveOrg(d)
	case "ALIGN":
		return a.directiveAlign(d)
	case "BYTE":
		return a.directiveByte(d, emit)
	case "WORD":
		return a.directiveWord(d, emit)
	case "DWORD":
		return a.directiveDword(d, emit)
	case "STRING":
		return a.directiveString(d, emit)
	case "EQU":
		return a.directiveEqu(d)
	case "INCLUDE":
		return nil // handled by the caller before applyDirective, since it recurses over lines
	default:
		return &OperandError{Mnemonic: "." + strings.ToLower(d.Name), Detail: "unknown directive"}
	}
}

func (a *Assembler) switchSection(name string) error {
	sec, err := a.sections.Get(name)
	if err != nil {
		return err
	}
	a.curSection = sec
	a.pc = sec.Origin
	return nil
}

func (a *Assembler) directiveOrg(d *Directive) error {
	if len(d.Args) != 1 {
		return &OperandError{Mnemonic: ".org", Detail: "expected one address"}
	}
	v, err := parseDirectiveNumber(d.Args[0])
	if err != nil {
		return err
	}
	a.pc = uint32(v)
	return nil
}

func (a *Assembler) directiveAlign(d *Directive) error {
	if len(d.Args) != 1 {
		return &OperandError{Mnemonic: ".align", Detail: "expected one alignment"}
	}
	n, err := parseDirectiveNumber(d.Args[0])
	if err != nil || n <= 0 {
		return &OperandError{Mnemonic: ".align", Detail: "alignment must be a positive integer"}
	}
	align := uint32(n)
	if rem := a.pc % align; rem != 0 {
		pad := align - rem
		for i := uint32(0); i < pad; i++ {
			if err := a.emitByte(0); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Assembler) directiveByte(d *Directive, emit bool) error {
	for _, arg := range d.Args {
		v, err := parseDirectiveNumber(arg)
		if err != nil {
			return err
		}
		if emit {
			if err := a.emitByte(byte(v)); err != nil {
				return err
			}
		} else {
			a.pc++
		}
	}
	return nil
}

func (a *Assembler) directiveWord(d *Directive, emit bool) error {
	for _, arg := range d.Args {
		v, err := parseDirectiveNumber(arg)
		if err != nil {
			return err
		}
		if emit {
			if err := a.emitByte(byte(v)); err != nil {
				return err
			}
			if err := a.emitByte(byte(v >> 8)); err != nil {
				return err
			}
		} else {
			a.pc += 2
		}
	}
	return nil
}

func (a *Assembler) directiveDword(d *Directive, emit bool) error {
	for _, arg := range d.Args {
		v, err := parseDirectiveNumber(arg)
		if err != nil {
			return err
		}
		if emit {
			for shift := 0; shift < 32; shift += 8 {
				if err := a.emitByte(byte(v >> shift)); err != nil {
					return err
				}
			}
		} else {
			a.pc += 4
		}
	}
	return nil
}

func (a *Assembler) directiveString(d *Directive, emit bool) error {
	if len(d.Args) != 1 {
		return &OperandError{Mnemonic: ".string", Detail: "expected one quoted string"}
	}
	s, err := unquote(d.Args[0])
	if err != nil {
		return err
	}
	if emit {
		for i := 0; i < len(s); i++ {
			if err := a.emitByte(s[i]); err != nil {
				return err
			}
		}
		if err := a.emitByte(0); err != nil {
			return err
		}
	} else {
		a.pc += uint32(len(s)) + 1
	}
	return nil
}

func (a *Assembler) directiveEqu(d *Directive) error {
	if d.Label == "" {
		return &OperandError{Mnemonic: ".equ", Detail: "requires a label"}
	}
	if len(d.Args) != 1 {
		return &OperandError{Mnemonic: ".equ", Detail: "expected one value"}
	}
	v, err := parseDirectiveNumber(d.Args[0])
	if err != nil {
		return err
	}
	if a.pass != 1 {
		return nil
	}
	return a.symbols.Insert(&Symbol{
		Name: d.Label, Value: uint32(v), Type: SymEqu, Scope: ScopeLocal,
		File: d.File, Line: d.Line, Defined: true,
	})
}

func parseDirectiveNumber(tok string) (int64, error) {
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
	return v, nil
}

func unquote(tok string) (string, error) {
	if len(tok) < 2 || tok[0] != '"' || tok[len(tok)-1] != '"' {
		return "", &OperandError{Detail: "unclosed string " + tok}
	}
	return tok[1 : len(tok)-1], nil
}
