// Package asm implements the two-pass assembler: the lexer/operand
// parser, symbol table, section manager, directive handler and
// instruction encoder all meet here in Assembler, which drives pass 1
// (symbol collection and size accumulation) and pass 2 (code emission)
// over the same source.
package asm

import (
	"strings"
)

const maxSymbols = 4096

// Assembler owns all state mutated across both passes: current PC,
// current section, the symbol table, the section table and the
// accumulated diagnostics log. It is created once per invocation and
// discarded after Assemble returns.
type Assembler struct {
	reader SourceReader

	pc         uint32
	curSection *Section
	sections   *SectionTable
	symbols    *SymbolTable

	pass        int
	Diagnostics []Diagnostic
}

// NewAssembler creates an assembler state with empty symbol/section
// tables, ready to run Assemble.
func NewAssembler(reader SourceReader) *Assembler {
	a := &Assembler{
		reader:   reader,
		sections: NewSectionTable(),
		symbols:  NewSymbolTable(maxSymbols),
	}
	a.curSection, _ = a.sections.Get(".text")
	a.pc = a.curSection.Origin
	return a
}

// Symbols exposes the finished symbol table, for the disassembler and
// debugger (symbolic display of addresses) and for tests.
func (a *Assembler) Symbols() *SymbolTable { return a.symbols }

// Sections exposes the finished section table.
func (a *Assembler) Sections() *SectionTable { return a.sections }

// HasErrors reports whether any KindSyntax/KindSemantic diagnostic was
// recorded — the top-level driver suppresses output when this is true.
func (a *Assembler) HasErrors() bool {
	for _, d := range a.Diagnostics {
		if d.Kind != KindWarning {
			return true
		}
	}
	return false
}

func (a *Assembler) errorf(file string, line int, err error) {
	a.Diagnostics = append(a.Diagnostics, Diagnostic{Kind: KindSyntax, File: file, Line: line, Err: err})
}

func (a *Assembler) semanticf(file string, line int, err error) {
	a.Diagnostics = append(a.Diagnostics, Diagnostic{Kind: KindSemantic, File: file, Line: line, Err: err})
}

func (a *Assembler) warnf(file string, line int, err error) {
	a.Diagnostics = append(a.Diagnostics, Diagnostic{Kind: KindWarning, File: file, Line: line, Err: err})
}

// Assemble runs pass 1 then pass 2 over topFile and, if no errors were
// recorded, returns the flat output image (bytes [0, MaxAddress) of the
// combined section data). Pass 3 (late reference resolution) is a
// documented no-op: forward references are resolved inline in pass 2
// via the pass-1-populated symbol table, so there is nothing left to
// patch out-of-line.
func (a *Assembler) Assemble(topFile string) ([]byte, error) {
	a.pass = 1
	a.curSection, _ = a.sections.Get(".text")
	a.pc = a.curSection.Origin
	if err := a.runPass(topFile, 0); err != nil {
		return nil, err
	}

	a.pass = 2
	a.curSection, _ = a.sections.Get(".text")
	a.pc = a.curSection.Origin
	if err := a.runPass(topFile, 0); err != nil {
		return nil, err
	}

	if a.HasErrors() {
		return nil, nil
	}
	return a.buildImage(), nil
}

// buildImage concatenates every section's data into the flat output
// image: bytes [0, MaxAddress) with gaps between sections left as
// zero bytes. Empty sections contribute nothing.
func (a *Assembler) buildImage() []byte {
	max := a.sections.MaxAddress()
	image := make([]byte, max)
	for _, sec := range a.sections.All() {
		if sec.Size == 0 {
			continue
		}
		copy(image[sec.Origin:], sec.Data)
	}
	return image
}

// runPass re-reads source top to bottom (recursing into .include
// targets with depth tracking), applying one pass's semantics to each
// line.
func (a *Assembler) runPass(file string, depth int) error {
	if depth > maxIncludeDepth {
		a.semanticf(file, 0, &IncludeDepthError{Limit: maxIncludeDepth})
		return nil
	}

	lines, err := a.reader.ReadLines(file)
	if err != nil {
		return err
	}

	for i, raw := range lines {
		lineNo := i + 1
		parsed, lexErr := Lex(file, lineNo, raw)
		if lexErr != nil {
			a.errorf(file, lineNo, lexErr)
			continue
		}
		if parsed.Blank {
			continue
		}

		if parsed.Directive != nil && parsed.Directive.Name == "INCLUDE" {
			a.handleInclude(parsed.Directive, file, lineNo, depth)
			continue
		}

		a.handleLabel(parsed.Label, file, lineNo)

		switch {
		case parsed.Directive != nil:
			if err := a.applyDirective(parsed.Directive, a.pass == 2); err != nil {
				a.semanticf(file, lineNo, err)
			}
		case parsed.Instruction != nil:
			a.handleInstruction(parsed.Instruction)
		}
	}
	return nil
}

// handleLabel records a label at the current PC during pass 1. Pass 2
// re-sees the same labels but does not re-insert them, since the
// symbol table is already fully populated — re-inserting would corrupt
// forward-reference values computed during pass 1.
//
// A label sharing a line with .org binds to the pre-.org PC: this
// method runs before applyDirective for every line, so the label
// always sees PC as pass 1 left it at the start of the line.
func (a *Assembler) handleLabel(label, file string, line int) {
	if label == "" || a.pass != 1 {
		return
	}
	symType := SymCode
	if a.curSection != nil && a.curSection.Name == ".data" {
		symType = SymData
	} else if a.curSection != nil && a.curSection.Name == ".bss" {
		symType = SymBSS
	}
	if err := a.symbols.Insert(&Symbol{
		Name: label, Value: a.pc, Type: symType, Scope: ScopeLocal,
		File: file, Line: line, Defined: true, Section: a.sectionName(),
	}); err != nil {
		a.semanticf(file, line, err)
	}
}

func (a *Assembler) sectionName() string {
	if a.curSection == nil {
		return ""
	}
	return a.curSection.Name
}

func (a *Assembler) handleInclude(d *Directive, file string, line, depth int) {
	if len(d.Args) != 1 {
		a.errorf(file, line, &OperandError{Mnemonic: ".include", Detail: "expected one filename"})
		return
	}
	name := strings.Trim(d.Args[0], `"<>`)
	if err := a.runPass(name, depth+1); err != nil {
		a.errorf(file, line, err)
	}
}

// handleInstruction advances PC by the instruction's size in pass 1,
// or resolves operands and emits bytes in pass 2.
func (a *Assembler) handleInstruction(inst *Instruction) {
	inst.Addr = a.pc

	if a.pass == 1 {
		size, err := Size(inst)
		if err != nil {
			a.errorf(inst.File, inst.Line, err)
			return
		}
		a.pc += uint32(size)
		return
	}

	expectedSize, _ := Size(inst)

	for i := range inst.Operands {
		if err := a.resolveOperand(&inst.Operands[i]); err != nil {
			a.semanticf(inst.File, inst.Line, err)
			return
		}
	}

	bytes, err := Encode(inst)
	if err != nil {
		a.semanticf(inst.File, inst.Line, err)
		return
	}
	if len(bytes) != expectedSize {
		a.semanticf(inst.File, inst.Line, &SizeMismatchError{Line: inst.Line, Expected: expectedSize, Actual: len(bytes)})
		return
	}
	for _, b := range bytes {
		if err := a.emitByte(b); err != nil {
			a.semanticf(inst.File, inst.Line, err)
			return
		}
	}
}

// resolveOperand fills in Addr/Resolved for a label-carrying operand
// from the (by now fully populated) symbol table.
func (a *Assembler) resolveOperand(op *Operand) error {
	if op.Label == "" || op.Resolved {
		return nil
	}
	sym, ok := a.symbols.Lookup(op.Label)
	if !ok {
		return &UndefinedSymbolError{Symbol: op.Label}
	}
	op.Addr = sym.Value
	op.Resolved = true
	return nil
}

// emitByte writes one byte at PC into the current section and
// advances PC, enforcing the 16 MiB memory bound.
func (a *Assembler) emitByte(b byte) error {
	const memoryLimit = 16 * 1024 * 1024
	if a.pc >= memoryLimit {
		return &OperandError{Detail: "address out of bounds"}
	}
	offset := a.pc - a.curSection.Origin
	a.curSection.write(offset, b)
	a.pc++
	return nil
}
