package debugger

import (
	"fmt"
	"strings"

	"github.com/basm32/basm32/disasm"
	"github.com/basm32/basm32/isa"
	"github.com/basm32/basm32/vm"
)

// Debugger wraps a vm.Machine with the REPL's own notion of output: a
// collected transcript rather than direct stdout writes, so tests can
// drive commands and inspect what would have been printed.
type Debugger struct {
	Machine *vm.Machine
	Out     []string
}

// New wraps an already-loaded machine for interactive debugging.
func New(m *vm.Machine) *Debugger {
	return &Debugger{Machine: m}
}

func (d *Debugger) printf(format string, args ...any) {
	d.Out = append(d.Out, fmt.Sprintf(format, args...))
}

func cmdRun(d *Debugger, _ *cmdLine) (bool, error) {
	if err := d.Machine.Run(); err != nil {
		d.printf("stopped: %s", err)
		return false, nil
	}
	if d.Machine.Halted {
		d.printf("halted at 0x%04X", d.Machine.Regs.PC())
	} else {
		d.printf("breakpoint at 0x%04X", d.Machine.Regs.PC())
	}
	return false, nil
}

func cmdStep(d *Debugger, line *cmdLine) (bool, error) {
	count := 1
	if word := line.getWord(); word != "" {
		n, err := parseInt(word)
		if err != nil {
			return false, err
		}
		count = n
	}
	for i := 0; i < count; i++ {
		if d.Machine.Halted {
			break
		}
		if err := d.Machine.Step(); err != nil {
			d.printf("stopped: %s", err)
			return false, nil
		}
	}
	d.printf("PC=0x%04X", d.Machine.Regs.PC())
	return false, nil
}

func cmdBreak(d *Debugger, line *cmdLine) (bool, error) {
	word := line.getWord()
	if word == "" {
		for i, b := range d.Machine.Breakpoints {
			d.printf("%d: 0x%04X", i, b)
		}
		return false, nil
	}
	if word == "clear" {
		idx, err := parseInt(line.getWord())
		if err != nil {
			return false, err
		}
		if !d.Machine.ClearBreakpoint(idx) {
			return false, fmt.Errorf("no breakpoint %d", idx)
		}
		return false, nil
	}
	addr, err := parseUint32(word)
	if err != nil {
		return false, err
	}
	d.Machine.AddBreakpoint(addr)
	d.printf("breakpoint set at 0x%04X", addr)
	return false, nil
}

func cmdWatch(d *Debugger, line *cmdLine) (bool, error) {
	word := line.getWord()
	if word == "" {
		for i, w := range d.Machine.Mem.Watches() {
			d.printf("%d: 0x%04X/%d %s", i, w.Addr, w.Size, w.Mode)
		}
		return false, nil
	}
	if word == "clear" {
		idx, err := parseInt(line.getWord())
		if err != nil {
			return false, err
		}
		if !d.Machine.Mem.ClearWatch(idx) {
			return false, fmt.Errorf("no watchpoint %d", idx)
		}
		return false, nil
	}
	addr, err := parseUint32(word)
	if err != nil {
		return false, err
	}
	size := 1
	if s := line.getWord(); s != "" {
		if size, err = parseInt(s); err != nil {
			return false, err
		}
	}
	mode := vm.WatchWrite
	switch strings.ToLower(line.getWord()) {
	case "read":
		mode = vm.WatchRead
	case "execute":
		mode = vm.WatchExecute
	}
	d.Machine.Mem.AddWatch(vm.Watchpoint{Addr: addr, Size: uint32(size), Mode: mode})
	d.printf("watchpoint set at 0x%04X/%d %s", addr, size, mode)
	return false, nil
}

func cmdRegisters(d *Debugger, _ *cmdLine) (bool, error) {
	for i := 0; i < isa.RegCount; i++ {
		d.printf("%s = 0x%08X", isa.RegisterName(i), d.Machine.Regs[i])
	}
	d.printf("flags = 0x%02X", byte(d.Machine.Flags))
	return false, nil
}

func cmdMemory(d *Debugger, line *cmdLine) (bool, error) {
	addr, err := parseUint32(line.getWord())
	if err != nil {
		return false, err
	}
	length := 16
	if s := line.getWord(); s != "" {
		if length, err = parseInt(s); err != nil {
			return false, err
		}
	}
	bytes := d.Machine.Mem.Bytes(addr, length)
	d.printf("0x%04X: % X", addr, bytes)
	return false, nil
}

func cmdDisassemble(d *Debugger, line *cmdLine) (bool, error) {
	addr, err := parseUint32(line.getWord())
	if err != nil {
		addr = d.Machine.Regs.PC()
	}
	count := 10
	if s := line.getWord(); s != "" {
		if count, err = parseInt(s); err != nil {
			return false, err
		}
	}
	data := d.Machine.Mem.Bytes(addr, count*8)
	for _, l := range disasm.DisassembleRange(addr, data, count) {
		d.printf("0x%04X: %s", l.Addr, l.Text)
	}
	return false, nil
}

func cmdQuit(_ *Debugger, _ *cmdLine) (bool, error) {
	return true, nil
}

func cmdHelp(d *Debugger, _ *cmdLine) (bool, error) {
	for _, c := range commandList {
		d.printf("%s", c.name)
	}
	return false, nil
}
