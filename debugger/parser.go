// Package debugger implements the interactive REPL: a minimum-prefix
// command dispatcher in the style of a classic simulator console, and
// a liner-backed reader loop wired to a vm.Machine.
package debugger

import (
	"errors"
	"strconv"
	"strings"
)

// cmdLine tracks position while a command's arguments are consumed
// word by word.
type cmdLine struct {
	line string
	pos  int
}

func (l *cmdLine) skipSpace() {
	for l.pos < len(l.line) && l.line[l.pos] == ' ' {
		l.pos++
	}
}

func (l *cmdLine) isEOL() bool { return l.pos >= len(l.line) }

func (l *cmdLine) getWord() string {
	l.skipSpace()
	start := l.pos
	for l.pos < len(l.line) && l.line[l.pos] != ' ' {
		l.pos++
	}
	return l.line[start:l.pos]
}

func (l *cmdLine) rest() string {
	l.skipSpace()
	return l.line[l.pos:]
}

type command struct {
	name     string
	min      int
	process  func(d *Debugger, line *cmdLine) (bool, error)
	complete func(d *Debugger, line *cmdLine) []string
}

var commandList = []command{
	{name: "run", min: 1, process: cmdRun},
	{name: "step", min: 1, process: cmdStep},
	{name: "break", min: 1, process: cmdBreak},
	{name: "watch", min: 1, process: cmdWatch},
	{name: "registers", min: 3, process: cmdRegisters},
	{name: "memory", min: 3, process: cmdMemory},
	{name: "disassemble", min: 1, process: cmdDisassemble},
	{name: "quit", min: 1, process: cmdQuit},
	{name: "help", min: 1, process: cmdHelp},
}

func matchCommand(c command, name string) bool {
	if len(name) == 0 || len(name) > len(c.name) {
		return false
	}
	if name != c.name[:len(name)] {
		return false
	}
	return len(name) >= c.min
}

func matchList(name string) []command {
	if name == "" {
		return nil
	}
	var matches []command
	for _, c := range commandList {
		if matchCommand(c, name) {
			matches = append(matches, c)
		}
	}
	return matches
}

// ProcessCommand runs one command line against d, returning true if
// the REPL should exit.
func (d *Debugger) ProcessCommand(raw string) (bool, error) {
	line := &cmdLine{line: raw}
	name := line.getWord()
	if name == "" {
		return false, nil
	}

	matches := matchList(name)
	switch len(matches) {
	case 0:
		return false, errors.New("unknown command: " + name)
	case 1:
		return matches[0].process(d, line)
	default:
		return false, errors.New("ambiguous command: " + name)
	}
}

// CompleteCmd returns command-name completions for line editing.
func CompleteCmd(raw string) []string {
	line := &cmdLine{line: raw}
	name := line.getWord()
	if !line.isEOL() {
		return nil
	}
	matches := matchList(name)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}

func parseUint32(s string) (uint32, error) {
	lower := strings.ToLower(s)
	if hex, ok := strings.CutPrefix(lower, "0x"); ok {
		v, err := strconv.ParseUint(hex, 16, 32)
		return uint32(v), err
	}
	v, err := strconv.ParseUint(s, 10, 32)
	return uint32(v), err
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(s)
}
