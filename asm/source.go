package asm

import (
	"os"
	"strings"
)

// SourceReader loads a named source file into lines, for top-level
// input and for .include directives. Callers supply whatever reader
// fits their environment (os.ReadFile-backed in cmd/assembler, an
// in-memory map in tests).
type SourceReader interface {
	ReadLines(name string) ([]string, error)
}

// MapReader is a SourceReader backed by an in-memory map, used by
// tests and by callers that have already loaded source text.
type MapReader map[string][]string

func (m MapReader) ReadLines(name string) ([]string, error) {
	lines, ok := m[name]
	if !ok {
		return nil, &IncludeNotFoundError{Name: name}
	}
	return lines, nil
}

// FileReader is a SourceReader backed by the filesystem, for the
// assembler CLI. Names are read relative to the process's working
// directory, same as .include targets written relative to it.
type FileReader struct{}

func (FileReader) ReadLines(name string) ([]string, error) {
	raw, err := os.ReadFile(name)
	if err != nil {
		return nil, &IncludeNotFoundError{Name: name}
	}
	return strings.Split(string(raw), "\n"), nil
}

// IncludeNotFoundError is returned when a .include target can't be
// located by the configured SourceReader.
type IncludeNotFoundError struct {
	Name string
}

func (e *IncludeNotFoundError) Error() string {
	return "include file not found: " + e.Name
}
