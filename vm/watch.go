package vm

import "fmt"

// WatchMode is the access kind a watchpoint triggers on.
type WatchMode int

const (
	WatchRead WatchMode = iota + 1
	WatchWrite
	WatchExecute
)

func (m WatchMode) String() string {
	switch m {
	case WatchRead:
		return "read"
	case WatchWrite:
		return "write"
	case WatchExecute:
		return "execute"
	default:
		return "unknown"
	}
}

// Watchpoint is a memory range tagged with an access mode. A hit logs
// a line but never halts execution.
type Watchpoint struct {
	Addr uint32
	Size uint32
	Mode WatchMode
}

// AddWatch installs a new watchpoint.
func (m *Memory) AddWatch(w Watchpoint) {
	m.watches = append(m.watches, w)
}

// Watches returns the installed watchpoints, for debugger listing.
func (m *Memory) Watches() []Watchpoint {
	return m.watches
}

// ClearWatch removes the watchpoint at the given index.
func (m *Memory) ClearWatch(idx int) bool {
	if idx < 0 || idx >= len(m.watches) {
		return false
	}
	m.watches = append(m.watches[:idx], m.watches[idx+1:]...)
	return true
}

// checkWatch consults every installed watchpoint against one access
// and appends a log line to WatchLog for each hit.
func (m *Memory) checkWatch(addr uint32, size uint32, mode WatchMode) {
	for _, w := range m.watches {
		if w.Mode != mode {
			continue
		}
		if addr+size <= w.Addr || addr >= w.Addr+w.Size {
			continue
		}
		m.WatchLog = append(m.WatchLog, fmt.Sprintf("watch: %s access at 0x%04X (watch 0x%04X/%d)", mode, addr, w.Addr, w.Size))
	}
}
