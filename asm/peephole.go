package asm

import "github.com/basm32/basm32/isa"

// NOPRun describes one contiguous run of NOP opcodes found in a
// finished image, for diagnostic reporting.
type NOPRun struct {
	Start  uint32
	Length int
}

// PeepholeNOPs scans a finished byte image for runs of NOP and reports
// them. It never rewrites or shrinks the image: every address in the
// image is already absolute by the time this runs, and shrinking would
// invalidate all of them.
func PeepholeNOPs(image []byte) []NOPRun {
	var runs []NOPRun
	i := 0
	for i < len(image) {
		if image[i] != isa.OpNOP {
			i++
			continue
		}
		start := i
		for i < len(image) && image[i] == isa.OpNOP {
			i++
		}
		if i-start > 1 {
			runs = append(runs, NOPRun{Start: uint32(start), Length: i - start})
		}
	}
	return runs
}
