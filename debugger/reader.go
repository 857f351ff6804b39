package debugger

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/peterh/liner"
)

// ConsoleReader drives the interactive REPL over stdin/stdout via
// liner, feeding each line to d.ProcessCommand and printing whatever
// it collected in d.Out.
func ConsoleReader(d *Debugger) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(l string) []string {
		return CompleteCmd(l)
	})

	for {
		input, err := line.Prompt("basm> ")
		if err == nil {
			line.AppendHistory(input)
			d.Out = d.Out[:0]
			quit, cmdErr := d.ProcessCommand(input)
			for _, out := range d.Out {
				fmt.Println(out)
			}
			if cmdErr != nil {
				fmt.Println("error: " + cmdErr.Error())
			}
			if quit {
				return
			}
			continue
		}

		if errors.Is(err, liner.ErrPromptAborted) {
			return
		}
		slog.Error("error reading line: " + err.Error())
		return
	}
}
