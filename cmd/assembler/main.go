// Command assembler runs the two-pass assembler over a source file and
// writes the flat binary image it produces.
package main

import (
	"fmt"
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"
	"github.com/xyproto/env/v2"

	"github.com/basm32/basm32/asm"
	"github.com/basm32/basm32/internal/logger"
)

func main() {
	optVerbose := getopt.BoolLong("verbose", 'v', "Print section size summary")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	args := getopt.Args()
	if *optHelp || len(args) < 1 || len(args) > 2 {
		getopt.Usage()
		os.Exit(1)
	}

	var out *os.File
	if *optLogFile != "" {
		out, _ = os.Create(*optLogFile)
	} else {
		out = os.Stderr
	}
	verbose := *optVerbose || env.Bool("BASM_VERBOSE")
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	slog.SetDefault(slog.New(logger.New(out, &slog.HandlerOptions{Level: level}, verbose)))

	source := args[0]
	output := "output.bin"
	if len(args) == 2 {
		output = args[1]
	}

	assembler := asm.NewAssembler(asm.FileReader{})
	image, err := assembler.Assemble(source)
	if err != nil {
		slog.Error("assembling", "err", err)
		os.Exit(1)
	}
	if assembler.HasErrors() {
		for _, d := range assembler.Diagnostics {
			fmt.Fprintln(os.Stderr, d.String())
		}
		os.Exit(1)
	}

	if err := os.WriteFile(output, image, 0o644); err != nil {
		slog.Error("writing image", "file", output, "err", err)
		os.Exit(1)
	}

	if verbose {
		for _, sec := range assembler.Sections().All() {
			fmt.Printf("%-8s origin=0x%04X size=%d\n", sec.Name, sec.Origin, sec.Size)
		}
	}
}
