// Command debugger loads a binary image into the simulator and opens
// an interactive console for stepping, breakpoints and inspection.
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	getopt "github.com/pborman/getopt/v2"
	"github.com/xyproto/env/v2"

	"github.com/basm32/basm32/debugger"
	"github.com/basm32/basm32/internal/logger"
	"github.com/basm32/basm32/vm"
)

func main() {
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optVerbose := getopt.BoolLong("verbose", 'v', "Mirror debug-level log records to stderr")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	args := getopt.Args()
	if *optHelp || len(args) != 1 {
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

	image, err := os.ReadFile(args[0])
	if err != nil {
		slog.Error("reading image", "file", args[0], "err", err)
		os.Exit(1)
	}

	machine := vm.NewMachine()
	machine.Mem.LoadImage(image)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("got quit signal, shutting down")
		os.Exit(0)
	}()

	slog.Info("image loaded", "file", args[0], "bytes", len(image))
	debugger.ConsoleReader(debugger.New(machine))
}
