// Package logger wraps log/slog with a mutex-guarded handler that
// mirrors anything at warn level or above to stderr, even when the
// configured output is a log file.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Handler is an slog.Handler that writes formatted text lines to an
// arbitrary writer and, when verbose or the record is at warn level or
// above, duplicates the line to stderr.
type Handler struct {
	out     io.Writer
	h       slog.Handler
	mu      *sync.Mutex
	verbose bool
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{out: h.out, h: h.h.WithAttrs(attrs), mu: h.mu, verbose: h.verbose}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{out: h.out, h: h.h.WithGroup(name), mu: h.mu, verbose: h.verbose}
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	level := r.Level.String() + ":"
	formattedTime := r.Time.Format("2006/01/02 15:04:05")

	strs := []string{formattedTime, level, r.Message}
	if r.NumAttrs() != 0 {
		r.Attrs(func(a slog.Attr) bool {
			strs = append(strs, a.Value.String())
			return true
		})
	}
	b := []byte(strings.Join(strs, " ") + "\n")

	h.mu.Lock()
	defer h.mu.Unlock()

	var err error
	if h.out != nil {
		_, err = h.out.Write(b)
	}
	if h.verbose || r.Level >= slog.LevelWarn {
		_, err = os.Stderr.Write(b)
	}
	return err
}

// SetVerbose toggles mirroring debug-level records to stderr.
func (h *Handler) SetVerbose(verbose bool) {
	h.verbose = verbose
}

// New builds a Handler writing to out, with verbose controlling
// whether debug-level records are also mirrored to stderr.
func New(out io.Writer, opts *slog.HandlerOptions, verbose bool) *Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &Handler{
		out:     out,
		h:       slog.NewTextHandler(out, &slog.HandlerOptions{Level: opts.Level, AddSource: opts.AddSource}),
		mu:      &sync.Mutex{},
		verbose: verbose,
	}
}
