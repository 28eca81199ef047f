// Package logging wires up github.com/juju/loggo the way this repository's
// teacher (github.com/btouchard/gmx's CLI stack, enriched with
// AndrewCouncil's chroma CLI's terminal-aware output) configures its own
// logging: one named logger per package, a single process-wide verbosity
// knob, and colorized output only when standard error is actually a
// terminal. This is the Go equivalent of dharma.py's
// logging.basicConfig(level=args.logging).
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/juju/loggo"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Setup points loggo's default writer at a terminal-aware output stream and
// applies verbosity (one of loggo's level names: TRACE, DEBUG, INFO,
// WARNING, ERROR, CRITICAL) to every logger. Call once at process startup.
func Setup(verbosity string) error {
	if verbosity == "" {
		verbosity = "WARNING"
	}

	var out io.Writer = os.Stderr
	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		out = colorable.NewColorable(f)
	}

	writer := loggo.NewSimpleWriter(out, loggo.DefaultFormatter)
	if _, err := loggo.ReplaceDefaultWriter(writer); err != nil {
		return fmt.Errorf("configuring log writer: %w", err)
	}
	if err := loggo.ConfigureLoggers(fmt.Sprintf("<root>=%s", verbosity)); err != nil {
		return fmt.Errorf("configuring log verbosity %q: %w", verbosity, err)
	}
	return nil
}

// Get returns the named logger — one per package, matching the teacher's
// per-package loggers (lexer, parser, resolver, generator, cmd). Its
// Warningf method is the only thing internal/grammar/ast's narrow Logger
// interface needs.
func Get(name string) loggo.Logger {
	return loggo.GetLogger(name)
}
