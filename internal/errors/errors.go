package errors

import "fmt"

// Position represents a location in source code
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	if p.File != "" {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// CompileError represents a compilation error with source position
type CompileError struct {
	Pos     Position
	Message string
	Phase   string // "lexer", "parser", "resolver", "config", "generator"
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Phase, e.Pos, e.Message)
}

// Fatal builds a CompileError for one of the process-terminating conditions
// of spec.md §7.1. Callers wrap the result with github.com/juju/errors at the
// package boundary so the originating phase's position is never lost as the
// error travels up to cmd/dharma.
func Fatal(pos Position, phase, format string, args ...interface{}) *CompileError {
	return &CompileError{Pos: pos, Message: fmt.Sprintf(format, args...), Phase: phase}
}
