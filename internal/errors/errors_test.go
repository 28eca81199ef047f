package errors

import (
	"testing"
)

func TestPositionString(t *testing.T) {
	tests := []struct {
		name     string
		pos      Position
		expected string
	}{
		{
			"with file",
			Position{File: "test.gmx", Line: 10, Column: 5},
			"test.gmx:10:5",
		},
		{
			"without file",
			Position{Line: 10, Column: 5},
			"10:5",
		},
		{
			"line 1 column 1",
			Position{Line: 1, Column: 1},
			"1:1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.pos.String()
			if result != tt.expected {
				t.Errorf("Position.String() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestCompileErrorError(t *testing.T) {
	err := &CompileError{
		Pos:     Position{File: "test.gmx", Line: 10, Column: 5},
		Message: "unexpected token",
		Phase:   "lexer",
	}

	result := err.Error()
	expected := "[lexer] test.gmx:10:5: unexpected token"

	if result != expected {
		t.Errorf("CompileError.Error() = %q, want %q", result, expected)
	}
}

func TestFatal(t *testing.T) {
	pos := Position{File: "a.dg", Line: 3, Column: 1}
	err := Fatal(pos, "resolver", "undefined reference to %s", "a:b")

	expected := "[resolver] a.dg:3:1: undefined reference to a:b"
	if err.Error() != expected {
		t.Errorf("Fatal().Error() = %q, want %q", err.Error(), expected)
	}
}
