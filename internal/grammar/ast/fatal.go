package ast

import "fmt"

// GenFatal is the panic value raised for the generation-time fatal
// conditions of spec.md §4.5/§7.1: a missing cross-reference, or a value
// rule with no path to a leaf while forced into leaf mode. These should
// never occur once a grammar has passed resolution and leaf-path analysis;
// panic/recover lets the tree-walking Token.Generate interface report them
// without threading an error return through every token kind, the same way
// the reference implementation calls sys.exit(-1) deep inside generate().
// internal/grammar/generator.Engine.Generate recovers it and converts it to
// a plain error.
type GenFatal struct {
	Msg string
}

func (g GenFatal) Error() string { return g.Msg }

func fatalf(format string, args ...interface{}) {
	panic(GenFatal{Msg: fmt.Sprintf(format, args...)})
}
