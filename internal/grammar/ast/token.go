// Package ast holds the grammar engine's rule graph: the tagged token
// variant of spec.md §3 (Literal, the three cross-reference kinds, and the
// five meta tokens), the three rule kinds (value, variable, variance), and
// the per-run generation environment they execute against.
//
// The graph is built once by internal/grammar/parser, wired up by
// internal/grammar/resolver, annotated by internal/grammar/leafpath, and
// thereafter changed only by each ValueRule filling its minimized
// alternative set lazily, on first use in forced-leaf mode. Everything else
// that changes from one test case to the next lives in
// internal/grammar/generator's per-run Env.
package ast

import "strings"

// Token is the base interface every node of a parsed alternative implements.
// The set of concrete kinds is closed and small, so a tagged variant (one
// struct type per kind, dispatched through this interface) fits better than
// a discriminated union with a type tag field.
type Token interface {
	Generate(env *Env, state *GenState) string
}

// Eval concatenates the generated text of a token sequence — the engine's
// "eval" primitive, used by rule bodies, Repeat bodies and variable
// prefix/suffix halves alike.
func Eval(tokens []Token, env *Env, state *GenState) string {
	if len(tokens) == 0 {
		return ""
	}
	if len(tokens) == 1 {
		return tokens[0].Generate(env, state)
	}
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Generate(env, state))
	}
	return b.String()
}

// ContainsValueXRefOrRepeat reports whether any token directly in seq (not
// recursing through a Repeat's own body) is a ValueXRef or a Repeat. This is
// the leaf-alternative test of spec.md §4.4.
func ContainsValueXRefOrRepeat(seq []Token) bool {
	for _, t := range seq {
		switch t.(type) {
		case *ValueXRef, *Repeat:
			return true
		}
	}
	return false
}

// Literal is a fixed string token; \n in the source text has already been
// decoded to a real newline by the time it reaches here.
type Literal struct {
	Text string
}

func (l *Literal) Generate(*Env, *GenState) string { return l.Text }
