package ast

import "math/rand"

// Logger is the narrow slice of github.com/juju/loggo.Logger carried in Env
// for non-fatal generation-time conditions. Nothing in this package calls
// it; constant redefinition and missing %uri%/%block% paths are reported
// by internal/config and internal/grammar/resolver through their own warn
// callbacks. Kept as an interface here so internal/grammar/ast never imports
// the logging package.
type Logger interface {
	Warningf(format string, args ...interface{})
}

type nullLogger struct{}

func (nullLogger) Warningf(string, ...interface{}) {}

// NullLogger discards every warning. Used by tests and by any caller that
// doesn't care to observe them.
var NullLogger Logger = nullLogger{}

// GenState is the per-test-case state threaded through one call to a
// variance rule's Generate. Once LeafMode flips true it never reverts
// (§8 Leaf-mode monotonicity).
type GenState struct {
	LeafMode    bool
	LeafTrigger int
}

// VarState is the per-run mutable state of one variable rule: how many
// distinct variables have been minted so far, and the accumulated preamble
// of declarations to emit ahead of the variance output.
type VarState struct {
	Count   int
	Default string
}

// Env carries everything a Token needs to generate that is not itself part
// of the immutable rule graph: the shared PRNG stream, the tuning constants,
// and the per-run mutable state of every variable rule touched so far. One
// Env is built per call to Engine.Generate (see internal/grammar/generator)
// and discarded afterwards; the rule graph it points into is changed only by
// the lazily computed minimized set of each ValueRule.
type Env struct {
	RNG  *rand.Rand
	Cfg  Constants
	Vars map[*VariableRule]*VarState
	Log  Logger
}

// Constants is the subset of internal/config.Constants the ast package needs
// to generate text: the tuning knobs of spec.md §6. Defined here (rather
// than imported from internal/config) to keep internal/grammar/ast free of
// a dependency on the settings loader; internal/config.Constants converts to
// this type with a single field-for-field copy.
type Constants struct {
	VarianceMin, VarianceMax int
	VariableMin, VariableMax int
	VarianceTemplate         string
	MaxRepeatPower           int
	LeafTrigger              int
	URITable                 map[string]string
}

// VarStateFor returns the mutable state for rule, creating it on first
// touch. Kept on Env rather than on VariableRule itself so per-run variable
// state never lives in the rule graph (§9 Design Notes). The graph is still
// not safe for concurrent runs, since ValueRule.Generate fills its
// minimized set lazily.
func (e *Env) VarStateFor(rule *VariableRule) *VarState {
	vs, ok := e.Vars[rule]
	if !ok {
		vs = &VarState{}
		e.Vars[rule] = vs
	}
	return vs
}
