package ast

import "github.com/kelsodrake/dharma/internal/errors"

// ValueXRef is a +ident+ reference to a value rule. Target is nil until the
// resolver binds it; generation after a successful resolve pass never sees
// a nil Target (spec.md §8 Closure). Pos is the source position the
// reference was scanned at, carried so the resolver's "unresolved
// reference" diagnostic can name the offending file and line (spec.md
// §7.1).
type ValueXRef struct {
	ID     string
	Pos    errors.Position
	Target *ValueRule
}

func (x *ValueXRef) Generate(env *Env, state *GenState) string {
	if x.Target == nil {
		fatalf("value xref inconsistency looking for %s", x.ID)
	}
	return x.Target.Generate(env, state)
}

// VariableXRef is a !ident! reference to a variable rule: on generate it
// either reuses an existing emitted variable name or mints a new one.
type VariableXRef struct {
	ID     string
	Pos    errors.Position
	Target *VariableRule
}

func (x *VariableXRef) Generate(env *Env, state *GenState) string {
	if x.Target == nil {
		fatalf("variable xref inconsistency looking for %s", x.ID)
	}
	return x.Target.Generate(env, state)
}

// ElementXRef is an @ident@ reference. Inside a variable rule's own
// alternative it marks where the freshly minted name is inserted; used
// elsewhere it has the same generate semantics as VariableXRef (it resolves
// against the variable namespace per spec.md §4.3's "important detail").
type ElementXRef struct {
	ID     string
	Pos    errors.Position
	Target *VariableRule
}

func (x *ElementXRef) Generate(env *Env, state *GenState) string {
	if x.Target == nil {
		fatalf("element xref inconsistency looking for %s", x.ID)
	}
	return x.Target.Generate(env, state)
}
