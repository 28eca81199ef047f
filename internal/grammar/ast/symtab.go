package ast

import "github.com/kelsodrake/dharma/internal/errors"

// SymbolTable holds every rule parsed from one or more grammar files,
// keyed by fully-qualified identifier ("<namespace>:<local>"). A grammar
// set always produces exactly one SymbolTable, built by internal/grammar/parser
// and then bound by internal/grammar/resolver (which fills in every xref's
// Target) before internal/grammar/leafpath annotates every ValueRule's
// PathIdents.
//
// A rule, once finished (its alternatives fully collected), is inserted
// exactly once. Declaring the same identifier again in the same section —
// whether in the same file or a later one — is a fatal redefinition
// (spec.md §3 Invariants), so the Define* methods never merge into an
// existing rule; they report the collision and let the caller turn it into
// a fatal diagnostic with source position.
type SymbolTable struct {
	Values    map[string]*ValueRule
	Variables map[string]*VariableRule
	Variances map[string]*VarianceRule

	variableSeq int
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		Values:    map[string]*ValueRule{},
		Variables: map[string]*VariableRule{},
		Variances: map[string]*VarianceRule{},
	}
}

// DefineValue inserts a fresh value rule, returning false without
// inserting if ident was already declared.
func (s *SymbolTable) DefineValue(ident string, pos errors.Position) (*ValueRule, bool) {
	if _, exists := s.Values[ident]; exists {
		return nil, false
	}
	r := NewValueRule(ident, pos)
	s.Values[ident] = r
	return r, true
}

// DefineVariable inserts a fresh variable rule, the same way DefineValue
// does.
func (s *SymbolTable) DefineVariable(ident string, pos errors.Position) (*VariableRule, bool) {
	if _, exists := s.Variables[ident]; exists {
		return nil, false
	}
	r := NewVariableRule(ident, pos)
	r.Seq = s.variableSeq
	s.variableSeq++
	s.Variables[ident] = r
	return r, true
}

// DefineVariance inserts a fresh variance rule, the same way DefineValue
// does.
func (s *SymbolTable) DefineVariance(ident string, pos errors.Position) (*VarianceRule, bool) {
	if _, exists := s.Variances[ident]; exists {
		return nil, false
	}
	r := NewVarianceRule(ident, pos)
	s.Variances[ident] = r
	return r, true
}
