package ast

import (
	"sort"
	"strconv"

	"github.com/kelsodrake/dharma/internal/errors"
	"github.com/kelsodrake/dharma/internal/util"
)

// RefSets tracks the qualified identifiers a rule's alternatives reference,
// split by cross-reference kind, exactly as spec.md §3 describes: "Each
// value rule maintains value_xref, variable_xref, element_xref: sets of
// qualified identifiers referenced from any of its alternatives." Embedded
// into all three rule kinds, since variable and variance rules can also
// reference value/variable/element rules.
type RefSets struct {
	ValueRefs    map[string]struct{}
	VariableRefs map[string]struct{}
	ElementRefs  map[string]struct{}
}

func newRefSets() RefSets {
	return RefSets{
		ValueRefs:    map[string]struct{}{},
		VariableRefs: map[string]struct{}{},
		ElementRefs:  map[string]struct{}{},
	}
}

// Note records one reference of the given kind. Called by the parser as it
// builds a token sequence, and recursively descends into Repeat bodies so a
// reference nested inside a repeat is still tracked at the owning rule.
func (r *RefSets) Note(tok Token) {
	switch t := tok.(type) {
	case *ValueXRef:
		r.ValueRefs[t.ID] = struct{}{}
	case *VariableXRef:
		r.VariableRefs[t.ID] = struct{}{}
	case *ElementXRef:
		r.ElementRefs[t.ID] = struct{}{}
	case *Repeat:
		for _, inner := range t.Inner {
			r.Note(inner)
		}
	}
}

// NoteAll records every reference in a token sequence.
func (r *RefSets) NoteAll(seq []Token) {
	for _, t := range seq {
		r.Note(t)
	}
}

// ValueRule is a named choice of alternatives (§3 Value rule).
type ValueRule struct {
	Ident        string
	Pos          errors.Position
	Alternatives [][]Token
	Leaf         [][]Token // leaf alternatives, collected incrementally as alternatives are appended

	PathIdents map[string]struct{} // filled by internal/grammar/leafpath

	minimized         [][]Token
	minimizedComputed bool

	RefSets
}

func NewValueRule(ident string, pos errors.Position) *ValueRule {
	return &ValueRule{Ident: ident, Pos: pos, PathIdents: map[string]struct{}{}, RefSets: newRefSets()}
}

// Append adds one alternative, recording it as a leaf alternative when it
// contains no ValueXRef and no Repeat (spec.md §4.4).
func (v *ValueRule) Append(alt []Token) {
	v.Alternatives = append(v.Alternatives, alt)
	v.NoteAll(alt)
	if !ContainsValueXRefOrRepeat(alt) {
		v.Leaf = append(v.Leaf, alt)
	}
}

// nXRefs implements the Python reference's n_xrefs: whether every ValueXRef
// in alt, including those nested in Repeat bodies, provably makes progress
// toward a leaf (is a member of v.PathIdents), whether alt contains a
// Repeat, and the count of ValueXRef occurrences clamped to [1, 8] (each
// Repeat body contributes its own clamped count). An ineligible xref nested
// in a Repeat makes the whole alternative ineligible rather than silently
// corrupting the count, which the Python source would do. For an ineligible
// alternative the scan stops at the offending xref: n is 0 and hasRepeat
// reports the Repeats seen up to that point.
func (v *ValueRule) nXRefs(alt []Token) (eligible, hasRepeat bool, n int) {
	for _, t := range alt {
		switch tok := t.(type) {
		case *ValueXRef:
			n++
			if _, ok := v.PathIdents[tok.ID]; !ok {
				return false, hasRepeat, 0
			}
		case *Repeat:
			hasRepeat = true
			subEligible, _, subN := v.nXRefs(tok.Inner)
			if !subEligible {
				return false, hasRepeat, 0
			}
			n += subN
		}
	}
	return true, hasRepeat, util.Clamp(n, 1, 8)
}

// computeMinimized lazily builds the minimized alternative set used once
// the rule is in forced-leaf mode but has no direct leaf alternative
// (spec.md §4.5 point 4). Non-repeat eligible alternatives, if any exist,
// exclude all repeat-containing ones.
func (v *ValueRule) computeMinimized() {
	groups := map[int][][]Token{}
	haveNonRepeats := false

	for _, alt := range v.Alternatives {
		eligible, hasRepeat, n := v.nXRefs(alt)
		if !eligible {
			continue
		}
		if !hasRepeat && !haveNonRepeats {
			groups = map[int][][]Token{}
			haveNonRepeats = true
		}
		if !hasRepeat || !haveNonRepeats {
			groups[n] = append(groups[n], alt)
		}
	}

	if len(groups) == 0 {
		v.minimizedComputed = true
		v.minimized = nil
		return
	}

	keys := make([]int, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	v.minimized = groups[keys[0]]
	v.minimizedComputed = true
}

func (v *ValueRule) Generate(env *Env, state *GenState) string {
	if !state.LeafMode {
		state.LeafTrigger++
		if state.LeafTrigger > env.Cfg.LeafTrigger {
			state.LeafMode = true
		}
	}

	if len(v.Alternatives) == 0 {
		return ""
	}

	var chosen []Token
	switch {
	case state.LeafMode && len(v.Leaf) > 0:
		chosen = v.Leaf[env.RNG.Intn(len(v.Leaf))]
	case state.LeafMode:
		if !v.minimizedComputed {
			v.computeMinimized()
		}
		if len(v.minimized) == 0 {
			fatalf("no path to leaf in force-leaf mode in value %s", v.Ident)
		}
		chosen = v.minimized[env.RNG.Intn(len(v.minimized))]
	default:
		chosen = v.Alternatives[env.RNG.Intn(len(v.Alternatives))]
	}

	return Eval(chosen, env, state)
}

// VariableAlt is one alternative of a variable rule: the tokens before and
// after the element reference that names the variable itself.
type VariableAlt struct {
	Prefix, Suffix []Token
}

// VariableRule declares a named family of emitted identifiers (§3 Variable
// rule), e.g. `let @v@ = new Object`.
type VariableRule struct {
	Ident        string
	Pos          errors.Position
	Alternatives []VariableAlt
	Seq          int // declaration order, assigned by SymbolTable.DefineVariable

	RefSets
}

func NewVariableRule(ident string, pos errors.Position) *VariableRule {
	return &VariableRule{Ident: ident, Pos: pos, RefSets: newRefSets()}
}

func (v *VariableRule) Append(alt VariableAlt) {
	v.Alternatives = append(v.Alternatives, alt)
	v.NoteAll(alt.Prefix)
	v.NoteAll(alt.Suffix)
}

// Generate returns a random existing variable name if the rule's reuse
// saturation window says to, otherwise mints a new one and records its
// declaration in the per-run preamble (spec.md §4.5 Variable-rule
// expansion).
func (v *VariableRule) Generate(env *Env, state *GenState) string {
	vs := env.VarStateFor(v)

	window := env.Cfg.VariableMin
	if env.Cfg.VariableMax > env.Cfg.VariableMin {
		window += env.RNG.Intn(env.Cfg.VariableMax - env.Cfg.VariableMin + 1)
	}
	if vs.Count >= window {
		k := 1 + env.RNG.Intn(vs.Count)
		return formatElementName(v.Ident, k)
	}

	alt := v.Alternatives[env.RNG.Intn(len(v.Alternatives))]
	prefix := Eval(alt.Prefix, env, state)
	suffix := Eval(alt.Suffix, env, state)
	vs.Count++
	name := formatElementName(v.Ident, vs.Count)
	vs.Default += prefix + name + suffix + "\n"
	return name
}

func formatElementName(ident string, k int) string {
	_, local := util.SplitQualified(ident)
	return local + strconv.Itoa(k)
}

// VarianceRule is a top-level production; one is chosen as the root of each
// emitted test-case fragment (§3 Variance rule).
type VarianceRule struct {
	Ident        string
	Pos          errors.Position
	Alternatives [][]Token

	RefSets
}

func NewVarianceRule(ident string, pos errors.Position) *VarianceRule {
	return &VarianceRule{Ident: ident, Pos: pos, RefSets: newRefSets()}
}

func (v *VarianceRule) Append(alt []Token) {
	v.Alternatives = append(v.Alternatives, alt)
	v.NoteAll(alt)
}

func (v *VarianceRule) Generate(env *Env, state *GenState) string {
	alt := v.Alternatives[env.RNG.Intn(len(v.Alternatives))]
	return Eval(alt, env, state)
}
