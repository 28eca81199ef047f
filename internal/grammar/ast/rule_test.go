package ast

import (
	"math/rand"
	"testing"

	"github.com/kelsodrake/dharma/internal/errors"
)

func testEnv(seed int64) *Env {
	return &Env{
		RNG: rand.New(rand.NewSource(seed)),
		Cfg: Constants{
			VariableMin:    1,
			VariableMax:    3,
			MaxRepeatPower: 2,
			LeafTrigger:    1000,
		},
		Vars: map[*VariableRule]*VarState{},
		Log:  NullLogger,
	}
}

func TestValueRuleAppendTracksLeaf(t *testing.T) {
	v := NewValueRule("ns:foo", errors.Position{})
	leaf := []Token{&Literal{Text: "a"}}
	v.Append(leaf)
	if len(v.Leaf) != 1 {
		t.Fatalf("expected leaf alternative to be tracked, got %d", len(v.Leaf))
	}

	other := NewValueRule("ns:bar", errors.Position{})
	nonLeaf := []Token{&ValueXRef{ID: "ns:foo", Target: v}}
	other.Append(nonLeaf)
	if len(other.Leaf) != 0 {
		t.Fatalf("expected xref alternative to not be a leaf, got %d", len(other.Leaf))
	}
	if _, ok := other.ValueRefs["ns:foo"]; !ok {
		t.Fatalf("expected ValueRefs to record ns:foo")
	}
}

func TestValueRuleGenerateUsesLeafWhenForced(t *testing.T) {
	leafRule := NewValueRule("ns:leaf", errors.Position{})
	leafRule.Append([]Token{&Literal{Text: "leaf-text"}})

	recursive := NewValueRule("ns:rec", errors.Position{})
	recursive.Append([]Token{&ValueXRef{ID: "ns:leaf", Target: leafRule}})
	recursive.Append([]Token{&Literal{Text: "direct"}})

	env := testEnv(1)
	env.Cfg.LeafTrigger = 0
	state := &GenState{}

	out := recursive.Generate(env, state)
	if !state.LeafMode {
		t.Fatalf("expected leaf mode to be forced after exceeding trigger")
	}
	if out != "direct" {
		t.Fatalf("expected forced leaf mode to pick the literal leaf alternative, got %q", out)
	}
}

func TestValueRuleGenerateEmptyAlternatives(t *testing.T) {
	v := NewValueRule("ns:empty", errors.Position{})
	env := testEnv(1)
	state := &GenState{}
	if got := v.Generate(env, state); got != "" {
		t.Fatalf("expected empty string for rule with no alternatives, got %q", got)
	}
}

func TestNXRefsClampsAndPropagatesIneligibility(t *testing.T) {
	v := NewValueRule("ns:self", errors.Position{})
	v.PathIdents["ns:a"] = struct{}{}

	eligible, _, n := v.nXRefs([]Token{
		&ValueXRef{ID: "ns:a"},
		&ValueXRef{ID: "ns:a"},
	})
	if !eligible || n != 2 {
		t.Fatalf("expected eligible with n=2, got eligible=%v n=%d", eligible, n)
	}

	_, _, n = v.nXRefs([]Token{&Literal{Text: "x"}})
	if n != 1 {
		t.Fatalf("expected a count of zero xrefs to clamp up to 1, got %d", n)
	}

	eligible, _, _ = v.nXRefs([]Token{&ValueXRef{ID: "ns:unreachable"}})
	if eligible {
		t.Fatalf("expected ineligible for a ref not in PathIdents")
	}

	eligible, hasRepeat, _ := v.nXRefs([]Token{
		&Repeat{Inner: []Token{&ValueXRef{ID: "ns:unreachable"}}},
	})
	if eligible || !hasRepeat {
		t.Fatalf("expected ineligibility to propagate out of a repeat body")
	}
}

func TestComputeMinimizedPrefersNonRepeat(t *testing.T) {
	v := NewValueRule("ns:self", errors.Position{})
	v.PathIdents["ns:a"] = struct{}{}

	repeatAlt := []Token{&Repeat{Inner: []Token{&ValueXRef{ID: "ns:a"}}}}
	directAlt := []Token{&ValueXRef{ID: "ns:a"}, &ValueXRef{ID: "ns:a"}}

	v.Alternatives = [][]Token{repeatAlt, directAlt}
	v.computeMinimized()

	if len(v.minimized) != 1 {
		t.Fatalf("expected minimized set to contain only the non-repeat alternative, got %d", len(v.minimized))
	}
}

func TestVariableRuleGenerateMintsThenReuses(t *testing.T) {
	v := NewVariableRule("ns:v", errors.Position{})
	v.Append(VariableAlt{
		Prefix: []Token{&Literal{Text: "let "}},
		Suffix: []Token{&Literal{Text: " = 1;\n"}},
	})

	env := testEnv(42)
	env.Cfg.VariableMin = 1
	env.Cfg.VariableMax = 1
	state := &GenState{}

	first := v.Generate(env, state)
	if first != "v1" {
		t.Fatalf("expected first mint to be v1, got %q", first)
	}

	vs := env.VarStateFor(v)
	if vs.Count != 1 {
		t.Fatalf("expected count 1 after first mint, got %d", vs.Count)
	}
	if vs.Default == "" {
		t.Fatalf("expected a declaration to be recorded in the preamble")
	}

	second := v.Generate(env, state)
	if second != "v1" {
		t.Fatalf("expected reuse window to force reuse of v1, got %q", second)
	}
}

func TestVarianceRuleGenerate(t *testing.T) {
	v := NewVarianceRule("ns:top", errors.Position{})
	v.Append([]Token{&Literal{Text: "hello"}})

	env := testEnv(7)
	state := &GenState{}
	if got := v.Generate(env, state); got != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}
}

func TestRefSetsNoteDescendsIntoRepeat(t *testing.T) {
	var rs RefSets
	rs.ValueRefs = map[string]struct{}{}
	rs.VariableRefs = map[string]struct{}{}
	rs.ElementRefs = map[string]struct{}{}

	rs.Note(&Repeat{Inner: []Token{&ValueXRef{ID: "ns:a"}, &VariableXRef{ID: "ns:v"}}})
	if _, ok := rs.ValueRefs["ns:a"]; !ok {
		t.Fatalf("expected value ref inside repeat to be recorded")
	}
	if _, ok := rs.VariableRefs["ns:v"]; !ok {
		t.Fatalf("expected variable ref inside repeat to be recorded")
	}
}
