package ast

import (
	"fmt"
	"strings"

	"github.com/kelsodrake/dharma/internal/errors"
)

// Repeat evaluates Inner a random number of times and joins the results with
// Separator, optionally collapsing to unique strings.
type Repeat struct {
	Inner     []Token
	Separator string
	NoDups    bool
}

func (r *Repeat) Generate(env *Env, state *GenState) string {
	power := 1 + env.RNG.Intn(maxInt(env.Cfg.MaxRepeatPower, 1))
	upper := 1 << uint(power)
	count := 1 + env.RNG.Intn(upper)

	strs := make([]string, 0, count)
	for i := 0; i < count; i++ {
		strs = append(strs, Eval(r.Inner, env, state))
	}
	if r.NoDups {
		strs = dedup(strs)
	}
	return strings.Join(strs, r.Separator)
}

func dedup(strs []string) []string {
	seen := make(map[string]struct{}, len(strs))
	out := strs[:0]
	for _, s := range strs {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// RangeKind distinguishes the three numeric/character flavors a %range%
// meta can resolve to, per spec.md §4.2's type-detection rules.
type RangeKind int

const (
	RangeChar RangeKind = iota
	RangeInt
	RangeFloat
)

// Range implements the %range%(a-b) meta. Exactly one of the Char/Int/Float
// field groups is meaningful, selected by Kind.
type Range struct {
	Kind RangeKind

	CharA, CharB rune

	IntA, IntB int64
	IntBase    int // 10 or 16

	FloatA, FloatB float64
}

func (r *Range) Generate(env *Env, state *GenState) string {
	switch r.Kind {
	case RangeChar:
		span := int(r.CharB-r.CharA) + 1
		return string(rune(int(r.CharA) + env.RNG.Intn(span)))
	case RangeFloat:
		v := r.FloatA + env.RNG.Float64()*(r.FloatB-r.FloatA)
		return fmt.Sprintf("%g", v)
	default: // RangeInt
		span := r.IntB - r.IntA + 1
		v := r.IntA + int64(env.RNG.Int63n(span))
		if r.IntBase == 16 {
			return fmt.Sprintf("%x", v)
		}
		return fmt.Sprintf("%d", v)
	}
}

// Choice implements %choice%(a, b, c, ...): a uniform pick among a fixed,
// comma-separated list of literal strings.
type Choice struct {
	Items []string
}

func (c *Choice) Generate(env *Env, state *GenState) string {
	return c.Items[env.RNG.Intn(len(c.Items))]
}

// URI implements %uri%(path): a uniform pick among the files captured from
// a directory listing (or the single file, if path named a file rather
// than a directory). Alias is the raw argument text as written in the
// grammar (possibly a URI_TABLE key); Paths is filled once by
// internal/grammar/resolver, which is where the directory listing
// actually happens — the parser stays pure and never touches the
// filesystem. Re-read-on-each-testcase is not attempted: the reference
// behavior is "read once" (spec.md §9 Open Questions), satisfied here by
// resolving once instead of once per construction.
type URI struct {
	Alias string
	Pos   errors.Position
	Paths []string
}

func (u *URI) Generate(env *Env, state *GenState) string {
	if len(u.Paths) == 0 {
		return u.Alias
	}
	return u.Paths[env.RNG.Intn(len(u.Paths))]
}

// Block implements %block%(path): the full contents of a file, read once
// by internal/grammar/resolver. A missing file expands to the literal
// path string (the resolver already logged the warning when it happened).
type Block struct {
	Path    string
	Pos     errors.Position
	Content string
}

func (b *Block) Generate(*Env, *GenState) string { return b.Content }
