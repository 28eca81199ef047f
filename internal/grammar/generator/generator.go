// Package generator implements spec.md §4.5: the stateful recursive walker
// that draws a test case from a resolved, leaf-path-annotated rule graph.
// Everything upstream (internal/grammar/parser, internal/grammar/resolver,
// internal/grammar/leafpath) has already run by the time an Engine is
// constructed; from here on the rule graph changes only through each value
// rule's lazily computed minimized set, and the Engine's own mutable state
// is its PRNG stream (spec.md §5).
package generator

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/kelsodrake/dharma/internal/errors"
	"github.com/kelsodrake/dharma/internal/grammar/ast"
)

// Engine holds one resolved grammar set and the PRNG stream it draws test
// cases from. Not safe for concurrent use (spec.md §5): the host is
// expected to serialize calls to Generate, e.g. internal/wsserver does so
// behind a single mutex.
type Engine struct {
	symtab    *ast.SymbolTable
	variances []*ast.VarianceRule // stable order (sorted by ident), never map iteration
	variables []*ast.VariableRule // declaration order, never map iteration
	cfg       ast.Constants
	rng       *rand.Rand
	log       ast.Logger

	Prefix, Suffix, Template string
}

// New builds an Engine over a fully resolved and leaf-annotated symbol
// table. It is fatal (spec.md §3 Invariants, §4.5 Failure semantics) for
// the variance section to be empty.
func New(symtab *ast.SymbolTable, cfg ast.Constants, seed int64, log ast.Logger) (*Engine, error) {
	if log == nil {
		log = ast.NullLogger
	}
	if len(symtab.Variances) == 0 {
		return nil, errors.Fatal(errors.Position{}, "generator", "variance section is empty, nothing to generate")
	}

	variances := make([]*ast.VarianceRule, 0, len(symtab.Variances))
	for _, v := range symtab.Variances {
		variances = append(variances, v)
	}
	sort.Slice(variances, func(i, j int) bool { return variances[i].Ident < variances[j].Ident })

	variables := make([]*ast.VariableRule, 0, len(symtab.Variables))
	for _, v := range symtab.Variables {
		variables = append(variables, v)
	}
	sort.Slice(variables, func(i, j int) bool { return variables[i].Seq < variables[j].Seq })

	return &Engine{
		symtab:    symtab,
		variances: variances,
		variables: variables,
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(seed)),
		log:       log,
	}, nil
}

// Generate produces one complete test case: draw VARIANCE_MIN..VARIANCE_MAX
// variance rules with replacement, expand each under its own fresh
// GenState, collect the preamble of every variable rule touched along the
// way, and assemble prefix + variables + variances + suffix, substituted
// into Template's $testcase_content placeholder when one is set (spec.md
// §4.5 Whole-testcase assembly).
func (e *Engine) Generate() (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			gf, ok := r.(ast.GenFatal)
			if !ok {
				panic(r)
			}
			err = errors.Fatal(errors.Position{}, "generator", "%s", gf.Msg)
		}
	}()

	env := &ast.Env{
		RNG:  e.rng,
		Cfg:  e.cfg,
		Vars: map[*ast.VariableRule]*ast.VarState{},
		Log:  e.log,
	}

	draws := e.cfg.VarianceMin
	if e.cfg.VarianceMax > e.cfg.VarianceMin {
		draws += e.rng.Intn(e.cfg.VarianceMax-e.cfg.VarianceMin+1)
	}

	var variances strings.Builder
	for i := 0; i < draws; i++ {
		rule := e.variances[e.rng.Intn(len(e.variances))]
		state := &ast.GenState{}
		variances.WriteString(e.wrap(rule.Generate(env, state)))
		variances.WriteString("\n")
	}

	var variables strings.Builder
	for _, vr := range e.variables {
		vs, touched := env.Vars[vr]
		if !touched || vs.Default == "" {
			continue
		}
		variables.WriteString(e.wrap(vs.Default))
		variables.WriteString("\n")
	}

	content := e.Prefix + variables.String() + variances.String() + e.Suffix
	if e.Template == "" {
		return content, nil
	}
	return strings.Replace(e.Template, "$testcase_content", content, 1), nil
}

// wrap applies VARIANCE_TEMPLATE, a format string with a single %s
// placeholder (spec.md §6), to one variance or variable-preamble block. A
// template without a %s verb degrades to the literal template text, which
// is preferable to a runtime panic from fmt on a malformed constant.
func (e *Engine) wrap(s string) string {
	if !strings.Contains(e.cfg.VarianceTemplate, "%s") {
		return e.cfg.VarianceTemplate
	}
	return fmt.Sprintf(e.cfg.VarianceTemplate, s)
}
