// Package leafpath implements spec.md §4.4: for every value rule, compute
// the set of value-reference targets that provably shrink the distance to
// a leaf alternative. Run once, after internal/grammar/resolver has bound
// every cross-reference and before the first call into
// internal/grammar/generator.
package leafpath

import "github.com/kelsodrake/dharma/internal/grammar/ast"

// Compute fills PathIdents on every value rule in symtab, grounded on
// DharmaMachine.calculate_leaf_paths/calculate_leaf_path/propagate_leaf in
// _examples/original_source/dharma/core/dharma.py: build a reverse
// cross-reference map (target ident -> idents whose alternatives reference
// it), then walk backward from every rule that has at least one leaf
// alternative, marking every rule reached along the way.
func Compute(symtab *ast.SymbolTable) {
	reverse := map[string][]string{}
	var leaves []*ast.ValueRule

	for _, rule := range symtab.Values {
		if len(rule.Leaf) > 0 {
			leaves = append(leaves, rule)
		}
		for ref := range rule.ValueRefs {
			reverse[ref] = append(reverse[ref], rule.Ident)
		}
	}

	for _, leaf := range leaves {
		calculateLeafPath(symtab, leaf, reverse)
	}
}

func calculateLeafPath(symtab *ast.SymbolTable, leaf *ast.ValueRule, reverse map[string][]string) {
	referrers, ok := reverse[leaf.Ident]
	if !ok {
		return
	}
	for _, name := range referrers {
		xref := symtab.Values[name]
		xref.PathIdents[leaf.Ident] = struct{}{}
		seen := map[*ast.ValueRule]struct{}{xref: {}}
		propagateLeaf(symtab, xref.Ident, xref, seen, reverse)
	}
}

// propagateLeaf walks one more hop backward from obj, marking every rule
// that can reach obj (and therefore leaf) as having obj.Ident in its
// PathIdents. seen prevents re-entering a rule already visited along this
// particular walk (the reference's node_seen cycle protection).
func propagateLeaf(symtab *ast.SymbolTable, leafIdent string, obj *ast.ValueRule, seen map[*ast.ValueRule]struct{}, reverse map[string][]string) {
	referrers, ok := reverse[obj.Ident]
	if !ok {
		return
	}
	for _, name := range referrers {
		xref := symtab.Values[name]
		xref.PathIdents[obj.Ident] = struct{}{}
		if _, already := seen[xref]; already {
			continue
		}
		seen[xref] = struct{}{}
		propagateLeaf(symtab, leafIdent, xref, seen, reverse)
	}
}
