// Package resolver implements spec.md §4.3's cross-reference resolution
// pass: for every token built by internal/grammar/parser, bind each
// ValueXRef/VariableXRef/ElementXRef to its concrete rule, and perform the
// one-time file I/O %uri% and %block% meta tokens need (directory listing
// / file read), since internal/grammar/parser never touches the
// filesystem.
package resolver

import (
	"os"
	"path/filepath"

	"github.com/kelsodrake/dharma/internal/errors"
	"github.com/kelsodrake/dharma/internal/grammar/ast"
)

// Warn reports a non-fatal condition: a %uri%/%block% argument that did
// not resolve to an existing path (spec.md §7.2).
type Warn func(pos errors.Position, format string, args ...interface{})

// Resolve binds every cross-reference in symtab and resolves every
// %uri%/%block% meta token, returning the first fatal inconsistency it
// finds (spec.md §4.3: "the first is fatal").
func Resolve(symtab *ast.SymbolTable, uriTable map[string]string, warn Warn) error {
	if warn == nil {
		warn = func(errors.Position, string, ...interface{}) {}
	}
	r := &resolution{symtab: symtab, uriTable: uriTable, warn: warn}

	for _, rule := range symtab.Values {
		for _, alt := range rule.Alternatives {
			if err := r.walk(rule.Ident, alt); err != nil {
				return err
			}
		}
	}
	for _, rule := range symtab.Variables {
		for _, alt := range rule.Alternatives {
			if err := r.walk(rule.Ident, alt.Prefix); err != nil {
				return err
			}
			if err := r.walk(rule.Ident, alt.Suffix); err != nil {
				return err
			}
		}
	}
	for _, rule := range symtab.Variances {
		for _, alt := range rule.Alternatives {
			if err := r.walk(rule.Ident, alt); err != nil {
				return err
			}
		}
	}

	return nil
}

type resolution struct {
	symtab   *ast.SymbolTable
	uriTable map[string]string
	warn     Warn
}

func (r *resolution) walk(referrer string, tokens []ast.Token) error {
	for _, t := range tokens {
		switch tok := t.(type) {
		case *ast.ValueXRef:
			target, ok := r.symtab.Values[tok.ID]
			if !ok {
				return errors.Fatal(tok.Pos, "resolver", "undefined value reference from %s to %s", referrer, tok.ID)
			}
			tok.Target = target
		case *ast.VariableXRef:
			target, ok := r.symtab.Variables[tok.ID]
			if !ok {
				return errors.Fatal(tok.Pos, "resolver", "undefined variable reference from %s to %s", referrer, tok.ID)
			}
			tok.Target = target
		case *ast.ElementXRef:
			// Element references resolve against the variable mapping
			// (spec.md §4.3 "important detail").
			target, ok := r.symtab.Variables[tok.ID]
			if !ok {
				return errors.Fatal(tok.Pos, "resolver", "element reference without a default variable from %s to %s", referrer, tok.ID)
			}
			tok.Target = target
		case *ast.Repeat:
			if err := r.walk(referrer, tok.Inner); err != nil {
				return err
			}
		case *ast.URI:
			r.resolveURI(tok)
		case *ast.Block:
			r.resolveBlock(tok)
		}
	}
	return nil
}

// resolveURI implements spec.md §4.1/§6's URI_TABLE indirection and the
// "read once" directory-listing semantics of §9: an alias found in
// uriTable is replaced by its configured path first; a directory expands
// to every regular file it directly contains, a single existing path
// expands to itself, and anything else is a warning whose expansion falls
// back to the literal text (ported from the reference's MetaURI
// constructor, moved here since the parser stays filesystem-free).
func (r *resolution) resolveURI(u *ast.URI) {
	path := u.Alias
	if mapped, ok := r.uriTable[path]; ok {
		path = mapped
	}
	path = expandHome(path)

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		entries, rerr := os.ReadDir(path)
		if rerr != nil {
			r.warn(u.Pos, "unable to list directory for uri() %q: %v", path, rerr)
			u.Paths = []string{u.Alias}
			return
		}
		var files []string
		for _, e := range entries {
			if !e.IsDir() {
				files = append(files, filepath.Join(path, e.Name()))
			}
		}
		if len(files) == 0 {
			r.warn(u.Pos, "directory for uri() %q contains no files", path)
			u.Paths = []string{u.Alias}
			return
		}
		u.Paths = files
	case err == nil:
		u.Paths = []string{path}
	default:
		r.warn(u.Pos, "unable to identify argument of uri() %q", path)
		u.Paths = []string{u.Alias}
	}
}

// resolveBlock implements spec.md §4.1/§6 %block%: read the file once. A
// missing file expands to the literal path, with a warning (spec.md §7.2).
func (r *resolution) resolveBlock(b *ast.Block) {
	path := expandHome(b.Path)
	content, err := os.ReadFile(path)
	if err != nil {
		r.warn(b.Pos, "unable to load resource for block() %q: %v", path, err)
		b.Content = b.Path
		return
	}
	b.Content = string(content)
}

func expandHome(path string) string {
	if path == "~" || (len(path) >= 2 && path[:2] == "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
