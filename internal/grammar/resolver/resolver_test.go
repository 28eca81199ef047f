package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kelsodrake/dharma/internal/errors"
	"github.com/kelsodrake/dharma/internal/grammar/ast"
)

func TestResolveBindsValueVariableElementXRefs(t *testing.T) {
	symtab := ast.NewSymbolTable()
	leaf, _ := symtab.DefineValue("ns:leaf", errors.Position{})
	leaf.Append([]ast.Token{&ast.Literal{Text: "leaf"}})

	variable, _ := symtab.DefineVariable("ns:v", errors.Position{})
	variable.Append(ast.VariableAlt{
		Prefix: []ast.Token{&ast.Literal{Text: "let "}},
		Suffix: []ast.Token{&ast.Literal{Text: " = 1"}},
	})

	top, _ := symtab.DefineValue("ns:top", errors.Position{})
	top.Append([]ast.Token{
		&ast.ValueXRef{ID: "ns:leaf"},
		&ast.VariableXRef{ID: "ns:v"},
		&ast.ElementXRef{ID: "ns:v"},
	})

	if err := Resolve(symtab, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	vx := top.Alternatives[0][0].(*ast.ValueXRef)
	if vx.Target != leaf {
		t.Errorf("expected value xref target to be bound to leaf rule")
	}
	varx := top.Alternatives[0][1].(*ast.VariableXRef)
	if varx.Target != variable {
		t.Errorf("expected variable xref target to be bound")
	}
	elx := top.Alternatives[0][2].(*ast.ElementXRef)
	if elx.Target != variable {
		t.Errorf("expected element xref to resolve against the variable mapping")
	}
}

func TestResolveUndefinedValueXRefIsFatal(t *testing.T) {
	symtab := ast.NewSymbolTable()
	top, _ := symtab.DefineValue("ns:top", errors.Position{})
	top.Append([]ast.Token{&ast.ValueXRef{ID: "ns:missing"}})

	if err := Resolve(symtab, nil, nil); err == nil {
		t.Fatalf("expected an undefined-reference error")
	}
}

func TestResolveWalksIntoRepeat(t *testing.T) {
	symtab := ast.NewSymbolTable()
	leaf, _ := symtab.DefineValue("ns:leaf", errors.Position{})
	leaf.Append([]ast.Token{&ast.Literal{Text: "leaf"}})

	top, _ := symtab.DefineValue("ns:top", errors.Position{})
	top.Append([]ast.Token{
		&ast.Repeat{Inner: []ast.Token{&ast.ValueXRef{ID: "ns:leaf"}}},
	})

	if err := Resolve(symtab, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rep := top.Alternatives[0][0].(*ast.Repeat)
	vx := rep.Inner[0].(*ast.ValueXRef)
	if vx.Target != leaf {
		t.Fatalf("expected xref nested inside a repeat to be resolved")
	}
}

func TestResolveURIDirectoryListing(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}

	symtab := ast.NewSymbolTable()
	top, _ := symtab.DefineValue("ns:top", errors.Position{})
	top.Append([]ast.Token{&ast.URI{Alias: dir}})

	if err := Resolve(symtab, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u := top.Alternatives[0][0].(*ast.URI)
	if len(u.Paths) != 2 {
		t.Fatalf("expected 2 paths from directory listing, got %d: %v", len(u.Paths), u.Paths)
	}
}

func TestResolveURIMissingPathWarnsAndFallsBack(t *testing.T) {
	symtab := ast.NewSymbolTable()
	top, _ := symtab.DefineValue("ns:top", errors.Position{})
	top.Append([]ast.Token{&ast.URI{Alias: "/does/not/exist/anywhere"}})

	var warned bool
	warn := func(pos errors.Position, format string, args ...interface{}) { warned = true }

	if err := Resolve(symtab, nil, warn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !warned {
		t.Fatalf("expected a warning for a missing uri() path")
	}
	u := top.Alternatives[0][0].(*ast.URI)
	if len(u.Paths) != 1 || u.Paths[0] != "/does/not/exist/anywhere" {
		t.Fatalf("expected fallback to literal path, got %v", u.Paths)
	}
}

func TestResolveURITableAlias(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	symtab := ast.NewSymbolTable()
	top, _ := symtab.DefineValue("ns:top", errors.Position{})
	top.Append([]ast.Token{&ast.URI{Alias: "myalias"}})

	if err := Resolve(symtab, map[string]string{"myalias": dir}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u := top.Alternatives[0][0].(*ast.URI)
	if len(u.Paths) != 1 {
		t.Fatalf("expected the alias to resolve to the mapped directory, got %v", u.Paths)
	}
}

func TestResolveBlockReadsFileOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snippet.txt")
	if err := os.WriteFile(path, []byte("some content"), 0o644); err != nil {
		t.Fatal(err)
	}

	symtab := ast.NewSymbolTable()
	top, _ := symtab.DefineValue("ns:top", errors.Position{})
	top.Append([]ast.Token{&ast.Block{Path: path}})

	if err := Resolve(symtab, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := top.Alternatives[0][0].(*ast.Block)
	if b.Content != "some content" {
		t.Fatalf("expected block content to be read, got %q", b.Content)
	}
}

func TestResolveBlockMissingFileFallsBackToPath(t *testing.T) {
	symtab := ast.NewSymbolTable()
	top, _ := symtab.DefineValue("ns:top", errors.Position{})
	top.Append([]ast.Token{&ast.Block{Path: "/does/not/exist.txt"}})

	var warned bool
	warn := func(pos errors.Position, format string, args ...interface{}) { warned = true }

	if err := Resolve(symtab, nil, warn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !warned {
		t.Fatalf("expected a warning for a missing block() file")
	}
	b := top.Alternatives[0][0].(*ast.Block)
	if b.Content != "/does/not/exist.txt" {
		t.Fatalf("expected content to fall back to the literal path, got %q", b.Content)
	}
}
