// Package parser builds a rule graph (internal/grammar/ast.SymbolTable)
// from one or more grammar files, implementing spec.md §4.1's line grammar
// and §4.2's within-alternative token grammar. It never resolves
// cross-references and never touches the filesystem beyond reading the
// grammar source handed to it — that is internal/grammar/resolver's job.
package parser

import (
	"path/filepath"
	"strings"

	"github.com/kelsodrake/dharma/internal/errors"
	"github.com/kelsodrake/dharma/internal/grammar/ast"
	"github.com/kelsodrake/dharma/internal/grammar/lexer"
	"github.com/kelsodrake/dharma/internal/util"
)

// ConstAssignment is one %const% directive encountered while parsing,
// reported for internal/config to interpret and merge (type conversion
// and cross-file redefinition warnings are a settings-layer concern, not
// the grammar parser's).
type ConstAssignment struct {
	Name  string
	Value string
	Pos   errors.Position
}

// Parser holds the state of one continuous multi-file parse session. A
// session mirrors the reference implementation's single DharmaMachine
// instance: the active section persists across files (only the namespace
// and line counter reset per file), and any rule left open at the end of
// one file is finalized before the next file's lines are considered,
// exactly as DharmaMachine.process_grammars calls handle_empty_line after
// each file.
type Parser struct {
	symtab    *ast.SymbolTable
	namespace string
	section   string // "", "value", "variable", "variance"
	level     string // "top" or "assign"
	warn      WarnFunc

	curIdent    string
	curPos      errors.Position
	curValue    *ast.ValueRule
	curVariable *ast.VariableRule
	curVariance *ast.VarianceRule
	curAltCount int

	Consts []ConstAssignment
}

func New(symtab *ast.SymbolTable, warn WarnFunc) *Parser {
	if warn == nil {
		warn = func(errors.Position, string, ...interface{}) {}
	}
	return &Parser{symtab: symtab, level: "top", warn: warn}
}

// Namespace derives a grammar file's namespace from its basename, stripped
// of any extension (spec.md §3).
func Namespace(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParseFile parses one grammar file's content into the session's symbol
// table.
func (p *Parser) ParseFile(file, src string) error {
	p.namespace = Namespace(file)

	lines, err := lexer.Lex(file, src)
	if err != nil {
		return err
	}

	var lastPos errors.Position
	for _, line := range lines {
		lastPos = line.Pos
		if err := p.processLine(line); err != nil {
			return err
		}
	}

	return p.finalizeCurrent(lastPos)
}

func (p *Parser) processLine(line *lexer.Line) error {
	switch line.Kind {
	case lexer.KindComment:
		return nil

	case lexer.KindConstant:
		p.Consts = append(p.Consts, ConstAssignment{Name: line.ConstName, Value: line.ConstValue, Pos: line.Pos})
		return nil

	case lexer.KindSection:
		if err := p.finalizeCurrent(line.Pos); err != nil {
			return err
		}
		p.section = line.Section
		return nil

	case lexer.KindBlank:
		return p.finalizeCurrent(line.Pos)

	case lexer.KindAssign:
		return p.handleAssign(line)

	case lexer.KindAlt:
		return p.handleAlt(line)
	}
	return errors.Fatal(line.Pos, "parser", "unhandled line")
}

func (p *Parser) handleAssign(line *lexer.Line) error {
	if p.level == "assign" {
		return errors.Fatal(line.Pos, "parser", "assign level syntax error")
	}
	if p.section == "" {
		return errors.Fatal(line.Pos, "parser", "non-empty line in void section")
	}

	ident := util.Qualify(p.namespace, line.Ident)

	switch p.section {
	case "value":
		r, ok := p.symtab.DefineValue(ident, line.Pos)
		if !ok {
			return errors.Fatal(line.Pos, "parser", "value '%s' gets redefined", ident)
		}
		p.curValue = r
	case "variable":
		r, ok := p.symtab.DefineVariable(ident, line.Pos)
		if !ok {
			return errors.Fatal(line.Pos, "parser", "variable '%s' gets redefined", ident)
		}
		p.curVariable = r
	case "variance":
		r, ok := p.symtab.DefineVariance(ident, line.Pos)
		if !ok {
			return errors.Fatal(line.Pos, "parser", "variance '%s' gets redefined", ident)
		}
		p.curVariance = r
	default:
		return errors.Fatal(line.Pos, "parser", "invalid state for top-level")
	}

	p.curIdent = ident
	p.curPos = line.Pos
	p.level = "assign"
	p.curAltCount = 0
	return nil
}

func (p *Parser) handleAlt(line *lexer.Line) error {
	if p.level != "assign" {
		return errors.Fatal(line.Pos, "parser", "top level syntax error")
	}

	tokens, err := ScanAlt(p.namespace, line.Body, line.Pos, p.warn)
	if err != nil {
		return err
	}

	switch p.section {
	case "value":
		p.curValue.Append(tokens)
	case "variable":
		prefix, suffix, err := splitVariableAlt(tokens, p.curIdent, line.Pos)
		if err != nil {
			return err
		}
		p.curVariable.Append(ast.VariableAlt{Prefix: prefix, Suffix: suffix})
	case "variance":
		p.curVariance.Append(tokens)
	default:
		return errors.Fatal(line.Pos, "parser", "invalid state for assignment")
	}

	p.curAltCount++
	return nil
}

// finalizeCurrent closes out whatever rule is open, fatal if it received
// zero alternatives (spec.md §3 Invariants via the reference's "Empty
// assignment" check), and returns the session to top level.
func (p *Parser) finalizeCurrent(pos errors.Position) error {
	hasOpen := p.curValue != nil || p.curVariable != nil || p.curVariance != nil
	if hasOpen && p.curAltCount == 0 {
		return errors.Fatal(p.curPos, "parser", "empty assignment: %s", p.curIdent)
	}
	p.curValue = nil
	p.curVariable = nil
	p.curVariance = nil
	p.curIdent = ""
	p.level = "top"
	return nil
}

// splitVariableAlt implements spec.md §3's variable-alternative split: find
// the one ElementXRef marking the variable's own name, verify it names
// this rule, and split prefix/suffix around it (ported from the
// reference's parse_assign_variable).
func splitVariableAlt(tokens []ast.Token, ownIdent string, pos errors.Position) (prefix, suffix []ast.Token, err error) {
	idx := -1
	var found *ast.ElementXRef
	for i, t := range tokens {
		if ex, ok := t.(*ast.ElementXRef); ok {
			idx = i
			found = ex
			break
		}
	}
	if idx == -1 {
		return nil, nil, errors.Fatal(pos, "parser", "variable assignment syntax error: %s", ownIdent)
	}
	if found.ID != ownIdent {
		return nil, nil, errors.Fatal(pos, "parser", "variable name mismatch: %s vs %s", found.ID, ownIdent)
	}
	return tokens[:idx], tokens[idx+1:], nil
}
