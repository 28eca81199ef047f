// Package lexer implements the line-oriented first pass of spec.md §4.1: it
// classifies each line of a grammar file into one of a small set of line
// kinds without yet interpreting an alternative's body (that is
// internal/grammar/parser's job, operating on the token grammar of §4.2).
//
// Classification is regex-driven and case-insensitive, per §4.1, using
// github.com/dlclark/regexp2 rather than the standard library's regexp: the
// grammar's constant/section directives are matched case-insensitively
// against otherwise ordinary text, a feature regexp2 supports directly via
// its Perl-compatible options where stdlib regexp would require manual
// case-folding.
package lexer

import (
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/kelsodrake/dharma/internal/errors"
)

// Kind is a grammar source line's classification (§4.1 table).
type Kind int

const (
	KindComment Kind = iota
	KindConstant
	KindSection
	KindAssign
	KindAlt
	KindBlank
)

// Line is one classified source line, carrying whichever fields its Kind
// uses. Body (for KindAlt) has had only its leading indentation stripped;
// internal/grammar/parser scans it for meta-tokens.
type Line struct {
	Kind Kind
	Pos  errors.Position
	Raw  string

	ConstName, ConstValue string // KindConstant
	Section               string // KindSection: "value" | "variable" | "variance"
	Ident                 string // KindAssign
	Body                  string // KindAlt
}

var (
	commentRe  = mustRegex(`^\s*%%%`)
	constRe    = mustRegex(`^%const%\s+(\S+)\s*:=\s*(.*)$`)
	sectionRe  = mustRegex(`^%section%\s*:=\s*(value|variable|variance)\s*$`)
	assignRe   = mustRegex(`^([A-Za-z_][A-Za-z0-9_]*)\s*:=\s*$`)
	indentedRe = mustRegex(`^[\t ]+\S`)
	blankRe    = mustRegex(`^\s*$`)
)

func mustRegex(pattern string) *regexp2.Regexp {
	re := regexp2.MustCompile(pattern, regexp2.IgnoreCase)
	return re
}

func matches(re *regexp2.Regexp, s string) (*regexp2.Match, bool) {
	m, err := re.FindStringMatch(s)
	if err != nil || m == nil {
		return nil, false
	}
	return m, true
}

// Lex classifies every line of src, a grammar file whose stem is file's
// namespace (the caller derives the namespace; Lex only needs file for
// diagnostic positions). A final newline terminates the last line and does
// not start another one.
func Lex(file string, src string) ([]*Line, error) {
	rawLines := strings.Split(strings.TrimSuffix(src, "\n"), "\n")
	lines := make([]*Line, 0, len(rawLines))

	for i, raw := range rawLines {
		lineNo := i + 1
		pos := errors.Position{File: file, Line: lineNo}

		if _, ok := matches(blankRe, raw); ok {
			lines = append(lines, &Line{Kind: KindBlank, Pos: pos, Raw: raw})
			continue
		}
		if _, ok := matches(commentRe, raw); ok {
			lines = append(lines, &Line{Kind: KindComment, Pos: pos, Raw: raw})
			continue
		}
		if m, ok := matches(constRe, raw); ok {
			g := m.Groups()
			lines = append(lines, &Line{
				Kind: KindConstant, Pos: pos, Raw: raw,
				ConstName:  g[1].String(),
				ConstValue: strings.TrimSpace(g[2].String()),
			})
			continue
		}
		if m, ok := matches(sectionRe, raw); ok {
			g := m.Groups()
			lines = append(lines, &Line{
				Kind: KindSection, Pos: pos, Raw: raw,
				Section: strings.ToLower(g[1].String()),
			})
			continue
		}
		if m, ok := matches(assignRe, raw); ok {
			g := m.Groups()
			lines = append(lines, &Line{
				Kind: KindAssign, Pos: pos, Raw: raw,
				Ident: g[1].String(),
			})
			continue
		}
		if _, ok := matches(indentedRe, raw); ok {
			lines = append(lines, &Line{
				Kind: KindAlt, Pos: pos, Raw: raw,
				Body: strings.TrimLeft(raw, " \t"),
			})
			continue
		}

		return nil, errors.Fatal(pos, "lexer", "unrecognized grammar line: %q", raw)
	}

	return lines, nil
}
