package parser

import (
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/kelsodrake/dharma/internal/errors"
	"github.com/kelsodrake/dharma/internal/grammar/ast"
	"github.com/kelsodrake/dharma/internal/util"
)

// WarnFunc is the parser's callback for non-fatal conditions (spec.md §7.2).
// Nothing in this package calls it: constant redefinition is reported by
// internal/config, and a %uri%/%block% argument that does not resolve to an
// existing path by internal/grammar/resolver.
type WarnFunc func(pos errors.Position, format string, args ...interface{})

// metaRe is the within-alternative token grammar of spec.md §4.2, ported
// directly from the reference implementation's xref_registry so the same
// backtracking behavior (including its handling of nested meta tokens via
// lazy quantifiers rather than true paren balancing) is preserved.
var metaRe = regexp2.MustCompile(
	`(?<type>\+|!|@)(?<xref>[a-zA-Z0-9:_]+)\k<type>`+
		`|%uri%\(\s*(?<uri>.*?)\s*\)`+
		`|%repeat%\(\s*(?<repeat>.+?)\s*(,\s*"(?<separator>.*?)")?\s*(,\s*(?<nodups>nodups))?\s*\)`+
		`|%block%\(\s*(?<block>.*?)\s*\)`+
		`|%range%\((?<start>.+?)-(?<end>.+?)\)`+
		`|%choice%\(\s*(?<choices>.+?)\s*\)`,
	regexp2.Singleline,
)

func groupText(m *regexp2.Match, name string) (string, bool) {
	g := m.GroupByName(name)
	if g == nil || len(g.Captures) == 0 {
		return "", false
	}
	return g.String(), true
}

// ScanAlt scans one alternative's raw body text into a token sequence,
// decoding \n escapes once up front (spec.md §4.2).
func ScanAlt(namespace, body string, pos errors.Position, warn WarnFunc) ([]ast.Token, error) {
	return scanTokens(namespace, util.DecodeEscapes(body), pos, warn)
}

func scanTokens(namespace, text string, pos errors.Position, warn WarnFunc) ([]ast.Token, error) {
	var out []ast.Token
	end := 0

	m, err := metaRe.FindStringMatch(text)
	if err != nil {
		return nil, errors.Fatal(pos, "parser", "token scan error: %v", err)
	}
	for m != nil {
		if m.Index > end {
			out = append(out, &ast.Literal{Text: text[end:m.Index]})
		}
		end = m.Index + m.Length

		switch {
		case present(m, "type"):
			typ, _ := groupText(m, "type")
			xref, _ := groupText(m, "xref")
			id := util.Qualify(namespace, xref)
			switch typ {
			case "+":
				out = append(out, &ast.ValueXRef{ID: id, Pos: pos})
			case "!":
				out = append(out, &ast.VariableXRef{ID: id, Pos: pos})
			case "@":
				out = append(out, &ast.ElementXRef{ID: id, Pos: pos})
			}
		case present(m, "uri"):
			alias, _ := groupText(m, "uri")
			out = append(out, &ast.URI{Alias: alias, Pos: pos})
		case present(m, "repeat"):
			inner, _ := groupText(m, "repeat")
			sep, _ := groupText(m, "separator")
			_, nodups := groupText(m, "nodups")
			innerTokens, err := scanTokens(namespace, inner, pos, warn)
			if err != nil {
				return nil, err
			}
			out = append(out, &ast.Repeat{Inner: innerTokens, Separator: sep, NoDups: nodups})
		case present(m, "block"):
			path, _ := groupText(m, "block")
			out = append(out, &ast.Block{Path: path, Pos: pos})
		case present(m, "start"):
			startVal, _ := groupText(m, "start")
			endVal, _ := groupText(m, "end")
			rng, err := buildRange(startVal, endVal, pos)
			if err != nil {
				return nil, err
			}
			out = append(out, rng)
		case present(m, "choices"):
			choices, _ := groupText(m, "choices")
			items := strings.Split(choices, ",")
			for i := range items {
				items[i] = strings.TrimSpace(items[i])
			}
			out = append(out, &ast.Choice{Items: items})
		}

		m, err = metaRe.FindNextMatch(m)
		if err != nil {
			return nil, errors.Fatal(pos, "parser", "token scan error: %v", err)
		}
	}

	if end < len(text) {
		out = append(out, &ast.Literal{Text: text[end:]})
	}

	return out, nil
}

func present(m *regexp2.Match, name string) bool {
	g := m.GroupByName(name)
	return g != nil && len(g.Captures) > 0
}

// buildRange implements the type-detection rules of spec.md §4.2: single
// characters win over numeric interpretation (so %range%(1-5) is a
// character range over the digit glyphs '1'..'5', matching the reference
// implementation's _is_char, which is purely a length check).
func buildRange(a, b string, pos errors.Position) (*ast.Range, error) {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)

	if len([]rune(a)) == 1 && len([]rune(b)) == 1 {
		ra, rb := []rune(a)[0], []rune(b)[0]
		return &ast.Range{Kind: ast.RangeChar, CharA: ra, CharB: rb}, nil
	}

	aFloat, bFloat := strings.Contains(a, "."), strings.Contains(b, ".")
	if aFloat != bFloat {
		return nil, errors.Fatal(pos, "parser", "mismatched range endpoint types: %q/%q", a, b)
	}
	if aFloat {
		fa, err1 := strconv.ParseFloat(a, 64)
		fb, err2 := strconv.ParseFloat(b, 64)
		if err1 != nil || err2 != nil {
			return nil, errors.Fatal(pos, "parser", "invalid float range endpoints: %q-%q", a, b)
		}
		return &ast.Range{Kind: ast.RangeFloat, FloatA: fa, FloatB: fb}, nil
	}

	base := 10
	if strings.Contains(a, "0x") && strings.Contains(b, "0x") {
		base = 16
	}
	ia, err1 := strconv.ParseInt(strings.TrimPrefix(a, "0x"), base, 64)
	ib, err2 := strconv.ParseInt(strings.TrimPrefix(b, "0x"), base, 64)
	if err1 != nil || err2 != nil {
		return nil, errors.Fatal(pos, "parser", "invalid integer range endpoints: %q-%q", a, b)
	}
	return &ast.Range{Kind: ast.RangeInt, IntA: ia, IntB: ib, IntBase: base}, nil
}
