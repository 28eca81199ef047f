// Package assets embeds the grammar files bundled with the engine itself.
// go:embed is the only option here (stdlib, no ecosystem alternative in the
// pack addresses embedding static text into a Go binary).
package assets

import _ "embed"

// CommonGrammar is common.dg, prepended to the user-supplied grammar file
// list before any grammar the caller names (spec.md §6 "Default
// grammars").
//
//go:embed common.dg
var CommonGrammar string
