package main

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"os"
	"time"

	jujuerrors "github.com/juju/errors"

	"github.com/kelsodrake/dharma/internal/assets"
	"github.com/kelsodrake/dharma/internal/config"
	"github.com/kelsodrake/dharma/internal/errors"
	"github.com/kelsodrake/dharma/internal/grammar/ast"
	"github.com/kelsodrake/dharma/internal/grammar/generator"
	"github.com/kelsodrake/dharma/internal/grammar/leafpath"
	"github.com/kelsodrake/dharma/internal/grammar/parser"
	"github.com/kelsodrake/dharma/internal/grammar/resolver"
	"github.com/kelsodrake/dharma/internal/logging"
	"github.com/kelsodrake/dharma/internal/rundb"
)

// randomSeed draws a process-derived seed from crypto/rand when the caller
// doesn't supply one (SPEC_FULL.md §5 "Process-derived default seed"),
// logged the way dharma.py logs "Machine random seed: %d".
func randomSeed() (int64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, jujuerrors.Annotate(err, "drawing a random seed")
	}
	seed := int64(binary.BigEndian.Uint64(buf[:]))
	logging.Get("cmd").Infof("machine random seed: %d", seed)
	return seed, nil
}

// buildEngine runs the full core pipeline (spec.md §4): parse every
// grammar (common.dg first, per spec.md §6 "Default grammars"), apply
// %const% directives, resolve cross-references, compute leaf paths, and
// construct a generator engine over the result.
func buildEngine(opts options) (*generator.Engine, *config.Constants, error) {
	cfg, err := config.Load(opts.settings)
	if err != nil {
		return nil, nil, jujuerrors.Annotate(err, "loading settings")
	}

	parserWarn := func(pos errors.Position, format string, args ...interface{}) {
		logging.Get("parser").Warningf("%s: "+format, append([]interface{}{pos.String()}, args...)...)
	}
	resolverWarn := func(pos errors.Position, format string, args ...interface{}) {
		logging.Get("resolver").Warningf("%s: "+format, append([]interface{}{pos.String()}, args...)...)
	}
	configWarn := func(format string, args ...interface{}) {
		logging.Get("config").Warningf(format, args...)
	}

	symtab := ast.NewSymbolTable()
	p := parser.New(symtab, parserWarn)

	if err := p.ParseFile("common.dg", assets.CommonGrammar); err != nil {
		return nil, nil, jujuerrors.Annotate(err, "parsing bundled common.dg")
	}
	for _, g := range opts.grammars {
		data, err := os.ReadFile(g)
		if err != nil {
			return nil, nil, jujuerrors.Annotatef(err, "reading grammar file %s", g)
		}
		if err := p.ParseFile(g, string(data)); err != nil {
			return nil, nil, jujuerrors.Annotatef(err, "parsing grammar file %s", g)
		}
	}

	for _, c := range p.Consts {
		if err := cfg.ApplyDirective(c.Name, c.Value, configWarn); err != nil {
			return nil, nil, jujuerrors.Annotatef(err, "applying %%const%% %s at %s", c.Name, c.Pos.String())
		}
	}

	if err := resolver.Resolve(symtab, cfg.URITable, resolverWarn); err != nil {
		return nil, nil, jujuerrors.Annotate(err, "resolving cross-references")
	}

	leafpath.Compute(symtab)

	engine, err := generator.New(symtab, cfg.ToAST(), opts.seed, logging.Get("generator"))
	if err != nil {
		return nil, nil, jujuerrors.Annotate(err, "constructing generator engine")
	}

	if opts.prefixFile != "" {
		data, err := os.ReadFile(opts.prefixFile)
		if err != nil {
			return nil, nil, jujuerrors.Annotate(err, "reading prefix file")
		}
		engine.Prefix = string(data)
	}
	if opts.suffixFile != "" {
		data, err := os.ReadFile(opts.suffixFile)
		if err != nil {
			return nil, nil, jujuerrors.Annotate(err, "reading suffix file")
		}
		engine.Suffix = string(data)
	}
	if opts.templateFile != "" {
		data, err := os.ReadFile(opts.templateFile)
		if err != nil {
			return nil, nil, jujuerrors.Annotate(err, "reading template file")
		}
		engine.Template = string(data)
	}

	return engine, cfg, nil
}

// run dispatches to server mode or one-shot/storage generation, and
// records the invocation in the optional run ledger (SPEC_FULL.md §4's
// --history flag).
func run(opts options) error {
	engine, cfg, err := buildEngine(opts)
	if err != nil {
		return err
	}

	var ledger *rundb.Ledger
	var started time.Time
	if opts.history != "" {
		ledger, err = rundb.Open(opts.history)
		if err != nil {
			return jujuerrors.Annotate(err, "opening run history")
		}
		defer ledger.Close()
		started = time.Now()
	}

	if opts.server {
		err = serve(opts, engine)
	} else {
		err = generateAndWrite(opts, engine)
	}
	if err != nil {
		return err
	}

	if ledger != nil {
		record := rundb.RunRecord{
			Seed:       opts.seed,
			Grammars:   fmt.Sprint(opts.grammars),
			Constants:  fmt.Sprintf("%+v", cfg),
			Count:      opts.count,
			StartedAt:  started,
			FinishedAt: time.Now(),
		}
		if err := ledger.Record(record); err != nil {
			return jujuerrors.Annotate(err, "recording run history")
		}
	}

	return nil
}
