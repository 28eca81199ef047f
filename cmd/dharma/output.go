package main

import (
	"fmt"
	"os"
	"path/filepath"

	jujuerrors "github.com/juju/errors"

	"github.com/kelsodrake/dharma/internal/grammar/generator"
)

// generateAndWrite produces opts.count test cases, either to opts.storage
// as "1.<format>".."N.<format>" (spec.md §6) or to stdout, one per line,
// separated by a blank line.
func generateAndWrite(opts options, engine *generator.Engine) error {
	if opts.storage != "" {
		if err := os.MkdirAll(opts.storage, 0o755); err != nil {
			return jujuerrors.Annotate(err, "creating storage directory")
		}
	}

	for i := 1; i <= opts.count; i++ {
		testcase, err := engine.Generate()
		if err != nil {
			return jujuerrors.Annotatef(err, "generating test case %d", i)
		}

		if opts.storage == "" {
			if i > 1 {
				fmt.Println()
			}
			fmt.Print(testcase)
			continue
		}

		path := filepath.Join(opts.storage, fmt.Sprintf("%d.%s", i, opts.format))
		if err := os.WriteFile(path, []byte(testcase), 0o644); err != nil {
			return jujuerrors.Annotatef(err, "writing %s", path)
		}
	}

	return nil
}
