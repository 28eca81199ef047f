// Command dharma is the thin external front end spec.md §1 scopes out of
// the core: flag parsing, wiring the grammar pipeline together, and
// dispatching to one-shot/storage/server output modes. Modeled on the
// teacher's cmd/gmx package (one cobra/flag-bound command per concern,
// split across small files) but using github.com/spf13/cobra in place of
// the teacher's bare flag package, per SPEC_FULL.md's ambient CLI stack.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kelsodrake/dharma/internal/logging"
)

// options holds every flag of spec.md §6's command surface.
type options struct {
	grammars     []string
	settings     string
	seed         int64
	count        int
	format       string
	prefixFile   string
	suffixFile   string
	templateFile string
	storage      string
	server       bool
	host         string
	port         int
	history      string
	verbosity    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "dharma",
		Short:         "Generation-based grammar fuzzer",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logging.Setup(opts.verbosity); err != nil {
				return err
			}
			if !cmd.Flags().Changed("seed") {
				seed, err := randomSeed()
				if err != nil {
					return err
				}
				opts.seed = seed
			}
			return run(opts)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&opts.grammars, "grammar", nil, "grammar file to load (repeatable)")
	flags.StringVar(&opts.settings, "settings", "", "YAML settings file")
	flags.Int64Var(&opts.seed, "seed", 0, "PRNG seed (process-derived entropy when unset)")
	flags.IntVar(&opts.count, "count", 1, "number of test cases to generate")
	flags.StringVar(&opts.format, "format", "txt", "output file extension, used in storage mode")
	flags.StringVar(&opts.prefixFile, "prefix", "", "file whose contents prefix every test case")
	flags.StringVar(&opts.suffixFile, "suffix", "", "file whose contents suffix every test case")
	flags.StringVar(&opts.templateFile, "template", "", "file containing a $testcase_content placeholder")
	flags.StringVar(&opts.storage, "storage", "", "directory to write 1.<format>..N.<format> into")
	flags.BoolVar(&opts.server, "server", false, "serve test cases over websocket instead of generating to stdout/storage")
	flags.StringVar(&opts.host, "host", "127.0.0.1", "server mode listen host")
	flags.IntVar(&opts.port, "port", 8080, "server mode listen port")
	flags.StringVar(&opts.history, "history", "", "sqlite path recording this invocation (optional)")
	flags.StringVar(&opts.verbosity, "verbosity", "WARNING", "log verbosity (TRACE, DEBUG, INFO, WARNING, ERROR, CRITICAL)")

	if err := cmd.MarkFlagRequired("grammar"); err != nil {
		panic(err)
	}

	return cmd
}
