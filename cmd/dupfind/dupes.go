package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	dupfilehash "github.com/mattkeenan/dupfilehash/pkg"
)

// stringList collects a repeatable string flag
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

type dupesCommand struct {
	minSize     string
	recursive   bool
	skipHidden  bool
	excludes    stringList
	ignoreFile  string
	output      string
	format      string
	threads     int
	maxHashSize string
	hash        string
	configPath  string
	verbose     int
	debug       string
	trace       bool
}

func (*dupesCommand) Name() string     { return "dupes" }
func (*dupesCommand) Synopsis() string { return "Find duplicate files under a directory" }
func (*dupesCommand) Usage() string {
	return `dupes [flags] [path]:
  Scan path (default ".") for byte-identical files and report each duplicate
  group with the space its redundant copies waste.
`
}

func (c *dupesCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.minSize, "min-size", "", "ignore files smaller than this size (e.g. 4K, 1M)")
	f.BoolVar(&c.recursive, "r", true, "scan subdirectories")
	f.BoolVar(&c.skipHidden, "skip-hidden", false, "skip dot-files and dot-directories")
	f.Var(&c.excludes, "exclude", "regular expression for root-relative paths to skip (repeatable)")
	f.StringVar(&c.ignoreFile, "ignore-file", "", "file of exclude patterns, one per line")
	f.StringVar(&c.output, "o", "", "also write the report to this file")
	f.StringVar(&c.format, "format", "", "report format: human, json, fdupes")
	f.IntVar(&c.threads, "threads", 0, "hash workers (default: config, then one per CPU)")
	f.StringVar(&c.maxHashSize, "max-hash-size", "", "skip files larger than this size (0 = no limit)")
	f.StringVar(&c.hash, "hash", "", "hash algorithm: sha256, sha512, blake3")
	f.StringVar(&c.configPath, "config", "", "configuration file (default: $XDG_CONFIG_HOME/dupfind/config)")
	f.IntVar(&c.verbose, "v", 0, "verbose level 0-3")
	f.StringVar(&c.debug, "debug", "", "comma-separated debug flags (walk, hash, partition, report)")
	f.BoolVar(&c.trace, "trace", false, "print pipeline trace spans to stderr")
}

// scanPlan is everything one dupes run needs, resolved from config and flags
type scanPlan struct {
	settings dupfilehash.Settings
	opts     dupfilehash.ScanOptions
	format   string
	verbose  int
	debug    string
}

func (c *dupesCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	root := "."
	if f.NArg() == 1 {
		root = f.Arg(0)
	}

	setFlags := make(map[string]bool)
	f.Visit(func(fl *flag.Flag) { setFlags[fl.Name] = true })

	plan, err := c.resolve(root, setFlags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dupfind: %v\n", err)
		return subcommands.ExitUsageError
	}

	dupfilehash.SetVerboseLevel(plan.verbose)
	dupfilehash.InitDebugFlags(plan.debug)
	dupfilehash.LogDebugFlags()

	if c.trace {
		tp, err := initTracer()
		if err != nil {
			fmt.Fprintf(os.Stderr, "dupfind: failed to start tracer: %v\n", err)
			return subcommands.ExitFailure
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "dupfind: error shutting down tracer provider: %v\n", err)
			}
		}()
	}

	result, err := dupfilehash.NewFinder(plan.settings).FindDuplicates(ctx, plan.opts)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "dupfind: scan cancelled\n")
		} else {
			fmt.Fprintf(os.Stderr, "dupfind: %v\n", err)
		}
		return subcommands.ExitFailure
	}

	if plan.format == dupfilehash.FormatHuman {
		dupfilehash.WriteSummary(os.Stdout, result)
	} else if err := dupfilehash.WriteReport(os.Stdout, result, plan.format); err != nil {
		fmt.Fprintf(os.Stderr, "dupfind: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.output != "" {
		if err := dupfilehash.WriteReportFile(c.output, result, plan.format); err != nil {
			fmt.Fprintf(os.Stderr, "dupfind: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Fprintf(os.Stderr, "Report saved to: %s\n", c.output)
	}

	return subcommands.ExitSuccess
}

// resolve layers explicit flags over the configuration file.
// A configuration that cannot be loaded or validated is reported and replaced by the defaults.
func (c *dupesCommand) resolve(root string, setFlags map[string]bool) (*scanPlan, error) {
	plan := &scanPlan{
		settings: dupfilehash.DefaultSettings(),
		format:   dupfilehash.DefaultOutputFormat,
		opts: dupfilehash.ScanOptions{
			Root:      root,
			Recursive: true,
		},
	}

	cfg, err := loadConfig(c.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dupfind: warning: %v; using defaults\n", err)
		cfg = nil
	}

	if cfg != nil {
		if settings, err := cfg.Settings(); err != nil {
			fmt.Fprintf(os.Stderr, "dupfind: warning: invalid configuration in %s: %v; using defaults\n", cfg.Path(), err)
		} else {
			plan.settings = settings
			all := cfg.GetAllConfig()
			if err := dupfilehash.ValidateOutputFormat(all.Output.Format); err == nil {
				plan.format = all.Output.Format
			} else {
				fmt.Fprintf(os.Stderr, "dupfind: warning: %v in %s; using %s\n", err, cfg.Path(), plan.format)
			}
			if err := dupfilehash.ValidateVerboseLevel(all.Verbose.Level); err == nil {
				plan.verbose = all.Verbose.Level
			}
			plan.debug = all.Verbose.Debug
			plan.opts.Recursive = all.Scan.Recursive
			plan.opts.SkipHidden = all.Scan.SkipHidden
			if all.Scan.MinSize != "" {
				if size, err := dupfilehash.ParseHumanSize(all.Scan.MinSize); err == nil {
					plan.opts.MinSize = size
				} else {
					fmt.Fprintf(os.Stderr, "dupfind: warning: invalid min_size in %s: %v; using no minimum\n", cfg.Path(), err)
				}
			}
		}
	}

	if setFlags["r"] {
		plan.opts.Recursive = c.recursive
	}
	if setFlags["skip-hidden"] {
		plan.opts.SkipHidden = c.skipHidden
	}
	if setFlags["min-size"] {
		plan.opts.MinSize = 0
		if c.minSize != "" {
			size, err := dupfilehash.ParseHumanSize(c.minSize)
			if err != nil {
				return nil, fmt.Errorf("invalid -min-size: %w", err)
			}
			plan.opts.MinSize = size
		}
	}

	plan.opts.Excludes = c.excludes
	if c.ignoreFile != "" {
		im := dupfilehash.NewIgnoreManager(c.ignoreFile)
		if err := im.LoadIgnorePatterns(); err != nil {
			return nil, err
		}
		plan.opts.Ignore = im
	}

	if setFlags["threads"] {
		if err := dupfilehash.ValidateHashWorkers(c.threads); err != nil {
			return nil, err
		}
		plan.settings.Workers = c.threads
	}
	if setFlags["max-hash-size"] {
		ceiling, err := dupfilehash.ParseHumanSize(c.maxHashSize)
		if err != nil {
			return nil, fmt.Errorf("invalid -max-hash-size: %w", err)
		}
		plan.settings.CeilingBytes = ceiling
	}
	if setFlags["hash"] {
		if err := dupfilehash.ValidateHashAlgorithm(c.hash); err != nil {
			return nil, err
		}
		algorithm, err := dupfilehash.GetHashAlgorithm(c.hash)
		if err != nil {
			return nil, err
		}
		plan.settings.Algorithm = algorithm
	}
	if setFlags["format"] {
		plan.format = c.format
	}
	plan.format = strings.ToLower(plan.format)
	if err := dupfilehash.ValidateOutputFormat(plan.format); err != nil {
		return nil, err
	}
	if setFlags["v"] {
		if err := dupfilehash.ValidateVerboseLevel(c.verbose); err != nil {
			return nil, err
		}
		plan.verbose = c.verbose
	}
	if setFlags["debug"] {
		plan.debug = c.debug
	}

	return plan, nil
}

// loadConfig loads the configuration from path, or from the default location when path is empty
func loadConfig(path string) (*dupfilehash.Config, error) {
	if path == "" {
		defaultPath, err := dupfilehash.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}
	return dupfilehash.LoadConfig(path)
}
