package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	dupfilehash "github.com/mattkeenan/dupfilehash/pkg"
)

type configCommand struct {
	configPath string
	force      bool
}

func (*configCommand) Name() string     { return "config" }
func (*configCommand) Synopsis() string { return "Manage the dupfind configuration file" }
func (*configCommand) Usage() string {
	return `config [-config path] [-force] init | show | set key:value [key:value...]:
  init  write a configuration file with the default values
  show  print the effective configuration
  set   change keys and save, e.g. "set default:blake3 threads:4"

  Keys: default, threads, max_hash_size_mb, hash_buffer, format, level,
        debug, recursive, skip_hidden, min_size
`
}

func (c *configCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "", "configuration file (default: $XDG_CONFIG_HOME/dupfind/config)")
	f.BoolVar(&c.force, "force", false, "init: overwrite an existing configuration file")
}

func (c *configCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	path := c.configPath
	if path == "" {
		defaultPath, err := dupfilehash.DefaultConfigPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "dupfind: %v\n", err)
			return subcommands.ExitFailure
		}
		path = defaultPath
	}

	var err error
	switch f.Arg(0) {
	case "init":
		err = c.initConfig(path)
	case "show":
		err = showConfig(os.Stdout, path)
	case "set":
		if f.NArg() < 2 {
			f.Usage()
			return subcommands.ExitUsageError
		}
		err = setConfig(path, f.Args()[1:])
	default:
		fmt.Fprintf(os.Stderr, "dupfind: unknown config action %q\n", f.Arg(0))
		return subcommands.ExitUsageError
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "dupfind: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *configCommand) initConfig(path string) error {
	if _, err := os.Stat(path); err == nil && !c.force {
		return fmt.Errorf("configuration file %s already exists (use -force to overwrite)", path)
	}
	if _, err := dupfilehash.InitConfig(path); err != nil {
		return err
	}
	fmt.Printf("Wrote default configuration to %s\n", path)
	return nil
}

func showConfig(w io.Writer, path string) error {
	cfg, err := dupfilehash.LoadConfig(path)
	if err != nil {
		return err
	}

	all := cfg.GetAllConfig()
	fmt.Fprintf(w, "# %s\n", cfg.Path())
	fmt.Fprintf(w, "[filehash]\n")
	fmt.Fprintf(w, "default = %s\n\n", all.Hash.Default)
	fmt.Fprintf(w, "[performance]\n")
	fmt.Fprintf(w, "threads = %d\n", all.Performance.Threads)
	fmt.Fprintf(w, "max_hash_size_mb = %d\n", all.Performance.MaxHashSizeMB)
	fmt.Fprintf(w, "hash_buffer = %s\n\n", all.Performance.HashBuffer)
	fmt.Fprintf(w, "[output]\n")
	fmt.Fprintf(w, "format = %s\n\n", all.Output.Format)
	fmt.Fprintf(w, "[verbose]\n")
	fmt.Fprintf(w, "level = %d\n", all.Verbose.Level)
	fmt.Fprintf(w, "debug = %s\n\n", all.Verbose.Debug)
	fmt.Fprintf(w, "[scan]\n")
	fmt.Fprintf(w, "recursive = %t\n", all.Scan.Recursive)
	fmt.Fprintf(w, "skip_hidden = %t\n", all.Scan.SkipHidden)
	fmt.Fprintf(w, "min_size = %s\n", all.Scan.MinSize)

	if _, err := cfg.Settings(); err != nil {
		fmt.Fprintf(w, "\n# warning: %v\n", err)
	}
	return nil
}

func setConfig(path string, overrides []string) error {
	cfg, err := dupfilehash.LoadConfig(path)
	if err != nil {
		return err
	}
	if err := cfg.ApplyOverrides(overrides); err != nil {
		return err
	}
	if _, err := cfg.Settings(); err != nil {
		return fmt.Errorf("refusing to save invalid configuration: %w", err)
	}
	if err := dupfilehash.ValidateOutputFormat(cfg.GetOutputConfig().Format); err != nil {
		return fmt.Errorf("refusing to save invalid configuration: %w", err)
	}
	if err := dupfilehash.ValidateMinSize(cfg.GetScanConfig().MinSize); err != nil {
		return fmt.Errorf("refusing to save invalid configuration: %w", err)
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	fmt.Printf("Updated %s\n", cfg.Path())
	return nil
}
