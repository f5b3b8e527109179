package main

import (
	"context"
	"flag"
	"fmt"
	"runtime"

	"github.com/google/subcommands"
)

var (
	// Set at build time with -ldflags "-X main.Version=..."
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

type versionCommand struct{}

func (*versionCommand) Name() string     { return "version" }
func (*versionCommand) Synopsis() string { return "Print version information" }
func (*versionCommand) Usage() string {
	return `version:
  Print version, build commit, and build date information.
`
}

func (c *versionCommand) SetFlags(f *flag.FlagSet) {}

func (c *versionCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Printf("dupfind version %s\n", Version)
	fmt.Printf("commit: %s\n", Commit)
	fmt.Printf("built: %s (%s)\n", Date, runtime.Version())
	return subcommands.ExitSuccess
}
