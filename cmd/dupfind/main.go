package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&dupesCommand{}, "")
	subcommands.Register(&configCommand{}, "")
	subcommands.Register(&versionCommand{}, "")

	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(int(subcommands.ExitUsageError))
	}

	ctx, stop := setupSignalHandler(context.Background())

	status := subcommands.Execute(ctx)
	stop()
	os.Exit(int(status))
}
