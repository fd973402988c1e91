package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/sebuszqo/FinanceSync/internal/ledger/interfaces"
	"github.com/sebuszqo/FinanceSync/internal/logger"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	for _, c := range interfaces.Commands {
		commander.Register(c, "")
	}

	flag.Parse()
	ctx := logger.WithContext(context.Background(), logger.New())
	os.Exit(int(commander.Execute(ctx)))
}
