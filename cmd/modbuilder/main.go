package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/modbuilder/cmd/modbuilder/commands"
	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/modbuilder/internal/version"
)

func main() {
	var cli commands.CLI
	parser := kong.Parse(&cli,
		kong.Name("modbuilder"),
		kong.Description("Compile a directory of markdown into a module archive or print document."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := parser.Run(&commands.Global{Context: ctx})
	if err != nil {
		cancel()
		errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
	os.Exit(0)
}
