package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/inkset/inkwell/cmd/inkwell/admin"
	"github.com/inkset/inkwell/cmd/inkwell/migrate"
	"github.com/inkset/inkwell/cmd/inkwell/serve"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "inkwell",
		Usage: "A small multi-tenant blog platform",
		Commands: []*cli.Command{
			serve.Cmd(),
			migrate.Cmd(),
			admin.Cmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Error().Err(err).Msg("Application failed")
	}
}
