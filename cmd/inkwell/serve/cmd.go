package serve

import (
	"github.com/inkset/inkwell/internal/config"
	"github.com/inkset/inkwell/internal/httpserver"
	"github.com/inkset/inkwell/internal/store"
	"github.com/inkset/inkwell/internal/web"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	var bindAddr string
	var dbPath string
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the blog platform HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "bind",
				Usage:       "Address to bind (overrides BIND_ADDR)",
				Destination: &bindAddr,
			},
			&cli.StringFlag{
				Name:        "db",
				Usage:       "Path to the database file (overrides DATABASE_PATH)",
				Destination: &dbPath,
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if bindAddr != "" {
				cfg.BindAddr = bindAddr
			}
			if dbPath != "" {
				cfg.DatabasePath = dbPath
			}
			st, err := store.Open(ctx.Context, cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer st.Close()
			handler, err := web.NewHandler(ctx.Context, cfg, st)
			if err != nil {
				return err
			}
			return httpserver.Serve(ctx.Context, cfg.BindAddr, handler)
		},
	}
}
