package admin

import (
	"errors"
	"os"

	"github.com/inkset/inkwell/internal/auth"
	"github.com/inkset/inkwell/internal/config"
	"github.com/inkset/inkwell/internal/logutil"
	"github.com/inkset/inkwell/internal/store"
	"github.com/urfave/cli/v2"
)

// PasswordEnvVar holds the password for create-user. Passing secrets as
// arguments would leak them into the process list.
const PasswordEnvVar = "INKWELL_PASSWORD"

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Administrative commands that bypass the web interface",
		Subcommands: []*cli.Command{
			createUserCmd(),
		},
	}
}

func createUserCmd() *cli.Command {
	var dbPath, username, email, firstName, lastName, role string
	passwordEnvVar := PasswordEnvVar
	return &cli.Command{
		Name:  "create-user",
		Usage: "Create an account from the terminal (e.g. the first admin)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "db",
				Usage:       "Path to the database file (overrides DATABASE_PATH)",
				Destination: &dbPath,
			},
			&cli.StringFlag{Name: "username", Required: true, Destination: &username},
			&cli.StringFlag{Name: "email", Required: true, Destination: &email},
			&cli.StringFlag{Name: "first-name", Value: "", Destination: &firstName},
			&cli.StringFlag{Name: "last-name", Value: "", Destination: &lastName},
			&cli.StringFlag{
				Name:        "role",
				Usage:       "subscriber, author, editor or admin",
				Value:       "admin",
				Destination: &role,
			},
			&cli.StringFlag{
				Name:        "password-envvar-name",
				Usage:       "Name of the environment variable that holds the password. The password itself should not be passed as an argument",
				Value:       passwordEnvVar,
				Destination: &passwordEnvVar,
			},
		},
		Action: func(ctx *cli.Context) error {
			password := os.Getenv(passwordEnvVar)
			os.Setenv(passwordEnvVar, "")
			if password == "" {
				return errors.New("password environment variable is empty")
			}
			parsedRole, ok := auth.ParseRole(role)
			if !ok {
				return errors.New("invalid role: " + role)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dbPath != "" {
				cfg.DatabasePath = dbPath
			}
			st, err := store.Open(ctx.Context, cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer st.Close()
			if firstName == "" {
				firstName = username
			}
			if lastName == "" {
				lastName = username
			}
			svc := auth.NewService(cfg, st)
			id, err := svc.Register(ctx.Context, auth.Client{IP: "cli", UserAgent: "inkwell-cli"},
				username, email, password, firstName, lastName, parsedRole)
			if err != nil {
				return err
			}
			logger := logutil.GetOrDefault(ctx.Context)
			logger.Info().
				Int64("user.id", id).
				Str("user.name", username).
				Str("user.role", parsedRole.String()).
				Msg("Account created")
			return nil
		},
	}
}
