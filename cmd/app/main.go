package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/starford/notas/internal"
	pkgconfig "github.com/starford/notas/pkg/config"
)

// readPassword is swapped in tests.
var readPassword = term.ReadPassword

func loadConfig(cmd *cli.Command) (*internal.Config, string, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, configPath, nil
}

func options(cmd *cli.Command) ([]internal.Option, error) {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return []internal.Option{internal.WithConfig(cfg), internal.WithConfigPath(path)}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func migrate(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.Migrate(ctx, opts...)
}

func seed(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	res, err := internal.Seed(ctx, cmd.String("email"), cmd.String("password"), opts...)
	if err != nil {
		return err
	}
	if res.Skipped {
		fmt.Printf("user %s already exists, nothing seeded\n", res.User.Email)
		return nil
	}
	fmt.Printf("seeded %s with %d notes\n", res.User.Email, res.Notes)
	return nil
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

func userAdd(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	password := cmd.String("password")
	if password == "" {
		if password, err = promptPassword(); err != nil {
			return err
		}
	}
	user, err := internal.AddUser(ctx, cmd.String("email"), password, opts...)
	if err != nil {
		return err
	}
	fmt.Printf("created user %d (%s)\n", user.ID, user.Email)
	return nil
}

func userDelete(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.DeleteUser(ctx, cmd.String("email"), opts...); err != nil {
		return err
	}
	fmt.Printf("deleted user %s\n", cmd.String("email"))
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	token := cmd.String("token")
	if token == "" {
		return errors.New("a bearer token is required (--token or NOTAS_TOKEN)")
	}
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	// stdout carries the protocol.
	opts = append(opts, internal.WithLogOutput(os.Stderr))
	return internal.ServeMCP(ctx, token, opts...)
}

func emailFlag() cli.Flag {
	return &cli.StringFlag{Name: "email", Usage: "User email", Required: true}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:   "notas",
		Usage:  "Personal notes service with categories, public sharing and token authentication",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Apply database migrations and exit",
				Action: migrate,
			},
			{
				Name:  "seed",
				Usage: "Create a demo user with sample notes",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "Demo user email", Value: internal.DefaultSeedEmail},
					&cli.StringFlag{Name: "password", Usage: "Demo user password", Value: internal.DefaultSeedPassword},
				},
				Action: seed,
			},
			{
				Name:  "user",
				Usage: "Manage users",
				Commands: []*cli.Command{
					{
						Name:  "add",
						Usage: "Register a user; prompts for the password when omitted",
						Flags: []cli.Flag{
							emailFlag(),
							&cli.StringFlag{Name: "password", Usage: "Password"},
						},
						Action: userAdd,
					},
					{
						Name:   "delete",
						Usage:  "Delete a user and all of their notes",
						Flags:  []cli.Flag{emailFlag()},
						Action: userDelete,
					},
				},
			},
			{
				Name:  "mcp",
				Usage: "Serve a user's notes to an MCP client over stdio",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "token",
						Usage:   "Bearer token of the user whose notes are exposed",
						Sources: cli.EnvVars("NOTAS_TOKEN"),
					},
				},
				Action: mcp,
			},
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
