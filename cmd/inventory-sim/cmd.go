package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/kbukum/invstream/auth"
	"github.com/kbukum/invstream/bootstrap"
	"github.com/kbukum/invstream/component"
	"github.com/kbukum/invstream/config"
	"github.com/kbukum/invstream/logger"
	"github.com/kbukum/invstream/observability"
	"github.com/kbukum/invstream/server"
	"github.com/kbukum/invstream/simulator"
	"github.com/kbukum/invstream/sse"
	"github.com/kbukum/invstream/version"
)

const shutdownTimeout = 15 * time.Second

func run(args []string) error {
	app := &cli.App{
		Name:    serviceName,
		Usage:   "In-memory inventory backend serving the event stream",
		Version: version.GetFullVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the configuration file",
				EnvVars: []string{"INVENTORY_SIM_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file",
			},
		},
		Commands: []*cli.Command{
			serveCmd(),
			tokenCmd(),
			hashKeyCmd(),
			versionCmd(),
		},
	}
	return app.Run(args)
}

func loadConfig(c *cli.Context) (*Config, error) {
	cfg := &Config{}
	opts := []config.Option{}
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if path := c.String("env-file"); path != "" {
		opts = append(opts, config.WithEnvFile(path))
	}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Run the simulator HTTP server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port, overriding server.port",
			},
			&cli.DurationFlag{
				Name:  "activity",
				Usage: "Interval of random stock changes, overriding simulator.activity",
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "Seed for the random activity",
				Value: uint64(time.Now().UnixNano()),
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.IsSet("port") {
				cfg.Server.Port = c.Int("port")
			}
			if c.IsSet("activity") {
				cfg.Simulator.Activity = c.Duration("activity")
			}
			return serve(c.Context, cfg, c.Uint64("seed"))
		},
	}
}

func serve(ctx context.Context, cfg *Config, seed uint64) error {
	app, err := bootstrap.NewApp(cfg, bootstrap.WithGracefulTimeout(shutdownTimeout))
	if err != nil {
		return err
	}
	app.Logger.Info("configured", logger.Fields("version", version.GetShortVersion(), "environment", cfg.Environment))

	tokens, err := auth.NewService(cfg.Auth)
	if err != nil {
		return err
	}

	hub := sse.NewComponent(simulator.StreamPath)
	api := simulator.NewAPI(cfg.Simulator, simulator.NewStore(cfg.Simulator.Seed...), hub.Hub(), tokens, app.Logger)

	srv := server.New(cfg.Server, app.Logger)
	srv.ApplyMiddleware()
	api.Register(srv.GinEngine())
	srv.RegisterDefaultEndpoints(app.Name, app.Components.HealthAll)

	for _, comp := range []component.Component{
		observability.NewComponent(cfg.Observability),
		hub,
		simulator.NewActivity(api, cfg.Simulator.Activity, seed),
		server.NewComponent(srv),
	} {
		if err := app.RegisterComponent(comp); err != nil {
			return err
		}
	}
	app.OnReady(func(context.Context) error {
		app.Logger.Info("simulator ready", logger.Fields(
			"addr", srv.Addr(),
			"stream", simulator.StreamPath,
			"token_mint", cfg.Simulator.AllowTokenMint,
		))
		return nil
	})
	return app.Run(ctx)
}

func tokenCmd() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Mint a bearer token signed with the configured secret",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "subject",
				Aliases:  []string{"sub"},
				Usage:    "Token subject",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:  "scope",
				Usage: "Granted scope; repeat for several",
				Value: cli.NewStringSlice(auth.ScopeStreamRead),
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "Token lifetime, overriding auth.ttl",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			tokens, err := auth.NewService(cfg.Auth)
			if err != nil {
				return err
			}
			token, claims, err := tokens.Mint(c.String("subject"), c.Duration("ttl"), c.StringSlice("scope")...)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, token)
			fmt.Fprintf(c.App.ErrWriter, "expires %s\n", claims.ExpiresAt.Time.Format(time.RFC3339))
			return nil
		},
	}
}

func hashKeyCmd() *cli.Command {
	return &cli.Command{
		Name:      "hash-key",
		Usage:     "Print the bcrypt hash of a mint key for simulator.mint_key_hash",
		ArgsUsage: "<key>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "cost", Usage: "bcrypt cost", Value: 10},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("hash-key takes exactly one key", 2)
			}
			hash, err := auth.HashKey(c.Args().First(), c.Int("cost"))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, hash)
			return nil
		},
	}
}

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build information",
		Action: func(c *cli.Context) error {
			info := version.GetVersionInfo()
			fmt.Fprintf(c.App.Writer, "%s %s\ncommit: %s\nbuilt:  %s\ngo:     %s\n",
				serviceName, info.Version, info.GitCommit, info.BuildTime, info.GoVersion)
			return nil
		},
	}
}
