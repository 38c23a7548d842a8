package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/kbukum/invstream/bootstrap"
	"github.com/kbukum/invstream/cache"
	"github.com/kbukum/invstream/config"
	"github.com/kbukum/invstream/logger"
	"github.com/kbukum/invstream/observability"
	"github.com/kbukum/invstream/stream"
	"github.com/kbukum/invstream/version"
)

const flushTimeout = 5 * time.Second

func run(args []string) error {
	app := &cli.App{
		Name:    serviceName,
		Usage:   "Follow an inventory event stream and keep the latest state per product",
		Version: version.GetFullVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the configuration file",
				EnvVars: []string{"INVENTORY_WATCH_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "endpoint",
				Aliases: []string{"e"},
				Usage:   "Stream URL, overriding stream.endpoint",
			},
			&cli.StringFlag{
				Name:    "token",
				Aliases: []string{"t"},
				Usage:   "Bearer token",
				EnvVars: []string{"INVENTORY_TOKEN"},
			},
			&cli.StringFlag{
				Name:  "token-file",
				Usage: "File holding the bearer token, re-read on every reconnect",
			},
			&cli.StringFlag{
				Name:  "mint-url",
				Usage: "Simulator token endpoint to mint development tokens from",
			},
			&cli.DurationFlag{
				Name:  "for",
				Usage: "Stop after this long; zero follows until interrupted",
			},
			&cli.BoolFlag{
				Name:  "dump",
				Usage: "Print the final cached states as JSON on exit",
			},
		},
		Action: watch,
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "Print build information",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "%s %s\n", serviceName, version.GetFullVersion())
					return nil
				},
			},
		},
	}
	return app.Run(args)
}

func loadConfig(c *cli.Context) (*Config, error) {
	cfg := &Config{}
	var opts []config.Option
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	if c.IsSet("endpoint") {
		cfg.Stream.Endpoint = c.String("endpoint")
	}
	if c.IsSet("token") {
		cfg.Token = c.String("token")
	}
	if c.IsSet("token-file") {
		cfg.TokenFile = c.String("token-file")
	}
	if c.IsSet("mint-url") {
		if cfg.Mint == nil {
			cfg.Mint = &MintConfig{}
			cfg.Mint.ApplyDefaults()
		}
		cfg.Mint.URL = c.String("mint-url")
	}
	if err := cfg.validateTarget(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func watch(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	app, err := bootstrap.NewApp(cfg, bootstrap.WithGracefulTimeout(flushTimeout))
	if err != nil {
		return err
	}
	if err := app.RegisterComponent(observability.NewComponent(cfg.Observability)); err != nil {
		return err
	}

	store, err := cache.New(cfg.CacheSize, cache.WithLogger(app.Logger))
	if err != nil {
		return err
	}

	ctx := c.Context
	if d := c.Duration("for"); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	app.OnStop(func(context.Context) error {
		summarize(app.Logger, store)
		return nil
	})
	err = app.RunTask(ctx, func(ctx context.Context) error {
		return follow(ctx, app.Logger, cfg, store)
	})

	if c.Bool("dump") {
		if dumpErr := dump(c.App.Writer, store); dumpErr != nil {
			return dumpErr
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// follow runs after the telemetry providers are installed, so the stream
// instruments bind to the exporting meter.
func follow(ctx context.Context, log *logger.Logger, cfg *Config, store *cache.Store) error {
	opts := []stream.Option{stream.WithLogger(log)}
	if cfg.Observability.Enabled {
		metrics, err := observability.NewStreamMetrics(observability.Meter(serviceName))
		if err != nil {
			return err
		}
		opts = append(opts, stream.WithMetrics(metrics))
	}
	tokens, err := tokenSource(cfg, log)
	if err != nil {
		return err
	}
	client, err := stream.NewClient(cfg.Stream, opts...)
	if err != nil {
		return err
	}
	defer client.Close(context.Background())

	log.Info("following", logger.Fields(logger.FieldEndpoint, cfg.Stream.Endpoint, "version", version.GetShortVersion()))
	return client.Follow(ctx, tokens, cfg.Follow, newHandler(store, log))
}

func tokenSource(cfg *Config, log *logger.Logger) (stream.TokenSource, error) {
	switch {
	case cfg.Mint != nil:
		return newMinter(*cfg.Mint, log)
	case cfg.TokenFile != "":
		path := cfg.TokenFile
		return stream.TokenFunc(func(context.Context) (string, error) {
			return readToken(path)
		}), nil
	default:
		return stream.StaticToken(cfg.Token), nil
	}
}
