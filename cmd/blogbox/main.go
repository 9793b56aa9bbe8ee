package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/andrebq/blogbox/cmd/blogbox/keygen"
	"github.com/andrebq/blogbox/cmd/blogbox/serve"
	"github.com/andrebq/blogbox/cmd/blogbox/users"
	"github.com/andrebq/blogbox/internal/logutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	logLevel := zerolog.InfoLevel.String()
	var pretty bool
	app := &cli.App{
		Name:  "blogbox",
		Usage: "A small blog where registered users publish posts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Minimum level of the messages written to stderr",
				EnvVars:     []string{"BLOGBOX_LOG_LEVEL"},
				Value:       logLevel,
				Destination: &logLevel,
			},
			&cli.BoolFlag{
				Name:        "pretty-log",
				Usage:       "Write human friendly logs instead of json",
				Destination: &pretty,
			},
		},
		Before: func(ctx *cli.Context) error {
			lvl, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger := log.Logger.Level(lvl)
			if pretty {
				logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			}
			log.Logger = logger
			ctx.Context = logutil.WithLogger(ctx.Context, logger)
			return nil
		},
		Commands: []*cli.Command{
			serve.Cmd(),
			users.Cmd(),
			keygen.Cmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Error().Err(err).Msg("Application failed")
		os.Exit(1)
	}
}
