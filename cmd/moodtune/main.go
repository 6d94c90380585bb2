// Command moodtune runs the emotion-based music recommendation backend.
package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/pmmd05/intento-proyecto-1/internal/logging"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		logging.New(os.Stderr, "error").Fatal("application error", "err", err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "moodtune",
		Usage: "Emotion-based Spotify recommendations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:  "auth-url",
				Usage: "Print the Spotify consent URL",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "state",
						Usage: "Opaque state echoed back to the frontend",
					},
				},
				Action: authURL,
			},
			{
				Name:  "issue-token",
				Usage: "Mint an application session token for local development",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Usage:    "User id to issue the token for",
						Required: true,
					},
					&cli.DurationFlag{
						Name:  "ttl",
						Usage: "Token lifetime",
						Value: defaultTokenTTL,
					},
				},
				Action: issueToken,
			},
			{
				Name:   "migrate",
				Usage:  "Apply the database schema",
				Action: migrate,
			},
		},
	}
}
