package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// Version is reported in the generator element of every feed
const Version = "0.9.0"

func RootApp() *cli.App {
	return &cli.App{
		Name:  "pressfeed",
		Usage: "RSS feed server for a blog content store",
		Description: `Generates RSS feeds for a blog's index, tag and author channels.

		Pressfeed serves syndication feeds straight from a SQLite content
		store. Generated documents are cached per feed path and only
		rebuilt when the underlying content changes.

		Flags can generally be set via environment variables, e.g.:

		--database => PRESSFEED_DATABASE=content.db
		--config => PRESSFEED_CONFIG=config/pressfeed.toml
		`,
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			rollbackCmd(),
			seedCmd(),
			previewCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

func Execute() {
	if err := RootApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
