package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"pressfeed/config"
	"pressfeed/db"
	"pressfeed/hooks"
	"pressfeed/rss"
	"pressfeed/server"
	"pressfeed/urls"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the blog feeds",
		Description: `Starts the pressfeed HTTP server.

		Serves the RSS feeds for the index, tag and author channels from
		the SQLite content store. Feed documents are cached per path and
		regenerated only when the content hash changes.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config/pressfeed.toml",
				Usage:   "Path to the configuration file",
				EnvVars: []string{"PRESSFEED_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "database",
				Aliases: []string{"d"},
				Usage:   "SQLite database file location, overrides the config file",
				EnvVars: []string{"PRESSFEED_DATABASE"},
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on, overrides the config file",
				EnvVars: []string{"PRESSFEED_PORT"},
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := config.LoadConfig(ctx.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if ctx.String("database") != "" {
				cfg.Database.Path = ctx.String("database")
			}
			if ctx.Int("port") != 0 {
				cfg.Server.Port = ctx.Int("port")
			}

			reader, err := db.NewReader(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer reader.Close()

			resolver, err := urls.NewResolver(cfg.Site.Url)
			if err != nil {
				return err
			}

			// The hook registry is where deployments wire their feed.item
			// and feed.document extensions before the server starts.
			registry := hooks.NewRegistry()

			cache := rss.NewCache(rss.NewBuilder(resolver, registry))

			metrics := prometheus.NewRegistry()
			metrics.MustRegister(cache.Collectors()...)

			app := server.Server(&server.ServerConfig{
				SiteTitle:       cfg.Site.Title,
				SiteDescription: cfg.Site.Description,
				Version:         Version,
				PostsPerPage:    cfg.Feed.PostsPerPage,
				Source:          reader,
				Cache:           cache,
				Resolver:        resolver,
				Metrics:         metrics,
			})

			// Graceful shutdown
			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)

			go func() {
				<-interrupt
				log.Info("Gracefully shutting down...")
				if err := app.ShutdownWithTimeout(60 * time.Second); err != nil {
					log.Error("Error shutting down server", err)
				}
			}()

			log.WithFields(log.Fields{
				"port": cfg.Server.Port,
			}).Info("Starting server...")

			return app.Listen(fmt.Sprintf(":%d", cfg.Server.Port))
		},
	}
}
