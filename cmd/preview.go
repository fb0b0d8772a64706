package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"pressfeed/config"
	"pressfeed/db"
	"pressfeed/hooks"
	"pressfeed/models"
	"pressfeed/rss"
	"pressfeed/urls"
)

func previewCmd() *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Render a feed to stdout",
		Description: `Builds one channel's RSS document and prints it, without
		going through the HTTP server or the cache. Useful for inspecting
		what subscribers would receive.`,
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
			&cli.StringFlag{
				Name:  "tag",
				Usage: "Render the feed of this tag slug",
			},
			&cli.StringFlag{
				Name:  "author",
				Usage: "Render the feed of this author slug",
			},
			&cli.IntFlag{
				Name:  "page",
				Value: 1,
				Usage: "Feed page to render",
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

			channel := models.Channel{Kind: models.ChannelIndex}
			feedPath := "/rss/"
			if slug := ctx.String("tag"); slug != "" {
				channel = models.Channel{Kind: models.ChannelTag, Slug: slug}
				feedPath = "/tag/" + slug + "/rss/"
			}
			if slug := ctx.String("author"); slug != "" {
				channel = models.Channel{Kind: models.ChannelAuthor, Slug: slug}
				feedPath = "/author/" + slug + "/rss/"
			}

			reader, err := db.NewReader(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer reader.Close()

			result, err := reader.FetchPage(ctx.Context, channel, ctx.Int("page"), cfg.Feed.PostsPerPage)
			if err != nil {
				return err
			}
			if ctx.Int("page") > result.Pagination.Pages {
				return fmt.Errorf("page %d is out of range, channel has %d page(s)", ctx.Int("page"), result.Pagination.Pages)
			}

			resolver, err := urls.NewResolver(cfg.Site.Url)
			if err != nil {
				return err
			}

			builder := rss.NewBuilder(resolver, hooks.NewRegistry())
			xml, err := builder.Build(ctx.Context, rss.Data{
				Title:       result.TitlePrefix + cfg.Site.Title,
				Description: cfg.Site.Description,
				Version:     Version,
				SiteUrl:     resolver.Home(false),
				FeedUrl:     resolver.Absolute(feedPath, false),
				Posts:       result.Posts,
			})
			if err != nil {
				return err
			}

			fmt.Println(xml)
			return nil
		},
	}
}
