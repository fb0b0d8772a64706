package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"pressfeed/db"
	"pressfeed/models"
)

func seedCmd() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Insert demo content into the database",
		Description: `Inserts a demo author, a couple of tags and a handful of
		posts so the feeds have something to serve during development.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database",
				Aliases: []string{"d"},
				Value:   "content.db",
				Usage:   "SQLite database file location",
				EnvVars: []string{"PRESSFEED_DATABASE"},
			},
		},
		Action: func(ctx *cli.Context) error {
			database := ctx.String("database")

			if err := db.Migrate(database); err != nil {
				return fmt.Errorf("failed to migrate before seeding: %w", err)
			}

			writer, err := db.NewWriter(database)
			if err != nil {
				return err
			}
			defer writer.Close()

			author := models.Author{Id: "author-1", Name: "Pat Writer", Slug: "pat"}
			if err := writer.CreateAuthor(ctx.Context, author); err != nil {
				return err
			}

			tags := []models.Tag{
				{Id: "tag-1", Name: "Go", Slug: "go", Visibility: models.VisibilityPublic},
				{Id: "tag-2", Name: "Releases", Slug: "releases", Visibility: models.VisibilityPublic},
				{Id: "tag-3", Name: "hash-internal", Slug: "hash-internal", Visibility: models.VisibilityInternal},
			}
			for _, tag := range tags {
				if err := writer.CreateTag(ctx.Context, tag); err != nil {
					return err
				}
			}

			posts := []models.Post{
				{
					Id:           "post-1",
					Title:        "Hello World",
					Slug:         "hello-world",
					Html:         `<p>Welcome to the demo blog. Read the <a href="/about/">about page</a> for more.</p>`,
					FeatureImage: "/content/images/hello.jpg",
					PublishedAt:  time.Now().Add(-48 * time.Hour),
					Author:       &author,
					Tags:         []models.Tag{tags[0], tags[2]},
				},
				{
					Id:            "post-2",
					Title:         "Second Post",
					Slug:          "second-post",
					Html:          `<p>More words, this time with an <img src="/content/images/chart.png"/> inline image.</p>`,
					CustomExcerpt: "A hand-written excerpt.",
					PublishedAt:   time.Now().Add(-24 * time.Hour),
					Author:        &author,
					Tags:          []models.Tag{tags[1]},
				},
				{
					Id:          "post-3",
					Title:       "Third Post",
					Slug:        "third-post",
					Html:        `<p>The freshest post of the three.</p>`,
					PublishedAt: time.Now().Add(-1 * time.Hour),
					Author:      &author,
				},
			}
			for _, post := range posts {
				if err := writer.CreatePost(ctx.Context, post); err != nil {
					return err
				}
			}

			fmt.Println("Seeded demo content into:", database)
			return nil
		},
	}
}
