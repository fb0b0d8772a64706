package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"pressfeed/db"
)

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Run database migrations",
		Description: `Runs the embedded SQLite migrations to create or update
		the content store schema.`,
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
			fmt.Println("Running migrations on:", database)
			return db.Migrate(database)
		},
	}
}

func rollbackCmd() *cli.Command {
	return &cli.Command{
		Name:  "rollback",
		Usage: "Roll back the most recent migration",
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
			fmt.Println("Rolling back last migration on:", database)
			return db.Rollback(database)
		},
	}
}
