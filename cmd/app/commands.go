// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"codeberg.org/oliverandrich/inkwell/internal/config"
	"codeberg.org/oliverandrich/inkwell/internal/database"
	"codeberg.org/oliverandrich/inkwell/internal/models"
	"codeberg.org/oliverandrich/inkwell/internal/repository"
	"codeberg.org/oliverandrich/inkwell/internal/server"
	"codeberg.org/oliverandrich/inkwell/internal/services/blog"
	"codeberg.org/oliverandrich/inkwell/internal/services/session"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

// withDB opens the configured database (applying migrations) for the
// duration of fn.
func withDB(cmd *cli.Command, fn func(db *sqlx.DB, repo *repository.Repository) error) error {
	return withConn(cmd, database.Open, fn)
}

// withSchema opens the configured database without touching its schema.
func withSchema(cmd *cli.Command, fn func(db *sqlx.DB) error) error {
	return withConn(cmd, database.Connect, func(db *sqlx.DB, _ *repository.Repository) error {
		return fn(db)
	})
}

func withConn(cmd *cli.Command, open func(string) (*sqlx.DB, error), fn func(db *sqlx.DB, repo *repository.Repository) error) error {
	cfg := config.NewFromCLI(cmd)
	server.SetupLogger(cfg.Log.Level, cfg.Log.Format)

	db, err := open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	return fn(db, repository.New(db))
}

func printVersion(cmd *cli.Command, db *sqlx.DB) error {
	version, err := database.Version(db.DB)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out(cmd), "schema version %d\n", version)
	return err
}

func out(cmd *cli.Command) io.Writer {
	return cmd.Root().Writer
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:        "migrate",
		Usage:       "Apply pending migrations",
		Description: "serve and the content commands also apply pending migrations on start.",
		Action: func(_ context.Context, cmd *cli.Command) error {
			return withSchema(cmd, func(db *sqlx.DB) error {
				if err := database.RunMigrations(db.DB); err != nil {
					return fmt.Errorf("failed to migrate: %w", err)
				}
				return printVersion(cmd, db)
			})
		},
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Print the schema version",
				Action: func(_ context.Context, cmd *cli.Command) error {
					return withSchema(cmd, func(db *sqlx.DB) error {
						return printVersion(cmd, db)
					})
				},
			},
			{
				Name:  "down",
				Usage: "Roll back the last migration",
				Action: func(_ context.Context, cmd *cli.Command) error {
					return withSchema(cmd, func(db *sqlx.DB) error {
						if err := database.MigrateDown(db.DB); err != nil {
							return fmt.Errorf("failed to roll back: %w", err)
						}
						return printVersion(cmd, db)
					})
				},
			},
		},
	}
}

func sessionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "Manage stored sessions",
		Commands: []*cli.Command{
			{
				Name:  "purge",
				Usage: "Delete expired sessions from the SQLite store",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if config.NewFromCLI(cmd).Session.Store == config.SessionStoreRedis {
						_, err := fmt.Fprintln(out(cmd), "redis expires sessions on its own")
						return err
					}
					return withDB(cmd, func(_ *sqlx.DB, repo *repository.Repository) error {
						n, err := session.NewSQLStore(repo).PurgeExpired(ctx)
						if err != nil {
							return err
						}
						_, err = fmt.Fprintf(out(cmd), "purged %d expired sessions\n", n)
						return err
					})
				},
			},
		},
	}
}

func categoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "category",
		Usage: "Manage post categories",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a category",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Category name", Required: true},
					&cli.StringFlag{Name: "description", Usage: "Category description"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withDB(cmd, func(_ *sqlx.DB, repo *repository.Repository) error {
						category, err := blog.NewService(repo).CreateCategory(ctx, cmd.String("name"), cmd.String("description"))
						if err != nil {
							return err
						}
						_, err = fmt.Fprintf(out(cmd), "created category %d %q\n", category.ID, category.Name)
						return err
					})
				},
			},
		},
	}
}

func tagCommand() *cli.Command {
	return &cli.Command{
		Name:  "tag",
		Usage: "Manage post tags",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a tag",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Tag name", Required: true},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withDB(cmd, func(_ *sqlx.DB, repo *repository.Repository) error {
						tag, err := blog.NewService(repo).CreateTag(ctx, cmd.String("name"))
						if err != nil {
							return err
						}
						_, err = fmt.Fprintf(out(cmd), "created tag %d %q\n", tag.ID, tag.Name)
						return err
					})
				},
			},
		},
	}
}

func postCommand() *cli.Command {
	return &cli.Command{
		Name:  "post",
		Usage: "Manage posts",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a post",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Post title", Required: true},
					&cli.StringFlag{Name: "author", Usage: "Username of the author", Required: true},
					&cli.StringFlag{Name: "content", Usage: "Post body"},
					&cli.StringFlag{Name: "content-file", Usage: "Read the post body from a file (- for stdin)"},
					&cli.StringFlag{Name: "image", Usage: "Featured image path relative to the media directory"},
					&cli.StringFlag{Name: "status", Value: string(models.StatusDraft), Usage: "draft or published"},
					&cli.StringSliceFlag{Name: "category", Usage: "Category ID (repeatable)"},
					&cli.StringSliceFlag{Name: "tag", Usage: "Tag ID (repeatable)"},
				},
				Action: createPost,
			},
			{
				Name:      "publish",
				Usage:     "Publish a post",
				ArgsUsage: "<id>",
				Action:    setPostStatus(models.StatusPublished),
			},
			{
				Name:      "unpublish",
				Usage:     "Move a post back to draft",
				ArgsUsage: "<id>",
				Action:    setPostStatus(models.StatusDraft),
			},
		},
	}
}

func createPost(ctx context.Context, cmd *cli.Command) error {
	content, err := readContent(cmd)
	if err != nil {
		return err
	}
	categoryIDs, err := parseIDs(cmd.StringSlice("category"))
	if err != nil {
		return fmt.Errorf("invalid category: %w", err)
	}
	tagIDs, err := parseIDs(cmd.StringSlice("tag"))
	if err != nil {
		return fmt.Errorf("invalid tag: %w", err)
	}

	return withDB(cmd, func(_ *sqlx.DB, repo *repository.Repository) error {
		author, err := repo.GetAccountByUsername(ctx, cmd.String("author"))
		if err != nil {
			return fmt.Errorf("unknown author %q: %w", cmd.String("author"), err)
		}

		post, err := blog.NewService(repo).CreatePost(ctx, blog.PostParams{
			Title:         cmd.String("title"),
			Content:       content,
			FeaturedImage: cmd.String("image"),
			Status:        models.PostStatus(cmd.String("status")),
			AuthorID:      author.ID,
			CategoryIDs:   categoryIDs,
			TagIDs:        tagIDs,
		})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out(cmd), "created post %d (%s)\n", post.ID, post.Status)
		return err
	})
}

func setPostStatus(status models.PostStatus) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		id, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
		if err != nil {
			return fmt.Errorf("post id required: %w", err)
		}
		return withDB(cmd, func(_ *sqlx.DB, repo *repository.Repository) error {
			if err := blog.NewService(repo).SetStatus(ctx, id, status); err != nil {
				if errors.Is(err, blog.ErrNotFound) {
					return fmt.Errorf("post %d: %w", id, err)
				}
				return err
			}
			_, err := fmt.Fprintf(out(cmd), "post %d is now %s\n", id, status)
			return err
		})
	}
}

func readContent(cmd *cli.Command) (string, error) {
	path := cmd.String("content-file")
	if path == "" {
		return cmd.String("content"), nil
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.Root().Reader)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // path comes from the operator
	}
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	return string(data), nil
}

func parseIDs(values []string) ([]int64, error) {
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
