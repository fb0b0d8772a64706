package db

import (
	"context"
	"database/sql"
	"fmt"

	sqlbuilder "github.com/huandu/go-sqlbuilder"

	"pressfeed/models"
)

// Writer inserts content into the store. Used by the seed command and by
// tests; the feed engine itself only reads.
type Writer struct {
	db *sql.DB
}

func NewWriter(database string) (*Writer, error) {
	db, err := connection(database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return &Writer{db: db}, nil
}

func (writer *Writer) Close() error {
	return writer.db.Close()
}

func (writer *Writer) CreateAuthor(ctx context.Context, author models.Author) error {
	ib := sqlbuilder.NewInsertBuilder()
	ib.InsertInto("authors").Cols("id", "name", "slug")
	ib.Values(author.Id, author.Name, author.Slug)

	query, args := ib.Build()
	if _, err := writer.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("error creating author %s: %w", author.Slug, err)
	}
	return nil
}

func (writer *Writer) CreateTag(ctx context.Context, tag models.Tag) error {
	if tag.Visibility == "" {
		tag.Visibility = models.VisibilityPublic
	}

	ib := sqlbuilder.NewInsertBuilder()
	ib.InsertInto("tags").Cols("id", "name", "slug", "visibility")
	ib.Values(tag.Id, tag.Name, tag.Slug, tag.Visibility)

	query, args := ib.Build()
	if _, err := writer.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("error creating tag %s: %w", tag.Slug, err)
	}
	return nil
}

// CreatePost inserts a post and its tag associations. The author and the
// tags must already exist.
func (writer *Writer) CreatePost(ctx context.Context, post models.Post) error {
	if post.Status == "" {
		post.Status = models.StatusPublished
	}

	var authorId interface{}
	if post.Author != nil {
		authorId = post.Author.Id
	}

	ib := sqlbuilder.NewInsertBuilder()
	ib.InsertInto("posts").Cols(
		"id", "title", "slug", "html",
		"custom_excerpt", "meta_description", "feature_image",
		"status", "published_at", "author_id",
	)
	ib.Values(
		post.Id, post.Title, post.Slug, post.Html,
		post.CustomExcerpt, post.MetaDescription, post.FeatureImage,
		post.Status, post.PublishedAt.Unix(), authorId,
	)

	query, args := ib.Build()
	if _, err := writer.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("error creating post %s: %w", post.Slug, err)
	}

	for order, tag := range post.Tags {
		ib := sqlbuilder.NewInsertBuilder()
		ib.InsertInto("posts_tags").Cols("post_id", "tag_id", "sort_order")
		ib.Values(post.Id, tag.Id, order)

		query, args := ib.Build()
		if _, err := writer.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("error tagging post %s: %w", post.Slug, err)
		}
	}

	return nil
}
