package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	"github.com/samber/lo"

	"pressfeed/models"
)

// ErrNotFound is returned when a channel resolves to no known tag or
// author slug
var ErrNotFound = errors.New("not found")

// Reader resolves feed channels to pages of published posts
type Reader struct {
	db *sql.DB
}

func NewReader(database string) (*Reader, error) {
	db, err := readConnection(database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return &Reader{db: db}, nil
}

func (reader *Reader) Close() error {
	return reader.db.Close()
}

// FetchPage returns one page of published posts for the channel in
// reverse-chronological order, with tags and author hydrated, plus
// pagination metadata. Page 1 is always valid, even for an empty channel.
func (reader *Reader) FetchPage(ctx context.Context, channel models.Channel, page int, perPage int) (*models.PostPage, error) {
	if page < 1 {
		page = 1
	}

	var titlePrefix string
	var tagId, authorId string

	switch channel.Kind {
	case models.ChannelTag:
		tag, err := reader.tagBySlug(ctx, channel.Slug)
		if err != nil {
			return nil, err
		}
		tagId = tag.Id
		titlePrefix = tag.Name + " - "
	case models.ChannelAuthor:
		author, err := reader.authorBySlug(ctx, channel.Slug)
		if err != nil {
			return nil, err
		}
		authorId = author.Id
		titlePrefix = author.Name + " - "
	}

	total, err := reader.countPosts(ctx, tagId, authorId)
	if err != nil {
		return nil, err
	}

	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}

	posts, err := reader.postsPage(ctx, tagId, authorId, page, perPage)
	if err != nil {
		return nil, err
	}

	if err := reader.hydrateTags(ctx, posts); err != nil {
		return nil, err
	}

	return &models.PostPage{
		Posts: posts,
		Pagination: models.Pagination{
			Page:    page,
			PerPage: perPage,
			Pages:   pages,
			Total:   total,
		},
		TitlePrefix: titlePrefix,
	}, nil
}

func (reader *Reader) tagBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("id", "name", "slug", "visibility").From("tags")
	sb.Where(sb.Equal("slug", slug))

	query, args := sb.Build()

	var tag models.Tag
	err := reader.db.QueryRowContext(ctx, query, args...).Scan(&tag.Id, &tag.Name, &tag.Slug, &tag.Visibility)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("tag %q: %w", slug, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching tag %q: %w", slug, err)
	}

	return &tag, nil
}

func (reader *Reader) authorBySlug(ctx context.Context, slug string) (*models.Author, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("id", "name", "slug").From("authors")
	sb.Where(sb.Equal("slug", slug))

	query, args := sb.Build()

	var author models.Author
	err := reader.db.QueryRowContext(ctx, query, args...).Scan(&author.Id, &author.Name, &author.Slug)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("author %q: %w", slug, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching author %q: %w", slug, err)
	}

	return &author, nil
}

func (reader *Reader) countPosts(ctx context.Context, tagId string, authorId string) (int, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("COUNT(*)").From("posts")
	applyChannelFilter(sb, tagId, authorId)

	query, args := sb.Build()

	var total int
	if err := reader.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("error counting posts: %w", err)
	}

	return total, nil
}

func (reader *Reader) postsPage(ctx context.Context, tagId string, authorId string, page int, perPage int) ([]models.Post, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(
		"posts.id", "posts.title", "posts.slug", "posts.html",
		"posts.custom_excerpt", "posts.meta_description", "posts.feature_image",
		"posts.status", "posts.published_at",
		"authors.id", "authors.name", "authors.slug",
	).From("posts")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "authors", "authors.id = posts.author_id")
	applyChannelFilter(sb, tagId, authorId)
	sb.OrderBy("posts.published_at DESC", "posts.id DESC")
	sb.Limit(perPage).Offset((page - 1) * perPage)

	query, args := sb.Build()

	rows, err := reader.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error fetching posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var post models.Post
		var publishedAt int64
		var author struct {
			id, name, slug sql.NullString
		}

		if err := rows.Scan(
			&post.Id, &post.Title, &post.Slug, &post.Html,
			&post.CustomExcerpt, &post.MetaDescription, &post.FeatureImage,
			&post.Status, &publishedAt,
			&author.id, &author.name, &author.slug,
		); err != nil {
			return nil, fmt.Errorf("error scanning post: %w", err)
		}

		post.PublishedAt = time.Unix(publishedAt, 0).UTC()
		if author.id.Valid {
			post.Author = &models.Author{
				Id:   author.id.String,
				Name: author.name.String,
				Slug: author.slug.String,
			}
		}

		posts = append(posts, post)
	}

	return posts, rows.Err()
}

// hydrateTags attaches tags to the fetched posts in sort order
func (reader *Reader) hydrateTags(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	postIds := lo.Map(posts, func(post models.Post, _ int) interface{} {
		return post.Id
	})

	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("posts_tags.post_id", "tags.id", "tags.name", "tags.slug", "tags.visibility").From("posts_tags")
	sb.Join("tags", "tags.id = posts_tags.tag_id")
	sb.Where(sb.In("posts_tags.post_id", postIds...))
	sb.OrderBy("posts_tags.post_id", "posts_tags.sort_order")

	query, args := sb.Build()

	rows, err := reader.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error fetching tags: %w", err)
	}
	defer rows.Close()

	tagsByPost := make(map[string][]models.Tag)
	for rows.Next() {
		var postId string
		var tag models.Tag
		if err := rows.Scan(&postId, &tag.Id, &tag.Name, &tag.Slug, &tag.Visibility); err != nil {
			return fmt.Errorf("error scanning tag: %w", err)
		}
		tagsByPost[postId] = append(tagsByPost[postId], tag)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range posts {
		posts[i].Tags = tagsByPost[posts[i].Id]
	}

	return nil
}

func applyChannelFilter(sb *sqlbuilder.SelectBuilder, tagId string, authorId string) {
	sb.Where(sb.Equal("posts.status", models.StatusPublished))
	if tagId != "" {
		sb.Join("posts_tags", "posts_tags.post_id = posts.id")
		sb.Where(sb.Equal("posts_tags.tag_id", tagId))
	}
	if authorId != "" {
		sb.Where(sb.Equal("posts.author_id", authorId))
	}
}
