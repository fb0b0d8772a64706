package rss_test

import (
	"context"
	"encoding/xml"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pressfeed/hooks"
	"pressfeed/models"
	"pressfeed/rss"
	"pressfeed/urls"
)

func testBuilder(t *testing.T, registry *hooks.Registry) *rss.Builder {
	t.Helper()
	resolver, err := urls.NewResolver("http://blog.example")
	require.NoError(t, err)
	return rss.NewBuilder(resolver, registry)
}

func testData(posts ...models.Post) rss.Data {
	return rss.Data{
		Title:       "Demo Blog",
		Description: "Thoughts, stories and ideas.",
		Version:     "0.9.0",
		SiteUrl:     "http://blog.example/",
		FeedUrl:     "http://blog.example/rss/",
		Posts:       posts,
	}
}

func publishedAt(day int) time.Time {
	return time.Date(2024, time.March, day, 12, 0, 0, 0, time.UTC)
}

func TestBuildChannelMetadata(t *testing.T) {
	builder := testBuilder(t, hooks.NewRegistry())

	out, err := builder.Build(context.Background(), testData())
	require.NoError(t, err)

	feed, err := gofeed.NewParser().ParseString(out)
	require.NoError(t, err)

	assert.Equal(t, "Demo Blog", feed.Title)
	assert.Equal(t, "Thoughts, stories and ideas.", feed.Description)
	assert.Equal(t, "pressfeed 0.9.0", feed.Generator)
	require.NotNil(t, feed.Image)
	assert.Equal(t, "http://blog.example/favicon.png", feed.Image.URL)

	assert.Contains(t, out, `<ttl>60</ttl>`)
	assert.Contains(t, out, `xmlns:content="http://purl.org/rss/1.0/modules/content/"`)
	assert.Contains(t, out, `xmlns:media="http://search.yahoo.com/mrss/"`)
	assert.Contains(t, out, `<atom:link href="http://blog.example/rss/" rel="self" type="application/rss+xml"`)
}

func TestBuildItem(t *testing.T) {
	builder := testBuilder(t, hooks.NewRegistry())

	post := models.Post{
		Id:          "post-1",
		Title:       "Hello World",
		Slug:        "hello-world",
		Html:        `<p>Read the <a href="/about/">about page</a>.</p>`,
		PublishedAt: publishedAt(1),
		Author:      &models.Author{Id: "a1", Name: "Pat Writer", Slug: "pat"},
		Tags: []models.Tag{
			{Id: "t1", Name: "Go", Slug: "go", Visibility: models.VisibilityPublic},
			{Id: "t2", Name: "hash-internal", Slug: "hash-internal", Visibility: models.VisibilityInternal},
		},
	}

	out, err := builder.Build(context.Background(), testData(post))
	require.NoError(t, err)

	feed, err := gofeed.NewParser().ParseString(out)
	require.NoError(t, err)
	require.Len(t, feed.Items, 1)

	item := feed.Items[0]
	assert.Equal(t, "Hello World", item.Title)
	assert.Equal(t, "post-1", item.GUID)
	assert.Equal(t, "http://blog.example/hello-world/", item.Link)
	assert.Equal(t, []string{"Go"}, item.Categories, "internal tags are filtered out")
	require.NotNil(t, item.PublishedParsed)
	assert.True(t, item.PublishedParsed.Equal(publishedAt(1)))

	// Relative links in the body are absolutized in the encoded content
	assert.Contains(t, item.Content, `href="http://blog.example/about/"`)

	assert.Contains(t, out, `<guid isPermaLink="false">post-1</guid>`)
	assert.Contains(t, out, `<dc:creator>Pat Writer</dc:creator>`)
}

func TestBuildItemOrdering(t *testing.T) {
	builder := testBuilder(t, hooks.NewRegistry())

	// Input order is not chronological on purpose: the builder must not
	// reorder what the fetch layer returns.
	posts := []models.Post{
		{Id: "p1", Title: "First", Slug: "first", Html: "<p>a</p>", PublishedAt: publishedAt(2)},
		{Id: "p2", Title: "Second", Slug: "second", Html: "<p>b</p>", PublishedAt: publishedAt(9)},
		{Id: "p3", Title: "Third", Slug: "third", Html: "<p>c</p>", PublishedAt: publishedAt(5)},
	}

	out, err := builder.Build(context.Background(), testData(posts...))
	require.NoError(t, err)

	feed, err := gofeed.NewParser().ParseString(out)
	require.NoError(t, err)
	require.Len(t, feed.Items, 3)

	assert.Equal(t, "First", feed.Items[0].Title)
	assert.Equal(t, "Second", feed.Items[1].Title)
	assert.Equal(t, "Third", feed.Items[2].Title)
}

func TestBuildDescriptionPrecedence(t *testing.T) {
	longBody := `<p>` + strings.Repeat("word ", 60) + `</p>`

	tests := []struct {
		name     string
		post     models.Post
		expected string
	}{
		{
			name: "custom excerpt wins",
			post: models.Post{
				Id: "p1", Slug: "p1", Title: "T",
				CustomExcerpt:   "E",
				MetaDescription: "M",
				Html:            "<p>B</p>",
				PublishedAt:     publishedAt(1),
			},
			expected: "E",
		},
		{
			name: "meta description next",
			post: models.Post{
				Id: "p2", Slug: "p2", Title: "T",
				MetaDescription: "M",
				Html:            "<p>B</p>",
				PublishedAt:     publishedAt(1),
			},
			expected: "M",
		},
		{
			name: "falls back to the body",
			post: models.Post{
				Id: "p3", Slug: "p3", Title: "T",
				Html:        "<p>B</p>",
				PublishedAt: publishedAt(1),
			},
			expected: "<p>B</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := testBuilder(t, hooks.NewRegistry())

			out, err := builder.Build(context.Background(), testData(tt.post))
			require.NoError(t, err)

			feed, err := gofeed.NewParser().ParseString(out)
			require.NoError(t, err)
			require.Len(t, feed.Items, 1)
			assert.Equal(t, tt.expected, feed.Items[0].Description)
		})
	}

	t.Run("body fallback respects the word budget", func(t *testing.T) {
		builder := testBuilder(t, hooks.NewRegistry())

		post := models.Post{
			Id: "p4", Slug: "p4", Title: "T",
			Html:        longBody,
			PublishedAt: publishedAt(1),
		}

		out, err := builder.Build(context.Background(), testData(post))
		require.NoError(t, err)

		feed, err := gofeed.NewParser().ParseString(out)
		require.NoError(t, err)
		require.Len(t, feed.Items, 1)

		description := feed.Items[0].Description
		assert.Equal(t, 50, len(strings.Fields(strings.TrimPrefix(strings.TrimSuffix(description, "</p>"), "<p>"))))
		assert.True(t, strings.HasSuffix(description, "</p>"), "truncation must not cut inside markup")
	})
}

func TestBuildMediaEmbedding(t *testing.T) {
	builder := testBuilder(t, hooks.NewRegistry())

	post := models.Post{
		Id:           "p1",
		Title:        "With Image",
		Slug:         "with-image",
		Html:         `<p>Body text.</p>`,
		FeatureImage: "/content/images/photo.jpg",
		PublishedAt:  publishedAt(1),
	}

	out, err := builder.Build(context.Background(), testData(post))
	require.NoError(t, err)

	// Structured media reference with the resolved absolute URL
	assert.Contains(t, out, `url="http://blog.example/content/images/photo.jpg" medium="image"`)

	feed, err := gofeed.NewParser().ParseString(out)
	require.NoError(t, err)
	require.Len(t, feed.Items, 1)

	// The encoded content leads with an img carrying the title as alt
	content, err := goquery.NewDocumentFromReader(strings.NewReader(feed.Items[0].Content))
	require.NoError(t, err)

	first := content.Find("body").Children().First()
	require.True(t, first.Is("img"))
	src, _ := first.Attr("src")
	alt, _ := first.Attr("alt")
	assert.Equal(t, "http://blog.example/content/images/photo.jpg", src)
	assert.Equal(t, "With Image", alt)

	// The description is computed before the image is injected
	assert.NotContains(t, feed.Items[0].Description, "<img")
}

func TestBuildItemHookMutation(t *testing.T) {
	registry := hooks.NewRegistry()
	registry.Register(hooks.FeedItem, func(ctx context.Context, value any, args ...any) (any, error) {
		item := value.(*rss.Item)
		post := args[0].(models.Post)
		item.Custom = append(item.Custom, rss.Element{
			XMLName: xml.Name{Local: "sourcePost"},
			Text:    post.Id,
		})
		return item, nil
	})

	builder := testBuilder(t, registry)

	post := models.Post{Id: "p1", Title: "T", Slug: "t", Html: "<p>x</p>", PublishedAt: publishedAt(1)}

	out, err := builder.Build(context.Background(), testData(post))
	require.NoError(t, err)

	assert.Contains(t, out, `<sourcePost>p1</sourcePost>`)
}

func TestBuildFeedHookRejectionAborts(t *testing.T) {
	registry := hooks.NewRegistry()
	registry.Register(hooks.FeedDocument, func(ctx context.Context, value any, args ...any) (any, error) {
		return nil, errors.New("rejected by extension")
	})

	builder := testBuilder(t, registry)

	post := models.Post{Id: "p1", Title: "T", Slug: "t", Html: "<p>x</p>", PublishedAt: publishedAt(1)}

	out, err := builder.Build(context.Background(), testData(post))
	assert.ErrorIs(t, err, rss.ErrBuild)
	assert.Empty(t, out, "no partial document on failure")
}

func TestBuildItemHookRejectionAborts(t *testing.T) {
	registry := hooks.NewRegistry()
	registry.Register(hooks.FeedItem, func(ctx context.Context, value any, args ...any) (any, error) {
		return nil, errors.New("rejected by extension")
	})

	builder := testBuilder(t, registry)

	post := models.Post{Id: "p1", Title: "T", Slug: "t", Html: "<p>x</p>", PublishedAt: publishedAt(1)}

	_, err := builder.Build(context.Background(), testData(post))
	assert.ErrorIs(t, err, rss.ErrBuild)
}
