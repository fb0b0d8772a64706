package rss

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	"pressfeed/hooks"
	"pressfeed/markup"
	"pressfeed/models"
	"pressfeed/urls"
)

// ErrBuild marks a failure while assembling the feed document. A failed
// build never produces a partial document and never touches the cache.
var ErrBuild = errors.New("feed build failed")

// descriptionWordLimit bounds the generated item description when a post
// carries neither a custom excerpt nor a meta description.
const descriptionWordLimit = 50

// feedTTL is the ttl element value in minutes
const feedTTL = 60

// Builder assembles and serializes one feed document per call. It owns
// the transformation from posts into feed items and delegates URL
// resolution and extension invocation to its collaborators.
type Builder struct {
	urls  *urls.Resolver
	hooks *hooks.Registry
}

func NewBuilder(resolver *urls.Resolver, registry *hooks.Registry) *Builder {
	return &Builder{
		urls:  resolver,
		hooks: registry,
	}
}

// Build turns the input data into a serialized RSS document. Items keep
// the order of data.Posts. Any item, hook or serialization failure aborts
// the build.
func (b *Builder) Build(ctx context.Context, data Data) (string, error) {
	doc := newDocument(&Channel{
		Title:       data.Title,
		Link:        data.SiteUrl,
		Description: data.Description,
		Generator:   "pressfeed " + data.Version,
		TTL:         feedTTL,
		Image: &ChannelImage{
			Url:   b.urls.Favicon(data.Secure),
			Title: data.Title,
			Link:  data.SiteUrl,
		},
		AtomLink: &AtomLink{
			Href: data.FeedUrl,
			Rel:  "self",
			Type: "application/rss+xml",
		},
	})

	for _, post := range data.Posts {
		item, err := b.buildItem(ctx, post, data)
		if err != nil {
			return "", err
		}
		doc.Channel.Items = append(doc.Channel.Items, item)
	}

	out, err := b.hooks.Run(ctx, hooks.FeedDocument, doc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBuild, err)
	}
	if mutated, ok := out.(*Document); ok {
		doc = mutated
	}

	return doc.Serialize()
}

func (b *Builder) buildItem(ctx context.Context, post models.Post, data Data) (*Item, error) {
	itemUrl := b.urls.Post(post, data.Secure)

	body, err := markup.Absolutize(post.Html, itemUrl)
	if err != nil {
		return nil, fmt.Errorf("%w: post %s: %v", ErrBuild, post.Id, err)
	}

	item := &Item{
		Title:       post.Title,
		Description: b.description(post, body),
		Link:        itemUrl,
		Guid:        Guid{IsPermaLink: "false", Value: post.Id},
		Categories:  categories(post.Tags),
		PubDate:     post.PublishedAt.UTC().Format(time.RFC1123Z),
	}
	if post.Author != nil {
		item.Creator = post.Author.Name
	}

	if post.FeatureImage != "" {
		imageUrl := b.urls.Image(post.FeatureImage, data.Secure)

		// Structured media reference plus an inline img for readers that
		// do not support media:content
		item.Media = &MediaContent{Url: imageUrl, Medium: "image"}
		body.InjectImage(imageUrl, post.Title)
	}

	encoded, err := body.HTML()
	if err != nil {
		return nil, fmt.Errorf("%w: post %s: %v", ErrBuild, post.Id, err)
	}
	item.Content = &EncodedContent{Text: encoded}

	out, err := b.hooks.Run(ctx, hooks.FeedItem, item, post)
	if err != nil {
		return nil, fmt.Errorf("%w: post %s: %v", ErrBuild, post.Id, err)
	}
	if mutated, ok := out.(*Item); ok {
		item = mutated
	}

	return item, nil
}

// description picks the item description: the custom excerpt wins, then
// the meta description, then the absolutized body cut down to the word
// budget. Callers must invoke this before any image injection.
func (b *Builder) description(post models.Post, body *markup.Doc) string {
	if post.CustomExcerpt != "" {
		return post.CustomExcerpt
	}
	if post.MetaDescription != "" {
		return post.MetaDescription
	}
	absolutized, err := body.HTML()
	if err != nil {
		return ""
	}
	return markup.TruncateWords(absolutized, descriptionWordLimit)
}

// categories maps tags to category names, dropping internal tags
func categories(tags []models.Tag) []string {
	return lo.FilterMap(tags, func(tag models.Tag, _ int) (string, bool) {
		return tag.Name, tag.Visibility != models.VisibilityInternal
	})
}
