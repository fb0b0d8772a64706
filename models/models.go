package models

import "time"

// Tag visibility values as stored in the tags table.
const (
	VisibilityPublic   = "public"
	VisibilityInternal = "internal"
)

// Post status values. Only published posts appear in feeds.
const (
	StatusPublished = "published"
	StatusDraft     = "draft"
)

// Channel kinds, one per feed route.
const (
	ChannelIndex  = "index"
	ChannelTag    = "tag"
	ChannelAuthor = "author"
)

// Author of one or more posts
type Author struct {
	Id   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Tag attached to a post. Internal tags are kept out of generated feeds.
type Tag struct {
	Id         string `json:"id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	Visibility string `json:"visibility"`
}

// Post model with the fields that affect feed output
type Post struct {
	Id              string    `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Html            string    `json:"html"`
	CustomExcerpt   string    `json:"customExcerpt,omitempty"`
	MetaDescription string    `json:"metaDescription,omitempty"`
	FeatureImage    string    `json:"featureImage,omitempty"`
	Status          string    `json:"status"`
	PublishedAt     time.Time `json:"publishedAt"`
	Author          *Author   `json:"author,omitempty"`
	Tags            []Tag     `json:"tags,omitempty"`
}

// Channel identifies which feed is being requested
type Channel struct {
	Kind string `json:"kind"`
	Slug string `json:"slug,omitempty"`
}

// Pagination metadata for one fetched page of posts
type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
}

// PostPage is one page of posts resolved for a channel, in
// reverse-chronological order, plus the title prefix used for tag and
// author channels ("Tag Name - ").
type PostPage struct {
	Posts       []Post     `json:"posts"`
	Pagination  Pagination `json:"pagination"`
	TitlePrefix string     `json:"titlePrefix,omitempty"`
}
