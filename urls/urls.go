package urls

import (
	"fmt"
	"net/url"
	"strings"

	"pressfeed/models"
)

// Resolver turns resource references into absolute URLs rooted at the
// configured site URL. The secure flag forces the https scheme so that
// feeds requested over TLS never mix in plain http self-references.
type Resolver struct {
	site *url.URL
}

func NewResolver(siteUrl string) (*Resolver, error) {
	parsed, err := url.Parse(siteUrl)
	if err != nil {
		return nil, fmt.Errorf("invalid site url %q: %w", siteUrl, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("site url %q must be absolute", siteUrl)
	}
	// Normalize away any trailing slash so joins are predictable
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")

	return &Resolver{site: parsed}, nil
}

// Home returns the absolute site URL with a trailing slash
func (r *Resolver) Home(secure bool) string {
	return r.Absolute("/", secure)
}

// Post returns the canonical absolute URL for a post
func (r *Resolver) Post(post models.Post, secure bool) string {
	return r.Absolute("/"+post.Slug+"/", secure)
}

// Image resolves an image reference. Already-absolute references pass
// through untouched apart from the secure-scheme rule.
func (r *Resolver) Image(ref string, secure bool) string {
	parsed, err := url.Parse(ref)
	if err == nil && parsed.IsAbs() {
		if secure {
			parsed.Scheme = "https"
		}
		return parsed.String()
	}
	return r.Absolute("/"+strings.TrimPrefix(ref, "/"), secure)
}

// Favicon returns the absolute URL of the site favicon, used as the
// channel image of generated feeds.
func (r *Resolver) Favicon(secure bool) string {
	return r.Absolute("/favicon.png", secure)
}

// Absolute resolves a site-relative path to an absolute URL
func (r *Resolver) Absolute(relPath string, secure bool) string {
	resolved := *r.site
	if secure {
		resolved.Scheme = "https"
	}
	if !strings.HasPrefix(relPath, "/") {
		relPath = "/" + relPath
	}
	resolved.Path = r.site.Path + relPath
	return resolved.String()
}
