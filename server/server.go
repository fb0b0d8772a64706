package server

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"pressfeed/db"
	"pressfeed/models"
	"pressfeed/rss"
	"pressfeed/urls"
)

// Message key owned by the i18n layer; the server only signals the kind.
const pageNotFoundKey = "errors.pageNotFound"

// PostSource resolves a channel and page to a page of posts
type PostSource interface {
	FetchPage(ctx context.Context, channel models.Channel, page int, perPage int) (*models.PostPage, error)
}

type ServerConfig struct {

	// Site title and description used as channel metadata
	SiteTitle       string
	SiteDescription string

	// Version string reported in the feed generator element
	Version string

	// Number of posts per feed page
	PostsPerPage int

	// The source to use for fetching posts
	Source PostSource

	// The cache serving generated feed documents
	Cache *rss.Cache

	// Resolver for site, feed, post and image URLs
	Resolver *urls.Resolver

	// Optional metrics registry; mounts /metrics when set
	Metrics *prometheus.Registry
}

// Returns a fiber.App instance to be used as an HTTP server for the
// pressfeed feeds
func Server(config *ServerConfig) *fiber.App {

	app := fiber.New()

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		// start timer
		start := time.Now()

		// next routes
		err := c.Next()

		// stop timer
		stop := time.Now()

		log.WithFields(log.Fields{
			"method":  c.Method(),
			"route":   c.Route().Path,
			"latency": stop.Sub(start),
		}).Info("Request")
		return err
	})

	app.Use(requestid.New(requestid.ConfigDefault))
	app.Use(compress.New())

	app.Get("/rss/:page?", generateFeed(config, models.ChannelIndex))
	app.Get("/tag/:slug/rss/:page?", generateFeed(config, models.ChannelTag))
	app.Get("/author/:slug/rss/:page?", generateFeed(config, models.ChannelAuthor))

	if config.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(config.Metrics, promhttp.HandlerOpts{})))
	}

	return app
}

// generateFeed is the request orchestrator: it resolves the page number
// and base path, fetches the channel's posts, rejects out-of-range pages
// and serves the cached or regenerated document.
func generateFeed(config *ServerConfig, kind string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pageParam := c.Params("page")
		page := 1
		if pageParam != "" {
			parsed, err := strconv.Atoi(pageParam)
			if err != nil || parsed < 1 {
				return c.Status(fiber.StatusNotFound).SendString(pageNotFoundKey)
			}
			page = parsed
		}

		channel := models.Channel{Kind: kind, Slug: c.Params("slug")}

		// Base path is the feed path without the pagination segment; it
		// doubles as the cache key.
		basePath := feedBasePath(c.Path(), pageParam)

		result, err := config.Source.FetchPage(c.UserContext(), channel, page, config.PostsPerPage)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).SendString(pageNotFoundKey)
			}
			log.WithFields(log.Fields{
				"path":  basePath,
				"error": err,
			}).Error("Error fetching posts for feed")
			return c.Status(fiber.StatusInternalServerError).SendString("Error generating feed")
		}

		// Reject rather than clamp when the page runs past the channel
		if page > result.Pagination.Pages {
			return c.Status(fiber.StatusNotFound).SendString(pageNotFoundKey)
		}

		secure := c.Protocol() == "https"
		data := rss.Data{
			Title:       result.TitlePrefix + config.SiteTitle,
			Description: config.SiteDescription,
			Version:     config.Version,
			SiteUrl:     config.Resolver.Home(secure),
			FeedUrl:     config.Resolver.Absolute(basePath, secure),
			Secure:      secure,
			Posts:       result.Posts,
		}

		xml, err := config.Cache.Get(c.UserContext(), basePath, data)
		if err != nil {
			log.WithFields(log.Fields{
				"path":  basePath,
				"error": err,
			}).Error("Error generating feed")
			return c.Status(fiber.StatusInternalServerError).SendString("Error generating feed")
		}

		c.Set(fiber.HeaderContentType, "text/xml; charset=UTF-8")
		return c.SendString(xml)
	}
}

// feedBasePath strips the pagination segment from the request path and
// normalizes the trailing slash
func feedBasePath(path string, pageParam string) string {
	trimmed := strings.TrimSuffix(path, "/")
	if pageParam != "" {
		trimmed = strings.TrimSuffix(trimmed, "/"+pageParam)
	}
	return trimmed + "/"
}
