package rss

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// Cache keeps the last generated document per channel path, keyed by a
// content hash of the build input. An entry is replaced only when the
// hash changes; there is no time-based expiry and the key set never
// shrinks, which is fine because it equals the set of feed paths served
// by the deployment.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	builder *Builder

	rebuilds prometheus.Counter
	hits     prometheus.Counter
}

// cacheEntry is one {hash, xml} slot. Its mutex serializes rebuilds for
// the path, so a concurrent request for the same path waits for the
// in-flight rebuild instead of duplicating it.
type cacheEntry struct {
	mu   sync.Mutex
	hash string
	xml  string
}

func NewCache(builder *Builder) *Cache {
	return &Cache{
		entries: make(map[string]*cacheEntry),
		builder: builder,
		rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pressfeed_feed_rebuilds_total",
			Help: "Number of feed documents generated after a cache miss or content change",
		}),
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pressfeed_feed_cache_hits_total",
			Help: "Number of feed requests served from the cache",
		}),
	}
}

// Collectors exposes the cache metrics for registration by the caller
func (c *Cache) Collectors() []prometheus.Collector {
	return []prometheus.Collector{c.rebuilds, c.hits}
}

// Get returns the serialized feed for path, rebuilding it first when the
// content hash of data differs from the cached one. A failed build
// returns the error and leaves any previously cached document untouched.
func (c *Cache) Get(ctx context.Context, path string, data Data) (string, error) {
	c.mu.Lock()
	entry, ok := c.entries[path]
	if !ok {
		entry = &cacheEntry{}
		c.entries[path] = entry
	}
	c.mu.Unlock()

	hash := data.Hash()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.xml != "" && entry.hash == hash {
		c.hits.Inc()
		return entry.xml, nil
	}

	xml, err := c.builder.Build(ctx, data)
	if err != nil {
		return "", err
	}

	entry.hash = hash
	entry.xml = xml
	c.rebuilds.Inc()

	log.WithFields(log.Fields{
		"path": path,
		"hash": hash[:8],
	}).Info("Regenerated feed")

	return xml, nil
}
