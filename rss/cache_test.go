package rss_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pressfeed/hooks"
	"pressfeed/models"
	"pressfeed/rss"
)

func testPost(id string, title string) models.Post {
	return models.Post{
		Id:          id,
		Title:       title,
		Slug:        id,
		Html:        "<p>Body of " + title + "</p>",
		PublishedAt: publishedAt(1),
	}
}

func cacheCounters(t *testing.T, cache *rss.Cache) (rebuilds float64, hits float64) {
	t.Helper()
	collectors := cache.Collectors()
	require.Len(t, collectors, 2)
	return testutil.ToFloat64(collectors[0]), testutil.ToFloat64(collectors[1])
}

func TestCacheServesIdenticalContentWithoutRebuilding(t *testing.T) {
	cache := rss.NewCache(testBuilder(t, hooks.NewRegistry()))
	data := testData(testPost("p1", "Hello"))

	first, err := cache.Get(context.Background(), "/rss/", data)
	require.NoError(t, err)

	second, err := cache.Get(context.Background(), "/rss/", data)
	require.NoError(t, err)

	assert.Equal(t, first, second, "cached output must be byte-identical")

	rebuilds, hits := cacheCounters(t, cache)
	assert.Equal(t, 1.0, rebuilds)
	assert.Equal(t, 1.0, hits)
}

func TestCacheInvalidatesOnContentChange(t *testing.T) {
	cache := rss.NewCache(testBuilder(t, hooks.NewRegistry()))

	before, err := cache.Get(context.Background(), "/rss/", testData(testPost("p1", "Old Title")))
	require.NoError(t, err)

	after, err := cache.Get(context.Background(), "/rss/", testData(testPost("p1", "New Title")))
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
	assert.Contains(t, after, "New Title")

	rebuilds, _ := cacheCounters(t, cache)
	assert.Equal(t, 2.0, rebuilds)
}

func TestCacheKeysByPath(t *testing.T) {
	cache := rss.NewCache(testBuilder(t, hooks.NewRegistry()))

	indexData := testData(testPost("p1", "Hello"))
	tagData := testData(testPost("p2", "Tagged"))
	tagData.Title = "Go - Demo Blog"

	_, err := cache.Get(context.Background(), "/rss/", indexData)
	require.NoError(t, err)

	_, err = cache.Get(context.Background(), "/tag/go/rss/", tagData)
	require.NoError(t, err)

	// Both paths keep their own slot
	fromIndex, err := cache.Get(context.Background(), "/rss/", indexData)
	require.NoError(t, err)
	assert.Contains(t, fromIndex, "Hello")

	rebuilds, hits := cacheCounters(t, cache)
	assert.Equal(t, 2.0, rebuilds)
	assert.Equal(t, 1.0, hits)
}

func TestCacheKeepsPreviousDocumentOnBuildFailure(t *testing.T) {
	registry := hooks.NewRegistry()
	registry.Register(hooks.FeedDocument, func(ctx context.Context, value any, args ...any) (any, error) {
		doc := value.(*rss.Document)
		if doc.Channel.Title == "reject me" {
			return nil, errors.New("rejected by extension")
		}
		return value, nil
	})

	cache := rss.NewCache(testBuilder(t, registry))

	good := testData(testPost("p1", "Hello"))
	cached, err := cache.Get(context.Background(), "/rss/", good)
	require.NoError(t, err)

	bad := testData(testPost("p1", "Hello"))
	bad.Title = "reject me"
	_, err = cache.Get(context.Background(), "/rss/", bad)
	require.ErrorIs(t, err, rss.ErrBuild)

	// The failed build did not clobber the stored document
	again, err := cache.Get(context.Background(), "/rss/", good)
	require.NoError(t, err)
	assert.Equal(t, cached, again)

	rebuilds, _ := cacheCounters(t, cache)
	assert.Equal(t, 1.0, rebuilds)
}

func TestCacheConcurrentRequestsSharePath(t *testing.T) {
	cache := rss.NewCache(testBuilder(t, hooks.NewRegistry()))
	data := testData(testPost("p1", "Hello"))

	var wg sync.WaitGroup
	results := make([]string, 8)
	errs := make([]error, 8)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Get(context.Background(), "/rss/", data)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}

	rebuilds, _ := cacheCounters(t, cache)
	assert.Equal(t, 1.0, rebuilds, "concurrent requests must not duplicate the rebuild")
}
