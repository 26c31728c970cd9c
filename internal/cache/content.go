package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/phikva/helseapp-sub000/internal/colortag"
	"github.com/phikva/helseapp-sub000/internal/content"
	"github.com/phikva/helseapp-sub000/internal/models"
)

// DefaultTTL is how long cached remote state stays fresh.
const DefaultTTL = 5 * time.Minute

// ContentSnapshot is one consistent view of the cached content. Recipes
// and categories always come from the same refresh, never a mix.
type ContentSnapshot struct {
	Recipes       []models.RecipeSummary
	Categories    []models.Category
	Loading       bool
	Err           error
	LastRefreshed time.Time
}

// ContentCache holds the full recipe and category lists. Readers trigger
// Refresh themselves when Stale reports true; the cache never schedules
// background work.
type ContentCache struct {
	source content.Source
	ttl    time.Duration
	now    func() time.Time
	group  singleflight.Group

	mu            sync.RWMutex
	recipes       []models.RecipeSummary
	categories    []models.Category
	loading       bool
	err           error
	lastRefreshed time.Time
}

func NewContentCache(source content.Source) *ContentCache {
	return &ContentCache{
		source: source,
		ttl:    DefaultTTL,
		now:    time.Now,
	}
}

// Stale reports whether the cache has never been refreshed or its TTL has
// elapsed since the last successful refresh.
func (cache *ContentCache) Stale() bool {
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	if cache.lastRefreshed.IsZero() {
		return true
	}
	return cache.now().Sub(cache.lastRefreshed) > cache.ttl
}

// Refresh fetches recipes and categories and swaps both collections in a
// single atomic update. Concurrent calls share one round trip. A failed
// refresh records the error and keeps the previous snapshot; stale data
// beats an empty screen.
func (cache *ContentCache) Refresh(ctx context.Context) {
	cache.group.Do("refresh", func() (interface{}, error) {
		cache.setLoading(true)
		defer cache.setLoading(false)

		var (
			wg          sync.WaitGroup
			recipes     []models.RecipeSummary
			categories  []models.Category
			recipesErr  error
			categoryErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			recipes, recipesErr = cache.source.AllRecipes(ctx)
		}()
		go func() {
			defer wg.Done()
			categories, categoryErr = cache.source.AllCategories(ctx)
		}()
		wg.Wait()

		cache.mu.Lock()
		defer cache.mu.Unlock()
		if recipesErr != nil {
			cache.err = recipesErr
			return nil, nil
		}
		if categoryErr != nil {
			cache.err = categoryErr
			return nil, nil
		}
		cache.recipes = recipes
		cache.categories = categories
		cache.err = nil
		cache.lastRefreshed = cache.now()
		return nil, nil
	})
}

// Snapshot returns the current state under one lock, so a reader never
// observes recipes from one refresh paired with categories from another.
func (cache *ContentCache) Snapshot() ContentSnapshot {
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	return ContentSnapshot{
		Recipes:       cache.recipes,
		Categories:    cache.categories,
		Loading:       cache.loading,
		Err:           cache.err,
		LastRefreshed: cache.lastRefreshed,
	}
}

// ColorFor resolves the deterministic accent color for a recipe id.
func (cache *ContentCache) ColorFor(recipeID string) colortag.Tag {
	return colortag.For(recipeID)
}

func (cache *ContentCache) setLoading(loading bool) {
	cache.mu.Lock()
	cache.loading = loading
	cache.mu.Unlock()
}
