package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/phikva/helseapp-sub000/internal/content"
	"github.com/phikva/helseapp-sub000/internal/models"
)

// RecipeDetails memoizes single-recipe lookups for the process lifetime.
// Recipe content is treated as immutable within a session, so entries never
// expire. Concurrent requests for the same uncached id share one fetch.
type RecipeDetails struct {
	source content.Source
	group  singleflight.Group

	mu      sync.RWMutex
	recipes map[string]models.Recipe
}

func NewRecipeDetails(source content.Source) *RecipeDetails {
	return &RecipeDetails{
		source:  source,
		recipes: make(map[string]models.Recipe),
	}
}

// Get returns the recipe for id, fetching it at most once. A failed fetch
// caches nothing; the next call retries.
func (cache *RecipeDetails) Get(ctx context.Context, id string) (models.Recipe, error) {
	cache.mu.RLock()
	recipe, ok := cache.recipes[id]
	cache.mu.RUnlock()
	if ok {
		return recipe, nil
	}

	result, err, _ := cache.group.Do(id, func() (interface{}, error) {
		cache.mu.RLock()
		cached, ok := cache.recipes[id]
		cache.mu.RUnlock()
		if ok {
			return cached, nil
		}

		fetched, err := cache.source.RecipeByID(ctx, id)
		if err != nil {
			return nil, err
		}

		cache.mu.Lock()
		cache.recipes[id] = fetched
		cache.mu.Unlock()
		return fetched, nil
	})
	if err != nil {
		return models.Recipe{}, err
	}
	return result.(models.Recipe), nil
}

// Len reports how many recipes are held, for diagnostics.
func (cache *RecipeDetails) Len() int {
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	return len(cache.recipes)
}
