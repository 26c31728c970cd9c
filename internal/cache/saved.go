package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/phikva/helseapp-sub000/internal/models"
	"github.com/phikva/helseapp-sub000/internal/relation"
	"github.com/phikva/helseapp-sub000/internal/session"
)

// loadTimeout bounds a saved-recipe load so a hung backend cannot pin the
// UI in a loading state. A timeout counts as an ordinary fetch failure.
const loadTimeout = 5 * time.Second

// SavedSnapshot is one consistent view of the user's saved and favorited
// recipes, each link enriched with its full recipe document.
type SavedSnapshot struct {
	SignedOut     bool
	Saved         []models.SavedRecipeDetail
	Favorites     []models.SavedRecipeDetail
	Loading       bool
	Err           error
	LastRefreshed time.Time
}

// SavedRecipes caches the user's saved-recipe links. Raw links from the
// relation store are enriched through the recipe detail cache; a link whose
// recipe lookup fails is dropped rather than surfaced broken.
type SavedRecipes struct {
	store    relation.Store
	details  *RecipeDetails
	sessions *session.Manager
	ttl      time.Duration
	now      func() time.Time
	group    singleflight.Group

	mu            sync.RWMutex
	userID        string
	saved         []models.SavedRecipeDetail
	favorites     []models.SavedRecipeDetail
	loading       bool
	err           error
	lastRefreshed time.Time
}

func NewSavedRecipes(store relation.Store, details *RecipeDetails, sessions *session.Manager) *SavedRecipes {
	return &SavedRecipes{
		store:    store,
		details:  details,
		sessions: sessions,
		ttl:      DefaultTTL,
		now:      time.Now,
	}
}

func (cache *SavedRecipes) Stale() bool {
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	if cache.lastRefreshed.IsZero() {
		return true
	}
	return cache.now().Sub(cache.lastRefreshed) > cache.ttl
}

// Refresh reloads all saved links and re-derives the favorites view from
// them. Concurrent calls share one round trip.
func (cache *SavedRecipes) Refresh(ctx context.Context) {
	cache.group.Do("refresh", func() (interface{}, error) {
		current, ok := cache.sessions.Current()
		if !ok {
			cache.ensureUser("")
			return nil, nil
		}
		cache.ensureUser(current.UserID)

		cache.setLoading(true)
		defer cache.setLoading(false)

		ctx, cancel := context.WithTimeout(ctx, loadTimeout)
		defer cancel()

		links, err := cache.store.SavedRecipes(ctx, current.UserID)
		if err != nil {
			cache.setError(err)
			return nil, nil
		}
		enriched := cache.enrich(ctx, links)

		var favorites []models.SavedRecipeDetail
		for _, link := range enriched {
			if link.Favorite {
				favorites = append(favorites, link)
			}
		}

		cache.mu.Lock()
		defer cache.mu.Unlock()
		cache.saved = enriched
		cache.favorites = favorites
		cache.err = nil
		cache.lastRefreshed = cache.now()
		return nil, nil
	})
}

// RefreshFavorites reloads only the favorited links, leaving the full
// saved list untouched.
func (cache *SavedRecipes) RefreshFavorites(ctx context.Context) {
	cache.group.Do("refresh-favorites", func() (interface{}, error) {
		current, ok := cache.sessions.Current()
		if !ok {
			cache.ensureUser("")
			return nil, nil
		}
		cache.ensureUser(current.UserID)

		cache.setLoading(true)
		defer cache.setLoading(false)

		ctx, cancel := context.WithTimeout(ctx, loadTimeout)
		defer cancel()

		links, err := cache.store.FavoriteRecipes(ctx, current.UserID)
		if err != nil {
			cache.setError(err)
			return nil, nil
		}
		enriched := cache.enrich(ctx, links)

		cache.mu.Lock()
		defer cache.mu.Unlock()
		cache.favorites = enriched
		cache.err = nil
		return nil, nil
	})
}

func (cache *SavedRecipes) Snapshot() SavedSnapshot {
	current, ok := cache.sessions.Current()

	cache.mu.RLock()
	defer cache.mu.RUnlock()
	if !ok {
		return SavedSnapshot{SignedOut: true}
	}
	if cache.userID != current.UserID {
		return SavedSnapshot{}
	}
	return SavedSnapshot{
		Saved:         cache.saved,
		Favorites:     cache.favorites,
		Loading:       cache.loading,
		Err:           cache.err,
		LastRefreshed: cache.lastRefreshed,
	}
}

// Save upserts a saved-recipe link. Existing notes are preserved; saving
// an already-saved recipe updates its row instead of duplicating it.
func (cache *SavedRecipes) Save(ctx context.Context, userID, recipeID string, favorite bool) error {
	if err := cache.sessions.Require(userID); err != nil {
		return err
	}
	cache.ensureUser(userID)

	link := models.SavedRecipe{ProfileID: userID, RecipeID: recipeID, Favorite: favorite}
	if existing, ok := cache.find(recipeID); ok {
		link.ID = existing.ID
		link.Notes = existing.Notes
		link.SavedAt = existing.SavedAt
	}
	if err := cache.store.UpsertSavedRecipe(ctx, link); err != nil {
		return err
	}

	recipe, err := cache.details.Get(ctx, recipeID)
	if err != nil {
		// The write went through; the mirror catches up on next refresh.
		slog.Warn("saved recipe without detail", "recipe", recipeID, "error", err)
		return nil
	}
	cache.mirror(models.SavedRecipeDetail{SavedRecipe: link, Recipe: recipe})
	return nil
}

// UpdateNotes overwrites the notes on an existing link.
func (cache *SavedRecipes) UpdateNotes(ctx context.Context, userID, recipeID, notes string) error {
	if err := cache.sessions.Require(userID); err != nil {
		return err
	}
	cache.ensureUser(userID)
	existing, ok := cache.find(recipeID)
	if !ok {
		existing = models.SavedRecipeDetail{
			SavedRecipe: models.SavedRecipe{ProfileID: userID, RecipeID: recipeID},
		}
	}
	link := existing.SavedRecipe
	link.Notes = notes
	if err := cache.store.UpsertSavedRecipe(ctx, link); err != nil {
		return err
	}
	existing.SavedRecipe = link
	cache.mirror(existing)
	return nil
}

// ToggleFavorite flips the favorite flag from the in-memory state and
// persists it. The local mirror updates immediately for UI responsiveness;
// the relation store stays the source of truth on the next refresh.
func (cache *SavedRecipes) ToggleFavorite(ctx context.Context, userID, recipeID string) error {
	if err := cache.sessions.Require(userID); err != nil {
		return err
	}
	cache.ensureUser(userID)

	link := models.SavedRecipe{ProfileID: userID, RecipeID: recipeID, Favorite: true}
	if existing, ok := cache.find(recipeID); ok {
		link = existing.SavedRecipe
		link.Favorite = !link.Favorite
	}
	if err := cache.store.UpsertSavedRecipe(ctx, link); err != nil {
		return err
	}

	recipe, err := cache.details.Get(ctx, recipeID)
	if err != nil {
		slog.Warn("toggled favorite without detail", "recipe", recipeID, "error", err)
		return nil
	}
	cache.mirror(models.SavedRecipeDetail{SavedRecipe: link, Recipe: recipe})
	return nil
}

// Remove deletes the link for (userID, recipeID).
func (cache *SavedRecipes) Remove(ctx context.Context, userID, recipeID string) error {
	if err := cache.sessions.Require(userID); err != nil {
		return err
	}
	cache.ensureUser(userID)
	if err := cache.store.DeleteSavedRecipe(ctx, userID, recipeID); err != nil {
		return err
	}

	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.saved = withoutRecipe(cache.saved, recipeID)
	cache.favorites = withoutRecipe(cache.favorites, recipeID)
	return nil
}

func (cache *SavedRecipes) enrich(ctx context.Context, links []models.SavedRecipe) []models.SavedRecipeDetail {
	enriched := make([]models.SavedRecipeDetail, 0, len(links))
	for _, link := range links {
		recipe, err := cache.details.Get(ctx, link.RecipeID)
		if err != nil {
			slog.Warn("dropping saved recipe without detail", "recipe", link.RecipeID, "error", err)
			continue
		}
		enriched = append(enriched, models.SavedRecipeDetail{SavedRecipe: link, Recipe: recipe})
	}
	return enriched
}

func (cache *SavedRecipes) find(recipeID string) (models.SavedRecipeDetail, bool) {
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	for _, link := range cache.saved {
		if link.RecipeID == recipeID {
			return link, true
		}
	}
	for _, link := range cache.favorites {
		if link.RecipeID == recipeID {
			return link, true
		}
	}
	return models.SavedRecipeDetail{}, false
}

// mirror applies a mutation's result to the in-memory lists.
func (cache *SavedRecipes) mirror(detail models.SavedRecipeDetail) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	cache.saved = withoutRecipe(cache.saved, detail.RecipeID)
	cache.saved = append(cache.saved, detail)

	cache.favorites = withoutRecipe(cache.favorites, detail.RecipeID)
	if detail.Favorite {
		cache.favorites = append(cache.favorites, detail)
	}
}

func (cache *SavedRecipes) ensureUser(userID string) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	if cache.userID == userID {
		return
	}
	cache.userID = userID
	cache.saved = nil
	cache.favorites = nil
	cache.err = nil
	cache.lastRefreshed = time.Time{}
}

func (cache *SavedRecipes) setError(err error) {
	cache.mu.Lock()
	cache.err = err
	cache.mu.Unlock()
}

func (cache *SavedRecipes) setLoading(loading bool) {
	cache.mu.Lock()
	cache.loading = loading
	cache.mu.Unlock()
}

// withoutRecipe copies rather than filters in place; snapshots handed to
// readers share the old backing array.
func withoutRecipe(links []models.SavedRecipeDetail, recipeID string) []models.SavedRecipeDetail {
	out := make([]models.SavedRecipeDetail, 0, len(links))
	for _, link := range links {
		if link.RecipeID != recipeID {
			out = append(out, link)
		}
	}
	return out
}
