package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/phikva/helseapp-sub000/internal/models"
	"github.com/phikva/helseapp-sub000/internal/relation"
	"github.com/phikva/helseapp-sub000/internal/session"
)

// ProfileSnapshot is one consistent view of the cached profile state.
// SignedOut is the explicit no-session tag: when set, every other field is
// zero and must not be rendered as belonging to anyone.
type ProfileSnapshot struct {
	SignedOut     bool
	Profile       *models.Profile
	Dietary       []models.DietaryRequirement
	Allergies     []models.Allergy
	Cuisines      []models.CuisinePreference
	Budget        *models.Budget
	Portion       *models.PortionSetting
	Loading       bool
	Err           error
	LastRefreshed time.Time
}

// ProfileCache holds the authenticated user's profile and preference
// collections, scoped to the current session. A session change resets the
// cached state on the next refresh so one user's data is never served to
// another.
type ProfileCache struct {
	store    relation.Store
	sessions *session.Manager
	ttl      time.Duration
	now      func() time.Time
	group    singleflight.Group

	mu            sync.RWMutex
	userID        string
	profile       *models.Profile
	dietary       []models.DietaryRequirement
	allergies     []models.Allergy
	cuisines      []models.CuisinePreference
	budget        *models.Budget
	portion       *models.PortionSetting
	loading       bool
	err           error
	lastRefreshed time.Time
}

func NewProfileCache(store relation.Store, sessions *session.Manager) *ProfileCache {
	return &ProfileCache{
		store:    store,
		sessions: sessions,
		ttl:      DefaultTTL,
		now:      time.Now,
	}
}

func (cache *ProfileCache) Stale() bool {
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	if cache.lastRefreshed.IsZero() {
		return true
	}
	return cache.now().Sub(cache.lastRefreshed) > cache.ttl
}

// Refresh reads the profile and all preference collections. A missing row
// is a valid never-configured state; any other failure aborts the refresh,
// records the error and keeps the prior values. Concurrent calls share one
// round trip.
func (cache *ProfileCache) Refresh(ctx context.Context) {
	cache.group.Do("refresh", func() (interface{}, error) {
		current, ok := cache.sessions.Current()
		if !ok {
			cache.ensureUser("")
			return nil, nil
		}
		cache.ensureUser(current.UserID)

		cache.setLoading(true)
		defer cache.setLoading(false)

		profile, err := cache.store.Profile(ctx, current.UserID)
		if err != nil {
			cache.setError(err)
			return nil, nil
		}
		dietary, err := cache.store.DietaryRequirements(ctx, current.UserID)
		if err != nil {
			cache.setError(err)
			return nil, nil
		}
		allergies, err := cache.store.Allergies(ctx, current.UserID)
		if err != nil {
			cache.setError(err)
			return nil, nil
		}
		cuisines, err := cache.store.CuisinePreferences(ctx, current.UserID)
		if err != nil {
			cache.setError(err)
			return nil, nil
		}
		budget, err := cache.store.Budget(ctx, current.UserID)
		if err != nil {
			cache.setError(err)
			return nil, nil
		}
		portion, err := cache.store.Portion(ctx, current.UserID)
		if err != nil {
			cache.setError(err)
			return nil, nil
		}

		cache.mu.Lock()
		defer cache.mu.Unlock()
		cache.profile = profile
		cache.dietary = dietary
		cache.allergies = allergies
		cache.cuisines = cuisines
		cache.budget = budget
		cache.portion = portion
		cache.err = nil
		cache.lastRefreshed = cache.now()
		return nil, nil
	})
}

// Snapshot returns the cached state for the current session. When the
// session is absent or belongs to a different user than the cached state,
// the snapshot reads as signed out / empty rather than leaking stale rows.
func (cache *ProfileCache) Snapshot() ProfileSnapshot {
	current, ok := cache.sessions.Current()

	cache.mu.RLock()
	defer cache.mu.RUnlock()
	if !ok {
		return ProfileSnapshot{SignedOut: true}
	}
	if cache.userID != current.UserID {
		return ProfileSnapshot{}
	}
	return ProfileSnapshot{
		Profile:       cache.profile,
		Dietary:       cache.dietary,
		Allergies:     cache.allergies,
		Cuisines:      cache.cuisines,
		Budget:        cache.budget,
		Portion:       cache.portion,
		Loading:       cache.loading,
		Err:           cache.err,
		LastRefreshed: cache.lastRefreshed,
	}
}

// SaveProfile persists the profile and mirrors it locally on success.
func (cache *ProfileCache) SaveProfile(ctx context.Context, profile models.Profile) error {
	if err := cache.sessions.Require(profile.ID); err != nil {
		return err
	}
	cache.ensureUser(profile.ID)
	if err := cache.store.UpsertProfile(ctx, profile); err != nil {
		return err
	}
	cache.mu.Lock()
	cache.profile = &profile
	cache.mu.Unlock()
	return nil
}

// SaveDietaryRequirements replaces the whole collection, never merging.
// The in-memory copy is only swapped after the store write succeeds.
func (cache *ProfileCache) SaveDietaryRequirements(ctx context.Context, userID string, values []string) error {
	if err := cache.sessions.Require(userID); err != nil {
		return err
	}
	cache.ensureUser(userID)
	rows := make([]models.DietaryRequirement, len(values))
	for i, value := range values {
		rows[i] = models.DietaryRequirement{ProfileID: userID, Value: value}
	}
	if err := cache.store.ReplaceDietaryRequirements(ctx, userID, rows); err != nil {
		return err
	}
	cache.mu.Lock()
	cache.dietary = rows
	cache.mu.Unlock()
	return nil
}

func (cache *ProfileCache) SaveAllergies(ctx context.Context, userID string, values []models.Allergy) error {
	if err := cache.sessions.Require(userID); err != nil {
		return err
	}
	cache.ensureUser(userID)
	for i := range values {
		values[i].ProfileID = userID
	}
	if err := cache.store.ReplaceAllergies(ctx, userID, values); err != nil {
		return err
	}
	cache.mu.Lock()
	cache.allergies = values
	cache.mu.Unlock()
	return nil
}

func (cache *ProfileCache) SaveCuisinePreferences(ctx context.Context, userID string, names []string) error {
	if err := cache.sessions.Require(userID); err != nil {
		return err
	}
	cache.ensureUser(userID)
	rows := make([]models.CuisinePreference, len(names))
	for i, name := range names {
		rows[i] = models.CuisinePreference{ProfileID: userID, Name: name}
	}
	if err := cache.store.ReplaceCuisinePreferences(ctx, userID, rows); err != nil {
		return err
	}
	cache.mu.Lock()
	cache.cuisines = rows
	cache.mu.Unlock()
	return nil
}

func (cache *ProfileCache) SaveBudget(ctx context.Context, budget models.Budget) error {
	if err := cache.sessions.Require(budget.ProfileID); err != nil {
		return err
	}
	cache.ensureUser(budget.ProfileID)
	if err := cache.store.UpsertBudget(ctx, budget); err != nil {
		return err
	}
	cache.mu.Lock()
	cache.budget = &budget
	cache.mu.Unlock()
	return nil
}

func (cache *ProfileCache) SavePortion(ctx context.Context, portion models.PortionSetting) error {
	if err := cache.sessions.Require(portion.ProfileID); err != nil {
		return err
	}
	cache.ensureUser(portion.ProfileID)
	if err := cache.store.UpsertPortion(ctx, portion); err != nil {
		return err
	}
	cache.mu.Lock()
	cache.portion = &portion
	cache.mu.Unlock()
	return nil
}

// ensureUser binds the cached state to userID, resetting it when the user
// changed. Mutations call it before mirroring so their writes are visible
// in snapshots even before the first refresh.
func (cache *ProfileCache) ensureUser(userID string) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	if cache.userID == userID {
		return
	}
	cache.userID = userID
	cache.profile = nil
	cache.dietary = nil
	cache.allergies = nil
	cache.cuisines = nil
	cache.budget = nil
	cache.portion = nil
	cache.err = nil
	cache.lastRefreshed = time.Time{}
}

func (cache *ProfileCache) setError(err error) {
	cache.mu.Lock()
	cache.err = err
	cache.mu.Unlock()
}

func (cache *ProfileCache) setLoading(loading bool) {
	cache.mu.Lock()
	cache.loading = loading
	cache.mu.Unlock()
}
