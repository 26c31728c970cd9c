package cache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/phikva/helseapp-sub000/internal/models"
	"github.com/phikva/helseapp-sub000/internal/repository"
	"github.com/phikva/helseapp-sub000/internal/session"
	"github.com/phikva/helseapp-sub000/internal/testutil"
)

type fakeSource struct {
	mu            sync.Mutex
	recipes       []models.RecipeSummary
	categories    []models.Category
	details       map[string]models.Recipe
	listErr       error
	detailErr     map[string]error
	recipeCalls   int
	categoryCalls int
	detailCalls   map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		details:     make(map[string]models.Recipe),
		detailErr:   make(map[string]error),
		detailCalls: make(map[string]int),
	}
}

func (source *fakeSource) AllRecipes(ctx context.Context) ([]models.RecipeSummary, error) {
	source.mu.Lock()
	defer source.mu.Unlock()
	source.recipeCalls++
	if source.listErr != nil {
		return nil, source.listErr
	}
	return source.recipes, nil
}

func (source *fakeSource) AllCategories(ctx context.Context) ([]models.Category, error) {
	source.mu.Lock()
	defer source.mu.Unlock()
	source.categoryCalls++
	if source.listErr != nil {
		return nil, source.listErr
	}
	return source.categories, nil
}

func (source *fakeSource) RecipeByID(ctx context.Context, id string) (models.Recipe, error) {
	source.mu.Lock()
	defer source.mu.Unlock()
	source.detailCalls[id]++
	if err := source.detailErr[id]; err != nil {
		return models.Recipe{}, err
	}
	recipe, ok := source.details[id]
	if !ok {
		return models.Recipe{}, errors.New("recipe not found")
	}
	return recipe, nil
}

func (source *fakeSource) DietaryOptions(ctx context.Context) ([]string, error) { return nil, nil }
func (source *fakeSource) AllergyOptions(ctx context.Context) ([]string, error) { return nil, nil }
func (source *fakeSource) CuisineOptions(ctx context.Context) ([]string, error) { return nil, nil }

type savedKey struct {
	profileID string
	recipeID  string
}

type fakeStore struct {
	mu       sync.Mutex
	profiles map[string]models.Profile
	dietary  map[string][]models.DietaryRequirement
	allergy  map[string][]models.Allergy
	cuisines map[string][]models.CuisinePreference
	budgets  map[string]models.Budget
	portions map[string]models.PortionSetting
	saved    map[savedKey]models.SavedRecipe

	readErr     error
	writeErr    error
	upsertCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles: make(map[string]models.Profile),
		dietary:  make(map[string][]models.DietaryRequirement),
		allergy:  make(map[string][]models.Allergy),
		cuisines: make(map[string][]models.CuisinePreference),
		budgets:  make(map[string]models.Budget),
		portions: make(map[string]models.PortionSetting),
		saved:    make(map[savedKey]models.SavedRecipe),
	}
}

func (store *fakeStore) Profile(ctx context.Context, profileID string) (*models.Profile, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.readErr != nil {
		return nil, store.readErr
	}
	profile, ok := store.profiles[profileID]
	if !ok {
		return nil, nil
	}
	return &profile, nil
}

func (store *fakeStore) UpsertProfile(ctx context.Context, profile models.Profile) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.writeErr != nil {
		return store.writeErr
	}
	store.profiles[profile.ID] = profile
	return nil
}

func (store *fakeStore) DietaryRequirements(ctx context.Context, profileID string) ([]models.DietaryRequirement, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.readErr != nil {
		return nil, store.readErr
	}
	return store.dietary[profileID], nil
}

func (store *fakeStore) ReplaceDietaryRequirements(ctx context.Context, profileID string, values []models.DietaryRequirement) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.writeErr != nil {
		return store.writeErr
	}
	store.dietary[profileID] = values
	return nil
}

func (store *fakeStore) Allergies(ctx context.Context, profileID string) ([]models.Allergy, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.readErr != nil {
		return nil, store.readErr
	}
	return store.allergy[profileID], nil
}

func (store *fakeStore) ReplaceAllergies(ctx context.Context, profileID string, values []models.Allergy) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.writeErr != nil {
		return store.writeErr
	}
	store.allergy[profileID] = values
	return nil
}

func (store *fakeStore) CuisinePreferences(ctx context.Context, profileID string) ([]models.CuisinePreference, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.readErr != nil {
		return nil, store.readErr
	}
	return store.cuisines[profileID], nil
}

func (store *fakeStore) ReplaceCuisinePreferences(ctx context.Context, profileID string, values []models.CuisinePreference) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.writeErr != nil {
		return store.writeErr
	}
	store.cuisines[profileID] = values
	return nil
}

func (store *fakeStore) Budget(ctx context.Context, profileID string) (*models.Budget, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.readErr != nil {
		return nil, store.readErr
	}
	budget, ok := store.budgets[profileID]
	if !ok {
		return nil, nil
	}
	return &budget, nil
}

func (store *fakeStore) UpsertBudget(ctx context.Context, budget models.Budget) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.writeErr != nil {
		return store.writeErr
	}
	store.budgets[budget.ProfileID] = budget
	return nil
}

func (store *fakeStore) Portion(ctx context.Context, profileID string) (*models.PortionSetting, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.readErr != nil {
		return nil, store.readErr
	}
	portion, ok := store.portions[profileID]
	if !ok {
		return nil, nil
	}
	return &portion, nil
}

func (store *fakeStore) UpsertPortion(ctx context.Context, portion models.PortionSetting) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.writeErr != nil {
		return store.writeErr
	}
	store.portions[portion.ProfileID] = portion
	return nil
}

func (store *fakeStore) SavedRecipes(ctx context.Context, profileID string) ([]models.SavedRecipe, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.readErr != nil {
		return nil, store.readErr
	}
	var links []models.SavedRecipe
	for key, link := range store.saved {
		if key.profileID == profileID {
			links = append(links, link)
		}
	}
	return links, nil
}

func (store *fakeStore) FavoriteRecipes(ctx context.Context, profileID string) ([]models.SavedRecipe, error) {
	all, err := store.SavedRecipes(ctx, profileID)
	if err != nil {
		return nil, err
	}
	var favorites []models.SavedRecipe
	for _, link := range all {
		if link.Favorite {
			favorites = append(favorites, link)
		}
	}
	return favorites, nil
}

func (store *fakeStore) UpsertSavedRecipe(ctx context.Context, link models.SavedRecipe) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.upsertCalls++
	if store.writeErr != nil {
		return store.writeErr
	}
	store.saved[savedKey{link.ProfileID, link.RecipeID}] = link
	return nil
}

func (store *fakeStore) DeleteSavedRecipe(ctx context.Context, profileID, recipeID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.writeErr != nil {
		return store.writeErr
	}
	delete(store.saved, savedKey{profileID, recipeID})
	return nil
}

// newTestSessions returns a manager signed in as userID, backed by an
// in-memory settings store.
func newTestSessions(t *testing.T, userID string) *session.Manager {
	t.Helper()

	db := testutil.NewTestDatabase(t)
	manager := session.NewManager([]byte("0123456789abcdef0123456789abcdef"), repository.NewSettingsRepository(db))
	if userID != "" {
		if err := manager.SetCurrent(context.Background(), session.Session{UserID: userID}); err != nil {
			t.Fatalf("setting session: %v", err)
		}
	}
	return manager
}
