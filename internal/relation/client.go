package relation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/phikva/helseapp-sub000/internal/models"
	"github.com/phikva/helseapp-sub000/internal/session"
)

// Store is the read/write collaborator for user-owned rows. All access is
// scoped to the authenticated profile by the backend's row-level security;
// the client still passes explicit profile ids so intent is auditable.
//
// Absence is not an error: single-row reads return nil, list reads return
// an empty slice.
type Store interface {
	Profile(ctx context.Context, profileID string) (*models.Profile, error)
	UpsertProfile(ctx context.Context, profile models.Profile) error

	DietaryRequirements(ctx context.Context, profileID string) ([]models.DietaryRequirement, error)
	ReplaceDietaryRequirements(ctx context.Context, profileID string, values []models.DietaryRequirement) error
	Allergies(ctx context.Context, profileID string) ([]models.Allergy, error)
	ReplaceAllergies(ctx context.Context, profileID string, values []models.Allergy) error
	CuisinePreferences(ctx context.Context, profileID string) ([]models.CuisinePreference, error)
	ReplaceCuisinePreferences(ctx context.Context, profileID string, values []models.CuisinePreference) error

	Budget(ctx context.Context, profileID string) (*models.Budget, error)
	UpsertBudget(ctx context.Context, budget models.Budget) error
	Portion(ctx context.Context, profileID string) (*models.PortionSetting, error)
	UpsertPortion(ctx context.Context, portion models.PortionSetting) error

	SavedRecipes(ctx context.Context, profileID string) ([]models.SavedRecipe, error)
	FavoriteRecipes(ctx context.Context, profileID string) ([]models.SavedRecipe, error)
	UpsertSavedRecipe(ctx context.Context, saved models.SavedRecipe) error
	DeleteSavedRecipe(ctx context.Context, profileID, recipeID string) error
}

// Client talks to the relational backend's REST rows API. Requests carry
// the project api key plus, when a session is active, the session's bearer
// token from Tokens.
type Client struct {
	BaseURL    string
	APIKey     string
	Tokens     oauth2.TokenSource
	HTTPClient *http.Client
}

func NewClient(baseURL, apiKey string, tokens oauth2.TokenSource) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Tokens:     tokens,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (client *Client) Profile(ctx context.Context, profileID string) (*models.Profile, error) {
	var rows []models.Profile
	if err := client.list(ctx, "profile", eq("id", profileID), &rows); err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (client *Client) UpsertProfile(ctx context.Context, profile models.Profile) error {
	profile.UpdatedAt = time.Now()
	if err := client.upsert(ctx, "profile", "id", profile); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

func (client *Client) DietaryRequirements(ctx context.Context, profileID string) ([]models.DietaryRequirement, error) {
	var rows []models.DietaryRequirement
	if err := client.list(ctx, "dietary_requirement", eq("profile_id", profileID), &rows); err != nil {
		return nil, fmt.Errorf("fetching dietary requirements: %w", err)
	}
	return rows, nil
}

// ReplaceDietaryRequirements applies replace-set semantics: the profile's
// whole collection is deleted, then the new values inserted. A failed
// delete aborts before any insert.
func (client *Client) ReplaceDietaryRequirements(ctx context.Context, profileID string, values []models.DietaryRequirement) error {
	return client.replaceSet(ctx, "dietary_requirement", profileID, toRows(values))
}

func (client *Client) Allergies(ctx context.Context, profileID string) ([]models.Allergy, error) {
	var rows []models.Allergy
	if err := client.list(ctx, "allergy", eq("profile_id", profileID), &rows); err != nil {
		return nil, fmt.Errorf("fetching allergies: %w", err)
	}
	return rows, nil
}

func (client *Client) ReplaceAllergies(ctx context.Context, profileID string, values []models.Allergy) error {
	return client.replaceSet(ctx, "allergy", profileID, toRows(values))
}

func (client *Client) CuisinePreferences(ctx context.Context, profileID string) ([]models.CuisinePreference, error) {
	var rows []models.CuisinePreference
	if err := client.list(ctx, "food_preference", eq("profile_id", profileID), &rows); err != nil {
		return nil, fmt.Errorf("fetching cuisine preferences: %w", err)
	}
	return rows, nil
}

func (client *Client) ReplaceCuisinePreferences(ctx context.Context, profileID string, values []models.CuisinePreference) error {
	return client.replaceSet(ctx, "food_preference", profileID, toRows(values))
}

func (client *Client) Budget(ctx context.Context, profileID string) (*models.Budget, error) {
	var rows []models.Budget
	if err := client.list(ctx, "budget_setting", eq("profile_id", profileID), &rows); err != nil {
		return nil, fmt.Errorf("fetching budget: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (client *Client) UpsertBudget(ctx context.Context, budget models.Budget) error {
	if err := client.upsert(ctx, "budget_setting", "profile_id", budget); err != nil {
		return fmt.Errorf("saving budget: %w", err)
	}
	return nil
}

func (client *Client) Portion(ctx context.Context, profileID string) (*models.PortionSetting, error) {
	var rows []models.PortionSetting
	if err := client.list(ctx, "portion_setting", eq("profile_id", profileID), &rows); err != nil {
		return nil, fmt.Errorf("fetching portion setting: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (client *Client) UpsertPortion(ctx context.Context, portion models.PortionSetting) error {
	if err := client.upsert(ctx, "portion_setting", "profile_id", portion); err != nil {
		return fmt.Errorf("saving portion setting: %w", err)
	}
	return nil
}

func (client *Client) SavedRecipes(ctx context.Context, profileID string) ([]models.SavedRecipe, error) {
	var rows []models.SavedRecipe
	if err := client.list(ctx, "saved_recipe", eq("profile_id", profileID), &rows); err != nil {
		return nil, fmt.Errorf("fetching saved recipes: %w", err)
	}
	return rows, nil
}

func (client *Client) FavoriteRecipes(ctx context.Context, profileID string) ([]models.SavedRecipe, error) {
	filters := eq("profile_id", profileID)
	filters.Set("favorite", "eq.true")
	var rows []models.SavedRecipe
	if err := client.list(ctx, "saved_recipe", filters, &rows); err != nil {
		return nil, fmt.Errorf("fetching favorite recipes: %w", err)
	}
	return rows, nil
}

// UpsertSavedRecipe inserts or updates on the (profile_id, recipe_id)
// composite key, so saving an already-saved recipe never duplicates it.
func (client *Client) UpsertSavedRecipe(ctx context.Context, saved models.SavedRecipe) error {
	if saved.ID == "" {
		saved.ID = uuid.New().String()
	}
	if saved.SavedAt.IsZero() {
		saved.SavedAt = time.Now()
	}
	if err := client.upsert(ctx, "saved_recipe", "profile_id,recipe_id", saved); err != nil {
		return fmt.Errorf("saving recipe link: %w", err)
	}
	return nil
}

func (client *Client) DeleteSavedRecipe(ctx context.Context, profileID, recipeID string) error {
	filters := eq("profile_id", profileID)
	filters.Set("recipe_id", "eq."+recipeID)
	if err := client.delete(ctx, "saved_recipe", filters); err != nil {
		return fmt.Errorf("deleting recipe link: %w", err)
	}
	return nil
}

func (client *Client) replaceSet(ctx context.Context, table, profileID string, rows []interface{}) error {
	if err := client.delete(ctx, table, eq("profile_id", profileID)); err != nil {
		return fmt.Errorf("clearing %s rows: %w", table, err)
	}
	if len(rows) == 0 {
		return nil
	}
	if err := client.insert(ctx, table, rows); err != nil {
		return fmt.Errorf("inserting %s rows: %w", table, err)
	}
	return nil
}

func (client *Client) list(ctx context.Context, table string, filters url.Values, out interface{}) error {
	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", client.BaseURL, table, filters.Encode())
	return client.do(ctx, http.MethodGet, endpoint, nil, nil, out)
}

func (client *Client) insert(ctx context.Context, table string, payload interface{}) error {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", client.BaseURL, table)
	return client.do(ctx, http.MethodPost, endpoint, payload, nil, nil)
}

func (client *Client) upsert(ctx context.Context, table, onConflict string, payload interface{}) error {
	values := url.Values{}
	values.Set("on_conflict", onConflict)
	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", client.BaseURL, table, values.Encode())
	headers := map[string]string{"Prefer": "resolution=merge-duplicates"}
	return client.do(ctx, http.MethodPost, endpoint, payload, headers, nil)
}

func (client *Client) delete(ctx context.Context, table string, filters url.Values) error {
	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", client.BaseURL, table, filters.Encode())
	return client.do(ctx, http.MethodDelete, endpoint, nil, nil, nil)
}

func (client *Client) do(ctx context.Context, method, endpoint string, payload interface{}, headers map[string]string, out interface{}) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if client.APIKey != "" {
		request.Header.Set("apikey", client.APIKey)
	}
	if client.Tokens != nil {
		if token, err := client.Tokens.Token(); err == nil {
			token.SetAuthHeader(request)
		}
	}
	for name, value := range headers {
		request.Header.Set(name, value)
	}

	httpClient := client.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	response, err := httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden {
		return fmt.Errorf("request rejected with status %d: %w", response.StatusCode, session.ErrSessionInvalid)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("request failed with status %d", response.StatusCode)
	}

	if out != nil && len(responseBody) > 0 {
		if err := json.Unmarshal(responseBody, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func eq(column, value string) url.Values {
	values := url.Values{}
	values.Set(column, "eq."+value)
	return values
}

// toRows widens a typed slice for the generic insert body.
func toRows[T any](values []T) []interface{} {
	rows := make([]interface{}, len(values))
	for i, value := range values {
		rows[i] = value
	}
	return rows
}
