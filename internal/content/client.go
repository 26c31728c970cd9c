package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/phikva/helseapp-sub000/internal/models"
)

// ErrNotFound is returned when a single-document query matches nothing.
var ErrNotFound = errors.New("content: document not found")

// Source is the read-only content collaborator. Recipes and categories are
// authored in a headless CMS; the client never writes back.
type Source interface {
	AllRecipes(ctx context.Context) ([]models.RecipeSummary, error)
	AllCategories(ctx context.Context) ([]models.Category, error)
	RecipeByID(ctx context.Context, id string) (models.Recipe, error)
	DietaryOptions(ctx context.Context) ([]string, error)
	AllergyOptions(ctx context.Context) ([]string, error)
	CuisineOptions(ctx context.Context) ([]string, error)
}

const (
	allRecipesQuery = `*[_type == "recipe"]{"id": _id, title, "imageRef": image.asset._ref, "categories": categories[]->{"id": _id, name}, totalKcal, totalMacros}`

	allCategoriesQuery = `*[_type == "category"]{"id": _id, name, description, "imageRef": image.asset._ref}`

	recipeByIDQuery = `*[_type == "recipe" && _id == $id][0]{"id": _id, title, "imageRef": image.asset._ref, "categories": categories[]->{"id": _id, name}, servings, ingredients, instructions, notes, totalKcal, totalMacros}`

	dietaryOptionsQuery = `*[_type == "dietaryRequirement"] | order(name asc) .name`
	allergyOptionsQuery = `*[_type == "allergy"] | order(name asc) .name`
	cuisineOptionsQuery = `*[_type == "cuisine"] | order(name asc) .name`
)

// Client queries the CMS over its HTTP query endpoint. The zero value is
// not usable; BaseURL and Dataset must be set.
type Client struct {
	BaseURL    string
	Dataset    string
	APIToken   string
	HTTPClient *http.Client
}

func NewClient(baseURL, dataset, apiToken string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Dataset:    dataset,
		APIToken:   apiToken,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (client *Client) AllRecipes(ctx context.Context) ([]models.RecipeSummary, error) {
	var recipes []models.RecipeSummary
	if err := client.query(ctx, allRecipesQuery, nil, &recipes); err != nil {
		return nil, fmt.Errorf("fetching recipes: %w", err)
	}
	return recipes, nil
}

func (client *Client) AllCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := client.query(ctx, allCategoriesQuery, nil, &categories); err != nil {
		return nil, fmt.Errorf("fetching categories: %w", err)
	}
	return categories, nil
}

func (client *Client) RecipeByID(ctx context.Context, id string) (models.Recipe, error) {
	var recipe *models.Recipe
	params := map[string]string{"$id": id}
	if err := client.query(ctx, recipeByIDQuery, params, &recipe); err != nil {
		return models.Recipe{}, fmt.Errorf("fetching recipe %s: %w", id, err)
	}
	if recipe == nil {
		return models.Recipe{}, fmt.Errorf("fetching recipe %s: %w", id, ErrNotFound)
	}
	return *recipe, nil
}

func (client *Client) DietaryOptions(ctx context.Context) ([]string, error) {
	return client.options(ctx, dietaryOptionsQuery)
}

func (client *Client) AllergyOptions(ctx context.Context) ([]string, error) {
	return client.options(ctx, allergyOptionsQuery)
}

func (client *Client) CuisineOptions(ctx context.Context) ([]string, error) {
	return client.options(ctx, cuisineOptionsQuery)
}

func (client *Client) options(ctx context.Context, query string) ([]string, error) {
	var names []string
	if err := client.query(ctx, query, nil, &names); err != nil {
		return nil, fmt.Errorf("fetching reference data: %w", err)
	}
	return names, nil
}

// query runs one CMS query and decodes the result envelope into out.
// Parameter values are JSON-encoded per the query API's convention.
func (client *Client) query(ctx context.Context, query string, params map[string]string, out interface{}) error {
	values := url.Values{}
	values.Set("query", query)
	for name, value := range params {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encoding parameter %s: %w", name, err)
		}
		values.Set(name, string(encoded))
	}

	endpoint := fmt.Sprintf("%s/v1/data/query/%s?%s", client.BaseURL, client.Dataset, values.Encode())
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating query request: %w", err)
	}
	if client.APIToken != "" {
		request.Header.Set("Authorization", "Bearer "+client.APIToken)
	}

	httpClient := client.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	response, err := httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("executing query: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("reading query response: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("query failed with status %d", response.StatusCode)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decoding query envelope: %w", err)
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("decoding query result: %w", err)
	}
	return nil
}
