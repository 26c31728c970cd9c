package content_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phikva/helseapp-sub000/internal/content"
)

func TestAllRecipesDecodesEnvelope(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got == "" {
			t.Errorf("missing query parameter")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result": [
			{"id": "r1", "title": "Lasagne", "totalKcal": 1260,
			 "categories": [{"id": "c1", "name": "Middag"}],
			 "totalMacros": {"protein": 80, "carbs": 120, "fat": 45}},
			{"id": "r2", "title": "Fiskesuppe", "totalKcal": 640}
		]}`))
	}))
	defer ts.Close()

	client := content.NewClient(ts.URL, "production", "")
	recipes, err := client.AllRecipes(context.Background())
	if err != nil {
		t.Fatalf("fetching recipes: %v", err)
	}
	if len(recipes) != 2 {
		t.Fatalf("expected 2 recipes, got %d", len(recipes))
	}
	if recipes[0].Title != "Lasagne" || recipes[0].TotalMacros.Protein != 80 {
		t.Errorf("unexpected recipe: %+v", recipes[0])
	}
	if len(recipes[0].Categories) != 1 || recipes[0].Categories[0].Name != "Middag" {
		t.Errorf("category refs not decoded: %+v", recipes[0].Categories)
	}
}

func TestRecipeByIDPassesParameter(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("$id"); got != `"r1"` {
			t.Errorf("expected JSON-encoded id parameter, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result": {"id": "r1", "title": "Lasagne", "servings": 4,
			"ingredients": [{"name": "pasta", "measurement": {"unit": "g", "quantity": 400}, "calories": 600}],
			"instructions": ["Boil.", "Bake."]}}`))
	}))
	defer ts.Close()

	client := content.NewClient(ts.URL, "production", "")
	recipe, err := client.RecipeByID(context.Background(), "r1")
	if err != nil {
		t.Fatalf("fetching recipe: %v", err)
	}
	if recipe.Servings != 4 || len(recipe.Ingredients) != 1 {
		t.Fatalf("unexpected recipe: %+v", recipe)
	}
	if recipe.Ingredients[0].Measurement.Quantity != 400 {
		t.Errorf("measurement not decoded: %+v", recipe.Ingredients[0])
	}
}

func TestRecipeByIDMissingIsNotFound(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result": null}`))
	}))
	defer ts.Close()

	client := content.NewClient(ts.URL, "production", "")
	_, err := client.RecipeByID(context.Background(), "missing")
	if !errors.Is(err, content.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQueryFailureSurfacesStatus(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := content.NewClient(ts.URL, "production", "")
	if _, err := client.AllCategories(context.Background()); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestAuthorizationHeaderSentWhenConfigured(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
			t.Errorf("expected bearer token, got %q", got)
		}
		w.Write([]byte(`{"result": ["vegetarian", "vegan"]}`))
	}))
	defer ts.Close()

	client := content.NewClient(ts.URL, "production", "secret-token")
	options, err := client.DietaryOptions(context.Background())
	if err != nil {
		t.Fatalf("fetching options: %v", err)
	}
	if len(options) != 2 || options[0] != "vegetarian" {
		t.Errorf("unexpected options: %v", options)
	}
}
