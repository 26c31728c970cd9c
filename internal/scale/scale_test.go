package scale_test

import (
	"math"
	"testing"

	"github.com/phikva/helseapp-sub000/internal/models"
	"github.com/phikva/helseapp-sub000/internal/scale"
)

func testRecipe() models.Recipe {
	return models.Recipe{
		ID:       "recipe-1",
		Title:    "Kyllinggryte",
		Servings: 4,
		Ingredients: []models.Ingredient{
			{
				Name:        "chicken thigh",
				Measurement: &models.Measurement{Unit: "g", Quantity: 600},
				Calories:    870,
				Macros:      models.Macros{Protein: 108, Carbs: 0, Fat: 48},
			},
			{
				Name:        "rice",
				Measurement: &models.Measurement{Unit: "dl", Quantity: 3},
				Calories:    390,
				Macros:      models.Macros{Protein: 8.1, Carbs: 86.4, Fat: 1.2},
			},
			{
				Name:         "salt",
				QuantityText: "to taste",
			},
		},
		Instructions: []string{"Brown the chicken.", "Add rice and simmer."},
		TotalKcal:    1260,
		TotalMacros:  models.Macros{Protein: 116.1, Carbs: 86.4, Fat: 49.2},
	}
}

func TestScaleLinearity(t *testing.T) {
	recipe := testRecipe()

	for _, target := range []int{1, 2, 3, 5, 6, 8, 12} {
		ratio := float64(target) / float64(recipe.Servings)
		scaled := scale.Scale(recipe, target)

		if scaled.Servings != target {
			t.Errorf("target %d: servings = %d", target, scaled.Servings)
		}
		if diff := math.Abs(scaled.TotalKcal - recipe.TotalKcal*ratio); diff > 0.01 {
			t.Errorf("target %d: total kcal %.4f, want %.4f within 0.01",
				target, scaled.TotalKcal, recipe.TotalKcal*ratio)
		}
		if diff := math.Abs(scaled.TotalMacros.Protein - recipe.TotalMacros.Protein*ratio); diff > 0.01 {
			t.Errorf("target %d: protein %.4f, want %.4f within 0.01",
				target, scaled.TotalMacros.Protein, recipe.TotalMacros.Protein*ratio)
		}
	}
}

func TestScaleRoundTrip(t *testing.T) {
	recipe := testRecipe()

	for _, target := range []int{1, 2, 3, 5, 6, 8, 12} {
		back := scale.Scale(scale.Scale(recipe, target), recipe.Servings)

		if diff := math.Abs(back.TotalKcal - recipe.TotalKcal); diff > 0.01 {
			t.Errorf("target %d: round trip kcal %.4f, want %.4f", target, back.TotalKcal, recipe.TotalKcal)
		}
		if diff := math.Abs(back.TotalMacros.Fat - recipe.TotalMacros.Fat); diff > 0.01 {
			t.Errorf("target %d: round trip fat %.4f, want %.4f", target, back.TotalMacros.Fat, recipe.TotalMacros.Fat)
		}
		if diff := math.Abs(back.Ingredients[0].Measurement.Quantity - 600); diff > 0.01 {
			t.Errorf("target %d: round trip quantity %.4f, want 600", target, back.Ingredients[0].Measurement.Quantity)
		}
	}
}

func TestScaleIdentity(t *testing.T) {
	recipe := testRecipe()
	scaled := scale.Scale(recipe, recipe.Servings)

	if scaled.TotalKcal != recipe.TotalKcal {
		t.Errorf("identity scale changed kcal: %.4f != %.4f", scaled.TotalKcal, recipe.TotalKcal)
	}
	if scaled.Ingredients[0].Measurement.Quantity != 600 {
		t.Errorf("identity scale changed quantity: %.4f", scaled.Ingredients[0].Measurement.Quantity)
	}
}

func TestScaleWithoutBaseServingsIsNoOp(t *testing.T) {
	recipe := testRecipe()
	recipe.Servings = 0

	scaled := scale.Scale(recipe, 6)
	if scaled.Servings != 0 {
		t.Errorf("expected unchanged servings, got %d", scaled.Servings)
	}
	if scaled.TotalKcal != recipe.TotalKcal {
		t.Errorf("expected unchanged kcal, got %.4f", scaled.TotalKcal)
	}
}

func TestScaleLeavesTextAlone(t *testing.T) {
	recipe := testRecipe()
	scaled := scale.Scale(recipe, 8)

	if scaled.Ingredients[2].QuantityText != "to taste" {
		t.Errorf("free-text quantity changed: %q", scaled.Ingredients[2].QuantityText)
	}
	if scaled.Instructions[0] != "Brown the chicken." {
		t.Errorf("instruction changed: %q", scaled.Instructions[0])
	}
}

func TestScaleDoesNotMutateInput(t *testing.T) {
	recipe := testRecipe()
	scale.Scale(recipe, 8)

	if recipe.Ingredients[0].Measurement.Quantity != 600 {
		t.Errorf("input measurement mutated: %.4f", recipe.Ingredients[0].Measurement.Quantity)
	}
	if recipe.TotalKcal != 1260 {
		t.Errorf("input totals mutated: %.4f", recipe.TotalKcal)
	}
}

func TestScaleRoundsHalfUp(t *testing.T) {
	recipe := models.Recipe{
		ID:       "r",
		Servings: 3,
		Ingredients: []models.Ingredient{
			{Name: "x", Measurement: &models.Measurement{Unit: "g", Quantity: 1}, Calories: 1},
		},
		TotalKcal: 1,
	}

	// 1 * (1/3) = 0.3333... -> 0.33, and float artifacts like 2.9999999
	// must land on the nearest cent, not truncate.
	scaled := scale.Scale(recipe, 1)
	if scaled.TotalKcal != 0.33 {
		t.Errorf("expected 0.33, got %v", scaled.TotalKcal)
	}

	nine := scale.Scale(recipe, 9)
	if nine.TotalKcal != 3.00 {
		t.Errorf("expected 3.00, got %v", nine.TotalKcal)
	}
}
