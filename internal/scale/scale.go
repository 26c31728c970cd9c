package scale

import (
	"math"

	"github.com/phikva/helseapp-sub000/internal/models"
)

// Scale returns a deep copy of recipe rescaled to targetServings people.
// Structured ingredient quantities, per-ingredient calories and macros, and
// the aggregate totals are multiplied by targetServings/servings; free-text
// quantities and instruction steps are left as written. A recipe without a
// positive base serving count cannot be scaled and is returned unchanged.
func Scale(recipe models.Recipe, targetServings int) models.Recipe {
	if recipe.Servings <= 0 || targetServings <= 0 {
		return recipe
	}

	ratio := float64(targetServings) / float64(recipe.Servings)

	scaled := recipe
	scaled.Servings = targetServings
	scaled.Categories = append([]models.CategoryRef(nil), recipe.Categories...)
	scaled.Instructions = append([]string(nil), recipe.Instructions...)

	scaled.Ingredients = make([]models.Ingredient, len(recipe.Ingredients))
	for i, ingredient := range recipe.Ingredients {
		scaled.Ingredients[i] = scaleIngredient(ingredient, ratio)
	}

	scaled.TotalKcal = round2(recipe.TotalKcal * ratio)
	scaled.TotalMacros = scaleMacros(recipe.TotalMacros, ratio)

	return scaled
}

func scaleIngredient(ingredient models.Ingredient, ratio float64) models.Ingredient {
	out := ingredient
	if ingredient.Measurement != nil {
		out.Measurement = &models.Measurement{
			Unit:     ingredient.Measurement.Unit,
			Quantity: round2(ingredient.Measurement.Quantity * ratio),
		}
	}
	out.Calories = round2(ingredient.Calories * ratio)
	out.Macros = scaleMacros(ingredient.Macros, ratio)
	return out
}

func scaleMacros(macros models.Macros, ratio float64) models.Macros {
	return models.Macros{
		Protein: round2(macros.Protein * ratio),
		Carbs:   round2(macros.Carbs * ratio),
		Fat:     round2(macros.Fat * ratio),
	}
}

// round2 rounds half-up to 2 decimal places. The epsilon nudge absorbs
// float artifacts so 2.9999999 rounds to 3 rather than 2.99.
func round2(value float64) float64 {
	return math.Floor(value*100+0.5+1e-9) / 100
}
