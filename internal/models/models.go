package models

import "time"

// Measurement is the structured quantity of an ingredient. Recipes may
// carry a free-text quantity instead, which is never scaled.
type Measurement struct {
	Unit     string  `json:"unit"`
	Quantity float64 `json:"quantity"`
}

type Macros struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

type Ingredient struct {
	Name         string       `json:"name"`
	Measurement  *Measurement `json:"measurement,omitempty"`
	QuantityText string       `json:"quantityText,omitempty"`
	Calories     float64      `json:"calories"`
	Macros       Macros       `json:"macros"`
	Comment      string       `json:"comment,omitempty"`
}

type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Recipe is the full recipe document as served by the content source.
// The client never mutates it except as an ephemeral scaled copy.
type Recipe struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	ImageRef     string        `json:"imageRef,omitempty"`
	Categories   []CategoryRef `json:"categories,omitempty"`
	Servings     int           `json:"servings"`
	Ingredients  []Ingredient  `json:"ingredients,omitempty"`
	Instructions []string      `json:"instructions,omitempty"`
	Notes        string        `json:"notes,omitempty"`
	TotalKcal    float64       `json:"totalKcal"`
	TotalMacros  Macros        `json:"totalMacros"`
}

// RecipeSummary is the list-view projection of a recipe.
type RecipeSummary struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	ImageRef    string        `json:"imageRef,omitempty"`
	Categories  []CategoryRef `json:"categories,omitempty"`
	TotalKcal   float64       `json:"totalKcal"`
	TotalMacros Macros        `json:"totalMacros"`
}

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageRef    string `json:"imageRef,omitempty"`
}

// Profile is the authenticated user's profile row. The id equals the
// session user id.
type Profile struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	WeightKg  float64   `json:"weight_kg"`
	HeightCm  float64   `json:"height_cm"`
	Age       int       `json:"age"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DietaryRequirement struct {
	ProfileID string `json:"profile_id"`
	Value     string `json:"value"`
}

type Allergy struct {
	ProfileID string `json:"profile_id"`
	Name      string `json:"name"`
	Severity  string `json:"severity,omitempty"`
}

type CuisinePreference struct {
	ProfileID string `json:"profile_id"`
	Name      string `json:"name"`
}

type BudgetPeriod string

const (
	BudgetWeekly  BudgetPeriod = "weekly"
	BudgetMonthly BudgetPeriod = "monthly"
)

type Budget struct {
	ProfileID string       `json:"profile_id"`
	Amount    float64      `json:"amount"`
	Period    BudgetPeriod `json:"period"`
}

// PortionSetting is the default headcount recipes are scaled to.
type PortionSetting struct {
	ProfileID string `json:"profile_id"`
	People    int    `json:"people"`
}

// SavedRecipe links a profile to a recipe. At most one row exists per
// (profile, recipe) pair; writes upsert on that composite key.
type SavedRecipe struct {
	ID        string    `json:"id,omitempty"`
	ProfileID string    `json:"profile_id"`
	RecipeID  string    `json:"recipe_id"`
	SavedAt   time.Time `json:"saved_at"`
	Notes     string    `json:"notes,omitempty"`
	Favorite  bool      `json:"favorite"`
}

// SavedRecipeDetail is a saved-recipe link enriched with the full recipe
// document.
type SavedRecipeDetail struct {
	SavedRecipe
	Recipe Recipe
}

// MealSlot is one meal position within a day of a weekly plan. A nil
// Recipe is the explicit empty marker.
type MealSlot struct {
	Recipe *Recipe `json:"recipe,omitempty"`
	Color  string  `json:"color,omitempty"`
}

// DayPlan maps slot ids ("meal1", "meal2", ...) to slots. Slot ids may be
// sparse after removal; display numbering is derived, not stored.
type DayPlan map[string]MealSlot

// WeekPlan is one calendar week of planned meals, keyed by the week's
// Monday in YYYY-MM-DD form.
type WeekPlan struct {
	WeekStart string
	Days      map[string]DayPlan
}

// WeekDays lists the day labels of a week plan in display order.
var WeekDays = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

func ValidWeekDay(day string) bool {
	for _, d := range WeekDays {
		if d == day {
			return true
		}
	}
	return false
}
