package normalizer

import (
	"time"

	"recipe-pipeline-service/model"
)

// Fallback values applied when the model omits a field. Kept as package
// variables so tests can assert the exact canned content.
var (
	fallbackPrepSteps = []string{
		"Step 1: Prepare ingredients",
		"Step 2: Cook dish",
		"Step 3: Serve hot",
	}
	fallbackIngredientNames      = []string{"Ingredient A", "Ingredient B"}
	fallbackIngredientQuantities = []string{"1 cup", "2 tbsp"}
)

// FillDefaults replaces every missing or empty field of a model-produced
// recipe with its documented fallback, and reconciles the parallel
// ingredient arrays by truncating the longer one. It never rejects a
// recipe; validation happens later in the uploader.
func FillDefaults(r model.Recipe, region string) model.Recipe {
	if r.Title == "" {
		r.Title = "Untitled Recipe"
	}
	if r.DescLong == "" {
		r.DescLong = r.Desc
	}
	if r.Difficulty == "" {
		r.Difficulty = "Medium"
	}
	if len(r.PrepSteps) == 0 {
		r.PrepSteps = append([]string(nil), fallbackPrepSteps...)
	}
	if len(r.IngredientNames) == 0 {
		r.IngredientNames = append([]string(nil), fallbackIngredientNames...)
	}
	if len(r.IngredientQuantities) == 0 {
		r.IngredientQuantities = append([]string(nil), fallbackIngredientQuantities...)
	}
	if r.Region == "" {
		r.Region = region
	}
	if r.Category == "" {
		r.Category = "General"
	}
	if r.Timestamp == "" {
		r.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	// Ingredient names and quantities are positionally parallel. The model
	// occasionally emits unequal lengths; truncate to the shorter so every
	// stored pair is complete.
	if len(r.IngredientNames) != len(r.IngredientQuantities) {
		n := len(r.IngredientNames)
		if len(r.IngredientQuantities) < n {
			n = len(r.IngredientQuantities)
		}
		r.IngredientNames = r.IngredientNames[:n]
		r.IngredientQuantities = r.IngredientQuantities[:n]
	}

	return r
}
