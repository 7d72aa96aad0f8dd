package validator

import "recipe-pipeline-service/model"

// MissingFields returns the names of required recipe fields that are absent
// or empty. Pure function, no side effects.
func MissingFields(r model.Recipe) []string {
	var missing []string

	checks := []struct {
		name  string
		empty bool
	}{
		{"title", r.Title == ""},
		{"desc", r.Desc == ""},
		{"descLong", r.DescLong == ""},
		{"prep", r.Prep == ""},
		{"difficulty", r.Difficulty == ""},
		{"prepSteps", len(r.PrepSteps) == 0},
		{"ingredientNames", len(r.IngredientNames) == 0},
		{"ingredientQuantities", len(r.IngredientQuantities) == 0},
		{"img", r.Img == ""},
	}

	for _, c := range checks {
		if c.empty {
			missing = append(missing, c.name)
		}
	}

	return missing
}
