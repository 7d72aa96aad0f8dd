package model

import "time"

// CohortUser is a user document as read by the retention job. Users are
// assigned to the cohort of the calendar date of their first completion.
type CohortUser struct {
	UserID               string    `json:"userId" bson:"_id"`
	CohortDate           string    `json:"cohortDate" bson:"cohort_date"`
	RetentionEligible    bool      `json:"retentionEligible" bson:"d7_retention_eligible"`
	FirstRecipeCompleted time.Time `json:"firstRecipeCompletedAt" bson:"first_recipe_completed_at"`
}

// RecipeCompletion is one user-recipe completion event.
type RecipeCompletion struct {
	UserID        string    `json:"userId" bson:"user_id"`
	RecipeID      string    `json:"recipeId" bson:"recipe_id"`
	CompletedAt   time.Time `json:"completedAt" bson:"completed_at"`
	Cuisine       string    `json:"cuisine" bson:"cuisine"`
	Source        string    `json:"source" bson:"source"`
	IsFirstRecipe bool      `json:"isFirstRecipe" bson:"is_first_recipe"`
}

// UserRetentionDetail records one retained user's activity inside the D7 window.
type UserRetentionDetail struct {
	UserID             string             `json:"userId" bson:"user_id"`
	RepeatRecipesCount int                `json:"repeatRecipesCount" bson:"repeat_recipes_count"`
	Recipes            []RecipeCompletion `json:"recipes" bson:"recipes"`
	DaysActive         int                `json:"daysActive" bson:"days_active"`
}

// RetentionMetrics is the per-cohort metrics document, stored under the
// key "d7_<cohort-date>". Re-running a cohort overwrites it.
type RetentionMetrics struct {
	CohortDate             string                `json:"cohortDate" bson:"cohort_date"`
	CalculationDate        time.Time             `json:"calculationDate" bson:"calculation_date"`
	CohortSize             int                   `json:"cohortSize" bson:"cohort_size"`
	UsersWithRepeatRecipes int                   `json:"usersWithRepeatRecipes" bson:"users_with_repeat_recipes"`
	D7RepeatRecipeRate     float64               `json:"d7RepeatRecipeRate" bson:"d7_repeat_recipe_rate"`
	TotalRepeatRecipes     int                   `json:"totalRepeatRecipes" bson:"total_repeat_recipes"`
	AvgRepeatPerRetained   float64               `json:"avgRepeatRecipesPerRetainedUser" bson:"avg_repeat_recipes_per_retained_user"`
	RetentionCategory      string                `json:"retentionCategory" bson:"retention_category"`
	UserDetails            []UserRetentionDetail `json:"userDetails,omitempty" bson:"user_details,omitempty"`
}

// RetentionAlert is written when the rate moves by 20% or more relative
// to the previous day's cohort.
type RetentionAlert struct {
	Type          string    `json:"type" bson:"type"` // "retention_drop" or "retention_improvement"
	CohortDate    string    `json:"cohortDate" bson:"cohort_date"`
	CurrentRate   float64   `json:"currentRate" bson:"current_rate"`
	PreviousRate  float64   `json:"previousRate" bson:"previous_rate"`
	ChangePercent float64   `json:"changePercent" bson:"change_percent"`
	Timestamp     time.Time `json:"timestamp" bson:"timestamp"`
	Acknowledged  bool      `json:"acknowledged" bson:"acknowledged"`
}

// RetentionError is a persisted failure record from a retention run.
type RetentionError struct {
	ErrorMessage    string    `json:"errorMessage" bson:"error_message"`
	ErrorStack      string    `json:"errorStack" bson:"error_stack"`
	Timestamp       time.Time `json:"timestamp" bson:"timestamp"`
	CohortAttempted string    `json:"cohortAttempted" bson:"cohort_attempted"`
}

// TrendPoint is one cohort's slice of the retention trend response.
type TrendPoint struct {
	CohortDate string  `json:"cohort_date"`
	D7Rate     float64 `json:"d7_rate"`
	CohortSize int     `json:"cohort_size"`
	Category   string  `json:"category"`
}

// RetentionRequest is the work-queue message that triggers a retention run.
type RetentionRequest struct {
	CohortDate string    `json:"cohortDate,omitempty"` // empty means "today - 7 days"
	RequestID  string    `json:"requestId"`
	Requested  time.Time `json:"requested"`
}
