package retention

import (
	"context"
	"fmt"
	"log"
	"math"
	"runtime/debug"
	"time"

	"recipe-pipeline-service/metrics"
	"recipe-pipeline-service/model"
)

// DateFormat is the cohort date layout used throughout the job.
const DateFormat = "2006-01-02"

// Store abstracts the collections the retention job reads and writes.
type Store interface {
	// CohortUsers returns eligible users whose cohort date matches.
	CohortUsers(ctx context.Context, cohortDate string) ([]model.CohortUser, error)
	// RepeatCompletions returns a user's non-first completions with
	// after < completed_at <= until.
	RepeatCompletions(ctx context.Context, userID string, after, until time.Time) ([]model.RecipeCompletion, error)
	// SaveMetrics writes the cohort metrics document, overwriting any
	// previous run for the same cohort date.
	SaveMetrics(ctx context.Context, m model.RetentionMetrics) error
	// MetricsByCohort returns stored metrics, or nil if absent.
	MetricsByCohort(ctx context.Context, cohortDate string) (*model.RetentionMetrics, error)
	SaveAlert(ctx context.Context, alert model.RetentionAlert) error
	RecordError(ctx context.Context, rec model.RetentionError) error
	// Trend returns metrics with cohort_date >= startDate, newest first.
	Trend(ctx context.Context, startDate string) ([]model.RetentionMetrics, error)
}

type Calculator struct {
	store Store
	now   func() time.Time
}

func NewCalculator(store Store) *Calculator {
	return &Calculator{store: store, now: time.Now}
}

// RunScheduled processes the cohort from seven days ago.
func (c *Calculator) RunScheduled(ctx context.Context) (*model.RetentionMetrics, error) {
	cohortDate := c.now().AddDate(0, 0, -7).Format(DateFormat)
	return c.Run(ctx, cohortDate)
}

// Run computes the D7 repeat recipe rate for one cohort. An empty cohort
// terminates without a write. Any failure is persisted to the error
// collection and returned to the caller.
func (c *Calculator) Run(ctx context.Context, cohortDate string) (*model.RetentionMetrics, error) {
	log.Printf("Starting D7 retention calculation for cohort %s", cohortDate)

	result, err := c.calculate(ctx, cohortDate)
	if err != nil {
		metrics.RetentionCalculationsTotal.WithLabelValues("error").Inc()
		rec := model.RetentionError{
			ErrorMessage:    err.Error(),
			ErrorStack:      string(debug.Stack()),
			Timestamp:       c.now(),
			CohortAttempted: cohortDate,
		}
		if recErr := c.store.RecordError(ctx, rec); recErr != nil {
			log.Printf("Failed to persist retention error: %v", recErr)
		}
		return nil, err
	}

	if result == nil {
		log.Printf("No users found in cohort %s", cohortDate)
		metrics.RetentionCalculationsTotal.WithLabelValues("empty").Inc()
		return nil, nil
	}

	metrics.RetentionCalculationsTotal.WithLabelValues("success").Inc()
	log.Printf("D7 retention rate for %s: %.2f%% (%s)",
		cohortDate, result.D7RepeatRecipeRate, result.RetentionCategory)
	return result, nil
}

func (c *Calculator) calculate(ctx context.Context, cohortDate string) (*model.RetentionMetrics, error) {
	users, err := c.store.CohortUsers(ctx, cohortDate)
	if err != nil {
		return nil, fmt.Errorf("querying cohort users: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}

	cohortSize := len(users)
	retained := 0
	totalRepeats := 0
	var details []model.UserRetentionDetail

	for _, user := range users {
		start, end := D7Window(user.FirstRecipeCompleted)

		completions, err := c.store.RepeatCompletions(ctx, user.UserID, start, end)
		if err != nil {
			return nil, fmt.Errorf("querying completions for %s: %w", user.UserID, err)
		}

		if len(completions) == 0 {
			continue
		}

		retained++
		totalRepeats += len(completions)
		details = append(details, model.UserRetentionDetail{
			UserID:             user.UserID,
			RepeatRecipesCount: len(completions),
			Recipes:            completions,
			DaysActive:         daysActive(completions),
		})
	}

	rate := round2(float64(retained) / float64(cohortSize) * 100)

	avgRepeats := 0.0
	if retained > 0 {
		avgRepeats = round2(float64(totalRepeats) / float64(retained))
	}

	result := model.RetentionMetrics{
		CohortDate:             cohortDate,
		CalculationDate:        c.now(),
		CohortSize:             cohortSize,
		UsersWithRepeatRecipes: retained,
		D7RepeatRecipeRate:     rate,
		TotalRepeatRecipes:     totalRepeats,
		AvgRepeatPerRetained:   avgRepeats,
		RetentionCategory:      Categorize(rate),
		UserDetails:            details,
	}

	if err := c.store.SaveMetrics(ctx, result); err != nil {
		return nil, fmt.Errorf("saving metrics: %w", err)
	}

	if err := c.checkAlerts(ctx, cohortDate, rate); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *Calculator) checkAlerts(ctx context.Context, cohortDate string, currentRate float64) error {
	day, err := time.Parse(DateFormat, cohortDate)
	if err != nil {
		return fmt.Errorf("parsing cohort date: %w", err)
	}
	previousDate := day.AddDate(0, 0, -1).Format(DateFormat)

	previous, err := c.store.MetricsByCohort(ctx, previousDate)
	if err != nil {
		return fmt.Errorf("reading previous cohort metrics: %w", err)
	}
	if previous == nil || previous.D7RepeatRecipeRate == 0 {
		return nil
	}

	change := (currentRate - previous.D7RepeatRecipeRate) / previous.D7RepeatRecipeRate * 100

	var alertType string
	switch {
	case change <= -20:
		alertType = "retention_drop"
		log.Printf("ALERT: D7 retention dropped by %.1f%%", math.Abs(change))
	case change >= 20:
		alertType = "retention_improvement"
		log.Printf("D7 retention improved by %.1f%%", change)
	default:
		return nil
	}

	metrics.RetentionAlertsTotal.WithLabelValues(alertType).Inc()
	return c.store.SaveAlert(ctx, model.RetentionAlert{
		Type:          alertType,
		CohortDate:    cohortDate,
		CurrentRate:   currentRate,
		PreviousRate:  previous.D7RepeatRecipeRate,
		ChangePercent: change,
		Timestamp:     c.now(),
	})
}

// D7Window returns the repeat-engagement window for a user: day 1 starts
// 24 hours after the first completion, day 7 ends at 23:59:59.999 on the
// seventh calendar day after it.
func D7Window(firstCompleted time.Time) (start, end time.Time) {
	start = firstCompleted.Add(24 * time.Hour)

	d := firstCompleted.AddDate(0, 0, 7)
	end = time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 999_000_000, d.Location())
	return start, end
}

// Categorize maps a rate to its label using fixed thresholds.
func Categorize(rate float64) string {
	switch {
	case rate >= 25:
		return "Excellent"
	case rate >= 18:
		return "Good"
	case rate >= 12:
		return "Fair"
	case rate >= 8:
		return "Poor"
	default:
		return "Critical"
	}
}

// AverageRate averages a trend's rates to two decimals.
func AverageRate(points []model.TrendPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range points {
		sum += p.D7Rate
	}
	return round2(sum / float64(len(points)))
}

func daysActive(completions []model.RecipeCompletion) int {
	days := make(map[string]struct{})
	for _, c := range completions {
		days[c.CompletedAt.Format(DateFormat)] = struct{}{}
	}
	return len(days)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
