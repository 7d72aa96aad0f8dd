package uploader

import (
	"context"
	"log"
	"strings"
	"time"

	"recipe-pipeline-service/metrics"
	"recipe-pipeline-service/model"
	"recipe-pipeline-service/validator"
)

// batchSize is the number of staged writes that triggers a flush.
const batchSize = 400

// freshnessWindow is how long a region's stored data is considered fresh.
const freshnessWindow = 24 * time.Hour

// Store abstracts the document store the uploader writes to.
type Store interface {
	// GetRegion returns the stored region record, or nil if absent.
	GetRegion(ctx context.Context, name string) (*model.RegionRecord, error)
	// UpsertRegion merges the region summary record.
	UpsertRegion(ctx context.Context, rec model.RegionRecord) error
	// RecipeExists reports whether a recipe is already stored for the region.
	RecipeExists(ctx context.Context, region, recipeID string) (bool, error)
	// CommitBatch writes the staged recipes. Called with an empty batch
	// at the end of every region; implementations may no-op on empty.
	CommitBatch(ctx context.Context, region string, recipes []model.Recipe) error
}

type Uploader struct {
	store Store
	now   func() time.Time
}

func NewUploader(store Store) *Uploader {
	return &Uploader{store: store, now: time.Now}
}

// UploadAllRegions processes regions strictly sequentially so write order
// and batch bookkeeping stay deterministic. A storage failure in one
// region is recorded on that region's result and does not stop the rest.
func (u *Uploader) UploadAllRegions(ctx context.Context, regions []model.NormalizedRegion) []model.UploadResult {
	results := make([]model.UploadResult, 0, len(regions))

	for _, region := range regions {
		result, err := u.uploadRegion(ctx, region)
		if err != nil {
			log.Printf("Upload failed for region %s: %v", region.Region, err)
			result = &model.UploadResult{Region: region.Region, Error: err.Error()}
		}
		results = append(results, *result)
	}

	return results
}

func (u *Uploader) uploadRegion(ctx context.Context, region model.NormalizedRegion) (*model.UploadResult, error) {
	existing, err := u.store.GetRegion(ctx, region.Region)
	if err != nil {
		return nil, err
	}

	if existing != nil && u.isFresh(existing.Timestamp) {
		log.Printf("Skipping %s (fresh data)", region.Region)
		return &model.UploadResult{Region: region.Region}, nil
	}

	// Refresh the summary record even when no recipes end up written.
	rec := model.RegionRecord{
		RegionName: region.Region,
		RegionCode: regionCode(region.Region),
		Timestamp:  u.now().UTC().Format(time.RFC3339Nano),
	}
	if err := u.store.UpsertRegion(ctx, rec); err != nil {
		return nil, err
	}

	var batch []model.Recipe
	uploaded, skipped := 0, 0

	for _, recipe := range region.Recipes {
		exists, err := u.store.RecipeExists(ctx, region.Region, recipe.ID())
		if err != nil {
			return nil, err
		}
		if exists {
			skipped++
			metrics.RecipesSkipped.Inc()
			continue
		}

		if missing := validator.MissingFields(recipe); len(missing) > 0 {
			log.Printf("Skipping %s (%s)", recipe.Title, strings.Join(missing, ", "))
			metrics.RecipesInvalid.Inc()
			continue
		}

		batch = append(batch, recipe)
		uploaded++

		if uploaded%batchSize == 0 {
			if err := u.store.CommitBatch(ctx, region.Region, batch); err != nil {
				return nil, err
			}
			metrics.BatchCommits.Inc()
			batch = nil
		}
	}

	// Trailing flush, even when empty.
	if err := u.store.CommitBatch(ctx, region.Region, batch); err != nil {
		return nil, err
	}
	metrics.BatchCommits.Inc()
	metrics.RecipesUploaded.Add(float64(uploaded))

	log.Printf("%s: %d new, %d skipped", region.Region, uploaded, skipped)
	return &model.UploadResult{Region: region.Region, Uploaded: uploaded, Skipped: skipped}, nil
}

func (u *Uploader) isFresh(timestamp string) bool {
	ts, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return false
	}
	return u.now().Sub(ts) < freshnessWindow
}

func regionCode(name string) string {
	if len(name) < 2 {
		return strings.ToUpper(name)
	}
	return strings.ToUpper(name[:2])
}
