package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"recipe-pipeline-service/config"
	"recipe-pipeline-service/helpers"
	"recipe-pipeline-service/metrics"
	"recipe-pipeline-service/model"
)

type Fetcher struct {
	config *config.Config
	client *http.Client
}

func NewFetcher(cfg *config.Config) *Fetcher {
	return &Fetcher{
		config: cfg,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchAllRegions fans out one fetch per region and keeps the successes,
// preserving input order. A region that exhausts its retries is dropped
// from the result set rather than failing the whole call.
func (f *Fetcher) FetchAllRegions(ctx context.Context, regions []string) []model.RawRegionPayload {
	payloads := make([]*model.RawRegionPayload, len(regions))

	var wg sync.WaitGroup
	for i, region := range regions {
		wg.Add(1)
		go func(i int, region string) {
			defer wg.Done()
			payload, err := f.fetchRegion(ctx, region)
			if err != nil {
				log.Printf("Dropping region %s after fetch failure: %v", region, err)
				metrics.RegionFetchFailures.Inc()
				return
			}
			payloads[i] = payload
		}(i, region)
	}
	wg.Wait()

	results := make([]model.RawRegionPayload, 0, len(regions))
	for _, p := range payloads {
		if p != nil {
			results = append(results, *p)
			metrics.RegionsFetched.Inc()
		}
	}

	return results
}

func (f *Fetcher) fetchRegion(ctx context.Context, region string) (*model.RawRegionPayload, error) {
	mealdbURL := fmt.Sprintf("%s/filter.php?a=%s", f.config.MealDBBaseURL, url.QueryEscape(region))
	spoonURL := fmt.Sprintf("%s/recipes/complexSearch?cuisine=%s&number=%d&apiKey=%s",
		f.config.SpoonacularBaseURL, url.QueryEscape(region), f.config.RecipesPerRegion, f.config.SpoonacularAPIKey)

	var mealdb, spoonacular json.RawMessage
	var mealdbErr, spoonErr error

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		mealdbErr = helpers.WithRetry(ctx, func() error {
			var err error
			mealdb, err = f.fetchJSON(ctx, mealdbURL)
			return err
		}, f.config.MaxRetries, f.config.RetryDelay)
	}()
	go func() {
		defer wg.Done()
		spoonErr = helpers.WithRetry(ctx, func() error {
			var err error
			spoonacular, err = f.fetchJSON(ctx, spoonURL)
			return err
		}, f.config.MaxRetries, f.config.RetryDelay)
	}()
	wg.Wait()

	if mealdbErr != nil {
		return nil, fmt.Errorf("mealdb fetch for %s: %w", region, mealdbErr)
	}
	if spoonErr != nil {
		return nil, fmt.Errorf("spoonacular fetch for %s: %w", region, spoonErr)
	}

	// Crude rate limit between upstream calls.
	if err := helpers.Sleep(ctx, f.config.FetchRateLimit); err != nil {
		return nil, err
	}

	return &model.RawRegionPayload{
		Region:      region,
		MealDB:      mealdb,
		Spoonacular: spoonacular,
	}, nil
}

func (f *Fetcher) fetchJSON(ctx context.Context, rawURL string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("invalid JSON response from %s", rawURL)
	}

	return json.RawMessage(body), nil
}
