package pipeline

import (
	"context"
	"log"

	"recipe-pipeline-service/metrics"
	"recipe-pipeline-service/model"
)

// Fetcher pulls raw payloads for a set of regions.
type Fetcher interface {
	FetchAllRegions(ctx context.Context, regions []string) []model.RawRegionPayload
}

// Normalizer turns raw payloads into normalized regions.
type Normalizer interface {
	NormalizeAllRegions(ctx context.Context, payloads []model.RawRegionPayload) []model.NormalizedRegion
}

// Uploader persists normalized regions.
type Uploader interface {
	UploadAllRegions(ctx context.Context, regions []model.NormalizedRegion) []model.UploadResult
}

// Pipeline sequences fetch, normalize and upload. The same instance
// serves the scheduled trigger and the manual HTTP trigger.
type Pipeline struct {
	regions    []string
	fetcher    Fetcher
	normalizer Normalizer
	uploader   Uploader
}

func NewPipeline(regions []string, f Fetcher, n Normalizer, u Uploader) *Pipeline {
	return &Pipeline{regions: regions, fetcher: f, normalizer: n, uploader: u}
}

// Run executes one full ingestion pass and returns per-region upload
// counts.
func (p *Pipeline) Run(ctx context.Context, trigger string) ([]model.UploadResult, error) {
	log.Println("Starting GlobalFlavors ingestion pipeline...")

	raw := p.fetcher.FetchAllRegions(ctx, p.regions)
	log.Printf("Pulled data for %d regions", len(raw))

	normalized := p.normalizer.NormalizeAllRegions(ctx, raw)
	log.Printf("Normalized %d region datasets", len(normalized))

	if err := ctx.Err(); err != nil {
		metrics.PipelineRunsTotal.WithLabelValues(trigger, "error").Inc()
		return nil, err
	}

	results := p.uploader.UploadAllRegions(ctx, normalized)
	log.Println("Upload complete")

	metrics.PipelineRunsTotal.WithLabelValues(trigger, "success").Inc()
	return results, nil
}
