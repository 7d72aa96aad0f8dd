package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Recipe is the normalized recipe schema stored in the recipes collection.
// IngredientNames and IngredientQuantities are positionally parallel; the
// normalizer enforces equal length before a recipe leaves that stage.
type Recipe struct {
	Img                  string   `json:"img" bson:"img"`
	Title                string   `json:"title" bson:"title"`
	Desc                 string   `json:"desc" bson:"desc"`
	DescLong             string   `json:"descLong" bson:"descLong"`
	Prep                 string   `json:"prep" bson:"prep"`
	Difficulty           string   `json:"difficulty" bson:"difficulty"`
	PrepSteps            []string `json:"prepSteps" bson:"prepSteps"`
	IngredientNames      []string `json:"ingredientNames" bson:"ingredientNames"`
	IngredientQuantities []string `json:"ingredientQuantities" bson:"ingredientQuantities"`
	Region               string   `json:"region" bson:"region"`
	Category             string   `json:"category" bson:"category"`
	Timestamp            string   `json:"timestamp" bson:"timestamp"`
	SourceURL            string   `json:"sourceURL" bson:"sourceURL"`
}

// ID derives the document identifier used for dedupe: the title with all
// whitespace stripped. Recipes sharing a title within a region collide.
func (r Recipe) ID() string {
	return strings.Join(strings.Fields(r.Title), "")
}

// RawRegionPayload carries the unparsed responses from both upstream APIs
// for a single region. Consumed once by the normalizer.
type RawRegionPayload struct {
	Region      string          `json:"region"`
	MealDB      json.RawMessage `json:"mealdb"`
	Spoonacular json.RawMessage `json:"spoonacular"`
}

// NormalizedRegion is one region's recipes after the model pass. A region
// whose normalization failed is kept with an empty recipe list.
type NormalizedRegion struct {
	Region  string   `json:"region"`
	Recipes []Recipe `json:"recipes"`
}

// RegionRecord is the per-region summary document in the regions collection.
type RegionRecord struct {
	RegionName string `json:"regionName" bson:"regionName"`
	RegionCode string `json:"regionCode" bson:"regionCode"`
	Timestamp  string `json:"timestamp" bson:"timestamp"`
}

// UploadResult reports per-region upload counts. Err is set when that
// region's storage work failed; other regions still proceed.
type UploadResult struct {
	Region   string `json:"region"`
	Uploaded int    `json:"uploaded"`
	Skipped  int    `json:"skipped"`
	Error    string `json:"error,omitempty"`
}

// PipelineRequest is the work-queue message that triggers a pipeline run.
type PipelineRequest struct {
	Trigger   string    `json:"trigger"` // "schedule" or "manual"
	RequestID string    `json:"requestId"`
	Requested time.Time `json:"requested"`
}

// PipelineResult is published after a run completes or fails.
type PipelineResult struct {
	RequestID string         `json:"requestId"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
	Results   []UploadResult `json:"results,omitempty"`
	Finished  time.Time      `json:"finished"`
}
