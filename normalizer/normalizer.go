package normalizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"recipe-pipeline-service/config"
	"recipe-pipeline-service/helpers"
	"recipe-pipeline-service/metrics"
	"recipe-pipeline-service/model"

	openai "github.com/sashabaranov/go-openai"
)

// maxPromptPayload bounds how much raw API data is embedded in the prompt.
// Anything past this is cut, trading completeness for model context cost.
const maxPromptPayload = 5000

// ChatClient is the slice of the OpenAI client the normalizer needs.
// *openai.Client satisfies it.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Normalizer struct {
	config *config.Config
	client ChatClient
}

func NewNormalizer(cfg *config.Config) *Normalizer {
	return &Normalizer{
		config: cfg,
		client: openai.NewClient(cfg.OpenAIAPIKey),
	}
}

// NewNormalizerWithClient lets callers inject a ChatClient.
func NewNormalizerWithClient(cfg *config.Config, client ChatClient) *Normalizer {
	return &Normalizer{config: cfg, client: client}
}

// NormalizeAllRegions runs the model pass over every raw payload in
// parallel. Unlike the fetcher, failed regions are not dropped: they come
// back with an empty recipe list so the uploader still refreshes their
// summary record. Result order matches input order.
func (n *Normalizer) NormalizeAllRegions(ctx context.Context, payloads []model.RawRegionPayload) []model.NormalizedRegion {
	results := make([]model.NormalizedRegion, len(payloads))

	var wg sync.WaitGroup
	for i, payload := range payloads {
		wg.Add(1)
		go func(i int, payload model.RawRegionPayload) {
			defer wg.Done()
			region, err := n.normalizeRegion(ctx, payload)
			if err != nil {
				log.Printf("Error normalizing region %s: %v", payload.Region, err)
				metrics.RegionNormalizeFailures.Inc()
				results[i] = model.NormalizedRegion{Region: payload.Region, Recipes: []model.Recipe{}}
				return
			}
			results[i] = *region
		}(i, payload)
	}
	wg.Wait()

	return results
}

func (n *Normalizer) normalizeRegion(ctx context.Context, payload model.RawRegionPayload) (*model.NormalizedRegion, error) {
	prompt, err := buildPrompt(payload)
	if err != nil {
		return nil, err
	}

	resp, err := n.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       openai.GPT4oMini,
		Temperature: 0.3,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("completion request for %s: %w", payload.Region, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, errors.New("empty model response")
	}

	var region model.NormalizedRegion
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &region); err != nil {
		return nil, fmt.Errorf("parsing model response for %s: %w", payload.Region, err)
	}

	if region.Region == "" {
		region.Region = payload.Region
	}
	for i := range region.Recipes {
		region.Recipes[i] = FillDefaults(region.Recipes[i], region.Region)
	}

	// Crude rate limit between model calls.
	if err := helpers.Sleep(ctx, n.config.NormalizeDelay); err != nil {
		return nil, err
	}

	return &region, nil
}

func buildPrompt(payload model.RawRegionPayload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	if len(raw) > maxPromptPayload {
		raw = raw[:maxPromptPayload]
	}

	return fmt.Sprintf(`You are a culinary data assistant for GlobalFlavors.
Convert the following raw recipe API data into this JSON schema:

{
  "region": "string",
  "recipes": [
    {
      "img": "string",
      "title": "string",
      "desc": "string",
      "descLong": "string",
      "prep": "string",
      "difficulty": "string",
      "prepSteps": ["string", "string", "string"],
      "ingredientNames": ["string", "string"],
      "ingredientQuantities": ["string", "string"],
      "region": "string",
      "category": "string",
      "timestamp": "timestamp",
      "sourceURL": "string"
    }
  ]
}

Rules:
1. Include "region" in every recipe.
2. Arrays "prepSteps", "ingredientNames", and "ingredientQuantities" must exist.
3. Infer 3-5 logical steps if missing.
4. Estimate ingredient quantities if missing.
5. Output only valid JSON.
6. No commentary.

Region: %q
Raw API data:
%s
`, payload.Region, raw), nil
}
