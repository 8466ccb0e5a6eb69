// Package summarize turns job overviews into short human-readable
// notification messages via an external text-generation API.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/oljwatch/job-harvester/common"
	"github.com/oljwatch/job-harvester/common/config"
	"google.golang.org/api/option"
)

// Generator produces a summary for one job posting.
type Generator interface {
	GenerateSummary(ctx context.Context, overview, link string) (string, error)
}

// GeminiClient implements Generator on top of the Gemini API. The client
// library exposes no thinking-budget control, so the fast generation tier
// is approximated by pinning a flash-lite model and a low sampling
// temperature instead of disabling reasoning outright.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed summary generator.
func NewGeminiClient(ctx context.Context, cfg config.Config) (*GeminiClient, error) {
	if cfg.Gemini.APIKey == "" {
		return nil, common.ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Gemini.APIKey))
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  cfg.Gemini.Model,
	}, nil
}

// GenerateSummary asks the model for a compact notification message built
// from the job overview and apply link.
func (c *GeminiClient) GenerateSummary(ctx context.Context, overview, link string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0.2)

	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(overview, link)))
	if err != nil {
		return "", fmt.Errorf("generating summary: %w", err)
	}

	return extractText(resp)
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}
