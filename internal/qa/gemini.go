package qa

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

func newGemini(ctx context.Context, opts Options, model string) (completer, error) {
	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
	}

	return func(ctx context.Context, prompt string) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, model, []*genai.Content{
			{Parts: []*genai.Part{{Text: prompt}}, Role: "user"},
		}, config)
		if err != nil {
			return "", fmt.Errorf("genai generate: %w", err)
		}

		var sb strings.Builder
		if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
			for _, part := range resp.Candidates[0].Content.Parts {
				sb.WriteString(part.Text)
			}
		}
		return sb.String(), nil
	}, nil
}
