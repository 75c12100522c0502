package docs

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultSummaryModel is used when no model is configured.
const DefaultSummaryModel = "claude-3-5-haiku-latest"

// maxSummaryInput caps how much source is sent per request.
const maxSummaryInput = 16 * 1024

// ClaudeSummarizer asks the Anthropic API for a one-paragraph summary of
// a healed source file.
type ClaudeSummarizer struct {
	client anthropic.Client
	model  string
}

// NewClaudeSummarizer creates a summarizer with the given API key and
// model. An empty model selects DefaultSummaryModel.
func NewClaudeSummarizer(apiKey, model string) *ClaudeSummarizer {
	if model == "" {
		model = DefaultSummaryModel
	}
	return &ClaudeSummarizer{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Summarize implements Summarizer.
func (s *ClaudeSummarizer) Summarize(ctx context.Context, path, content string) (string, error) {
	if len(content) > maxSummaryInput {
		content = content[:maxSummaryInput]
	}

	prompt := fmt.Sprintf(
		"Summarize what the Python module %s does in a single short paragraph. "+
			"Respond with the paragraph only.\n\n%s", path, content)

	response, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: 512,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
