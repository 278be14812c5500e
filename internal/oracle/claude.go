package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ajitpratap0/edgar-entities/pkg/xmlutil"
)

// DefaultModel is the Claude model used when none is configured.
const DefaultModel = "claude-haiku-4-5-20251001"

// claudeMaxTokens caps the reply; only "yes" or "no" is expected.
const claudeMaxTokens = 8

// The token is escaped and wrapped in XML tags so filer-supplied text cannot
// rewrite the instructions.
const claudePromptTemplate = `Decide whether the token below is commonly used as a personal given name (first name) in any culture.
Answer with exactly one word: yes or no.

%s`

// Claude asks an Anthropic model whether a token is a given name.
type Claude struct {
	client *anthropic.Client
	model  string
	logger *slog.Logger
}

// NewClaude creates a Claude-backed lookup. Extra request options (base URL,
// retries) are passed through to the SDK client.
func NewClaude(apiKey, model string, logger *slog.Logger, opts ...option.RequestOption) *Claude {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &Claude{client: &client, model: model, logger: logger}
}

// Lookup implements Lookup.
func (c *Claude) Lookup(ctx context.Context, token string) (bool, error) {
	wrapped, err := xmlutil.Element("token", token)
	if err != nil {
		return false, fmt.Errorf("escaping token: %w", err)
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: claudeMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf(claudePromptTemplate, wrapped))),
		},
		System: []anthropic.TextBlockParam{
			{Text: "You classify name tokens. Reply only yes or no."},
		},
	})
	if err != nil {
		return false, fmt.Errorf("calling Claude API: %w", err)
	}

	var answer string
	for i := range resp.Content {
		if resp.Content[i].Type == "text" {
			answer = strings.ToLower(strings.TrimSpace(resp.Content[i].Text))
			break
		}
	}
	c.logger.Debug("claude name verdict", "token", token, "answer", answer)

	switch {
	case strings.HasPrefix(answer, "yes"):
		return true, nil
	case strings.HasPrefix(answer, "no"):
		return false, nil
	default:
		return false, fmt.Errorf("unexpected Claude answer %q", answer)
	}
}
