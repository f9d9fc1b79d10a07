package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"siteaudit/internal/domain"
	"siteaudit/internal/ports"
)

const (
	DefaultModel     = "openai/gpt-oss-20b"
	DefaultMaxTokens = 300
)

type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int64
	HTTPClient *http.Client
}

// Generator asks an OpenAI-compatible chat endpoint for SEO suggestions.
type Generator struct {
	client    openai.Client
	model     string
	maxTokens int64
	enabled   bool
}

func New(opts Options) *Generator {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	clientOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	return &Generator{
		client:    openai.NewClient(clientOpts...),
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		enabled:   opts.APIKey != "",
	}
}

// Suggest returns at most MaxSuggestions lines. Any failure is returned to the
// caller, which is expected to fall back to an empty list.
func (g *Generator) Suggest(ctx context.Context, in domain.AuditSnapshot) ([]string, error) {
	if !g.enabled {
		return nil, ports.ErrSuggestionsDisabled
	}
	prompt, err := buildPrompt(in)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     g.model,
		Messages:  []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		MaxTokens: openai.Int(g.maxTokens),
	})
	if err != nil {
		return nil, errors.Wrap(err, "chat completion")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices in completion")
	}
	return ParseSuggestions(resp.Choices[0].Message.Content), nil
}

func buildPrompt(in domain.AuditSnapshot) (string, error) {
	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "encode audit data")
	}
	var b strings.Builder
	b.WriteString("Generate 5 SEO suggestions for the following data.\n")
	b.WriteString("Answer with one short suggestion per line and nothing else.\n")
	b.Write(data)
	return b.String(), nil
}
