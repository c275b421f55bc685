// Package llm adapts an OpenAI-compatible chat completion endpoint (Groq by
// default) to the single call shape the research steps need.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

// SentinelPrefix marks model failures that are surfaced as text.
const SentinelPrefix = "LLM_ERROR: "

// ErrEmptyResponse is returned when the model answers with no choices.
var ErrEmptyResponse = errors.New("llm: empty response")

// Request is one prompt to the model.
type Request struct {
	Prompt   string
	System   string
	JSONMode bool
}

// Generator is implemented by model clients.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Client calls a chat completions API.
type Client struct {
	api         openai.Client
	model       string
	temperature float64
}

// Options configure NewClient. BaseURL may be empty for api.openai.com.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Extra       []option.RequestOption
}

func NewClient(o Options) *Client {
	opts := []option.RequestOption{option.WithAPIKey(o.APIKey)}
	if o.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(o.BaseURL, "/")+"/"))
	}
	opts = append(opts, o.Extra...)
	return &Client{
		api:         openai.NewClient(opts...),
		model:       o.Model,
		temperature: o.Temperature,
	}
}

// Generate sends the system instruction (if any) and the prompt, returning
// the trimmed text of the first choice.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	var msgs []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    msgs,
		Temperature: param.NewOpt(c.temperature),
	}
	if req.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("llm %s: %w", c.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Sentinel renders err the way model failures appear in user-visible text.
func Sentinel(err error) string {
	return SentinelPrefix + err.Error()
}

// IsSentinel reports whether text is a failure rendered by Sentinel.
func IsSentinel(text string) bool {
	return strings.Contains(text, strings.TrimSpace(SentinelPrefix))
}

// GenerateText calls g and folds any failure into sentinel text. The error is
// still returned so callers can record it.
func GenerateText(ctx context.Context, g Generator, req Request) (string, error) {
	text, err := g.Generate(ctx, req)
	if err != nil {
		return Sentinel(err), err
	}
	return text, nil
}
