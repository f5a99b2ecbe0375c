package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel = "claude-3-5-haiku-20241022"
	anthropicMaxTokens    = 2048
)

// AnthropicClient is the Anthropic LLM client.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient creates a new Anthropic client. SDK retries are
// disabled; every failure is terminal for the request.
func NewAnthropicClient(apiKey, model, baseURL string, timeout time.Duration) *AnthropicClient {
	if model == "" {
		model = defaultAnthropicModel
	}

	c := &AnthropicClient{model: model}
	if apiKey == "" {
		return c
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: timeout}))
	}
	c.client = anthropic.NewClient(opts...)

	return c
}

// Name returns the provider name.
func (c *AnthropicClient) Name() string {
	return string(ProviderAnthropic)
}

// Complete sends a completion request. The log already alternates
// user/assistant starting with the instruction turn, as the Messages API requires.
func (c *AnthropicClient) Complete(ctx context.Context, req *CompletionRequest) Result {
	start := time.Now()

	if c.client == nil {
		return fail(req.Texts, FailureMissingCredential, "no Anthropic API key configured", nil)
	}

	messages := make([]anthropic.MessageParam, len(req.Messages))
	for i, msg := range req.Messages {
		role := RoleUser
		if msg.Role == RoleAssistant {
			role = RoleAssistant
		}
		messages[i] = anthropic.MessageParam{
			Role: anthropic.F(anthropic.MessageParamRole(role)),
			Content: anthropic.F([]anthropic.ContentBlockParamUnion{
				anthropic.TextBlockParam{
					Type: anthropic.F(anthropic.TextBlockParamTypeText),
					Text: anthropic.F(msg.Content),
				},
			}),
		}
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.F(c.model),
		MaxTokens: anthropic.F(int64(anthropicMaxTokens)),
		Messages:  anthropic.F(messages),
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			res := fail(req.Texts, FailureTransport, fmt.Sprintf("status %d", apiErr.StatusCode), err)
			res.Failure.StatusCode = apiErr.StatusCode
			return res
		}
		return fail(req.Texts, classifySDKError(err), "anthropic request failed", err)
	}

	// Only the first text block is consumed, mirroring the Gemini extraction.
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText && block.Text != "" {
			return Result{
				Text:      block.Text,
				Model:     resp.Model,
				LatencyMs: time.Since(start).Milliseconds(),
			}
		}
	}

	return fail(req.Texts, FailureEmptyResponse, fmt.Sprintf("no text block (stop_reason=%q)", resp.StopReason), nil)
}
