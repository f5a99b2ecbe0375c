package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient is the OpenAI LLM client.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a new OpenAI client. With an empty apiKey every
// call fails with FailureMissingCredential. An empty baseURL uses the public API.
func NewOpenAIClient(apiKey, model, baseURL string, timeout time.Duration) *OpenAIClient {
	if model == "" {
		model = defaultOpenAIModel
	}

	c := &OpenAIClient{model: model}
	if apiKey == "" {
		return c
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	c.client = openai.NewClientWithConfig(cfg)

	return c
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return string(ProviderOpenAI)
}

// Complete sends a completion request.
func (c *OpenAIClient) Complete(ctx context.Context, req *CompletionRequest) Result {
	start := time.Now()

	if c.client == nil {
		return fail(req.Texts, FailureMissingCredential, "no OpenAI API key configured", nil)
	}

	// The instruction entry travels as a user turn, same as on the Gemini wire.
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		role := openai.ChatMessageRoleUser
		if msg.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages[i] = openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return failFromOpenAI(req.Texts, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		finish := ""
		if len(resp.Choices) > 0 {
			finish = string(resp.Choices[0].FinishReason)
		}
		return fail(req.Texts, FailureEmptyResponse, fmt.Sprintf("no usable choice (finish_reason=%q)", finish), nil)
	}

	return Result{
		Text:      resp.Choices[0].Message.Content,
		Model:     resp.Model,
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

func failFromOpenAI(texts FailureTexts, err error) Result {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		res := fail(texts, FailureTransport, fmt.Sprintf("status %d: %s", apiErr.HTTPStatusCode, apiErr.Message), err)
		res.Failure.StatusCode = apiErr.HTTPStatusCode
		return res
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		res := fail(texts, FailureTransport, fmt.Sprintf("status %d", reqErr.HTTPStatusCode), err)
		res.Failure.StatusCode = reqErr.HTTPStatusCode
		return res
	}

	return fail(texts, classifySDKError(err), "openai request failed", err)
}
