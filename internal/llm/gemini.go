package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultGeminiEndpoint is the generateContent URL, without the key parameter.
	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"

	defaultGeminiTimeout = 60 * time.Second
	maxResponseBytes     = 4 << 20
)

// GeminiEndpointForModel returns the generateContent URL for model.
func GeminiEndpointForModel(model string) string {
	return "https://generativelanguage.googleapis.com/v1beta/models/" + url.PathEscape(model) + ":generateContent"
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	ModelVersion string `json:"modelVersion"`
}

// text returns candidates[0].content.parts[0].text and whether it is present and non-empty.
func (r *geminiResponse) text() (string, bool) {
	if len(r.Candidates) == 0 {
		return "", false
	}
	content := r.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", false
	}
	t := content.Parts[0].Text
	if t == nil || *t == "" {
		return "", false
	}
	return *t, true
}

// GeminiClient calls the Gemini generateContent endpoint with one POST per call.
type GeminiClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// GeminiOption configures a GeminiClient.
type GeminiOption func(*GeminiClient)

// WithEndpoint overrides the generateContent URL.
func WithEndpoint(endpoint string) GeminiOption {
	return func(c *GeminiClient) {
		c.endpoint = endpoint
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) GeminiOption {
	return func(c *GeminiClient) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout. Zero keeps the default.
func WithTimeout(d time.Duration) GeminiOption {
	return func(c *GeminiClient) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// NewGeminiClient creates a Gemini client. apiKey may be empty.
func NewGeminiClient(apiKey string, opts ...GeminiOption) *GeminiClient {
	c := &GeminiClient{
		endpoint:   DefaultGeminiEndpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultGeminiTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the provider name.
func (c *GeminiClient) Name() string {
	return string(ProviderGemini)
}

// Complete sends the whole log and extracts the first candidate's first text part.
func (c *GeminiClient) Complete(ctx context.Context, req *CompletionRequest) Result {
	start := time.Now()

	if c.apiKey == "" {
		return fail(req.Texts, FailureMissingCredential, "no Gemini API key configured", nil)
	}

	body, err := json.Marshal(toGeminiRequest(req.Messages))
	if err != nil {
		return fail(req.Texts, FailureUnclassified, "failed to encode request", err)
	}

	target, err := c.requestURL()
	if err != nil {
		return fail(req.Texts, FailureUnclassified, "invalid endpoint", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fail(req.Texts, FailureUnclassified, "failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fail(req.Texts, classifyTransportError(err), "request failed", redactKey(err, c.apiKey))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return fail(req.Texts, classifyTransportError(err), "failed to read response body", redactKey(err, c.apiKey))
	}
	truncated := len(raw) > maxResponseBytes
	if truncated {
		raw = raw[:maxResponseBytes]
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		res := fail(req.Texts, FailureTransport, fmt.Sprintf("status %d: %s", resp.StatusCode, raw), nil)
		res.Failure.StatusCode = resp.StatusCode
		return res
	}

	if truncated {
		return fail(req.Texts, FailureMalformedResponse,
			fmt.Sprintf("response body exceeds %d bytes, not decoded", maxResponseBytes), nil)
	}

	var decoded geminiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fail(req.Texts, FailureMalformedResponse, fmt.Sprintf("raw response: %s", raw), err)
	}

	text, ok := decoded.text()
	if !ok {
		detail := fmt.Sprintf("unexpected response structure: %s", raw)
		if decoded.PromptFeedback != nil && decoded.PromptFeedback.BlockReason != "" {
			detail = fmt.Sprintf("prompt blocked (%s): %s", decoded.PromptFeedback.BlockReason, raw)
		}
		return fail(req.Texts, FailureEmptyResponse, detail, nil)
	}

	return Result{
		Text:      text,
		Model:     decoded.ModelVersion,
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

func (c *GeminiClient) requestURL() (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func toGeminiRequest(messages []ChatMessage) geminiRequest {
	contents := make([]geminiContent, len(messages))
	for i, msg := range messages {
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}
		contents[i] = geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: msg.Content}},
		}
	}
	return geminiRequest{Contents: contents}
}

// redactKey strips the credential from errors that echo the request URL.
func redactKey(err error, key string) error {
	uerr, ok := err.(*url.Error)
	if !ok || key == "" {
		return err
	}
	redacted := *uerr
	redacted.URL = stripQuery(uerr.URL)
	return &redacted
}

func stripQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	u.RawQuery = ""
	return u.String()
}
