// Package llm provides the completion client contract and its provider implementations.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Role is the speaker tag on the wire.
type Role string

const (
	// RoleUser tags the hidden instruction and every human turn.
	RoleUser Role = "user"
	// RoleAssistant tags every assistant turn, including the seeded greeting.
	RoleAssistant Role = "assistant"
)

// ChatMessage represents a chat message for LLM.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest carries the full conversation log and the strings to
// return for each failure class.
type CompletionRequest struct {
	Messages []ChatMessage
	Texts    FailureTexts
}

// FailureClass classifies why a completion produced no usable text.
type FailureClass string

const (
	FailureMissingCredential FailureClass = "missing_credential"
	FailureConnectivity      FailureClass = "connectivity"
	FailureTimeout           FailureClass = "timeout"
	FailureTransport         FailureClass = "transport"
	FailureMalformedResponse FailureClass = "malformed_response"
	FailureEmptyResponse     FailureClass = "empty_or_blocked"
	FailureUnclassified      FailureClass = "unclassified"
)

// FailureTexts holds the user-facing string for each failure class.
type FailureTexts struct {
	MissingCredential string
	Connectivity      string
	Timeout           string
	Transport         string
	MalformedResponse string
	EmptyResponse     string
	Unclassified      string
}

// DefaultFailureTexts are the English strings used when no language pack applies.
var DefaultFailureTexts = FailureTexts{
	MissingCredential: "Error: API Key is missing. Please configure it.",
	Connectivity:      "I couldn't connect to the internet. Please check your connection.",
	Timeout:           "The request took too long. Please try again.",
	Transport:         "I'm experiencing a problem connecting to the medical assistant. Please ensure your API key is correct.",
	MalformedResponse: "I received an unreadable response from the medical assistant. Please try again.",
	EmptyResponse:     "I'm sorry, I couldn't get a clear response from the medical assistant at this moment. Please try again.",
	Unclassified:      "An unexpected error occurred while communicating. Please try again.",
}

// For returns the text for class.
func (t FailureTexts) For(class FailureClass) string {
	switch class {
	case FailureMissingCredential:
		return t.MissingCredential
	case FailureConnectivity:
		return t.Connectivity
	case FailureTimeout:
		return t.Timeout
	case FailureTransport:
		return t.Transport
	case FailureMalformedResponse:
		return t.MalformedResponse
	case FailureEmptyResponse:
		return t.EmptyResponse
	default:
		return t.Unclassified
	}
}

// textsOrDefault substitutes DefaultFailureTexts for an unset FailureTexts.
func textsOrDefault(t FailureTexts) FailureTexts {
	if t == (FailureTexts{}) {
		return DefaultFailureTexts
	}
	return t
}

// Failure describes a terminal, non-retryable completion failure.
// Message is safe to show to the end user; Detail is for operators only.
type Failure struct {
	Class      FailureClass
	Message    string
	Detail     string
	StatusCode int
	Err        error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Class, f.Detail, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Class, f.Detail)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Result is the outcome of one completion call. Exactly one of Text or
// Failure is set.
type Result struct {
	Text      string
	Failure   *Failure
	Model     string
	LatencyMs int64
}

// OK reports whether the call produced reply text.
func (r Result) OK() bool {
	return r.Failure == nil
}

// Display returns the string to append to the transcript.
func (r Result) Display() string {
	if r.Failure != nil {
		return r.Failure.Message
	}
	return r.Text
}

// Outcome is the metrics label for this result.
func (r Result) Outcome() string {
	if r.Failure != nil {
		return string(r.Failure.Class)
	}
	return "success"
}

// Completer is implemented by every provider. Complete never returns a Go
// error: every failure is absorbed into Result.Failure.
type Completer interface {
	Complete(ctx context.Context, req *CompletionRequest) Result

	// Name returns the provider name.
	Name() string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Options selects and configures a provider.
type Options struct {
	Provider Provider
	APIKey   string
	Model    string
	// Endpoint is the Gemini generateContent URL, or the SDK base URL for
	// the other providers. Empty uses the public default.
	Endpoint string
	Timeout  time.Duration
}

// NewCompleter creates a completer for opts.Provider. An empty APIKey is
// accepted; such a completer answers every call with a missing-credential failure.
func NewCompleter(opts Options) (Completer, error) {
	switch opts.Provider {
	case ProviderGemini, "":
		geminiOpts := []GeminiOption{WithTimeout(opts.Timeout)}
		if opts.Endpoint != "" {
			geminiOpts = append(geminiOpts, WithEndpoint(opts.Endpoint))
		}
		return NewGeminiClient(opts.APIKey, geminiOpts...), nil
	case ProviderOpenAI:
		return NewOpenAIClient(opts.APIKey, opts.Model, opts.Endpoint, opts.Timeout), nil
	case ProviderAnthropic:
		return NewAnthropicClient(opts.APIKey, opts.Model, opts.Endpoint, opts.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", opts.Provider)
	}
}

func fail(texts FailureTexts, class FailureClass, detail string, err error) Result {
	return Result{
		Failure: &Failure{
			Class:   class,
			Message: textsOrDefault(texts).For(class),
			Detail:  detail,
			Err:     err,
		},
	}
}
