package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testMessages() []ChatMessage {
	return []ChatMessage{
		{Role: RoleUser, Content: "instruction"},
		{Role: RoleAssistant, Content: "greeting"},
		{Role: RoleUser, Content: "I have a cold"},
	}
}

func newGeminiServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestGeminiMissingCredentialMakesNoCall(t *testing.T) {
	srv, calls := newGeminiServer(t, http.StatusOK, `{}`)
	client := NewGeminiClient("", WithEndpoint(srv.URL))

	res := client.Complete(context.Background(), &CompletionRequest{Messages: testMessages()})

	if res.OK() {
		t.Fatal("expected failure with empty credential")
	}
	if res.Failure.Class != FailureMissingCredential {
		t.Errorf("class = %s, want %s", res.Failure.Class, FailureMissingCredential)
	}
	if res.Display() != DefaultFailureTexts.MissingCredential {
		t.Errorf("display = %q", res.Display())
	}
	if n := atomic.LoadInt32(calls); n != 0 {
		t.Errorf("expected zero network calls, got %d", n)
	}
}

func TestGeminiRequestShape(t *testing.T) {
	var (
		gotKey         string
		gotContentType string
		gotBody        geminiRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		gotKey = r.URL.Query().Get("key")
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	}))
	defer srv.Close()

	client := NewGeminiClient("secret-key", WithEndpoint(srv.URL))
	res := client.Complete(context.Background(), &CompletionRequest{Messages: testMessages()})
	if !res.OK() {
		t.Fatalf("unexpected failure: %v", res.Failure)
	}

	if gotKey != "secret-key" {
		t.Errorf("key query = %q", gotKey)
	}
	if gotContentType != "application/json" {
		t.Errorf("content type = %q", gotContentType)
	}

	wantRoles := []string{"user", "model", "user"}
	if len(gotBody.Contents) != len(wantRoles) {
		t.Fatalf("contents length = %d, want %d", len(gotBody.Contents), len(wantRoles))
	}
	for i, c := range gotBody.Contents {
		if c.Role != wantRoles[i] {
			t.Errorf("contents[%d].role = %q, want %q", i, c.Role, wantRoles[i])
		}
		if len(c.Parts) != 1 {
			t.Errorf("contents[%d] has %d parts, want 1", i, len(c.Parts))
		}
	}
	if gotBody.Contents[2].Parts[0].Text != "I have a cold" {
		t.Errorf("last turn text = %q", gotBody.Contents[2].Parts[0].Text)
	}
}

func TestGeminiClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   FailureClass
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, FailureTransport},
		{"forbidden", http.StatusForbidden, `{"error":{"code":403}}`, FailureTransport},
		{"not json", http.StatusOK, `<html>oops</html>`, FailureMalformedResponse},
		{"wrong shape", http.StatusOK, `{"candidates":"nope"}`, FailureMalformedResponse},
		{"empty candidates", http.StatusOK, `{"candidates":[]}`, FailureEmptyResponse},
		{"no content", http.StatusOK, `{"candidates":[{"finishReason":"SAFETY"}]}`, FailureEmptyResponse},
		{"no parts", http.StatusOK, `{"candidates":[{"content":{"parts":[]}}]}`, FailureEmptyResponse},
		{"empty text", http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":""}]}}]}`, FailureEmptyResponse},
		{"blocked prompt", http.StatusOK, `{"promptFeedback":{"blockReason":"SAFETY"}}`, FailureEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newGeminiServer(t, tt.status, tt.body)
			client := NewGeminiClient("k", WithEndpoint(srv.URL))

			res := client.Complete(context.Background(), &CompletionRequest{Messages: testMessages()})
			if res.OK() {
				t.Fatalf("expected failure, got text %q", res.Text)
			}
			if res.Failure.Class != tt.want {
				t.Errorf("class = %s, want %s (detail %s)", res.Failure.Class, tt.want, res.Failure.Detail)
			}
			if res.Display() == "" {
				t.Error("failure display text is empty")
			}
		})
	}
}

func TestGeminiTransportFailureKeepsDiagnostics(t *testing.T) {
	srv, _ := newGeminiServer(t, http.StatusInternalServerError, `internal trouble`)
	client := NewGeminiClient("k", WithEndpoint(srv.URL))

	res := client.Complete(context.Background(), &CompletionRequest{Messages: testMessages()})
	if res.Failure.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d", res.Failure.StatusCode)
	}
	if !strings.Contains(res.Failure.Detail, "internal trouble") {
		t.Errorf("detail should carry the body, got %q", res.Failure.Detail)
	}
	if strings.Contains(res.Display(), "internal trouble") {
		t.Error("diagnostic body leaked into display text")
	}
}

func TestGeminiOversizedBodyIsReported(t *testing.T) {
	// Valid JSON followed by padding past the read cap.
	body := `{"candidates":[{"content":{"parts":[{"text":"Hello"}]}}]}` + strings.Repeat(" ", maxResponseBytes)
	srv, _ := newGeminiServer(t, http.StatusOK, body)
	client := NewGeminiClient("k", WithEndpoint(srv.URL))

	res := client.Complete(context.Background(), &CompletionRequest{Messages: testMessages()})
	if res.OK() {
		t.Fatal("expected failure for oversized body")
	}
	if res.Failure.Class != FailureMalformedResponse {
		t.Errorf("class = %s, want %s", res.Failure.Class, FailureMalformedResponse)
	}
	if !strings.Contains(res.Failure.Detail, "exceeds") {
		t.Errorf("detail should name the size cap, got %q", res.Failure.Detail)
	}
}

func TestGeminiSuccessIsVerbatim(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"hello", `{"candidates":[{"content":{"parts":[{"text":"Hello"}]}}]}`, "Hello"},
		{"whitespace kept", `{"candidates":[{"content":{"parts":[{"text":"  Hi\n\n"}]}}]}`, "  Hi\n\n"},
		{"first part only", `{"candidates":[{"content":{"parts":[{"text":"one"},{"text":"two"}]}},{"content":{"parts":[{"text":"three"}]}}]}`, "one"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newGeminiServer(t, http.StatusOK, tt.body)
			client := NewGeminiClient("k", WithEndpoint(srv.URL))

			res := client.Complete(context.Background(), &CompletionRequest{Messages: testMessages()})
			if !res.OK() {
				t.Fatalf("unexpected failure: %v", res.Failure)
			}
			if res.Text != tt.want {
				t.Errorf("text = %q, want %q", res.Text, tt.want)
			}
		})
	}
}

func TestGeminiTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewGeminiClient("k", WithEndpoint(srv.URL), WithTimeout(50*time.Millisecond))
	res := client.Complete(context.Background(), &CompletionRequest{Messages: testMessages()})

	if res.OK() || res.Failure.Class != FailureTimeout {
		t.Fatalf("expected timeout, got %+v", res.Failure)
	}
}

func TestGeminiConnectivity(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	client := NewGeminiClient("k", WithEndpoint(endpoint))
	res := client.Complete(context.Background(), &CompletionRequest{Messages: testMessages()})

	if res.OK() || res.Failure.Class != FailureConnectivity {
		t.Fatalf("expected connectivity failure, got %+v", res.Failure)
	}
}

func TestGeminiUnclassified(t *testing.T) {
	client := NewGeminiClient("k", WithEndpoint("ftp://example.invalid/generate"))
	res := client.Complete(context.Background(), &CompletionRequest{Messages: testMessages()})

	if res.OK() || res.Failure.Class != FailureUnclassified {
		t.Fatalf("expected unclassified failure, got %+v", res.Failure)
	}
}

func TestGeminiErrorsDoNotLeakKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	client := NewGeminiClient("super-secret", WithEndpoint(endpoint))
	res := client.Complete(context.Background(), &CompletionRequest{Messages: testMessages()})

	if strings.Contains(res.Failure.Error(), "super-secret") {
		t.Errorf("credential leaked in error: %s", res.Failure.Error())
	}
}

func TestGeminiUsesLocalizedTexts(t *testing.T) {
	srv, _ := newGeminiServer(t, http.StatusOK, `{"candidates":[]}`)
	client := NewGeminiClient("k", WithEndpoint(srv.URL))

	texts := DefaultFailureTexts
	texts.EmptyResponse = "localized generic failure"

	res := client.Complete(context.Background(), &CompletionRequest{Messages: testMessages(), Texts: texts})
	if res.Display() != "localized generic failure" {
		t.Errorf("display = %q", res.Display())
	}
}

func TestFailureUnwrap(t *testing.T) {
	inner := errors.New("dial tcp: refused")
	f := &Failure{Class: FailureConnectivity, Detail: "request failed", Err: inner}

	if !errors.Is(f, inner) {
		t.Error("Failure should unwrap to its cause")
	}
	if !strings.Contains(f.Error(), "connectivity") {
		t.Errorf("Error() = %q", f.Error())
	}
}
