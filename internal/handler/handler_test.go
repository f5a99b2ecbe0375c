package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/capitalize-ai/medassist/internal/conversation"
	"github.com/capitalize-ai/medassist/internal/llm"
	"github.com/capitalize-ai/medassist/internal/locale"
	"github.com/capitalize-ai/medassist/internal/model"
	"github.com/capitalize-ai/medassist/internal/service"
	"github.com/capitalize-ai/medassist/internal/store"
	"github.com/capitalize-ai/medassist/pkg/logger"
)

type stubCompleter struct {
	result llm.Result
	calls  int
}

func (s *stubCompleter) Complete(ctx context.Context, req *llm.CompletionRequest) llm.Result {
	s.calls++
	return s.result
}

func (s *stubCompleter) Name() string { return "stub" }

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("down") }

func newTestServer(t *testing.T, c llm.Completer, variant conversation.Variant) *httptest.Server {
	t.Helper()
	st, _ := store.New(store.TypeMemory)
	log := logger.NewNop()
	svc := service.NewConversationService(st, locale.MustBuiltin(), c, nil, variant, log)

	srv := httptest.NewServer(NewRouter(RouterConfig{
		Sessions: NewSessionHandler(svc, log),
		Health:   NewHealthHandler(map[string]Pinger{"store": st}),
		Logger:   log,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func TestSessionFlow(t *testing.T) {
	c := &stubCompleter{result: llm.Result{Text: "Rest and fluids."}}
	srv := newTestServer(t, c, conversation.VariantMultilingual)
	base := srv.URL + "/api/v1"

	var locales model.LocalesResponse
	if code := do(t, http.MethodGet, base+"/locales", nil, &locales); code != http.StatusOK {
		t.Fatalf("locales status = %d", code)
	}
	if locales.Default != "English" || len(locales.Locales) != 3 {
		t.Errorf("locales = %+v", locales)
	}

	var view model.SessionView
	if code := do(t, http.MethodPost, base+"/sessions", nil, &view); code != http.StatusCreated {
		t.Fatalf("create status = %d", code)
	}
	if view.Phase != string(conversation.PhaseAwaitingLanguageChoice) || len(view.Transcript) != 0 {
		t.Errorf("new session = %+v", view)
	}
	sessURL := base + "/sessions/" + view.ID

	if code := do(t, http.MethodPost, sessURL+"/messages", model.SendMessageRequest{Content: "hi"}, nil); code != http.StatusConflict {
		t.Errorf("send before locale: status = %d, want 409", code)
	}
	if code := do(t, http.MethodPut, sessURL+"/locale", model.SelectLocaleRequest{Locale: "Klingon"}, nil); code != http.StatusBadRequest {
		t.Errorf("unknown locale: status = %d, want 400", code)
	}

	if code := do(t, http.MethodPut, sessURL+"/locale", model.SelectLocaleRequest{Locale: "English"}, &view); code != http.StatusOK {
		t.Fatalf("select status = %d", code)
	}
	if len(view.Transcript) != 1 || view.Transcript[0].Role != model.RoleAssistant {
		t.Fatalf("transcript after select = %+v", view.Transcript)
	}
	if view.UI.Disclaimer == "" || view.UI.PendingIndicator == "" {
		t.Errorf("ui strings = %+v", view.UI)
	}

	var sent model.SendMessageResponse
	if code := do(t, http.MethodPost, sessURL+"/messages", model.SendMessageRequest{Content: "I have a cold"}, &sent); code != http.StatusOK {
		t.Fatalf("send status = %d", code)
	}
	if sent.Reply != "Rest and fluids." || sent.FailureClass != "" {
		t.Errorf("send = %+v", sent)
	}
	tr := sent.Session.Transcript
	if len(tr) != 3 || tr[1].Role != model.RoleUser || tr[1].Text != "I have a cold" || tr[2].Text != "Rest and fluids." {
		t.Errorf("transcript = %+v", tr)
	}

	if code := do(t, http.MethodDelete, sessURL+"/locale", nil, &view); code != http.StatusOK {
		t.Fatalf("change locale status = %d", code)
	}
	if view.Phase != string(conversation.PhaseAwaitingLanguageChoice) || len(view.Transcript) != 0 {
		t.Errorf("after change = %+v", view)
	}

	if code := do(t, http.MethodDelete, sessURL, nil, nil); code != http.StatusNoContent {
		t.Errorf("delete status = %d", code)
	}
	if code := do(t, http.MethodGet, sessURL, nil, nil); code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", code)
	}
}

func TestSendReportsFailureClass(t *testing.T) {
	c := &stubCompleter{result: llm.Result{Failure: &llm.Failure{
		Class:   llm.FailureTimeout,
		Message: llm.DefaultFailureTexts.Timeout,
	}}}
	srv := newTestServer(t, c, conversation.VariantSingle)
	base := srv.URL + "/api/v1"

	var view model.SessionView
	do(t, http.MethodPost, base+"/sessions", nil, &view)
	if view.Phase != string(conversation.PhaseActive) || len(view.Transcript) != 1 {
		t.Fatalf("single session = %+v", view)
	}

	var sent model.SendMessageResponse
	if code := do(t, http.MethodPost, base+"/sessions/"+view.ID+"/messages", model.SendMessageRequest{Content: "hello"}, &sent); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if sent.FailureClass != string(llm.FailureTimeout) || sent.Reply != llm.DefaultFailureTexts.Timeout {
		t.Errorf("send = %+v", sent)
	}
}

func TestBadRequests(t *testing.T) {
	c := &stubCompleter{result: llm.Result{Text: "x"}}
	srv := newTestServer(t, c, conversation.VariantSingle)
	base := srv.URL + "/api/v1"

	var view model.SessionView
	do(t, http.MethodPost, base+"/sessions", nil, &view)

	tests := []struct {
		name   string
		method string
		url    string
		body   any
		want   int
	}{
		{"bad id", http.MethodGet, base + "/sessions/nope", nil, http.StatusBadRequest},
		{"unknown id", http.MethodGet, base + "/sessions/0190f3c4-6b1e-7c2a-9d3e-1a2b3c4d5e6f", nil, http.StatusNotFound},
		{"empty content", http.MethodPost, base + "/sessions/" + view.ID + "/messages", model.SendMessageRequest{}, http.StatusBadRequest},
		{"empty locale", http.MethodPut, base + "/sessions/" + view.ID + "/locale", model.SelectLocaleRequest{}, http.StatusBadRequest},
		{"locale on single variant", http.MethodPut, base + "/sessions/" + view.ID + "/locale", model.SelectLocaleRequest{Locale: "Hindi"}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := do(t, tt.method, tt.url, tt.body, nil); code != tt.want {
				t.Errorf("status = %d, want %d", code, tt.want)
			}
		})
	}

	if c.calls != 0 {
		t.Errorf("completer called %d times", c.calls)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &stubCompleter{}, conversation.VariantSingle)

	if code := do(t, http.MethodGet, srv.URL+"/health", nil, nil); code != http.StatusOK {
		t.Errorf("health = %d", code)
	}
	if code := do(t, http.MethodGet, srv.URL+"/ready", nil, nil); code != http.StatusOK {
		t.Errorf("ready = %d", code)
	}

	rec := httptest.NewRecorder()
	NewHealthHandler(map[string]Pinger{"nats": failingPinger{}, "skipped": nil}).
		Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("failing ready = %d", rec.Code)
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrSessionNotFound, http.StatusNotFound},
		{service.ErrPending, http.StatusConflict},
		{service.ErrConflict, http.StatusConflict},
		{conversation.ErrInvalidPhase, http.StatusConflict},
		{conversation.ErrUnknownLocale, http.StatusBadRequest},
		{conversation.ErrEmptyText, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := errorStatus(tt.err); got != tt.want {
			t.Errorf("errorStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
