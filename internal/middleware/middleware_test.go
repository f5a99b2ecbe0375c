package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/capitalize-ai/medassist/pkg/logger"
)

func signed(t *testing.T, secret, subject string, method jwt.SigningMethod) string {
	t.Helper()
	tok := jwt.NewWithClaims(method, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestAuth(t *testing.T) {
	var gotUser string
	h := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetUserID(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"bad format", "Token abc", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signed(t, "other", "u1", jwt.SigningMethodHS256), http.StatusUnauthorized},
		{"valid", "Bearer " + signed(t, "secret", "u1", jwt.SigningMethodHS256), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser = ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && gotUser != "u1" {
				t.Errorf("user = %q", gotUser)
			}
		})
	}
}

func TestLoggingCorrelationID(t *testing.T) {
	var seen string
	r := chi.NewRouter()
	r.Use(Logging(logger.NewNop()))
	r.Get("/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		seen = GetCorrelationID(r)
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/sessions/abc", nil)
	req.Header.Set(CorrelationHeader, "corr-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if seen != "corr-1" {
		t.Errorf("handler saw correlation %q", seen)
	}
	if rec.Header().Get(CorrelationHeader) != "corr-1" {
		t.Errorf("response header = %q", rec.Header().Get(CorrelationHeader))
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/abc", nil))
	if rec.Header().Get(CorrelationHeader) == "" {
		t.Error("correlation ID not generated")
	}
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	var codes []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

func TestValidation(t *testing.T) {
	if err := ValidateMessageContent(""); err == nil {
		t.Error("empty content accepted")
	}
	if err := ValidateMessageContent(strings.Repeat("a", maxContentBytes+1)); err == nil {
		t.Error("oversized content accepted")
	}
	if err := ValidateMessageContent("\xff"); err == nil {
		t.Error("invalid UTF-8 accepted")
	}
	if err := ValidateMessageContent("I have a cold"); err != nil {
		t.Error(err)
	}

	if err := ValidateSessionID("not-a-uuid"); err == nil {
		t.Error("bad session ID accepted")
	}
	if err := ValidateSessionID("0190f3c4-6b1e-7c2a-9d3e-1a2b3c4d5e6f"); err != nil {
		t.Error(err)
	}

	if err := ValidateLocaleName(""); err == nil {
		t.Error("empty locale accepted")
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("nosniff not set")
	}
}
