// Package model defines the JSON shapes of the HTTP API.
package model

import (
	"time"

	"github.com/capitalize-ai/medassist/internal/conversation"
	"github.com/capitalize-ai/medassist/internal/locale"
)

// Role is the speaker of a rendered transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TranscriptEntry is one visible chat bubble.
type TranscriptEntry struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// UIStrings are the localized strings a client renders around the transcript.
type UIStrings struct {
	Disclaimer       string `json:"disclaimer"`
	InputPlaceholder string `json:"input_placeholder"`
	PendingIndicator string `json:"pending_indicator"`
}

// SessionView is the render projection of a session.
type SessionView struct {
	ID         string            `json:"id"`
	Variant    string            `json:"variant"`
	Phase      string            `json:"phase"`
	Locale     string            `json:"locale,omitempty"`
	Pending    bool              `json:"pending"`
	UI         UIStrings         `json:"ui"`
	Transcript []TranscriptEntry `json:"transcript"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// NewSessionView projects s with the strings of its active pack.
func NewSessionView(s *conversation.Session, packs *locale.Registry) *SessionView {
	pack := s.Pack(packs)

	transcript := s.Transcript()
	entries := make([]TranscriptEntry, len(transcript))
	for i, m := range transcript {
		role := RoleAssistant
		if m.Speaker == conversation.SpeakerOperator {
			role = RoleUser
		}
		entries[i] = TranscriptEntry{Role: role, Text: m.Text}
	}

	return &SessionView{
		ID:      s.ID,
		Variant: string(s.Variant),
		Phase:   string(s.Phase),
		Locale:  s.Locale,
		Pending: s.Pending,
		UI: UIStrings{
			Disclaimer:       pack.Disclaimer,
			InputPlaceholder: pack.InputPlaceholder,
			PendingIndicator: pack.PendingIndicator,
		},
		Transcript: entries,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

// SelectLocaleRequest is the body of PUT /api/v1/sessions/{id}/locale.
type SelectLocaleRequest struct {
	Locale string `json:"locale"`
}

// SendMessageRequest is the body of POST /api/v1/sessions/{id}/messages.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessageResponse is the response to a submitted message.
type SendMessageResponse struct {
	Reply        string       `json:"reply"`
	FailureClass string       `json:"failure_class,omitempty"`
	Session      *SessionView `json:"session"`
}

// LocaleOption is one entry on the language screen.
type LocaleOption struct {
	Name     string `json:"name"`
	Greeting string `json:"greeting"`
}

// LocalesResponse lists the language choices.
type LocalesResponse struct {
	Default string         `json:"default"`
	Locales []LocaleOption `json:"locales"`
}

// NewLocalesResponse lists packs in table order.
func NewLocalesResponse(packs *locale.Registry) *LocalesResponse {
	resp := &LocalesResponse{Default: packs.Default().Name}
	for _, name := range packs.Names() {
		p, _ := packs.Lookup(name)
		resp.Locales = append(resp.Locales, LocaleOption{Name: p.Name, Greeting: p.Greeting})
	}
	return resp
}
