// Package conversation holds the per-session chat state: the ordered message
// log, the active language and the lifecycle phase.
package conversation

import (
	"errors"
	"fmt"
	"time"

	"github.com/capitalize-ai/medassist/internal/llm"
	"github.com/capitalize-ai/medassist/internal/locale"
)

var (
	ErrEmptyText     = errors.New("message text is empty")
	ErrInvalidPhase  = errors.New("operation not valid in current phase")
	ErrUnknownLocale = errors.New("unknown locale")
	ErrPending       = errors.New("a request is already pending")
)

// Speaker identifies who authored a log entry.
type Speaker string

const (
	// SpeakerOperator authors the hidden instruction and every human turn.
	SpeakerOperator  Speaker = "operator"
	SpeakerAssistant Speaker = "assistant"
)

// Message is one log entry.
type Message struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Variant selects whether a session starts with a language-selection step.
type Variant string

const (
	VariantSingle       Variant = "single"
	VariantMultilingual Variant = "multilingual"
)

// ParseVariant maps a configuration value onto a Variant.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantSingle, VariantMultilingual:
		return Variant(s), nil
	case "":
		return VariantMultilingual, nil
	default:
		return "", fmt.Errorf("unknown chat variant %q", s)
	}
}

// Phase is the session lifecycle state.
type Phase string

const (
	PhaseAwaitingLanguageChoice Phase = "awaiting_language_choice"
	PhaseActive                 Phase = "active"
)

// Session is a single conversation. It is not safe for concurrent use; the
// store hands out independent copies and arbitrates writes by Version.
type Session struct {
	ID      string    `json:"id"`
	Variant Variant   `json:"variant"`
	Phase   Phase     `json:"phase"`
	Locale  string    `json:"locale,omitempty"`
	Log     []Message `json:"log"`
	Pending bool      `json:"pending"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a session. Single-language sessions start active with a seeded log.
func New(id string, variant Variant, now time.Time) *Session {
	s := &Session{
		ID:        id,
		Variant:   variant,
		Phase:     PhaseAwaitingLanguageChoice,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if variant == VariantSingle {
		s.Phase = PhaseActive
		s.Log = Initialize(nil)
	}
	return s
}

// Initialize returns the seed log: the instruction turn followed by the
// greeting and disclaimer. A nil pack seeds the single-language greeting with
// an unlocalized instruction.
func Initialize(pack *locale.Pack) []Message {
	instruction := Instruction("")
	greet := locale.SingleLanguage
	if pack != nil {
		instruction = Instruction(pack.ModelInstruction)
		greet = *pack
	}

	return []Message{
		{Speaker: SpeakerOperator, Text: instruction},
		{Speaker: SpeakerAssistant, Text: greet.Greeting + "\n\n" + greet.Disclaimer},
	}
}

// Append adds a turn to the log.
func (s *Session) Append(speaker Speaker, text string) error {
	if text == "" {
		return ErrEmptyText
	}
	s.Log = append(s.Log, Message{Speaker: speaker, Text: text})
	return nil
}

// SelectLocale activates choice and reseeds the log.
func (s *Session) SelectLocale(packs *locale.Registry, choice string) error {
	if s.Variant != VariantMultilingual || s.Phase != PhaseAwaitingLanguageChoice {
		return ErrInvalidPhase
	}
	pack, ok := packs.Lookup(choice)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLocale, choice)
	}

	s.Log = Initialize(&pack)
	s.Locale = pack.Name
	s.Phase = PhaseActive
	return nil
}

// ChangeLocale empties the log and returns to the language screen.
func (s *Session) ChangeLocale() error {
	if s.Variant != VariantMultilingual || s.Phase != PhaseActive {
		return ErrInvalidPhase
	}
	if s.Pending {
		return ErrPending
	}

	s.Log = nil
	s.Locale = ""
	s.Phase = PhaseAwaitingLanguageChoice
	return nil
}

// Transcript is the rendered view of the log; the instruction turn is hidden.
func (s *Session) Transcript() []Message {
	if len(s.Log) <= 1 {
		return []Message{}
	}
	out := make([]Message, len(s.Log)-1)
	copy(out, s.Log[1:])
	return out
}

// ChatMessages projects the full log onto completion roles.
func (s *Session) ChatMessages() []llm.ChatMessage {
	out := make([]llm.ChatMessage, len(s.Log))
	for i, m := range s.Log {
		role := llm.RoleUser
		if m.Speaker == SpeakerAssistant {
			role = llm.RoleAssistant
		}
		out[i] = llm.ChatMessage{Role: role, Content: m.Text}
	}
	return out
}

// Pack returns the strings in effect. Sessions without a locale use the
// single-language pack; the locale screen uses the registry default.
func (s *Session) Pack(packs *locale.Registry) locale.Pack {
	if s.Locale != "" {
		if p, ok := packs.Lookup(s.Locale); ok {
			return p
		}
	}
	if s.Variant == VariantSingle {
		return locale.SingleLanguage
	}
	return packs.Default()
}

// BeginRequest claims the single outstanding-request slot.
func (s *Session) BeginRequest() error {
	if s.Phase != PhaseActive {
		return ErrInvalidPhase
	}
	if s.Pending {
		return ErrPending
	}
	s.Pending = true
	return nil
}

// EndRequest releases the slot.
func (s *Session) EndRequest() {
	s.Pending = false
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	cp := *s
	if s.Log != nil {
		cp.Log = make([]Message, len(s.Log))
		copy(cp.Log, s.Log)
	}
	return &cp
}
