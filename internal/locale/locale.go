// Package locale loads and validates the language packs offered at the
// language-selection step.
package locale

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/capitalize-ai/medassist/internal/llm"
)

//go:embed locales.yaml
var embedded []byte

// Pack is the immutable set of localized strings for one language.
type Pack struct {
	Name string `yaml:"name"`

	// ModelInstruction is the language name written into the instruction turn.
	ModelInstruction string `yaml:"model_instruction"`

	Greeting         string `yaml:"greeting"`
	Disclaimer       string `yaml:"disclaimer"`
	InputPlaceholder string `yaml:"input_placeholder"`
	PendingIndicator string `yaml:"pending_indicator"`

	GenericResponseFailure string `yaml:"generic_response_failure"`
	TransportError         string `yaml:"transport_error"`
	ConnectivityError      string `yaml:"connectivity_error"`
	TimeoutError           string `yaml:"timeout_error"`
	UnclassifiedError      string `yaml:"unclassified_error"`
	MalformedResponseError string `yaml:"malformed_response_error"`
	MissingCredentialError string `yaml:"missing_credential_error"`
}

// FailureTexts maps the pack onto the completion failure classes.
func (p Pack) FailureTexts() llm.FailureTexts {
	return llm.FailureTexts{
		MissingCredential: p.MissingCredentialError,
		Connectivity:      p.ConnectivityError,
		Timeout:           p.TimeoutError,
		Transport:         p.TransportError,
		MalformedResponse: p.MalformedResponseError,
		EmptyResponse:     p.GenericResponseFailure,
		Unclassified:      p.UnclassifiedError,
	}
}

// Validate reports every required occasion the pack leaves empty.
func (p Pack) Validate() error {
	fields := []struct {
		key   string
		value string
	}{
		{"name", p.Name},
		{"model_instruction", p.ModelInstruction},
		{"greeting", p.Greeting},
		{"disclaimer", p.Disclaimer},
		{"input_placeholder", p.InputPlaceholder},
		{"pending_indicator", p.PendingIndicator},
		{"generic_response_failure", p.GenericResponseFailure},
		{"transport_error", p.TransportError},
		{"connectivity_error", p.ConnectivityError},
		{"timeout_error", p.TimeoutError},
		{"unclassified_error", p.UnclassifiedError},
		{"malformed_response_error", p.MalformedResponseError},
		{"missing_credential_error", p.MissingCredentialError},
	}

	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("locale %q missing %s", p.Name, strings.Join(missing, ", "))
	}
	return nil
}

// SingleLanguage is the pack used by sessions without a language-selection step.
var SingleLanguage = Pack{
	Name:             "English",
	ModelInstruction: "English",
	Greeting:         "Hello! I'm your Medical Assistant Bot. How can I help you today?",
	Disclaimer:       "🚨 **Disclaimer:** I am an AI and cannot provide medical diagnoses, prescriptions, or professional medical advice. Always consult a qualified healthcare professional for any medical concerns.",
	InputPlaceholder: "Ask your medical question here...",
	PendingIndicator: "Thinking...",

	GenericResponseFailure: llm.DefaultFailureTexts.EmptyResponse,
	TransportError:         llm.DefaultFailureTexts.Transport,
	ConnectivityError:      llm.DefaultFailureTexts.Connectivity,
	TimeoutError:           llm.DefaultFailureTexts.Timeout,
	UnclassifiedError:      llm.DefaultFailureTexts.Unclassified,
	MalformedResponseError: llm.DefaultFailureTexts.MalformedResponse,
	MissingCredentialError: llm.DefaultFailureTexts.MissingCredential,
}

// Registry is an ordered, read-only set of packs.
type Registry struct {
	packs       map[string]Pack
	order       []string
	defaultName string
}

type file struct {
	Default string `yaml:"default"`
	Locales []Pack `yaml:"locales"`
}

// ErrNoLocales is returned when a table defines no packs.
var ErrNoLocales = errors.New("no locales defined")

// Load parses and validates a YAML locale table. Any incomplete pack fails the load.
func Load(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse locales: %w", err)
	}
	if len(f.Locales) == 0 {
		return nil, ErrNoLocales
	}

	r := &Registry{packs: make(map[string]Pack, len(f.Locales))}
	var errs []error
	for _, p := range f.Locales {
		if err := p.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := r.packs[p.Name]; dup {
			errs = append(errs, fmt.Errorf("locale %q defined twice", p.Name))
			continue
		}
		r.packs[p.Name] = p
		r.order = append(r.order, p.Name)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	r.defaultName = f.Default
	if r.defaultName == "" {
		r.defaultName = r.order[0]
	}
	if _, ok := r.packs[r.defaultName]; !ok {
		return nil, fmt.Errorf("default locale %q is not defined", r.defaultName)
	}

	return r, nil
}

// Builtin returns the registry compiled into the binary.
func Builtin() (*Registry, error) {
	return Load(embedded)
}

// MustBuiltin is Builtin that panics; the embedded table is checked by tests.
func MustBuiltin() *Registry {
	r, err := Builtin()
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the pack named name.
func (r *Registry) Lookup(name string) (Pack, bool) {
	p, ok := r.packs[name]
	return p, ok
}

// Names lists the packs in table order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Default returns the pack preselected on the language screen.
func (r *Registry) Default() Pack {
	return r.packs[r.defaultName]
}

// WithDefault returns a copy of r whose default is name.
func (r *Registry) WithDefault(name string) (*Registry, error) {
	if _, ok := r.packs[name]; !ok {
		return nil, fmt.Errorf("default locale %q is not defined", name)
	}
	cp := *r
	cp.defaultName = name
	return &cp, nil
}
