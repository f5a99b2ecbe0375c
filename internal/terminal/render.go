// Package terminal renders chat sessions in a terminal and runs the
// interactive loop behind `medassist chat`.
package terminal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/capitalize-ai/medassist/internal/conversation"
	"github.com/capitalize-ai/medassist/internal/locale"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Padding(0, 1).
			MarginBottom(1)

	userLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true)

	contentStyle = lipgloss.NewStyle().
			Padding(0, 2)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	disclaimerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("214")).
			PaddingLeft(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// Title renders the application header.
func Title() string {
	return titleStyle.Render("🩺 Medical Assistant Bot")
}

// LanguageMenu renders the numbered language choices.
func LanguageMenu(packs *locale.Registry) string {
	var sb strings.Builder
	sb.WriteString(hintStyle.Render("Choose your language / अपनी भाषा चुनें / আপনার ভাষা নির্বাচন করুন"))
	sb.WriteString("\n")

	def := packs.Default().Name
	for i, name := range packs.Names() {
		line := fmt.Sprintf("  %d. %s", i+1, name)
		if name == def {
			line += hintStyle.Render(" (default)")
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Message renders one transcript entry.
func Message(m conversation.Message) string {
	label := assistantLabelStyle.Render("🤖 Assistant")
	if m.Speaker == conversation.SpeakerOperator {
		label = userLabelStyle.Render("👤 You")
	}
	return label + "\n" + contentStyle.Render(m.Text) + "\n"
}

// Transcript renders every visible entry of s.
func Transcript(s *conversation.Session) string {
	var sb strings.Builder
	for _, m := range s.Transcript() {
		sb.WriteString(Message(m))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Disclaimer renders the standing disclaimer banner.
func Disclaimer(p locale.Pack) string {
	return disclaimerStyle.Render(p.Disclaimer)
}

// Hint renders a dim one-line hint.
func Hint(text string) string {
	return hintStyle.Render(text)
}

// Error renders a local error notice.
func Error(text string) string {
	return errorStyle.Render(text)
}
