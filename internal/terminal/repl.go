package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/capitalize-ai/medassist/internal/conversation"
	"github.com/capitalize-ai/medassist/internal/service"
)

const (
	cmdQuit     = "/quit"
	cmdLanguage = "/language"
)

// Run drives one interactive session until /quit, EOF or ctx is done.
func Run(ctx context.Context, in io.Reader, out io.Writer, svc *service.ConversationService) error {
	sess, err := svc.Create(ctx)
	if err != nil {
		return err
	}
	defer svc.End(context.WithoutCancel(ctx), sess.ID)

	lines := bufio.NewScanner(in)
	lines.Buffer(make([]byte, 64*1024), 1024*1024)

	fmt.Fprintln(out, Title())
	if sess.Phase == conversation.PhaseActive {
		printActive(out, svc, sess)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		if sess.Phase == conversation.PhaseAwaitingLanguageChoice {
			fmt.Fprint(out, LanguageMenu(svc.Locales()))
			fmt.Fprint(out, "> ")
			if !lines.Scan() {
				return lines.Err()
			}

			input := strings.TrimSpace(lines.Text())
			if input == cmdQuit {
				return nil
			}
			choice := resolveChoice(svc, input)
			next, err := svc.SelectLocale(ctx, sess.ID, choice)
			if errors.Is(err, conversation.ErrUnknownLocale) {
				fmt.Fprintln(out, Error(fmt.Sprintf("Unknown language %q", choice)))
				continue
			}
			if err != nil {
				return err
			}
			sess = next
			printActive(out, svc, sess)
			continue
		}

		pack := sess.Pack(svc.Locales())
		fmt.Fprintln(out, Hint(pack.InputPlaceholder+"  ("+cmdLanguage+", "+cmdQuit+")"))
		fmt.Fprint(out, "> ")
		if !lines.Scan() {
			return lines.Err()
		}
		text := lines.Text()

		switch strings.TrimSpace(text) {
		case "":
			continue
		case cmdQuit:
			return nil
		case cmdLanguage:
			next, err := svc.ChangeLocale(ctx, sess.ID)
			if errors.Is(err, conversation.ErrInvalidPhase) {
				fmt.Fprintln(out, Hint("Language selection is not available in this mode."))
				continue
			}
			if err != nil {
				return err
			}
			sess = next
			continue
		}

		fmt.Fprintln(out, Message(conversation.Message{Speaker: conversation.SpeakerOperator, Text: text}))
		fmt.Fprintln(out, Hint(pack.PendingIndicator))

		res, err := svc.Send(ctx, sess.ID, text)
		if err != nil {
			return err
		}
		sess = res.Session
		fmt.Fprintln(out, Message(conversation.Message{Speaker: conversation.SpeakerAssistant, Text: res.Reply}))
	}
}

func printActive(out io.Writer, svc *service.ConversationService, sess *conversation.Session) {
	fmt.Fprintln(out, Disclaimer(sess.Pack(svc.Locales())))
	fmt.Fprintln(out)
	fmt.Fprint(out, Transcript(sess))
}

// resolveChoice accepts a menu number, a language name or an empty line
// for the default.
func resolveChoice(svc *service.ConversationService, input string) string {
	packs := svc.Locales()
	if input == "" {
		return packs.Default().Name
	}
	if n, err := strconv.Atoi(input); err == nil {
		names := packs.Names()
		if n >= 1 && n <= len(names) {
			return names[n-1]
		}
	}
	for _, name := range packs.Names() {
		if strings.EqualFold(name, input) {
			return name
		}
	}
	return input
}
