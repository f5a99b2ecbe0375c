package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/capitalize-ai/medassist/internal/config"
	"github.com/capitalize-ai/medassist/internal/terminal"
	"github.com/capitalize-ai/medassist/pkg/logger"
)

var (
	chatVariant string
	chatLocale  string
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session in the terminal",
	Long: `Start an interactive chat session in the terminal.

In the multilingual variant you first pick a language. Type /language to
pick again (this clears the conversation) and /quit to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if chatVariant != "" {
			cfg.ChatVariant = chatVariant
		}
		if chatLocale != "" {
			cfg.DefaultLocale = chatLocale
		}

		// Diagnostics go to stderr so they never interleave with the transcript.
		log, err := logger.NewStderr(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer log.Sync()
		logger.SetGlobal(log)

		ctx := cmd.Context()

		a, err := newApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.close()

		return terminal.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), a.service)
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatVariant, "variant", "", "Chat variant: multilingual or single (overrides CHAT_VARIANT)")
	chatCmd.Flags().StringVar(&chatLocale, "locale", "", "Preselected language (overrides DEFAULT_LOCALE)")
	rootCmd.AddCommand(chatCmd)
}
