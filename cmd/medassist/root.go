package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "medassist",
	Short: "Medical assistant chat backed by a remote LLM",
	Long: `medassist relays chat messages to a remote text-generation model and
keeps the conversation transcript for each session.

Commands:
  medassist serve     # HTTP JSON API
  medassist chat      # interactive terminal session

Configuration is read from the environment (GEMINI_API_KEY, CHAT_VARIANT,
LLM_PROVIDER, SESSION_BACKEND, NATS_URL, ...).`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
