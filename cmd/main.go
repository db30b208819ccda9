package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/matteolinarello/Web-App-SIGEP/pkg/logger"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "sigep",
	Short: "SIGEP World companion assistant",
	Long: `Answers visitor questions about SIGEP World exhibitors and events.

The assistant grounds every question in the exhibitor directory and the
event schedule and forwards it to a hosted text-generation provider.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && envFile != ".env" {
			return err
		}
		logger.Setup(nil)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "environment file loaded before reading configuration")
	rootCmd.AddCommand(serveCmd, askCmd, chatCmd)
}

// quietLogs keeps interactive output readable unless LOG_LEVEL asks otherwise
func quietLogs() {
	if os.Getenv("LOG_LEVEL") == "" {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
