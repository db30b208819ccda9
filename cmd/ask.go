package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matteolinarello/Web-App-SIGEP/internal/services"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the assistant a single question and print the reply",
	Long: `Opens a panel, submits one question and prints the reply.

Example:
  sigep ask "Dove trovo lo stand di Bindi?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quietLogs()

		question := strings.Join(args, " ")
		if strings.TrimSpace(question) == "" {
			return errors.New("question must not be blank")
		}

		svc, err := services.InitializeServices(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		assistantService := svc.GetAssistantService()
		panel := assistantService.Open()
		defer func() { _ = assistantService.Close(panel.ID()) }()

		reply, err := panel.Submit(cmd.Context(), question)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
		return nil
	},
}
