package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matteolinarello/Web-App-SIGEP/internal/services"
	"github.com/matteolinarello/Web-App-SIGEP/internal/services/assistant"
)

const (
	exitCommand   = "/exit"
	reloadCommand = "/reload"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open an interactive assistant panel in the terminal",
	Long: `Opens an assistant panel on the terminal. Each line is sent as a
question when Enter is pressed. Type /reload to read the reference data
again and start over on a fresh panel, or /exit to close the panel.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		quietLogs()

		svc, err := services.InitializeServices(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		assistantService := svc.GetAssistantService()
		loader := svc.GetReferenceDataLoader()
		panel := assistantService.Open()
		defer func() { _ = assistantService.Close(panel.ID()) }()

		// a panel keeps the data it was opened with, so a reload replaces it
		reload := func() (Panel, int) {
			_ = assistantService.Close(panel.ID())
			loader.Reload()
			panel = assistantService.Open()
			return panel, len(loader.Diagnostics())
		}

		return runChat(cmd.Context(), panel, reload, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

// Panel is the part of an assistant session the terminal needs
type Panel interface {
	Snapshot() assistant.Snapshot
	Submit(ctx context.Context, text string) (assistant.Message, error)
}

// ReloadFunc rereads the reference data and returns a panel opened on it,
// along with the number of sources that could not be read as configured.
type ReloadFunc func() (Panel, int)

// runChat prints the transcript as it grows until /exit or end of input.
// A nil reload disables /reload.
func runChat(ctx context.Context, panel Panel, reload ReloadFunc, in io.Reader, out io.Writer) error {
	printTranscript(out, panel)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case exitCommand:
			return nil
		case reloadCommand:
			if reload == nil {
				fmt.Fprintln(out, "Ricaricamento non disponibile")
				continue
			}
			var warnings int
			panel, warnings = reload()
			fmt.Fprintf(out, "Dati di riferimento ricaricati (%d avvisi)\n", warnings)
			printTranscript(out, panel)
			continue
		}

		reply, err := panel.Submit(ctx, line)
		switch {
		case errors.Is(err, assistant.ErrBlankInput):
			continue
		case err != nil:
			return err
		}
		printMessage(out, reply)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func printTranscript(out io.Writer, panel Panel) {
	for _, msg := range panel.Snapshot().Messages {
		printMessage(out, msg)
	}
}

func printMessage(out io.Writer, msg assistant.Message) {
	label := "Tu"
	if msg.Sender == assistant.SenderBot {
		label = "SIGEP AI"
	}
	fmt.Fprintf(out, "%s [%s]: %s\n", label, msg.Timestamp.Format("15:04"), msg.Text)
}
