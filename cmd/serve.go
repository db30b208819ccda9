package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	v1handlers "github.com/matteolinarello/Web-App-SIGEP/internal/api/v1/handlers"
	"github.com/matteolinarello/Web-App-SIGEP/internal/api/v1/routes"
	"github.com/matteolinarello/Web-App-SIGEP/internal/config"
	"github.com/matteolinarello/Web-App-SIGEP/internal/connections"
	"github.com/matteolinarello/Web-App-SIGEP/internal/services"
)

const (
	shutdownTimeout  = 10 * time.Second
	evictionInterval = time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket assistant server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServer(ctx, ":"+config.GetPort())
	},
}

func runServer(ctx context.Context, addr string) error {
	svc, err := services.InitializeServices(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize services")
		return err
	}
	defer svc.Close()

	go svc.GetAssistantService().RunEviction(ctx, evictionInterval)

	manager := connections.NewManager(connections.DefaultTimeouts)

	router := routes.NewRouter(v1handlers.Dependencies{
		Assistant:   svc.GetAssistantService(),
		Directory:   svc.GetDirectoryService(),
		Session:     svc.GetSessionService(),
		Connections: manager,
	})

	srv := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// a turn may take the whole provider timeout before the reply is written
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("Server failed")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	closed := manager.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return err
	}

	log.Info().Int("panels_closed", closed).Msg("Server stopped successfully")
	return nil
}
