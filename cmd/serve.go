package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/plantid/internal/handlers"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(flags *globalFlags) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the plant identification API",
		Long: `Starts the HTTP API on the specified port.

POST /predict with {"image_url": "..."} classifies the photo and returns
structured details about the predicted plant.`,
		Example: `  # Start server on default port 5000
  MISTRAL_API_KEY=... plantid serve

  # Start server on custom port with an Ollama backend
  PLANTID_PROVIDER=ollama plantid serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			service, model, err := buildService(cfg)
			if err != nil {
				return err
			}
			defer model.Close()

			handler := handlers.New(service, cfg.Server.MaxBodyBytes)

			addr := ":" + cfg.Server.Port
			server := &http.Server{
				Addr:    addr,
				Handler: handlers.NewRouter(handler),
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Plantid API available",
					"addr", addr,
					"url", "http://localhost"+addr+"/predict",
					"provider", cfg.LLM.Provider,
					"model", cfg.LLM.Model,
					"classes", len(model.ClassNames()))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "5000", "Port to listen on")

	return cmd
}
