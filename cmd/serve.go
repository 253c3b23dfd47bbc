package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hushh/deepsearch/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the deep search HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		env, err := initSearch(ctx, cfg, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		deps := server.Deps{
			Searcher: env.Orchestrator,
			Metrics:  env.Metrics,
		}
		if env.Store != nil {
			deps.Searches = env.Store
		}
		if env.Local != nil {
			deps.Extractor = env.Local
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           server.NewRouter(deps, server.Config{MaxBodyBytes: cfg.Server.MaxBodyBytes}),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       secs(cfg.Server.ReadTimeoutSecs),
			WriteTimeout:      secs(cfg.Server.WriteTimeoutSecs),
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return eris.Wrap(err, "server listen")
			}
			return nil
		case <-ctx.Done():
		}

		// Graceful shutdown
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("server shutdown", zap.Error(err))
		}
		if err := env.Orchestrator.Wait(shutdownCtx); err != nil {
			zap.L().Warn("pending session saves abandoned", zap.Error(err))
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
