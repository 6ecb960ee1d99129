package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boristopalov/sawyer/pkg/logging"
	"github.com/boristopalov/sawyer/pkg/sim"
)

func newServeSimCmd() *cobra.Command {
	var addr, logLevel string
	cmd := &cobra.Command{
		Use:   "serve-sim",
		Short: "Serve the kinematic simulator over the websocket bridge protocol",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(logLevel, "console", "")
			if err != nil {
				return err
			}
			defer logger.Sync()
			return serveSim(cmd.Context(), addr, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8765", "listen address")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	return cmd
}

func serveSim(ctx context.Context, addr string, logger *zap.Logger) error {
	server := sim.NewServer(sim.NewKinematic(), sim.WithServerLogger(logger))
	srv := &http.Server{Addr: addr, Handler: server.Handler()}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("simulator listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("simulator stopped")
	return nil
}
