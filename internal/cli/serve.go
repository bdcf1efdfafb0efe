package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/amirbrooks/tasker-intent-router/internal/server"
)

const shutdownGrace = 10 * time.Second

func newServeCmd(env *appEnv) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := env.open(ctx, true)
			if err != nil {
				return err
			}
			defer a.close()
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			e := server.New(server.Deps{
				Assistant: a.assistant(),
				Store:     a.store,
				Suggester: a.suggester(),
				Logger:    a.logger,
			})

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				a.logger.WithField("addr", addr).Info("listening")
				if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
				defer cancel()
				a.logger.Info("shutting down")
				return e.Shutdown(sctx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr, :8000)")
	return cmd
}
