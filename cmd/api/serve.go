package main

import (
	"os/signal"
	"syscall"

	"github.com/rs-labo46/ec-backoffice/internal/server"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var withWorker bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		e, err := a.httpServer()
		if err != nil {
			return err
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return server.Run(ctx, e, a.cfg.Addr(), a.logger.WithField("component", "http"))
		})
		if withWorker {
			w := a.worker()
			g.Go(func() error {
				w.Run(ctx)
				return nil
			})
		}
		g.Go(func() error {
			return a.pruneCache(ctx)
		})
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&withWorker, "with-worker", false, "run the queue worker in the same process")
}
