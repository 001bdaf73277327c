package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume the notification queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		w := a.worker()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			w.Run(ctx)
			return nil
		})
		g.Go(func() error {
			return a.pruneCache(ctx)
		})
		return g.Wait()
	},
}
