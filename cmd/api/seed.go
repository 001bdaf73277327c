package main

import (
	"github.com/rs-labo46/ec-backoffice/internal/infra/db"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the demo user, address and products",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := db.Seed(cmd.Context(), a.db); err != nil {
			return err
		}
		a.logger.WithField("email", db.DemoEmail).Info("seed completed")
		return nil
	},
}
