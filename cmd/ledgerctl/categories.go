package main

import (
	"github.com/spf13/cobra"

	"fintrack/internal/config"
	"fintrack/internal/logger"
	"fintrack/internal/services"
)

func seedCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-categories",
		Short: "Insert any missing default categories",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			svc := services.NewCategoryService(db.DB(), config.Get().CategoryCacheTTL)
			if err := svc.EnsureDefaults(); err != nil {
				return err
			}
			logger.Get().Info("Default categories are in place")
			return nil
		},
	}
}
