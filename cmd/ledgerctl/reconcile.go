package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/services"
)

func reconcileCmd() *cobra.Command {
	var (
		userID string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute balances and budget spend from the transaction log",
		Long: `Recompute every account balance and budget spent total from the
transaction log and compare them to the stored values. Drift is repaired
unless --dry-run is given, in which case the command exits non-zero when
any drift is found.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			svc := services.NewReconcileService(db.DB())

			var reports []services.ReconcileReport
			if userID != "" {
				report, err := svc.Reconcile(userID, dryRun)
				if err != nil {
					return err
				}
				reports = append(reports, *report)
			} else {
				reports, err = svc.ReconcileAll(dryRun)
				if err != nil {
					return err
				}
			}

			drifted := printReports(c.OutOrStdout(), reports)
			fmt.Fprintf(c.OutOrStdout(), "%d user(s) checked, %d with drift\n", len(reports), drifted)
			if dryRun && drifted > 0 {
				return apperrors.ErrLedgerDrift
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "reconcile a single user ID")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report drift without repairing it")

	return cmd
}

func printReports(w io.Writer, reports []services.ReconcileReport) int {
	drifted := 0
	for i := range reports {
		r := &reports[i]
		if r.Clean() {
			continue
		}
		drifted++
		fmt.Fprintf(w, "user %s (repaired: %v)\n", r.UserID, r.Repaired)
		for _, d := range r.AccountDrifts {
			fmt.Fprintf(w, "  account %s %q: stored %s, expected %s\n", d.AccountID, d.Name, d.Stored, d.Expected)
		}
		for _, d := range r.BudgetDrifts {
			fmt.Fprintf(w, "  budget %s %s/%s: stored %s, expected %s\n", d.BudgetID, d.Category, d.Month, d.Stored, d.Expected)
		}
	}
	return drifted
}
