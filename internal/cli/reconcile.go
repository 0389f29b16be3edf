package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"LIBRA-backend/internal/library/calendar"
	"LIBRA-backend/internal/library/circulation"
	"LIBRA-backend/internal/platform/db"
)

func init() {
	rootCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().Bool("dry-run", false, "report divergent copies without rewriting status")
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Rewrite cached copy status from the loan ledger",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dry, _ := cmd.Flags().GetBool("dry-run")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		conn, err := db.Connect(cfg.DB)
		if err != nil {
			return err
		}
		defer conn.Close()

		rec := circulation.NewReconciler(conn, calendar.SystemClock{Loc: cfg.Location()})
		rep, err := rec.Run(cmd.Context(), dry)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	},
}
