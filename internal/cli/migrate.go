package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"LIBRA-backend/internal/platform/config"
	"LIBRA-backend/internal/platform/db"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	migrateDownCmd.Flags().Int("steps", 1, "number of migrations to roll back")
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return migrateUp(cfg.DB)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		steps, _ := cmd.Flags().GetInt("steps")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		conn, err := db.ConnectForMigrate(cfg.DB)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := db.MigrateDown(conn, steps); err != nil {
			return err
		}
		logrus.WithField("steps", steps).Info("migrations rolled back")
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		conn, err := db.ConnectForMigrate(cfg.DB)
		if err != nil {
			return err
		}
		defer conn.Close()
		v, dirty, err := db.Version(conn)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", v, dirty)
		return nil
	},
}

func migrateUp(c config.DatabaseConfig) error {
	conn, err := db.ConnectForMigrate(c)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := db.MigrateUp(conn); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	logrus.Info("migrations applied")
	return nil
}
