// Package cli はサーバ起動と運用コマンド（migrate / reconcile / user）
package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"LIBRA-backend/internal/platform/config"
	"LIBRA-backend/internal/platform/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "libra",
	Short:         "Library circulation backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to config.yaml")
}

// Execute は main から呼ぶ
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig は設定を読み、ロガーも合わせて初期化する
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format, nil); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logrus.WithFields(logrus.Fields{"mode": cfg.Mode, "version": cfg.Version}).Debug("config loaded")
	return cfg, nil
}
