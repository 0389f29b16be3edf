package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"LIBRA-backend/internal/library/calendar"
	"LIBRA-backend/internal/platform/db"
	"LIBRA-backend/internal/server"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("migrate", false, "apply pending migrations before serving")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if m, _ := cmd.Flags().GetBool("migrate"); m {
		if err := migrateUp(cfg.DB); err != nil {
			return err
		}
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		return err
	}
	defer conn.Close()
	logrus.WithField("db", cfg.DB.DBName).Info("connected to DB")

	loc := cfg.Location()
	srv, err := server.New(cfg, conn, calendar.SystemClock{Loc: loc})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv.Limiter.StartCleanup(ctx, time.Minute, 10*time.Minute)

	if spec := cfg.Jobs.ReconcileSchedule; spec != "" {
		c := cron.New(cron.WithLocation(loc))
		if _, err := srv.Reconciler.Schedule(c, spec); err != nil {
			return err
		}
		c.Start()
		defer c.Stop()
		logrus.WithField("schedule", spec).Info("ledger reconcile scheduled")
	}

	hs := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if cfg.Server.TLS.Cert != "" && cfg.Server.TLS.Key != "" {
			logrus.Infof("listening on https://%s", cfg.Server.Addr)
			err = hs.ListenAndServeTLS(cfg.Server.TLS.Cert, cfg.Server.TLS.Key)
		} else {
			logrus.Infof("listening on http://%s", cfg.Server.Addr)
			err = hs.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logrus.Info("shutting down...")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return hs.Shutdown(sctx)
}
