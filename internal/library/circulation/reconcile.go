package circulation

import (
	"context"
	"database/sql"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"LIBRA-backend/internal/library/calendar"
	"LIBRA-backend/internal/library/catalog"
	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
	"LIBRA-backend/internal/platform/metrics"
)

// Divergence は books.status と台帳（未返却貸出）が食い違っている資料
type Divergence struct {
	SerialNo  string         `json:"serial_no"`
	Cached    catalog.Status `json:"cached_status"`
	OpenLoans int            `json:"open_loans"`
}

// Ledger は台帳から導出した正しい状態
func (d Divergence) Ledger() catalog.Status {
	if d.OpenLoans > 0 {
		return catalog.StatusIssued
	}
	return catalog.StatusAvailable
}

type ReconcileReport struct {
	DryRun       bool         `json:"dry_run"`
	Divergent    []Divergence `json:"divergent"`
	Repaired     int          `json:"repaired"`
	OpenLoans    int          `json:"open_loans"`
	OverdueLoans int          `json:"overdue_loans"`
}

// Reconciler は books.status を貸出台帳に合わせて書き直す。台帳側が正
type Reconciler struct {
	db    *sql.DB
	store *Store
	clock calendar.Clock
}

func NewReconciler(conn *sql.DB, clock calendar.Clock) *Reconciler {
	return &Reconciler{db: conn, store: NewStore(conn), clock: clock}
}

func (r *Reconciler) Run(ctx context.Context, dryRun bool) (*ReconcileReport, error) {
	rep := &ReconcileReport{DryRun: dryRun}
	today := calendar.Today(r.clock)

	err := db.RunInTx(ctx, r.db, nil, func(ctx context.Context, tx db.DBTX) error {
		divs, err := r.store.divergentCopies(ctx, tx)
		if err != nil {
			return err
		}
		rep.Divergent = divs

		for _, d := range divs {
			if d.OpenLoans > 1 {
				// 台帳自体の破損。status では直せないので報告のみ
				logrus.WithFields(logrus.Fields{"serial_no": d.SerialNo, "open_loans": d.OpenLoans}).
					Error("multiple open loans for one copy")
			}
			if dryRun || d.Cached == d.Ledger() {
				continue
			}
			n, err := r.store.rewriteStatus(ctx, tx, d.SerialNo)
			if err != nil {
				return err
			}
			rep.Repaired += int(n)
		}

		rep.OpenLoans, rep.OverdueLoans, err = r.store.ledgerCounts(ctx, tx, today)
		return err
	})
	if err != nil {
		logrus.WithError(err).Error("reconcile failed")
		return nil, apierr.Storage(err)
	}

	metrics.SetLedgerGauges(rep.OpenLoans, rep.OverdueLoans)
	if !dryRun {
		metrics.AddDivergences(rep.Repaired)
	}
	entry := logrus.WithFields(logrus.Fields{
		"dry_run": dryRun, "divergent": len(rep.Divergent), "repaired": rep.Repaired,
		"open_loans": rep.OpenLoans, "overdue_loans": rep.OverdueLoans,
	})
	if len(rep.Divergent) > 0 {
		entry.Warn("ledger reconciled")
	} else {
		entry.Info("ledger reconciled")
	}
	return rep, nil
}

// Schedule は cron に定期実行を登録する
func (r *Reconciler) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		r.Run(context.Background(), false)
	})
}
