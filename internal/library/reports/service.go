// Package reports は保守画面・帳票向けの読み取り専用一覧。
// 書き込みは一切しないので Tx は張らずに単発 SELECT で返す。
package reports

import (
	"context"
	"database/sql"
	"strings"

	"github.com/sirupsen/logrus"

	"LIBRA-backend/internal/library/calendar"
	"LIBRA-backend/internal/library/catalog"
	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/metrics"
)

type Service struct {
	store *Store
	clock calendar.Clock
}

func NewService(conn *sql.DB, clock calendar.Clock) *Service {
	return &Service{store: NewStore(conn), clock: clock}
}

func (s *Service) Books(ctx context.Context) (Results[CopyRow], error) {
	return wrap("report_books", func() ([]CopyRow, error) { return s.store.Copies(ctx, string(catalog.KindBook)) })
}

func (s *Service) Movies(ctx context.Context) (Results[CopyRow], error) {
	return wrap("report_movies", func() ([]CopyRow, error) { return s.store.Copies(ctx, string(catalog.KindMovie)) })
}

func (s *Service) Members(ctx context.Context) (Results[MemberRow], error) {
	return wrap("report_members", func() ([]MemberRow, error) { return s.store.Members(ctx) })
}

func (s *Service) ActiveIssues(ctx context.Context) (Results[LoanRow], error) {
	today := calendar.Today(s.clock)
	return wrap("report_active_issues", func() ([]LoanRow, error) {
		return s.store.Loans(ctx, "i.actual_return_date IS NULL", today)
	})
}

// Overdue は scope 未指定なら返却済み延滞（旧帳票と同じ）
func (s *Service) Overdue(ctx context.Context, scope string) (Results[LoanRow], error) {
	today := calendar.Today(s.clock)
	var (
		where string
		args  []any
	)
	switch strings.TrimSpace(scope) {
	case "", OverdueReturned:
		where = "i.actual_return_date IS NOT NULL AND i.actual_return_date > i.planned_return"
	case OverdueOpen:
		where = "i.actual_return_date IS NULL AND i.planned_return < ?"
		args = append(args, calendar.Format(today))
	case OverdueAll:
		where = "((i.actual_return_date IS NOT NULL AND i.actual_return_date > i.planned_return) OR (i.actual_return_date IS NULL AND i.planned_return < ?))"
		args = append(args, calendar.Format(today))
	default:
		metrics.RecordOperation("report_overdue", string(apierr.CodeInvalidInput))
		return Results[LoanRow]{}, apierr.Invalid("scope must be returned, open or all")
	}
	return wrap("report_overdue", func() ([]LoanRow, error) {
		return s.store.Loans(ctx, where, today, args...)
	})
}

func (s *Service) Requests(ctx context.Context) (Results[RequestRow], error) {
	return wrap("report_requests", func() ([]RequestRow, error) { return s.store.Requests(ctx) })
}

func (s *Service) ProductDetails(ctx context.Context) (Results[ProductDetail], error) {
	return wrap("report_product_details", func() ([]ProductDetail, error) { return s.store.ProductDetails(ctx) })
}

func wrap[T any](op string, fn func() ([]T, error)) (Results[T], error) {
	rows, err := fn()
	if err != nil {
		logrus.WithError(err).WithField("report", op).Error("report query failed")
		metrics.RecordOperation(op, string(apierr.CodeStorage))
		return Results[T]{}, apierr.Storage(err)
	}
	metrics.RecordOperation(op, "ok")
	return Results[T]{Results: rows}, nil
}
