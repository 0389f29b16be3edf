package circulation

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"LIBRA-backend/internal/library/calendar"
	"LIBRA-backend/internal/library/catalog"
	"LIBRA-backend/internal/library/membership"
	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
	"LIBRA-backend/internal/platform/ids"
	"LIBRA-backend/internal/platform/metrics"
)

// Policy は運用で切り替える貸出ルール
type Policy struct {
	// 会員期限切れ（end_date < 貸出日）を貸出時に拒否する
	EnforceMembershipExpiry bool
	// 未払い罰金のまま返却を確定し、会員の pending_fine に計上する
	AllowUnpaidSettlement bool
}

type Service struct {
	db     *sql.DB
	store  *Store
	clock  calendar.Clock
	id     ids.Generator
	policy Policy
}

func NewService(conn *sql.DB, clock calendar.Clock, policy Policy) *Service {
	return &Service{
		db:     conn,
		store:  NewStore(conn),
		clock:  clock,
		id:     ids.NewULID(),
		policy: policy,
	}
}

// IssueCopy は貸出を登録し、資料を Issued にする。
// 判定順: 日付形式 → 貸出日 ≥ 今日 → 期間15日以内 → 資料 → 会員
func (s *Service) IssueCopy(ctx context.Context, in IssueRequest) (res LoanResponse, err error) {
	defer func() { record("issue", err) }()

	serial := strings.TrimSpace(in.SerialNo)
	memberID := strings.TrimSpace(in.MembershipID)
	if serial == "" || memberID == "" {
		return LoanResponse{}, apierr.Invalid("serial_no and membership_id are required")
	}
	issueDate, err1 := calendar.Parse(in.IssueDate)
	planned, err2 := calendar.Parse(in.PlannedReturn)
	if err1 != nil || err2 != nil {
		return LoanResponse{}, apierr.Invalid("invalid date format")
	}

	today := calendar.Today(s.clock)
	if issueDate.Before(today) {
		return LoanResponse{}, apierr.Policy("issue date cannot precede today")
	}
	if planned.After(calendar.AddDays(issueDate, MaxLoanDays)) {
		return LoanResponse{}, apierr.Policy("loan window exceeds 15 days")
	}
	if planned.Before(issueDate) {
		return LoanResponse{}, apierr.Policy("planned return cannot precede issue date")
	}

	ulidStr, err := s.id.New()
	if err != nil {
		return LoanResponse{}, apierr.Storage(err)
	}
	loan := &Loan{
		IssueULID:     ulidStr,
		SerialNo:      serial,
		MembershipID:  memberID,
		IssueDate:     issueDate,
		PlannedReturn: planned,
		Remarks:       strings.TrimSpace(in.Remarks),
	}

	err = db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		st, err := s.store.lockCopy(ctx, tx, serial)
		if err != nil {
			return err
		}
		if st != catalog.StatusAvailable {
			return apierr.Conflict("book not available")
		}

		mst, end, err := s.store.lockMember(ctx, tx, memberID)
		if err != nil {
			return err
		}
		if mst != membership.StatusActive {
			return apierr.Conflict("membership inactive")
		}
		if s.policy.EnforceMembershipExpiry && end.Before(issueDate) {
			return apierr.Policy("membership expired")
		}

		id, err := s.store.insertLoan(ctx, tx, loan)
		if err != nil {
			if apierr.IsForeignKey(err) {
				return apierr.Invalid("unknown book or membership")
			}
			return err
		}
		loan.IssueID = id
		return s.store.markIssued(ctx, tx, serial)
	})
	if err != nil {
		logFailure(err, "issue failed", logrus.Fields{"serial_no": serial, "membership_id": memberID})
		return LoanResponse{}, apierr.Storage(err)
	}

	logrus.WithFields(logrus.Fields{
		"issue_id": loan.IssueID, "serial_no": serial, "membership_id": memberID,
		"planned_return": calendar.Format(planned),
	}).Info("book issued")
	return toLoanResponse(loan), nil
}

// InitiateReturn は返却前の確認。new_return_date があれば返却予定日を書き換えてから見込み罰金を計算する。
// 指定が無ければ何も書き込まない
func (s *Service) InitiateReturn(ctx context.Context, in ReturnRequest) (res ReturnPreview, err error) {
	defer func() { record("initiate_return", err) }()

	serial := strings.TrimSpace(in.SerialNo)
	memberID := strings.TrimSpace(in.MembershipID)
	if serial == "" || memberID == "" {
		return ReturnPreview{}, apierr.Invalid("serial_no and membership_id are required")
	}
	var newDate *time.Time
	if v := strings.TrimSpace(in.newDate()); v != "" {
		d, err := calendar.Parse(v)
		if err != nil {
			return ReturnPreview{}, apierr.Invalid("invalid date format")
		}
		newDate = &d
	}

	today := calendar.Today(s.clock)
	err = db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		loan, name, author, err := s.store.lockOpenLoan(ctx, tx, memberID, serial)
		if err != nil {
			return err
		}
		if newDate != nil && !newDate.Equal(loan.PlannedReturn) {
			if err := s.store.setPlannedReturn(ctx, tx, loan.IssueID, *newDate); err != nil {
				return err
			}
			loan.PlannedReturn = *newDate
		}

		late := calendar.DaysLate(loan.PlannedReturn, today)
		res = ReturnPreview{
			IssueID:       loan.IssueID,
			SerialNo:      loan.SerialNo,
			Name:          name,
			Author:        author,
			IssueDate:     calendar.Format(loan.IssueDate),
			PlannedReturn: calendar.Format(loan.PlannedReturn),
			LateDays:      late,
			ProjectedFine: FineFor(late),
		}
		return nil
	})
	if err != nil {
		logFailure(err, "initiate return failed", logrus.Fields{"serial_no": serial, "membership_id": memberID})
		return ReturnPreview{}, apierr.Storage(err)
	}
	return res, nil
}

// SettleReturn は返却を確定する。罰金が発生していて未払いなら何も変更せず拒否する
// （AllowUnpaidSettlement の場合は会員の pending_fine に計上して確定）
func (s *Service) SettleReturn(ctx context.Context, in SettleRequest) (res SettlementResult, err error) {
	defer func() { record("settle_return", err) }()

	key := strings.TrimSpace(in.IssueID)
	if key == "" {
		return SettlementResult{}, apierr.Invalid("issue_id is required")
	}

	var accruedTo string
	err = db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		loan, err := s.store.lockLoan(ctx, tx, key)
		if err != nil {
			return err
		}
		actual, err := calendar.Parse(in.ActualReturnDate)
		if err != nil {
			return apierr.Invalid("invalid date format")
		}
		paid, err := parseFlag(in.FinePaid)
		if err != nil {
			return apierr.Invalid("fine_paid must be a boolean")
		}
		if !loan.IsOpen() {
			return apierr.Conflict("loan already settled")
		}
		if actual.Before(loan.IssueDate) {
			return apierr.Invalid("return date cannot precede issue date")
		}

		fine := FineFor(calendar.DaysLate(loan.PlannedReturn, actual))
		owed := fine.IsPositive()
		if owed && !paid {
			if !s.policy.AllowUnpaidSettlement {
				return apierr.Policy("fine pending, please mark fine paid")
			}
			accruedTo = loan.MembershipID
		}

		if err := s.store.settleLoan(ctx, tx, loan.IssueID, actual, fine, owed && paid); err != nil {
			return err
		}
		if err := s.store.markAvailable(ctx, tx, loan.SerialNo); err != nil {
			return err
		}
		if accruedTo != "" {
			if err := s.store.accrueFine(ctx, tx, accruedTo, fine); err != nil {
				return err
			}
		}

		res = SettlementResult{
			Message:  "Return completed",
			IssueID:  loan.IssueID,
			Fine:     fine,
			FinePaid: owed && paid,
			Accrued:  accruedTo != "",
		}
		return nil
	})
	if err != nil {
		logFailure(err, "settle return failed", logrus.Fields{"issue": key})
		return SettlementResult{}, apierr.Storage(err)
	}

	if res.Accrued {
		metrics.AddFineAccrued(res.Fine.InexactFloat64())
	} else {
		metrics.AddFineCollected(res.Fine.InexactFloat64())
	}
	logrus.WithFields(logrus.Fields{
		"issue_id": res.IssueID, "fine": res.Fine.String(), "fine_paid": res.FinePaid, "accrued": res.Accrued,
	}).Info("return settled")
	return res, nil
}

// GetLoan は issue_id または ULID で1件返す
func (s *Service) GetLoan(ctx context.Context, key string) (LoanResponse, error) {
	l, err := s.store.loanByKey(ctx, s.db, strings.TrimSpace(key), false)
	if err != nil {
		return LoanResponse{}, apierr.Storage(err)
	}
	return toLoanResponse(l), nil
}

// ===== helpers =====

// parseFlag はフォームのチェックボックス値も受ける。空は false
func parseFlag(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return false, nil
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(s))
}

func toLoanResponse(l *Loan) LoanResponse {
	r := LoanResponse{
		IssueID:       l.IssueID,
		IssueULID:     l.IssueULID,
		SerialNo:      l.SerialNo,
		MembershipID:  l.MembershipID,
		IssueDate:     calendar.Format(l.IssueDate),
		PlannedReturn: calendar.Format(l.PlannedReturn),
		FineAmount:    l.FineAmount,
		FinePaid:      l.FinePaid,
		Remarks:       l.Remarks,
	}
	if l.ActualReturn != nil {
		d := calendar.Format(*l.ActualReturn)
		r.ActualReturnDate = &d
	}
	return r
}

// logFailure はストア障害のみ ERROR で残す。業務エラーは呼び出し元に返すだけ
func logFailure(err error, msg string, fields logrus.Fields) {
	if apierr.CodeOf(err) != apierr.CodeStorage {
		return
	}
	logrus.WithError(err).WithFields(fields).Error(msg)
}

func record(op string, err error) {
	if err == nil {
		metrics.RecordOperation(op, "ok")
		return
	}
	metrics.RecordOperation(op, string(apierr.CodeOf(err)))
}
