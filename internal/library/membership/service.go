package membership

import (
	"context"
	"database/sql"
	"strings"

	"github.com/sirupsen/logrus"

	"LIBRA-backend/internal/library/calendar"
	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
	"LIBRA-backend/internal/platform/metrics"
)

type Service struct {
	db    *sql.DB
	store *Store
	clock calendar.Clock
}

func NewService(conn *sql.DB, clock calendar.Clock) *Service {
	return &Service{db: conn, store: NewStore(conn), clock: clock}
}

// 会員登録
func (s *Service) Enroll(ctx context.Context, in EnrollRequest) (res MemberResponse, err error) {
	defer func() { record("enroll", err) }()

	id := strings.TrimSpace(in.MembershipID)
	if id == "" {
		return MemberResponse{}, apierr.Invalid("membership_id is required")
	}
	for name, v := range map[string]string{
		"first_name": in.FirstName, "last_name": in.LastName, "phone": in.Phone,
		"address": in.Address, "aadhar": in.Aadhar,
	} {
		if strings.TrimSpace(v) == "" {
			return MemberResponse{}, apierr.Invalid(name + " is required")
		}
	}
	// 開始日の省略時は今日
	start := calendar.Today(s.clock)
	if strings.TrimSpace(in.StartDate) != "" {
		if start, err = calendar.Parse(in.StartDate); err != nil {
			return MemberResponse{}, apierr.Invalid("invalid start date")
		}
	}
	plan, ok := ParsePlan(in.Plan)
	if !ok {
		return MemberResponse{}, apierr.Invalid("invalid membership plan")
	}

	m := &Member{
		MembershipID: id,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
		Aadhar:       strings.TrimSpace(in.Aadhar),
		StartDate:    start,
		EndDate:      plan.EndFrom(start),
		Status:       StatusActive,
	}
	if err := s.store.Insert(ctx, m); err != nil {
		if apierr.IsDuplicate(err) {
			return MemberResponse{}, apierr.Conflict("membership id already exists")
		}
		logrus.WithError(err).WithField("membership_id", id).Error("enroll failed")
		return MemberResponse{}, apierr.Storage(err)
	}

	logrus.WithFields(logrus.Fields{
		"membership_id": id, "plan": plan, "end_date": calendar.Format(m.EndDate),
	}).Info("membership enrolled")
	return toResponse(m), nil
}

func (s *Service) Get(ctx context.Context, id string) (MemberResponse, error) {
	m, err := s.store.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return MemberResponse{}, apierr.Storage(err)
	}
	return toResponse(m), nil
}

// 会員更新（延長 / 無効化）
func (s *Service) Update(ctx context.Context, in UpdateRequest) (res UpdateResponse, err error) {
	defer func() { record("update_membership", err) }()

	id := strings.TrimSpace(in.MembershipID)
	if id == "" {
		return UpdateResponse{}, apierr.Invalid("membership_id is required")
	}

	err = db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		start, end, status, err := s.store.lockWindow(ctx, tx, id)
		if err != nil {
			return err
		}
		action, ok := ParseAction(in.Action)
		if !ok {
			return apierr.Invalid("invalid action")
		}
		newEnd, newStatus := action.Apply(end, status)
		if newEnd.Before(start) {
			// 延長・無効化では起こり得ないが、既存データが壊れている場合に備える
			return apierr.Conflict("membership window is inconsistent")
		}
		if err := s.store.updateWindow(ctx, tx, id, newEnd, newStatus); err != nil {
			return err
		}
		res = UpdateResponse{
			Message:    "Membership updated",
			NewEndDate: calendar.Format(newEnd),
			Status:     newStatus,
		}
		return nil
	})
	if err != nil {
		if apierr.CodeOf(err) == apierr.CodeStorage {
			logrus.WithError(err).WithField("membership_id", id).Error("membership update failed")
		}
		return UpdateResponse{}, apierr.Storage(err)
	}

	logrus.WithFields(logrus.Fields{
		"membership_id": id, "action": in.Action, "end_date": res.NewEndDate, "status": res.Status,
	}).Info("membership updated")
	return res, nil
}

func toResponse(m *Member) MemberResponse {
	return MemberResponse{
		MembershipID: m.MembershipID,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Phone:        m.Phone,
		Address:      m.Address,
		Aadhar:       m.Aadhar,
		StartDate:    calendar.Format(m.StartDate),
		EndDate:      calendar.Format(m.EndDate),
		Status:       m.Status,
		PendingFine:  m.PendingFine,
	}
}

func record(op string, err error) {
	if err == nil {
		metrics.RecordOperation(op, "ok")
		return
	}
	metrics.RecordOperation(op, string(apierr.CodeOf(err)))
}
