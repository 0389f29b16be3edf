package requests

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"LIBRA-backend/internal/library/calendar"
	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
	"LIBRA-backend/internal/platform/ids"
)

type Service struct {
	db    *sql.DB
	store *Store
	clock calendar.Clock
	id    ids.Generator
}

func NewService(conn *sql.DB, clock calendar.Clock) *Service {
	return &Service{db: conn, store: NewStore(conn), clock: clock, id: ids.NewULID()}
}

// POST /requests
func (s *Service) Create(ctx context.Context, in CreateRequest) (RequestResponse, error) {
	memberID := strings.TrimSpace(in.MembershipID)
	book := strings.TrimSpace(in.BookName)
	if memberID == "" || book == "" {
		return RequestResponse{}, apierr.Invalid("membership_id and book_name are required")
	}
	requested, err := s.dateOrToday(in.RequestedDate, "requested_date")
	if err != nil {
		return RequestResponse{}, err
	}

	ok, err := s.store.memberExists(ctx, memberID)
	if err != nil {
		return RequestResponse{}, apierr.Storage(err)
	}
	if !ok {
		return RequestResponse{}, apierr.NotFound("membership not found")
	}

	uid, err := s.id.New()
	if err != nil {
		return RequestResponse{}, apierr.Storage(err)
	}
	r := Request{RequestULID: uid, MembershipID: memberID, BookName: book, RequestedDate: requested}
	if err := s.store.Insert(ctx, &r); err != nil {
		logrus.WithError(err).WithField("membership_id", memberID).Error("create request failed")
		return RequestResponse{}, apierr.Storage(err)
	}
	logrus.WithFields(logrus.Fields{"request_id": r.RequestID, "membership_id": memberID, "book_name": book}).
		Info("issue request logged")
	return r.toDTO(), nil
}

// POST /requests/:request_id/fulfill
func (s *Service) Fulfill(ctx context.Context, key string, in FulfillRequest) (RequestResponse, error) {
	key = strings.TrimSpace(key)
	fulfilled, err := s.dateOrToday(in.FulfilledDate, "fulfilled_date")
	if err != nil {
		return RequestResponse{}, err
	}

	var out Request
	err = db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		r, err := s.store.byKey(ctx, tx, key, true)
		if err != nil {
			return err
		}
		if r.FulfilledDate != nil {
			return apierr.Conflict("request already fulfilled")
		}
		if fulfilled.Before(r.RequestedDate) {
			return apierr.Invalid("fulfilled_date cannot precede requested_date")
		}
		if err := s.store.setFulfilled(ctx, tx, r.RequestID, fulfilled); err != nil {
			return err
		}
		r.FulfilledDate = &fulfilled
		out = r
		return nil
	})
	if err != nil {
		if apierr.CodeOf(err) == apierr.CodeStorage {
			logrus.WithError(err).WithField("request", key).Error("fulfill request failed")
		}
		return RequestResponse{}, apierr.Storage(err)
	}
	return out.toDTO(), nil
}

func (s *Service) Get(ctx context.Context, key string) (RequestResponse, error) {
	r, err := s.store.byKey(ctx, s.db, strings.TrimSpace(key), false)
	if err != nil {
		return RequestResponse{}, apierr.Storage(err)
	}
	return r.toDTO(), nil
}

// GET /requests
func (s *Service) List(ctx context.Context, q ListQuery) (ListResponse, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Sort == "" {
		q.Sort = DefaultSort
	}
	if q.Sort != SortRequestedAsc && q.Sort != SortRequestedDesc {
		return ListResponse{}, apierr.Invalid("sort must be requested_asc or requested_desc")
	}
	from, err := optionalDate(q.From, "from")
	if err != nil {
		return ListResponse{}, err
	}
	to, err := optionalDate(q.To, "to")
	if err != nil {
		return ListResponse{}, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return ListResponse{}, apierr.Invalid("to must be >= from")
	}

	rows, total, err := s.store.List(ctx, q, from, to)
	if err != nil {
		return ListResponse{}, apierr.Storage(err)
	}
	out := ListResponse{Items: make([]RequestResponse, 0, len(rows)), Total: total}
	for i := range rows {
		out.Items = append(out.Items, rows[i].toDTO())
	}
	if next := q.Offset + len(rows); int64(next) < total {
		out.NextOffset = &next
	}
	return out, nil
}

func (s *Service) dateOrToday(v, field string) (time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return calendar.Today(s.clock), nil
	}
	d, err := calendar.Parse(v)
	if err != nil {
		return time.Time{}, apierr.Invalid(field + " must be YYYY-MM-DD")
	}
	return d, nil
}

func optionalDate(v, field string) (*time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	d, err := calendar.Parse(v)
	if err != nil {
		return nil, apierr.Invalid(field + " must be YYYY-MM-DD")
	}
	return &d, nil
}
