package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"LIBRA-backend/internal/library/calendar"
	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
	"LIBRA-backend/internal/platform/metrics"
)

const (
	MaxAllocate      = 500
	allocateAttempts = 3
)

type Service struct {
	db    *sql.DB
	store *Store
}

func NewService(conn *sql.DB) *Service {
	return &Service{db: conn, store: NewStore(conn)}
}

// AllocateSerials は種別ごとのカウンタから quantity 件の連番を払い出し、同じTxで books に登録する。
// カウンタ行の初回作成が競合した場合（1062）はTxごとやり直す。
func (s *Service) AllocateSerials(ctx context.Context, in AllocateRequest) (res AllocateResponse, err error) {
	defer func() { record("allocate_serials", err) }()

	kind, ok := ParseKind(strings.TrimSpace(in.Kind))
	if !ok {
		return AllocateResponse{}, apierr.Invalid("type must be Book or Movie")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return AllocateResponse{}, apierr.Invalid("name is required")
	}
	if in.Quantity < 1 {
		return AllocateResponse{}, apierr.Invalid("quantity must be at least 1")
	}
	if in.Quantity > MaxAllocate {
		return AllocateResponse{}, apierr.Invalid("quantity too large")
	}
	proc, err := calendar.Parse(in.ProcurementDate)
	if err != nil {
		return AllocateResponse{}, apierr.Invalid("invalid procurement date")
	}
	cost, err := parseCost(in.Cost)
	if err != nil {
		return AllocateResponse{}, err
	}

	tmpl := Copy{
		Name:            name,
		Author:          strings.TrimSpace(in.Author),
		Category:        strings.TrimSpace(in.Category),
		Status:          StatusAvailable,
		Cost:            cost,
		ProcurementDate: &proc,
		Type:            kind,
	}

	var serials []string
	for attempt := 1; attempt <= allocateAttempts; attempt++ {
		// 衝突後は既存シリアルからカウンタを引き直す
		serials, err = s.allocateOnce(ctx, tmpl, in.Quantity, attempt > 1)
		if err == nil || !apierr.IsDuplicate(err) {
			break
		}
		logrus.WithFields(logrus.Fields{"kind": kind, "attempt": attempt}).Warn("serial allocation collided, retrying")
	}
	if err != nil {
		logrus.WithError(err).WithField("kind", kind).Error("serial allocation failed")
		return AllocateResponse{}, apierr.Storage(err)
	}

	metrics.AddSerialsAllocated(string(kind), len(serials))
	logrus.WithFields(logrus.Fields{
		"kind": kind, "first": serials[0], "last": serials[len(serials)-1], "quantity": len(serials),
	}).Info("serials allocated")
	return AllocateResponse{Kind: kind, Serials: serials}, nil
}

func (s *Service) allocateOnce(ctx context.Context, tmpl Copy, qty int, resync bool) ([]string, error) {
	var serials []string
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		last, ok, err := s.store.lockCounter(ctx, tx, tmpl.Type)
		if err != nil {
			return err
		}
		if !ok {
			existing, err := s.store.serialsOfKind(ctx, tx, tmpl.Type)
			if err != nil {
				return err
			}
			last = maxSuffix(existing)
			if err := s.store.insertCounter(ctx, tx, tmpl.Type, last+uint64(qty)); err != nil {
				return err
			}
		} else {
			if resync {
				existing, err := s.store.serialsWithPrefix(ctx, tx, tmpl.Type.Prefix())
				if err != nil {
					return err
				}
				if m := maxIssued(tmpl.Type, existing); m > last {
					last = m
				}
			}
			if err := s.store.setCounter(ctx, tx, tmpl.Type, last+uint64(qty)); err != nil {
				return err
			}
		}

		copies := make([]Copy, qty)
		serials = make([]string, qty)
		for i := range copies {
			c := tmpl
			c.SerialNo = FormatSerial(tmpl.Type, last+uint64(i)+1)
			copies[i] = c
			serials[i] = c.SerialNo
		}
		return s.store.insertCopies(ctx, tx, copies)
	})
	return serials, err
}

// AddCopy はシリアル番号を指定して1件登録する
func (s *Service) AddCopy(ctx context.Context, in AddCopyRequest) (res CopyResponse, err error) {
	defer func() { record("add_copy", err) }()

	kind, ok := ParseKind(strings.TrimSpace(in.Type))
	if !ok {
		return CopyResponse{}, apierr.Invalid("type must be Book or Movie")
	}
	c := Copy{
		SerialNo: strings.TrimSpace(in.SerialNo),
		Name:     strings.TrimSpace(in.Name),
		Author:   strings.TrimSpace(in.Author),
		Category: strings.TrimSpace(in.Category),
		Status:   StatusAvailable,
		Type:     kind,
	}
	if c.SerialNo == "" || c.Name == "" {
		return CopyResponse{}, apierr.Invalid("serial_no and name are required")
	}
	prefix, n, numbered := splitSerial(c.SerialNo)
	if other, ok := kindOfPrefix(prefix); numbered && ok && other != kind {
		return CopyResponse{}, apierr.Invalid(fmt.Sprintf("serial prefix %s does not match type %s", prefix, kind))
	}
	if c.ProcurementDate, err = optionalDate(in.ProcurementDate); err != nil {
		return CopyResponse{}, err
	}
	if c.Cost, err = parseCost(in.Cost); err != nil {
		return CopyResponse{}, err
	}

	err = db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		if err := s.store.insertCopies(ctx, tx, []Copy{c}); err != nil {
			return err
		}
		if numbered && prefix == kind.Prefix() {
			return s.store.raiseCounter(ctx, tx, kind, n)
		}
		return nil
	})
	if err != nil {
		if apierr.IsDuplicate(err) {
			return CopyResponse{}, apierr.Conflict("serial number already exists")
		}
		logrus.WithError(err).WithField("serial_no", c.SerialNo).Error("add copy failed")
		return CopyResponse{}, apierr.Storage(err)
	}
	logrus.WithFields(logrus.Fields{"serial_no": c.SerialNo, "kind": kind}).Info("copy added")
	return toResponse(&c), nil
}

func (s *Service) GetCopy(ctx context.Context, serial string) (CopyResponse, error) {
	c, err := s.store.getCopy(ctx, s.db, strings.TrimSpace(serial), false)
	if err != nil {
		return CopyResponse{}, apierr.Storage(err)
	}
	return toResponse(c), nil
}

// UpdateCopy は書誌情報を更新する。status の手動変更は貸出台帳と一致する場合のみ受け付ける
func (s *Service) UpdateCopy(ctx context.Context, in UpdateCopyRequest) (res CopyResponse, err error) {
	defer func() { record("update_copy", err) }()

	serial := strings.TrimSpace(in.SerialNo)
	if serial == "" {
		return CopyResponse{}, apierr.Invalid("serial_no is required")
	}
	status, ok := ParseStatus(strings.TrimSpace(in.Status))
	if !ok {
		return CopyResponse{}, apierr.Invalid("invalid status")
	}
	proc, err := optionalDate(in.ProcurementDate)
	if err != nil {
		return CopyResponse{}, err
	}

	var out *Copy
	err = db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		cur, err := s.store.getCopy(ctx, tx, serial, true)
		if err != nil {
			return err
		}
		open, err := s.store.countOpenLoans(ctx, tx, serial)
		if err != nil {
			return err
		}
		if (status == StatusIssued) != (open > 0) {
			return apierr.Conflict("status disagrees with loan ledger")
		}

		cur.Name = strings.TrimSpace(in.Name)
		cur.Author = strings.TrimSpace(in.Author)
		cur.Category = strings.TrimSpace(in.Category)
		cur.Status = status
		cur.ProcurementDate = proc
		if cur.Name == "" {
			return apierr.Invalid("name is required")
		}
		if err := s.store.updateCopy(ctx, tx, cur); err != nil {
			return err
		}
		out = cur
		return nil
	})
	if err != nil {
		if apierr.CodeOf(err) == apierr.CodeStorage {
			logrus.WithError(err).WithField("serial_no", serial).Error("update copy failed")
		}
		return CopyResponse{}, apierr.Storage(err)
	}
	return toResponse(out), nil
}

// SearchAvailable は貸出可能な資料を書名・著者の部分一致で探す
func (s *Service) SearchAvailable(ctx context.Context, q SearchQuery) (SearchResponse, error) {
	book, author := strings.TrimSpace(q.Book), strings.TrimSpace(q.Author)
	if book == "" && author == "" {
		return SearchResponse{}, apierr.Invalid("enter book name or author")
	}
	list, err := s.store.searchAvailable(ctx, book, author)
	if err != nil {
		return SearchResponse{}, apierr.Storage(err)
	}
	out := SearchResponse{Results: make([]CopyResponse, 0, len(list))}
	for i := range list {
		out.Results = append(out.Results, toResponse(&list[i]))
	}
	return out, nil
}

// ===== helpers =====

func parseCost(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, apierr.Invalid("invalid cost")
	}
	return d.Round(2), nil
}

func optionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := calendar.Parse(s)
	if err != nil {
		return nil, apierr.Invalid("invalid procurement date")
	}
	return &t, nil
}

func toResponse(c *Copy) CopyResponse {
	r := CopyResponse{
		SerialNo: c.SerialNo,
		Name:     c.Name,
		Author:   c.Author,
		Category: c.Category,
		Status:   c.Status,
		Cost:     c.Cost,
		Type:     c.Type,
	}
	if c.ProcurementDate != nil {
		d := calendar.Format(*c.ProcurementDate)
		r.ProcurementDate = &d
	}
	return r
}

func record(op string, err error) {
	if err == nil {
		metrics.RecordOperation(op, "ok")
		return
	}
	metrics.RecordOperation(op, string(apierr.CodeOf(err)))
}
