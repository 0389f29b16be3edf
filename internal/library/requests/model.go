package requests

import (
	"database/sql"
	"time"

	"LIBRA-backend/internal/library/calendar"
)

const (
	SortRequestedDesc = "requested_desc"
	SortRequestedAsc  = "requested_asc"
	DefaultSort       = SortRequestedDesc
	DefaultPageLimit  = 50
	MaxPageLimit      = 200
)

// DB行（スキャン用）
type requestRow struct {
	RequestID     uint64
	RequestULID   string
	MembershipID  string
	BookName      string
	RequestedDate time.Time
	FulfilledDate sql.NullTime
}

// Request は issue_requests の1件。貸出処理本体はこの表を書かない
type Request struct {
	RequestID     uint64
	RequestULID   string
	MembershipID  string
	BookName      string
	RequestedDate time.Time
	FulfilledDate *time.Time
}

func (r requestRow) toModel() Request {
	m := Request{
		RequestID:     r.RequestID,
		RequestULID:   r.RequestULID,
		MembershipID:  r.MembershipID,
		BookName:      r.BookName,
		RequestedDate: calendar.DateOf(r.RequestedDate),
	}
	if r.FulfilledDate.Valid {
		d := calendar.DateOf(r.FulfilledDate.Time)
		m.FulfilledDate = &d
	}
	return m
}

func (m Request) toDTO() RequestResponse {
	out := RequestResponse{
		RequestID:     m.RequestID,
		RequestULID:   m.RequestULID,
		MembershipID:  m.MembershipID,
		BookName:      m.BookName,
		RequestedDate: calendar.Format(m.RequestedDate),
	}
	if m.FulfilledDate != nil {
		d := calendar.Format(*m.FulfilledDate)
		out.FulfilledDate = &d
	}
	return out
}
