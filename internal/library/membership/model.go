package membership

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// Member は members テーブルの1行
type Member struct {
	MembershipID string
	FirstName    string
	LastName     string
	Phone        string
	Address      string
	Aadhar       string
	StartDate    time.Time
	EndDate      time.Time
	Status       Status
	PendingFine  decimal.Decimal
}

func (m *Member) IsActive() bool { return m.Status == StatusActive }
