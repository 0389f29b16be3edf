package circulation

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// MaxLoanDays は貸出日から返却予定日までの上限
	MaxLoanDays = 15
)

// FinePerDay は延滞1日あたりの罰金
var FinePerDay = decimal.NewFromInt(10)

// FineFor は延滞日数に対する罰金。0以下なら0
func FineFor(daysLate int) decimal.Decimal {
	if daysLate <= 0 {
		return decimal.Zero
	}
	return FinePerDay.Mul(decimal.NewFromInt(int64(daysLate)))
}

// Loan は issues テーブルの1行。削除はしない
type Loan struct {
	IssueID       int64
	IssueULID     string
	SerialNo      string
	MembershipID  string
	IssueDate     time.Time
	PlannedReturn time.Time
	ActualReturn  *time.Time // NULL の間は貸出中
	FineAmount    decimal.Decimal
	FinePaid      bool
	Remarks       string
}

func (l *Loan) IsOpen() bool { return l.ActualReturn == nil }
