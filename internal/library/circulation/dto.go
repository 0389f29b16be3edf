package circulation

import "github.com/shopspring/decimal"

// ===== Requests =====

type IssueRequest struct {
	SerialNo      string `form:"serial_no" json:"serial_no"`
	MembershipID  string `form:"membership_id" json:"membership_id"`
	IssueDate     string `form:"issue_date" json:"issue_date"`         // YYYY-MM-DD
	PlannedReturn string `form:"planned_return" json:"planned_return"` // YYYY-MM-DD
	Remarks       string `form:"remarks" json:"remarks"`
}

// ReturnRequest: 返却開始。返却予定日の変更は任意。
// 旧画面は planned_return、新しいクライアントは new_return_date を送る
type ReturnRequest struct {
	MembershipID  string `form:"membership_id" json:"membership_id"`
	SerialNo      string `form:"serial_no" json:"serial_no"`
	NewReturnDate string `form:"new_return_date" json:"new_return_date"`
	PlannedReturn string `form:"planned_return" json:"planned_return"`
}

func (r ReturnRequest) newDate() string {
	if r.NewReturnDate != "" {
		return r.NewReturnDate
	}
	return r.PlannedReturn
}

// SettleRequest: 返却確定。issue_id は数値IDでも ULID でもよい
type SettleRequest struct {
	IssueID          string `form:"issue_id" json:"issue_id"`
	ActualReturnDate string `form:"actual_return_date" json:"actual_return_date"`
	FinePaid         string `form:"fine_paid" json:"fine_paid"` // true/false/on
}

// ===== Responses =====

type LoanResponse struct {
	IssueID          int64           `json:"issue_id"`
	IssueULID        string          `json:"issue_ulid"`
	SerialNo         string          `json:"serial_no"`
	MembershipID     string          `json:"membership_id"`
	IssueDate        string          `json:"issue_date"`
	PlannedReturn    string          `json:"planned_return"`
	ActualReturnDate *string         `json:"actual_return_date"`
	FineAmount       decimal.Decimal `json:"fine_amount"`
	FinePaid         bool            `json:"fine_paid"`
	Remarks          string          `json:"remarks,omitempty"`
}

type ReturnPreview struct {
	IssueID       int64           `json:"issue_id"`
	SerialNo      string          `json:"serial_no"`
	Name          string          `json:"name"`
	Author        string          `json:"author"`
	IssueDate     string          `json:"issue_date"`
	PlannedReturn string          `json:"planned_return"`
	LateDays      int             `json:"late_days"`
	ProjectedFine decimal.Decimal `json:"projected_fine"`
}

type SettlementResult struct {
	Message  string          `json:"message"`
	IssueID  int64           `json:"issue_id"`
	Fine     decimal.Decimal `json:"fine"`
	FinePaid bool            `json:"fine_paid"`
	Accrued  bool            `json:"accrued"` // 未払い罰金を会員残高へ計上した
}
