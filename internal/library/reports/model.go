package reports

import "github.com/shopspring/decimal"

// 画面の一覧表示用。日付は YYYY-MM-DD 文字列で返す

type CopyRow struct {
	SerialNo        string          `json:"serial_no"`
	Name            string          `json:"name"`
	Author          string          `json:"author"`
	Category        string          `json:"category"`
	Status          string          `json:"status"`
	Cost            decimal.Decimal `json:"cost"`
	ProcurementDate *string         `json:"procurement_date"`
	Type            string          `json:"type"`
}

type MemberRow struct {
	MembershipID string          `json:"membership_id"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
	Aadhar       string          `json:"aadhar"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	Status       string          `json:"status"`
	PendingFine  decimal.Decimal `json:"pending_fine"`
}

type LoanRow struct {
	IssueID          int64           `json:"issue_id"`
	IssueULID        string          `json:"issue_ulid"`
	SerialNo         string          `json:"serial_no"`
	Name             string          `json:"name"`
	MembershipID     string          `json:"membership_id"`
	IssueDate        string          `json:"issue_date"`
	PlannedReturn    string          `json:"planned_return"`
	ActualReturnDate *string         `json:"actual_return_date"`
	FineAmount       decimal.Decimal `json:"fine_amount"`
	FinePaid         bool            `json:"fine_paid"`
	DaysLate         int             `json:"days_late"`
}

type RequestRow struct {
	RequestID     uint64  `json:"request_id"`
	MembershipID  string  `json:"membership_id"`
	BookName      string  `json:"book_name"`
	RequestedDate string  `json:"requested_date"`
	FulfilledDate *string `json:"fulfilled_date"`
}

type ProductDetail struct {
	CodeFrom string `json:"code_from"`
	CodeTo   string `json:"code_to"`
	Category string `json:"category"`
}

type Results[T any] struct {
	Results []T `json:"results"`
}

// 延滞一覧の範囲
const (
	OverdueReturned = "returned" // 返却済みで予定日を過ぎていたもの
	OverdueOpen     = "open"     // 未返却で今日時点で予定日を過ぎているもの
	OverdueAll      = "all"
)
