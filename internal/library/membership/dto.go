package membership

import "github.com/shopspring/decimal"

// 会員登録リクエスト（フォーム）
type EnrollRequest struct {
	MembershipID string `form:"membership_id" json:"membership_id"`
	FirstName    string `form:"first_name" json:"first_name"`
	LastName     string `form:"last_name" json:"last_name"`
	Phone        string `form:"phone" json:"phone"`
	Address      string `form:"address" json:"address"`
	Aadhar       string `form:"aadhar" json:"aadhar"`
	StartDate    string `form:"start_date" json:"start_date"` // YYYY-MM-DD
	Plan         string `form:"plan" json:"plan"`             // 6m / 1y / 2y
}

type UpdateRequest struct {
	MembershipID string `form:"membership_id" json:"membership_id"`
	Action       string `form:"action" json:"action"` // extend6 / extend1y / extend2y / remove
}

type MemberResponse struct {
	MembershipID string          `json:"membership_id"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
	Aadhar       string          `json:"aadhar"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	Status       Status          `json:"status"`
	PendingFine  decimal.Decimal `json:"pending_fine"`
}

type UpdateResponse struct {
	Message    string `json:"message"`
	NewEndDate string `json:"new_end_date"`
	Status     Status `json:"status"`
}
