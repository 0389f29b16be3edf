package requests

type CreateRequest struct {
	MembershipID  string `form:"membership_id" json:"membership_id"`
	BookName      string `form:"book_name" json:"book_name"`
	RequestedDate string `form:"requested_date" json:"requested_date"` // 省略時は今日
}

type FulfillRequest struct {
	FulfilledDate string `form:"fulfilled_date" json:"fulfilled_date"` // 省略時は今日
}

type RequestResponse struct {
	RequestID     uint64  `json:"request_id"`
	RequestULID   string  `json:"request_ulid"`
	MembershipID  string  `json:"membership_id"`
	BookName      string  `json:"book_name"`
	RequestedDate string  `json:"requested_date"`
	FulfilledDate *string `json:"fulfilled_date"`
}

type ListQuery struct {
	MembershipID string `form:"membership_id"`
	Pending      *bool  `form:"pending"` // true: 未対応のみ / false: 対応済みのみ
	From         string `form:"from"`
	To           string `form:"to"`
	Sort         string `form:"sort"`
	Limit        int    `form:"limit"`
	Offset       int    `form:"offset"`
}

type ListResponse struct {
	Items      []RequestResponse `json:"items"`
	Total      int64             `json:"total"`
	NextOffset *int              `json:"next_offset"`
}
