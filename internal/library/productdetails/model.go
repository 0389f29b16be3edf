package productdetails

// ProductDetail は分類コードの範囲表（帳票の凡例）
type ProductDetail struct {
	ID         uint   `json:"id"`
	CodeFrom   string `json:"code_from"`
	CodeTo     string `json:"code_to"`
	Category   string `json:"category"`
	IsDisabled bool   `json:"is_disabled"`
}

type CreateRequest struct {
	CodeFrom string `form:"code_from" json:"code_from"`
	CodeTo   string `form:"code_to" json:"code_to"`
	Category string `form:"category" json:"category"`
}

type UpdateRequest struct {
	CodeFrom   string `form:"code_from" json:"code_from"`
	CodeTo     string `form:"code_to" json:"code_to"`
	Category   string `form:"category" json:"category"`
	IsDisabled bool   `form:"is_disabled" json:"is_disabled"`
}
