package catalog

import "github.com/shopspring/decimal"

// ===== Requests =====

// AllocateRequest: 一括受入。quantity 分のシリアルを払い出して登録する
type AllocateRequest struct {
	Kind            string `form:"type" json:"type"`
	Name            string `form:"name" json:"name"`
	Author          string `form:"author" json:"author"`
	Category        string `form:"category" json:"category"`
	Cost            string `form:"cost" json:"cost"`
	ProcurementDate string `form:"procurement_date" json:"procurement_date"`
	Quantity        int    `form:"quantity" json:"quantity"`
}

type AddCopyRequest struct {
	SerialNo        string `form:"serial_no" json:"serial_no"`
	Name            string `form:"name" json:"name"`
	Author          string `form:"author" json:"author"`
	Category        string `form:"category" json:"category"`
	ProcurementDate string `form:"procurement_date" json:"procurement_date"`
	Cost            string `form:"cost" json:"cost"`
	Type            string `form:"type" json:"type"`
}

type UpdateCopyRequest struct {
	SerialNo        string `form:"serial_no" json:"serial_no"`
	Name            string `form:"name" json:"name"`
	Author          string `form:"author" json:"author"`
	Category        string `form:"category" json:"category"`
	Status          string `form:"status" json:"status"`
	ProcurementDate string `form:"procurement_date" json:"procurement_date"`
}

type SearchQuery struct {
	Book   string `form:"book"`
	Author string `form:"author"`
}

type LabelsQuery struct {
	Serials  []string `form:"serial"`
	Encoding string   `form:"encoding"` // utf-8 / sjis
}

// ===== Responses =====

type CopyResponse struct {
	SerialNo        string          `json:"serial_no"`
	Name            string          `json:"name"`
	Author          string          `json:"author"`
	Category        string          `json:"category"`
	Status          Status          `json:"status"`
	Cost            decimal.Decimal `json:"cost"`
	ProcurementDate *string         `json:"procurement_date"`
	Type            Kind            `json:"type"`
}

type AllocateResponse struct {
	Kind    Kind     `json:"type"`
	Serials []string `json:"serials"`
}

type SearchResponse struct {
	Results []CopyResponse `json:"results"`
}
