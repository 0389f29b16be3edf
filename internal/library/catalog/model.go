package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind は資料種別（books.type）
type Kind string

const (
	KindBook  Kind = "Book"
	KindMovie Kind = "Movie"
)

func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindBook, KindMovie:
		return Kind(s), true
	}
	return "", false
}

// Prefix はシリアル番号の先頭文字
func (k Kind) Prefix() string {
	if k == KindMovie {
		return "M"
	}
	return "B"
}

// Status は貸出状態のキャッシュ。正は issues 側（未返却の貸出があるか）
type Status string

const (
	StatusAvailable Status = "Available"
	StatusIssued    Status = "Issued"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusAvailable, StatusIssued:
		return Status(s), true
	}
	return "", false
}

// Copy は books テーブルの1行
type Copy struct {
	SerialNo        string
	Name            string
	Author          string
	Category        string
	Status          Status
	Cost            decimal.Decimal
	ProcurementDate *time.Time // 古いデータは NULL
	Type            Kind
}
