// Package model はドメインモデルを定義する。
package model

import "time"

// SupplierType は業者の種別を表す。
type SupplierType string

const (
	SupplierTypeBuffet      SupplierType = "buffet"
	SupplierTypeDecoration  SupplierType = "decoration"
	SupplierTypeMusic       SupplierType = "music"
	SupplierTypePhotography SupplierType = "photography"
	SupplierTypeAttire      SupplierType = "attire"
	SupplierTypeBeauty      SupplierType = "beauty"
	SupplierTypeTransport   SupplierType = "transport"
	SupplierTypeOther       SupplierType = "other"
)

// Valid は既知の業者種別かどうかを返す。
func (t SupplierType) Valid() bool {
	switch t {
	case SupplierTypeBuffet, SupplierTypeDecoration, SupplierTypeMusic,
		SupplierTypePhotography, SupplierTypeAttire, SupplierTypeBeauty,
		SupplierTypeTransport, SupplierTypeOther:
		return true
	}
	return false
}

// SupplierStatus は業者との交渉状態を表す。
type SupplierStatus string

const (
	SupplierStatusResearching SupplierStatus = "researching"
	SupplierStatusContacted   SupplierStatus = "contacted"
	SupplierStatusNegotiating SupplierStatus = "negotiating"
	SupplierStatusHired       SupplierStatus = "hired"
	SupplierStatusRejected    SupplierStatus = "rejected"
)

// Valid は既知の交渉状態かどうかを返す。
func (s SupplierStatus) Valid() bool {
	switch s {
	case SupplierStatusResearching, SupplierStatusContacted,
		SupplierStatusNegotiating, SupplierStatusHired, SupplierStatusRejected:
		return true
	}
	return false
}

// Supplier は結婚式の取引業者（会場・装飾・音楽等）を表す。
type Supplier struct {
	ID          string
	WeddingID   string
	Name        string
	Type        SupplierType
	Status      SupplierStatus
	Email       string
	Phone       string
	ContractURL string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
