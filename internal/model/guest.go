// Package model はドメインモデルを定義する。
package model

import "time"

// Guest は結婚式の招待客を表す。
type Guest struct {
	ID        string
	WeddingID string
	Name      string
	Email     string
	Phone     string
	Confirmed bool
	// Companions は同伴者の人数。本人は含まない。
	Companions int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// GuestStats は招待客の集計情報を表す。
type GuestStats struct {
	Total     int
	Confirmed int
	// Attendees は出席予定者の総数（確認済みの本人 + 同伴者）。
	Attendees int
}
