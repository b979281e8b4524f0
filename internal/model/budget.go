// Package model はドメインモデルを定義する。
package model

import "time"

// BudgetCategory は予算項目のカテゴリを表す。
// is_defaultなカテゴリはマイグレーションでシードされる。
type BudgetCategory struct {
	ID        string
	Name      string
	IsDefault bool
}

// BudgetItem は結婚式の支出項目を表す。
type BudgetItem struct {
	ID          string
	WeddingID   string
	CategoryID  string
	Description string
	// Amount は支出額。通貨計算の丸め誤差を避けるためセント単位の整数で保持する。
	Amount    int64
	Date      time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WeddingBudget は結婚式の総予算を表す。結婚式ごとに1件。
type WeddingBudget struct {
	WeddingID   string
	TotalBudget int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BudgetSummary は予算の消化状況を表す。
type BudgetSummary struct {
	TotalBudget int64
	Spent       int64
	Remaining   int64
	ItemCount   int
}
