// Package model はドメインモデルを定義する。
package model

import "time"

// Task は結婚式準備のタスクを表す。
type Task struct {
	ID          string
	WeddingID   string
	Title       string
	Description string
	// DueDate は期日。未設定の場合はnil。
	DueDate *time.Time
	Done    bool
	// AssignedTo は担当ユーザーのID。未割り当ての場合はnil。
	AssignedTo *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TaskTemplate は新規結婚式のチェックリストをシードするタスク雛形を表す。
type TaskTemplate struct {
	ID          string
	Title       string
	Description string
	// DueDateOffset は挙式日からの相対日数。負の値は挙式日より前を意味する。
	DueDateOffset int
	IsDefault     bool
	CreatedAt     time.Time
}
