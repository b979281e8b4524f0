// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// User はサービス利用ユーザーを表す。
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	// ConfirmedAt はメール確認が完了した日時。未確認の場合はnil。
	ConfirmedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DisplayName は表示名を返す。
// 名前が未設定の場合はメールアドレスのローカル部にフォールバックする。
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if at := strings.Index(u.Email, "@"); at > 0 {
		return u.Email[:at]
	}
	return "User"
}

// Session はユーザーのログインセッションを表す。
// Dataにはセッションに紐付くUI状態スナップショットをJSONで保持する。
type Session struct {
	ID        string
	UserID    string
	Data      []byte
	ExpiresAt time.Time
	CreatedAt time.Time
}
