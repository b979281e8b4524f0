// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/wedplan/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するsessions、weddings配下のレコードはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// UpdateData はセッションに紐付くUI状態スナップショットを更新する。
	UpdateData(ctx context.Context, id string, data []byte) error
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// WeddingRepository は結婚式レコードの永続化インターフェース。
type WeddingRepository interface {
	// FindByID は指定IDの結婚式を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Wedding, error)

	// FindByOwnerID は所有ユーザーIDで結婚式を検索する。
	// 所有者ごとに最大1件。見つからない場合はnilを返す。
	FindByOwnerID(ctx context.Context, ownerID string) (*model.Wedding, error)

	// Create は結婚式を作成する。
	Create(ctx context.Context, wedding *model.Wedding) error

	// Update はカップル名・挙式日・パートナーIDを更新する。
	Update(ctx context.Context, wedding *model.Wedding) error
}

// GuestRepository は招待客データの永続化インターフェース。
type GuestRepository interface {
	// FindByID は指定IDの招待客を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Guest, error)

	// ListByWeddingID は結婚式の招待客一覧を作成日時昇順で返す。
	ListByWeddingID(ctx context.Context, weddingID string) ([]*model.Guest, error)

	// Create は招待客を作成する。
	Create(ctx context.Context, guest *model.Guest) error

	// Update は招待客情報を更新する。
	Update(ctx context.Context, guest *model.Guest) error

	// Delete は指定IDの招待客を削除する。
	Delete(ctx context.Context, id string) error

	// StatsByWeddingID は招待客の集計（総数・確認済み・出席予定者数）を返す。
	StatsByWeddingID(ctx context.Context, weddingID string) (*model.GuestStats, error)
}

// BudgetRepository は予算データの永続化インターフェース。
type BudgetRepository interface {
	// ListCategories は予算カテゴリ一覧を返す。
	ListCategories(ctx context.Context) ([]*model.BudgetCategory, error)

	// FindCategoryByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
	FindCategoryByID(ctx context.Context, id string) (*model.BudgetCategory, error)

	// FindItemByID は指定IDの支出項目を取得する。見つからない場合はnilを返す。
	FindItemByID(ctx context.Context, id string) (*model.BudgetItem, error)

	// ListItemsByWeddingID は結婚式の支出項目一覧を日付降順で返す。
	ListItemsByWeddingID(ctx context.Context, weddingID string) ([]*model.BudgetItem, error)

	// CreateItem は支出項目を作成する。
	CreateItem(ctx context.Context, item *model.BudgetItem) error

	// UpdateItem は支出項目を更新する。
	UpdateItem(ctx context.Context, item *model.BudgetItem) error

	// DeleteItem は指定IDの支出項目を削除する。
	DeleteItem(ctx context.Context, id string) error

	// SumItemsByWeddingID は結婚式の支出合計（セント単位）と件数を返す。
	SumItemsByWeddingID(ctx context.Context, weddingID string) (int64, int, error)

	// FindWeddingBudget は結婚式の総予算を取得する。未設定の場合はnilを返す。
	FindWeddingBudget(ctx context.Context, weddingID string) (*model.WeddingBudget, error)

	// UpsertWeddingBudget は総予算を冪等にUPSERTする。
	UpsertWeddingBudget(ctx context.Context, weddingID string, totalBudget int64) (*model.WeddingBudget, error)
}

// TaskRepository はタスクデータの永続化インターフェース。
type TaskRepository interface {
	// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Task, error)

	// ListByWeddingID は結婚式のタスク一覧を期日昇順（期日なしは末尾）で返す。
	ListByWeddingID(ctx context.Context, weddingID string) ([]*model.Task, error)

	// Create はタスクを作成する。
	Create(ctx context.Context, task *model.Task) error

	// CreateBatch は複数タスクを同一トランザクションで作成する。
	// 雛形からのチェックリストシードに使用する。
	CreateBatch(ctx context.Context, tasks []*model.Task) error

	// Update はタスクを更新する。
	Update(ctx context.Context, task *model.Task) error

	// Delete は指定IDのタスクを削除する。
	Delete(ctx context.Context, id string) error

	// ListDefaultTemplates は既定のタスク雛形一覧を返す。
	ListDefaultTemplates(ctx context.Context) ([]*model.TaskTemplate, error)
}

// SupplierRepository は業者データの永続化インターフェース。
type SupplierRepository interface {
	// FindByID は指定IDの業者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Supplier, error)

	// ListByWeddingID は結婚式の業者一覧を作成日時昇順で返す。
	ListByWeddingID(ctx context.Context, weddingID string) ([]*model.Supplier, error)

	// Create は業者を作成する。
	Create(ctx context.Context, supplier *model.Supplier) error

	// Update は業者情報を更新する。
	Update(ctx context.Context, supplier *model.Supplier) error

	// Delete は指定IDの業者を削除する。
	Delete(ctx context.Context, id string) error
}

// CleanupStats は定期クリーンアップの結果を表す。
type CleanupStats struct {
	ExpiredSessions int64
	StartedAt       time.Time
	FinishedAt      time.Time
}
