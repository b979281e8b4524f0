// Package budget は結婚式予算管理のユースケースを提供する。
package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/wedplan/internal/model"
	"github.com/hitoshi/wedplan/internal/repository"
	"github.com/hitoshi/wedplan/internal/security"
)

// ItemInput は支出項目の作成・更新の入力を表す。
// Amountはセント単位の整数。
type ItemInput struct {
	CategoryID  string
	Description string
	Amount      int64
	Date        time.Time
}

// Service は予算のユースケースを実装する。
type Service struct {
	budgetRepo repository.BudgetRepository
	sanitizer  security.InputSanitizerService
}

// NewService はServiceを生成する。
func NewService(budgetRepo repository.BudgetRepository, sanitizer security.InputSanitizerService) *Service {
	return &Service{budgetRepo: budgetRepo, sanitizer: sanitizer}
}

// ListCategories は予算カテゴリ一覧を返す。
func (s *Service) ListCategories(ctx context.Context) ([]*model.BudgetCategory, error) {
	categories, err := s.budgetRepo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("予算カテゴリ一覧の取得に失敗しました: %w", err)
	}
	return categories, nil
}

// ListItems は結婚式の支出項目一覧を返す。
func (s *Service) ListItems(ctx context.Context, weddingID string) ([]*model.BudgetItem, error) {
	items, err := s.budgetRepo.ListItemsByWeddingID(ctx, weddingID)
	if err != nil {
		return nil, fmt.Errorf("支出項目一覧の取得に失敗しました: %w", err)
	}
	return items, nil
}

// CreateItem は支出項目を作成する。
func (s *Service) CreateItem(ctx context.Context, weddingID string, input ItemInput) (*model.BudgetItem, error) {
	item := &model.BudgetItem{
		ID:        uuid.New().String(),
		WeddingID: weddingID,
	}
	if err := s.applyItem(ctx, item, input); err != nil {
		return nil, err
	}
	if err := s.budgetRepo.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("支出項目の作成に失敗しました: %w", err)
	}
	return item, nil
}

// UpdateItem は支出項目を更新する。
// 指定結婚式に属さない項目IDにはNotFoundを返す。
func (s *Service) UpdateItem(ctx context.Context, weddingID, itemID string, input ItemInput) (*model.BudgetItem, error) {
	item, err := s.findOwnedItem(ctx, weddingID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.applyItem(ctx, item, input); err != nil {
		return nil, err
	}
	if err := s.budgetRepo.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("支出項目の更新に失敗しました: %w", err)
	}
	return item, nil
}

// DeleteItem は支出項目を削除する。
func (s *Service) DeleteItem(ctx context.Context, weddingID, itemID string) error {
	if _, err := s.findOwnedItem(ctx, weddingID, itemID); err != nil {
		return err
	}
	if err := s.budgetRepo.DeleteItem(ctx, itemID); err != nil {
		return fmt.Errorf("支出項目の削除に失敗しました: %w", err)
	}
	return nil
}

// SetTotalBudget は結婚式の総予算を設定する。既存の設定があれば上書きする。
func (s *Service) SetTotalBudget(ctx context.Context, weddingID string, totalBudget int64) (*model.WeddingBudget, error) {
	if totalBudget < 0 {
		return nil, model.NewValidationError("総予算は0以上で入力してください")
	}
	budget, err := s.budgetRepo.UpsertWeddingBudget(ctx, weddingID, totalBudget)
	if err != nil {
		return nil, fmt.Errorf("総予算の設定に失敗しました: %w", err)
	}
	return budget, nil
}

// Summary は予算の消化状況（総予算・支出合計・残額・件数）を返す。
// 総予算が未設定の場合は0として扱う。
func (s *Service) Summary(ctx context.Context, weddingID string) (*model.BudgetSummary, error) {
	spent, count, err := s.budgetRepo.SumItemsByWeddingID(ctx, weddingID)
	if err != nil {
		return nil, fmt.Errorf("支出合計の集計に失敗しました: %w", err)
	}

	var total int64
	budget, err := s.budgetRepo.FindWeddingBudget(ctx, weddingID)
	if err != nil {
		return nil, fmt.Errorf("総予算の取得に失敗しました: %w", err)
	}
	if budget != nil {
		total = budget.TotalBudget
	}

	return &model.BudgetSummary{
		TotalBudget: total,
		Spent:       spent,
		Remaining:   total - spent,
		ItemCount:   count,
	}, nil
}

// findOwnedItem は結婚式に属する支出項目を取得する。
func (s *Service) findOwnedItem(ctx context.Context, weddingID, itemID string) (*model.BudgetItem, error) {
	item, err := s.budgetRepo.FindItemByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("支出項目の取得に失敗しました: %w", err)
	}
	if item == nil || item.WeddingID != weddingID {
		return nil, model.NewBudgetItemNotFoundError(itemID)
	}
	return item, nil
}

// applyItem は入力を検証・サニタイズして支出項目へ反映する。
// カテゴリの実在確認もここで行う。
func (s *Service) applyItem(ctx context.Context, item *model.BudgetItem, input ItemInput) error {
	description := s.sanitizer.Sanitize(input.Description)
	if description == "" {
		return model.NewValidationError("支出項目の内容を入力してください")
	}
	if input.Amount < 0 {
		return model.NewValidationError("金額は0以上で入力してください")
	}
	if input.Date.IsZero() {
		return model.NewInvalidDateError("")
	}

	category, err := s.budgetRepo.FindCategoryByID(ctx, input.CategoryID)
	if err != nil {
		return fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
	}
	if category == nil {
		return model.NewCategoryNotFoundError(input.CategoryID)
	}

	item.CategoryID = input.CategoryID
	item.Description = description
	item.Amount = input.Amount
	item.Date = input.Date
	return nil
}
