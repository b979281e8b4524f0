package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/wedplan/internal/model"
)

// PostgresBudgetRepo はPostgreSQLを使用した予算リポジトリ。
// カテゴリ・支出項目・総予算の3テーブルをまとめて扱う。
type PostgresBudgetRepo struct {
	db *sql.DB
}

// NewPostgresBudgetRepo はPostgresBudgetRepoを生成する。
func NewPostgresBudgetRepo(db *sql.DB) *PostgresBudgetRepo {
	return &PostgresBudgetRepo{db: db}
}

// ListCategories は予算カテゴリ一覧を返す。
func (r *PostgresBudgetRepo) ListCategories(ctx context.Context) ([]*model.BudgetCategory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, is_default FROM budget_categories ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list budget categories: %w", err)
	}
	defer rows.Close()

	var categories []*model.BudgetCategory
	for rows.Next() {
		category := &model.BudgetCategory{}
		if err := rows.Scan(&category.ID, &category.Name, &category.IsDefault); err != nil {
			return nil, fmt.Errorf("failed to scan budget category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate budget categories: %w", err)
	}
	return categories, nil
}

// FindCategoryByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
func (r *PostgresBudgetRepo) FindCategoryByID(ctx context.Context, id string) (*model.BudgetCategory, error) {
	category := &model.BudgetCategory{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, is_default FROM budget_categories WHERE id = $1`,
		id,
	).Scan(&category.ID, &category.Name, &category.IsDefault)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find budget category: %w", err)
	}
	return category, nil
}

// FindItemByID は指定IDの支出項目を取得する。見つからない場合はnilを返す。
func (r *PostgresBudgetRepo) FindItemByID(ctx context.Context, id string) (*model.BudgetItem, error) {
	item := &model.BudgetItem{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, wedding_id, category_id, description, amount_cents, date, created_at, updated_at
		 FROM budget_items WHERE id = $1`,
		id,
	).Scan(&item.ID, &item.WeddingID, &item.CategoryID, &item.Description,
		&item.Amount, &item.Date, &item.CreatedAt, &item.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find budget item: %w", err)
	}
	return item, nil
}

// ListItemsByWeddingID は結婚式の支出項目一覧を日付降順で返す。
func (r *PostgresBudgetRepo) ListItemsByWeddingID(ctx context.Context, weddingID string) ([]*model.BudgetItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, wedding_id, category_id, description, amount_cents, date, created_at, updated_at
		 FROM budget_items WHERE wedding_id = $1 ORDER BY date DESC, created_at DESC`,
		weddingID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list budget items: %w", err)
	}
	defer rows.Close()

	var items []*model.BudgetItem
	for rows.Next() {
		item := &model.BudgetItem{}
		if err := rows.Scan(&item.ID, &item.WeddingID, &item.CategoryID, &item.Description,
			&item.Amount, &item.Date, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan budget item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate budget items: %w", err)
	}
	return items, nil
}

// CreateItem は支出項目を作成する。
func (r *PostgresBudgetRepo) CreateItem(ctx context.Context, item *model.BudgetItem) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budget_items (id, wedding_id, category_id, description, amount_cents, date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ID, item.WeddingID, item.CategoryID, item.Description,
		item.Amount, item.Date, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert budget item: %w", err)
	}
	return nil
}

// UpdateItem は支出項目を更新する。
func (r *PostgresBudgetRepo) UpdateItem(ctx context.Context, item *model.BudgetItem) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE budget_items
		 SET category_id = $2, description = $3, amount_cents = $4, date = $5, updated_at = now()
		 WHERE id = $1`,
		item.ID, item.CategoryID, item.Description, item.Amount, item.Date,
	)
	if err != nil {
		return fmt.Errorf("failed to update budget item: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("budget item not found: %s", item.ID)
	}
	return nil
}

// DeleteItem は指定IDの支出項目を削除する。
func (r *PostgresBudgetRepo) DeleteItem(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM budget_items WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete budget item: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("budget item not found: %s", id)
	}
	return nil
}

// SumItemsByWeddingID は結婚式の支出合計（セント単位）と件数を返す。
func (r *PostgresBudgetRepo) SumItemsByWeddingID(ctx context.Context, weddingID string) (int64, int, error) {
	var sum int64
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0), COUNT(*) FROM budget_items WHERE wedding_id = $1`,
		weddingID,
	).Scan(&sum, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum budget items: %w", err)
	}
	return sum, count, nil
}

// FindWeddingBudget は結婚式の総予算を取得する。未設定の場合はnilを返す。
func (r *PostgresBudgetRepo) FindWeddingBudget(ctx context.Context, weddingID string) (*model.WeddingBudget, error) {
	budget := &model.WeddingBudget{}
	err := r.db.QueryRowContext(ctx,
		`SELECT wedding_id, total_budget, created_at, updated_at
		 FROM wedding_budgets WHERE wedding_id = $1`,
		weddingID,
	).Scan(&budget.WeddingID, &budget.TotalBudget, &budget.CreatedAt, &budget.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find wedding budget: %w", err)
	}
	return budget, nil
}

// UpsertWeddingBudget は総予算を冪等にUPSERTする。
func (r *PostgresBudgetRepo) UpsertWeddingBudget(ctx context.Context, weddingID string, totalBudget int64) (*model.WeddingBudget, error) {
	budget := &model.WeddingBudget{}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO wedding_budgets (wedding_id, total_budget)
		 VALUES ($1, $2)
		 ON CONFLICT (wedding_id)
		 DO UPDATE SET total_budget = EXCLUDED.total_budget, updated_at = now()
		 RETURNING wedding_id, total_budget, created_at, updated_at`,
		weddingID, totalBudget,
	).Scan(&budget.WeddingID, &budget.TotalBudget, &budget.CreatedAt, &budget.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert wedding budget: %w", err)
	}
	return budget, nil
}

// compile-time interface check
var _ BudgetRepository = (*PostgresBudgetRepo)(nil)
