package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/wedplan/internal/model"
)

// PostgresSupplierRepo はPostgreSQLを使用した業者リポジトリ。
type PostgresSupplierRepo struct {
	db *sql.DB
}

// NewPostgresSupplierRepo はPostgresSupplierRepoを生成する。
func NewPostgresSupplierRepo(db *sql.DB) *PostgresSupplierRepo {
	return &PostgresSupplierRepo{db: db}
}

// FindByID は指定IDの業者を取得する。見つからない場合はnilを返す。
func (r *PostgresSupplierRepo) FindByID(ctx context.Context, id string) (*model.Supplier, error) {
	supplier := &model.Supplier{}
	var email, phone, contractURL sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, wedding_id, name, type, status, email, phone, contract_url, created_at, updated_at
		 FROM suppliers WHERE id = $1`,
		id,
	).Scan(&supplier.ID, &supplier.WeddingID, &supplier.Name, &supplier.Type, &supplier.Status,
		&email, &phone, &contractURL, &supplier.CreatedAt, &supplier.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find supplier by ID: %w", err)
	}
	supplier.Email = email.String
	supplier.Phone = phone.String
	supplier.ContractURL = contractURL.String
	return supplier, nil
}

// ListByWeddingID は結婚式の業者一覧を作成日時昇順で返す。
func (r *PostgresSupplierRepo) ListByWeddingID(ctx context.Context, weddingID string) ([]*model.Supplier, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, wedding_id, name, type, status, email, phone, contract_url, created_at, updated_at
		 FROM suppliers WHERE wedding_id = $1 ORDER BY created_at ASC`,
		weddingID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []*model.Supplier
	for rows.Next() {
		supplier := &model.Supplier{}
		var email, phone, contractURL sql.NullString
		if err := rows.Scan(&supplier.ID, &supplier.WeddingID, &supplier.Name, &supplier.Type, &supplier.Status,
			&email, &phone, &contractURL, &supplier.CreatedAt, &supplier.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		supplier.Email = email.String
		supplier.Phone = phone.String
		supplier.ContractURL = contractURL.String
		suppliers = append(suppliers, supplier)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate suppliers: %w", err)
	}
	return suppliers, nil
}

// Create は業者を作成する。
func (r *PostgresSupplierRepo) Create(ctx context.Context, supplier *model.Supplier) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO suppliers (id, wedding_id, name, type, status, email, phone, contract_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9, $10)`,
		supplier.ID, supplier.WeddingID, supplier.Name, supplier.Type, supplier.Status,
		supplier.Email, supplier.Phone, supplier.ContractURL, supplier.CreatedAt, supplier.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert supplier: %w", err)
	}
	return nil
}

// Update は業者情報を更新する。
func (r *PostgresSupplierRepo) Update(ctx context.Context, supplier *model.Supplier) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE suppliers
		 SET name = $2, type = $3, status = $4, email = NULLIF($5, ''),
		     phone = NULLIF($6, ''), contract_url = NULLIF($7, ''), updated_at = now()
		 WHERE id = $1`,
		supplier.ID, supplier.Name, supplier.Type, supplier.Status,
		supplier.Email, supplier.Phone, supplier.ContractURL,
	)
	if err != nil {
		return fmt.Errorf("failed to update supplier: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("supplier not found: %s", supplier.ID)
	}
	return nil
}

// Delete は指定IDの業者を削除する。
func (r *PostgresSupplierRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM suppliers WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete supplier: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("supplier not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ SupplierRepository = (*PostgresSupplierRepo)(nil)
