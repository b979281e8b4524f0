package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/wedplan/internal/model"
)

// PostgresWeddingRepo はPostgreSQLを使用した結婚式リポジトリ。
type PostgresWeddingRepo struct {
	db *sql.DB
}

// NewPostgresWeddingRepo はPostgresWeddingRepoを生成する。
func NewPostgresWeddingRepo(db *sql.DB) *PostgresWeddingRepo {
	return &PostgresWeddingRepo{db: db}
}

// FindByID は指定IDの結婚式を取得する。見つからない場合はnilを返す。
func (r *PostgresWeddingRepo) FindByID(ctx context.Context, id string) (*model.Wedding, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, couple_name, wedding_date, owner_id, partner_id, created_at, updated_at
		 FROM weddings WHERE id = $1`,
		id,
	))
}

// FindByOwnerID は所有ユーザーIDで結婚式を検索する。見つからない場合はnilを返す。
func (r *PostgresWeddingRepo) FindByOwnerID(ctx context.Context, ownerID string) (*model.Wedding, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, couple_name, wedding_date, owner_id, partner_id, created_at, updated_at
		 FROM weddings WHERE owner_id = $1`,
		ownerID,
	))
}

// Create は結婚式を作成する。
// weddings.owner_idのUNIQUE制約により、所有者ごとの2件目の挿入は失敗する。
func (r *PostgresWeddingRepo) Create(ctx context.Context, wedding *model.Wedding) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO weddings (id, couple_name, wedding_date, owner_id, partner_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		wedding.ID, wedding.CoupleName, wedding.WeddingDate.Format(model.WeddingDateFormat),
		wedding.OwnerID, wedding.PartnerID, wedding.CreatedAt, wedding.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert wedding: %w", err)
	}
	return nil
}

// Update はカップル名・挙式日・パートナーIDを更新する。
func (r *PostgresWeddingRepo) Update(ctx context.Context, wedding *model.Wedding) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE weddings
		 SET couple_name = $2, wedding_date = $3, partner_id = $4, updated_at = now()
		 WHERE id = $1`,
		wedding.ID, wedding.CoupleName, wedding.WeddingDate.Format(model.WeddingDateFormat), wedding.PartnerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update wedding: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("wedding not found: %s", wedding.ID)
	}
	return nil
}

// scanOne は1行の結婚式レコードをスキャンする。
func (r *PostgresWeddingRepo) scanOne(row *sql.Row) (*model.Wedding, error) {
	wedding := &model.Wedding{}
	err := row.Scan(
		&wedding.ID, &wedding.CoupleName, &wedding.WeddingDate,
		&wedding.OwnerID, &wedding.PartnerID, &wedding.CreatedAt, &wedding.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan wedding: %w", err)
	}
	return wedding, nil
}

// compile-time interface check
var _ WeddingRepository = (*PostgresWeddingRepo)(nil)
