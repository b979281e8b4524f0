package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/wedplan/internal/model"
)

// PostgresGuestRepo はPostgreSQLを使用した招待客リポジトリ。
type PostgresGuestRepo struct {
	db *sql.DB
}

// NewPostgresGuestRepo はPostgresGuestRepoを生成する。
func NewPostgresGuestRepo(db *sql.DB) *PostgresGuestRepo {
	return &PostgresGuestRepo{db: db}
}

// FindByID は指定IDの招待客を取得する。見つからない場合はnilを返す。
func (r *PostgresGuestRepo) FindByID(ctx context.Context, id string) (*model.Guest, error) {
	guest := &model.Guest{}
	var email, phone sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, wedding_id, name, email, phone, confirmed, companions, created_at, updated_at
		 FROM guests WHERE id = $1`,
		id,
	).Scan(&guest.ID, &guest.WeddingID, &guest.Name, &email, &phone,
		&guest.Confirmed, &guest.Companions, &guest.CreatedAt, &guest.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find guest by ID: %w", err)
	}
	guest.Email = email.String
	guest.Phone = phone.String
	return guest, nil
}

// ListByWeddingID は結婚式の招待客一覧を作成日時昇順で返す。
func (r *PostgresGuestRepo) ListByWeddingID(ctx context.Context, weddingID string) ([]*model.Guest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, wedding_id, name, email, phone, confirmed, companions, created_at, updated_at
		 FROM guests WHERE wedding_id = $1 ORDER BY created_at ASC`,
		weddingID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list guests: %w", err)
	}
	defer rows.Close()

	var guests []*model.Guest
	for rows.Next() {
		guest := &model.Guest{}
		var email, phone sql.NullString
		if err := rows.Scan(&guest.ID, &guest.WeddingID, &guest.Name, &email, &phone,
			&guest.Confirmed, &guest.Companions, &guest.CreatedAt, &guest.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan guest: %w", err)
		}
		guest.Email = email.String
		guest.Phone = phone.String
		guests = append(guests, guest)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate guests: %w", err)
	}
	return guests, nil
}

// Create は招待客を作成する。
func (r *PostgresGuestRepo) Create(ctx context.Context, guest *model.Guest) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO guests (id, wedding_id, name, email, phone, confirmed, companions, created_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9)`,
		guest.ID, guest.WeddingID, guest.Name, guest.Email, guest.Phone,
		guest.Confirmed, guest.Companions, guest.CreatedAt, guest.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert guest: %w", err)
	}
	return nil
}

// Update は招待客情報を更新する。
func (r *PostgresGuestRepo) Update(ctx context.Context, guest *model.Guest) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE guests
		 SET name = $2, email = NULLIF($3, ''), phone = NULLIF($4, ''),
		     confirmed = $5, companions = $6, updated_at = now()
		 WHERE id = $1`,
		guest.ID, guest.Name, guest.Email, guest.Phone, guest.Confirmed, guest.Companions,
	)
	if err != nil {
		return fmt.Errorf("failed to update guest: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("guest not found: %s", guest.ID)
	}
	return nil
}

// Delete は指定IDの招待客を削除する。
func (r *PostgresGuestRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM guests WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete guest: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("guest not found: %s", id)
	}
	return nil
}

// StatsByWeddingID は招待客の集計を返す。
// 出席予定者数は確認済みの招待客本人と同伴者の合計。
func (r *PostgresGuestRepo) StatsByWeddingID(ctx context.Context, weddingID string) (*model.GuestStats, error) {
	stats := &model.GuestStats{}
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE confirmed),
		        COALESCE(SUM(1 + companions) FILTER (WHERE confirmed), 0)
		 FROM guests WHERE wedding_id = $1`,
		weddingID,
	).Scan(&stats.Total, &stats.Confirmed, &stats.Attendees)
	if err != nil {
		return nil, fmt.Errorf("failed to compute guest stats: %w", err)
	}
	return stats, nil
}

// compile-time interface check
var _ GuestRepository = (*PostgresGuestRepo)(nil)
