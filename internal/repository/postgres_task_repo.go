package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/wedplan/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
func (r *PostgresTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	task := &model.Task{}
	var description sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, wedding_id, title, description, due_date, done, assigned_to, created_at, updated_at
		 FROM tasks WHERE id = $1`,
		id,
	).Scan(&task.ID, &task.WeddingID, &task.Title, &description,
		&task.DueDate, &task.Done, &task.AssignedTo, &task.CreatedAt, &task.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task by ID: %w", err)
	}
	task.Description = description.String
	return task, nil
}

// ListByWeddingID は結婚式のタスク一覧を期日昇順（期日なしは末尾）で返す。
func (r *PostgresTaskRepo) ListByWeddingID(ctx context.Context, weddingID string) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, wedding_id, title, description, due_date, done, assigned_to, created_at, updated_at
		 FROM tasks WHERE wedding_id = $1
		 ORDER BY due_date ASC NULLS LAST, created_at ASC`,
		weddingID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		task := &model.Task{}
		var description sql.NullString
		if err := rows.Scan(&task.ID, &task.WeddingID, &task.Title, &description,
			&task.DueDate, &task.Done, &task.AssignedTo, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		task.Description = description.String
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

// Create はタスクを作成する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, wedding_id, title, description, due_date, done, assigned_to, created_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9)`,
		task.ID, task.WeddingID, task.Title, task.Description,
		task.DueDate, task.Done, task.AssignedTo, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// CreateBatch は複数タスクを同一トランザクションで作成する。
func (r *PostgresTaskRepo) CreateBatch(ctx context.Context, tasks []*model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, task := range tasks {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (id, wedding_id, title, description, due_date, done, assigned_to, created_at, updated_at)
			 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9)`,
			task.ID, task.WeddingID, task.Title, task.Description,
			task.DueDate, task.Done, task.AssignedTo, task.CreatedAt, task.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert task in batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Update はタスクを更新する。
func (r *PostgresTaskRepo) Update(ctx context.Context, task *model.Task) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks
		 SET title = $2, description = NULLIF($3, ''), due_date = $4,
		     done = $5, assigned_to = $6, updated_at = now()
		 WHERE id = $1`,
		task.ID, task.Title, task.Description, task.DueDate, task.Done, task.AssignedTo,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("task not found: %s", task.ID)
	}
	return nil
}

// Delete は指定IDのタスクを削除する。
func (r *PostgresTaskRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("task not found: %s", id)
	}
	return nil
}

// ListDefaultTemplates は既定のタスク雛形一覧を返す。
func (r *PostgresTaskRepo) ListDefaultTemplates(ctx context.Context) ([]*model.TaskTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, description, due_date_offset, is_default, created_at
		 FROM task_templates WHERE is_default ORDER BY due_date_offset ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list task templates: %w", err)
	}
	defer rows.Close()

	var templates []*model.TaskTemplate
	for rows.Next() {
		tmpl := &model.TaskTemplate{}
		var description sql.NullString
		if err := rows.Scan(&tmpl.ID, &tmpl.Title, &description,
			&tmpl.DueDateOffset, &tmpl.IsDefault, &tmpl.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task template: %w", err)
		}
		tmpl.Description = description.String
		templates = append(templates, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate task templates: %w", err)
	}
	return templates, nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
