// Package task は結婚式準備タスクのユースケースを提供する。
package task

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/wedplan/internal/model"
	"github.com/hitoshi/wedplan/internal/repository"
	"github.com/hitoshi/wedplan/internal/security"
)

// Input はタスクの作成・更新の入力を表す。
type Input struct {
	Title       string
	Description string
	// DueDate は期日。期日なしの場合はnil。
	DueDate *time.Time
	Done    bool
	// AssignedTo は担当ユーザーのID。未割り当ての場合はnil。
	AssignedTo *string
}

// Service はタスクのユースケースを実装する。
type Service struct {
	taskRepo  repository.TaskRepository
	sanitizer security.InputSanitizerService
}

// NewService はServiceを生成する。
func NewService(taskRepo repository.TaskRepository, sanitizer security.InputSanitizerService) *Service {
	return &Service{taskRepo: taskRepo, sanitizer: sanitizer}
}

// List は結婚式のタスク一覧を返す。
func (s *Service) List(ctx context.Context, weddingID string) ([]*model.Task, error) {
	tasks, err := s.taskRepo.ListByWeddingID(ctx, weddingID)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	return tasks, nil
}

// Create はタスクを作成する。
func (s *Service) Create(ctx context.Context, weddingID string, input Input) (*model.Task, error) {
	task := &model.Task{
		ID:        uuid.New().String(),
		WeddingID: weddingID,
	}
	if err := s.apply(task, input); err != nil {
		return nil, err
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}
	return task, nil
}

// Update はタスクを更新する。
// 指定結婚式に属さないタスクIDにはNotFoundを返す。
func (s *Service) Update(ctx context.Context, weddingID, taskID string, input Input) (*model.Task, error) {
	task, err := s.findOwned(ctx, weddingID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.apply(task, input); err != nil {
		return nil, err
	}
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}
	return task, nil
}

// SetDone はタスクの完了状態のみを切り替える。
func (s *Service) SetDone(ctx context.Context, weddingID, taskID string, done bool) (*model.Task, error) {
	task, err := s.findOwned(ctx, weddingID, taskID)
	if err != nil {
		return nil, err
	}
	task.Done = done
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}
	return task, nil
}

// Delete はタスクを削除する。
func (s *Service) Delete(ctx context.Context, weddingID, taskID string) error {
	if _, err := s.findOwned(ctx, weddingID, taskID); err != nil {
		return err
	}
	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	return nil
}

// ListTemplates は既定のタスク雛形一覧を返す。
func (s *Service) ListTemplates(ctx context.Context) ([]*model.TaskTemplate, error) {
	templates, err := s.taskRepo.ListDefaultTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("タスク雛形一覧の取得に失敗しました: %w", err)
	}
	return templates, nil
}

// findOwned は結婚式に属するタスクを取得する。
func (s *Service) findOwned(ctx context.Context, weddingID, taskID string) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	if task == nil || task.WeddingID != weddingID {
		return nil, model.NewTaskNotFoundError(taskID)
	}
	return task, nil
}

// apply は入力を検証・サニタイズしてタスクへ反映する。
func (s *Service) apply(task *model.Task, input Input) error {
	title := s.sanitizer.Sanitize(input.Title)
	if title == "" {
		return model.NewValidationError("タスクのタイトルを入力してください")
	}

	task.Title = title
	task.Description = s.sanitizer.Sanitize(input.Description)
	task.DueDate = input.DueDate
	task.Done = input.Done
	task.AssignedTo = input.AssignedTo
	return nil
}
