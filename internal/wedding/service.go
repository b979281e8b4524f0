// Package wedding は結婚式レコードの取得と初期設定を提供する。
package wedding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/wedplan/internal/invite"
	"github.com/hitoshi/wedplan/internal/model"
	"github.com/hitoshi/wedplan/internal/repository"
	"github.com/hitoshi/wedplan/internal/security"
)

// Service は結婚式のユースケースを実装する。
type Service struct {
	weddingRepo  repository.WeddingRepository
	taskRepo     repository.TaskRepository
	sanitizer    security.InputSanitizerService
	inviteSender invite.Sender
}

// NewService はServiceを生成する。
func NewService(
	weddingRepo repository.WeddingRepository,
	taskRepo repository.TaskRepository,
	sanitizer security.InputSanitizerService,
	inviteSender invite.Sender,
) *Service {
	return &Service{
		weddingRepo:  weddingRepo,
		taskRepo:     taskRepo,
		sanitizer:    sanitizer,
		inviteSender: inviteSender,
	}
}

// FetchUserWedding は所有ユーザーの結婚式を取得する。
// 未設定の場合はエラーではなくnilを返す（正常系）。
func (s *Service) FetchUserWedding(ctx context.Context, ownerID string) (*model.Wedding, error) {
	wedding, err := s.weddingRepo.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("結婚式の取得に失敗しました: %w", err)
	}
	return wedding, nil
}

// SetupWedding は結婚式の初期設定を行う。
//
// 既に結婚式を持つユーザーに対しては重複作成せず既存レコードを返す（冪等）。
// 作成時は既定のタスク雛形からチェックリストをシードし、パートナーの
// メールアドレスが指定されていれば招待を送信する。挙式日はカレンダー日付
// のみを保持する。
func (s *Service) SetupWedding(ctx context.Context, ownerID, coupleName string, weddingDate time.Time, partnerEmail string) (*model.Wedding, error) {
	existing, err := s.FetchUserWedding(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	coupleName = s.sanitizer.Sanitize(coupleName)
	if coupleName == "" {
		return nil, model.NewValidationError("カップル名を入力してください")
	}
	if weddingDate.IsZero() {
		return nil, model.NewInvalidDateError("")
	}

	// 時刻成分を落としてカレンダー日付のみを保持する
	weddingDate = weddingDate.Truncate(24 * time.Hour)

	wedding := &model.Wedding{
		ID:          uuid.New().String(),
		CoupleName:  coupleName,
		WeddingDate: weddingDate,
		OwnerID:     ownerID,
	}
	if err := s.weddingRepo.Create(ctx, wedding); err != nil {
		return nil, fmt.Errorf("結婚式の作成に失敗しました: %w", err)
	}

	// チェックリストのシード失敗は結婚式作成を取り消さない
	if err := s.seedTasks(ctx, wedding); err != nil {
		slog.Error("failed to seed task checklist",
			slog.String("wedding_id", wedding.ID),
			slog.String("error", err.Error()),
		)
	}

	if email := strings.TrimSpace(partnerEmail); email != "" {
		if err := s.inviteSender.SendInvitation(ctx, email, wedding.CoupleName); err != nil {
			slog.Error("failed to send partner invitation",
				slog.String("wedding_id", wedding.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return wedding, nil
}

// UpdateWedding はカップル名と挙式日を更新する。
func (s *Service) UpdateWedding(ctx context.Context, wedding *model.Wedding, coupleName string, weddingDate time.Time) (*model.Wedding, error) {
	coupleName = s.sanitizer.Sanitize(coupleName)
	if coupleName == "" {
		return nil, model.NewValidationError("カップル名を入力してください")
	}
	if weddingDate.IsZero() {
		return nil, model.NewInvalidDateError("")
	}

	wedding.CoupleName = coupleName
	wedding.WeddingDate = weddingDate.Truncate(24 * time.Hour)
	if err := s.weddingRepo.Update(ctx, wedding); err != nil {
		return nil, fmt.Errorf("結婚式の更新に失敗しました: %w", err)
	}
	return wedding, nil
}

// seedTasks は既定のタスク雛形から新規結婚式のチェックリストを作成する。
// 雛形のオフセット（挙式日からの相対日数）を期日へ展開する。
func (s *Service) seedTasks(ctx context.Context, wedding *model.Wedding) error {
	templates, err := s.taskRepo.ListDefaultTemplates(ctx)
	if err != nil {
		return fmt.Errorf("タスク雛形一覧の取得に失敗しました: %w", err)
	}
	if len(templates) == 0 {
		return nil
	}

	tasks := make([]*model.Task, 0, len(templates))
	for _, tmpl := range templates {
		dueDate := wedding.WeddingDate.AddDate(0, 0, tmpl.DueDateOffset)
		tasks = append(tasks, &model.Task{
			ID:          uuid.New().String(),
			WeddingID:   wedding.ID,
			Title:       tmpl.Title,
			Description: tmpl.Description,
			DueDate:     &dueDate,
		})
	}

	if err := s.taskRepo.CreateBatch(ctx, tasks); err != nil {
		return fmt.Errorf("シードタスクの作成に失敗しました: %w", err)
	}
	return nil
}
