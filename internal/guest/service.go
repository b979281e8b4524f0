// Package guest は招待客管理のユースケースを提供する。
package guest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/wedplan/internal/model"
	"github.com/hitoshi/wedplan/internal/repository"
	"github.com/hitoshi/wedplan/internal/security"
)

// Input は招待客の作成・更新の入力を表す。
type Input struct {
	Name       string
	Email      string
	Phone      string
	Confirmed  bool
	Companions int
}

// Service は招待客のユースケースを実装する。
// すべての操作は結婚式IDでスコープされ、他の結婚式の招待客には届かない。
type Service struct {
	guestRepo repository.GuestRepository
	sanitizer security.InputSanitizerService
}

// NewService はServiceを生成する。
func NewService(guestRepo repository.GuestRepository, sanitizer security.InputSanitizerService) *Service {
	return &Service{guestRepo: guestRepo, sanitizer: sanitizer}
}

// List は結婚式の招待客一覧を返す。
func (s *Service) List(ctx context.Context, weddingID string) ([]*model.Guest, error) {
	guests, err := s.guestRepo.ListByWeddingID(ctx, weddingID)
	if err != nil {
		return nil, fmt.Errorf("招待客一覧の取得に失敗しました: %w", err)
	}
	return guests, nil
}

// Stats は招待客の集計（総数・確認済み・出席予定者数）を返す。
func (s *Service) Stats(ctx context.Context, weddingID string) (*model.GuestStats, error) {
	stats, err := s.guestRepo.StatsByWeddingID(ctx, weddingID)
	if err != nil {
		return nil, fmt.Errorf("招待客の集計に失敗しました: %w", err)
	}
	return stats, nil
}

// Create は招待客を作成する。
func (s *Service) Create(ctx context.Context, weddingID string, input Input) (*model.Guest, error) {
	guest := &model.Guest{
		ID:        uuid.New().String(),
		WeddingID: weddingID,
	}
	if err := s.apply(guest, input); err != nil {
		return nil, err
	}
	if err := s.guestRepo.Create(ctx, guest); err != nil {
		return nil, fmt.Errorf("招待客の作成に失敗しました: %w", err)
	}
	return guest, nil
}

// Update は招待客情報を更新する。
// 指定結婚式に属さない招待客IDにはNotFoundを返す。
func (s *Service) Update(ctx context.Context, weddingID, guestID string, input Input) (*model.Guest, error) {
	guest, err := s.findOwned(ctx, weddingID, guestID)
	if err != nil {
		return nil, err
	}
	if err := s.apply(guest, input); err != nil {
		return nil, err
	}
	if err := s.guestRepo.Update(ctx, guest); err != nil {
		return nil, fmt.Errorf("招待客の更新に失敗しました: %w", err)
	}
	return guest, nil
}

// Delete は招待客を削除する。
func (s *Service) Delete(ctx context.Context, weddingID, guestID string) error {
	if _, err := s.findOwned(ctx, weddingID, guestID); err != nil {
		return err
	}
	if err := s.guestRepo.Delete(ctx, guestID); err != nil {
		return fmt.Errorf("招待客の削除に失敗しました: %w", err)
	}
	return nil
}

// findOwned は結婚式に属する招待客を取得する。
// 存在しない場合も他の結婚式に属する場合も同じNotFoundを返す。
func (s *Service) findOwned(ctx context.Context, weddingID, guestID string) (*model.Guest, error) {
	guest, err := s.guestRepo.FindByID(ctx, guestID)
	if err != nil {
		return nil, fmt.Errorf("招待客の取得に失敗しました: %w", err)
	}
	if guest == nil || guest.WeddingID != weddingID {
		return nil, model.NewGuestNotFoundError(guestID)
	}
	return guest, nil
}

// apply は入力を検証・サニタイズして招待客へ反映する。
func (s *Service) apply(guest *model.Guest, input Input) error {
	name := s.sanitizer.Sanitize(input.Name)
	if name == "" {
		return model.NewValidationError("招待客の名前を入力してください")
	}
	if input.Companions < 0 {
		return model.NewValidationError("同伴者数は0以上で入力してください")
	}

	guest.Name = name
	guest.Email = s.sanitizer.Sanitize(input.Email)
	guest.Phone = s.sanitizer.Sanitize(input.Phone)
	guest.Confirmed = input.Confirmed
	guest.Companions = input.Companions
	return nil
}
