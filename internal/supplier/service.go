// Package supplier は結婚式の取引業者管理のユースケースを提供する。
package supplier

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/wedplan/internal/model"
	"github.com/hitoshi/wedplan/internal/repository"
	"github.com/hitoshi/wedplan/internal/security"
)

// Input は業者の作成・更新の入力を表す。
type Input struct {
	Name        string
	Type        model.SupplierType
	Status      model.SupplierStatus
	Email       string
	Phone       string
	ContractURL string
}

// Service は業者のユースケースを実装する。
type Service struct {
	supplierRepo repository.SupplierRepository
	sanitizer    security.InputSanitizerService
}

// NewService はServiceを生成する。
func NewService(supplierRepo repository.SupplierRepository, sanitizer security.InputSanitizerService) *Service {
	return &Service{supplierRepo: supplierRepo, sanitizer: sanitizer}
}

// List は結婚式の業者一覧を返す。
func (s *Service) List(ctx context.Context, weddingID string) ([]*model.Supplier, error) {
	suppliers, err := s.supplierRepo.ListByWeddingID(ctx, weddingID)
	if err != nil {
		return nil, fmt.Errorf("業者一覧の取得に失敗しました: %w", err)
	}
	return suppliers, nil
}

// Create は業者を作成する。Statusが空の場合はresearchingで初期化する。
func (s *Service) Create(ctx context.Context, weddingID string, input Input) (*model.Supplier, error) {
	if input.Status == "" {
		input.Status = model.SupplierStatusResearching
	}

	supplier := &model.Supplier{
		ID:        uuid.New().String(),
		WeddingID: weddingID,
	}
	if err := s.apply(supplier, input); err != nil {
		return nil, err
	}
	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		return nil, fmt.Errorf("業者の作成に失敗しました: %w", err)
	}
	return supplier, nil
}

// Update は業者情報を更新する。
// 指定結婚式に属さない業者IDにはNotFoundを返す。
func (s *Service) Update(ctx context.Context, weddingID, supplierID string, input Input) (*model.Supplier, error) {
	supplier, err := s.findOwned(ctx, weddingID, supplierID)
	if err != nil {
		return nil, err
	}
	if err := s.apply(supplier, input); err != nil {
		return nil, err
	}
	if err := s.supplierRepo.Update(ctx, supplier); err != nil {
		return nil, fmt.Errorf("業者の更新に失敗しました: %w", err)
	}
	return supplier, nil
}

// Delete は業者を削除する。
func (s *Service) Delete(ctx context.Context, weddingID, supplierID string) error {
	if _, err := s.findOwned(ctx, weddingID, supplierID); err != nil {
		return err
	}
	if err := s.supplierRepo.Delete(ctx, supplierID); err != nil {
		return fmt.Errorf("業者の削除に失敗しました: %w", err)
	}
	return nil
}

// findOwned は結婚式に属する業者を取得する。
func (s *Service) findOwned(ctx context.Context, weddingID, supplierID string) (*model.Supplier, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("業者の取得に失敗しました: %w", err)
	}
	if supplier == nil || supplier.WeddingID != weddingID {
		return nil, model.NewSupplierNotFoundError(supplierID)
	}
	return supplier, nil
}

// apply は入力を検証・サニタイズして業者へ反映する。
func (s *Service) apply(supplier *model.Supplier, input Input) error {
	name := s.sanitizer.Sanitize(input.Name)
	if name == "" {
		return model.NewValidationError("業者名を入力してください")
	}
	if !input.Type.Valid() {
		return model.NewValidationError(fmt.Sprintf("不明な業者種別です: %s", input.Type))
	}
	if !input.Status.Valid() {
		return model.NewValidationError(fmt.Sprintf("不明な交渉状態です: %s", input.Status))
	}

	supplier.Name = name
	supplier.Type = input.Type
	supplier.Status = input.Status
	supplier.Email = s.sanitizer.Sanitize(input.Email)
	supplier.Phone = s.sanitizer.Sanitize(input.Phone)
	supplier.ContractURL = s.sanitizer.Sanitize(input.ContractURL)
	return nil
}
