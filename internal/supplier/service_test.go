package supplier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hitoshi/wedplan/internal/model"
	"github.com/hitoshi/wedplan/internal/repository"
)

// --- モック ---

type mockSupplierRepo struct {
	findByIDFn        func(ctx context.Context, id string) (*model.Supplier, error)
	listByWeddingIDFn func(ctx context.Context, weddingID string) ([]*model.Supplier, error)
	createFn          func(ctx context.Context, supplier *model.Supplier) error
	updateFn          func(ctx context.Context, supplier *model.Supplier) error
	deleteFn          func(ctx context.Context, id string) error
}

func (m *mockSupplierRepo) FindByID(ctx context.Context, id string) (*model.Supplier, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockSupplierRepo) ListByWeddingID(ctx context.Context, weddingID string) ([]*model.Supplier, error) {
	if m.listByWeddingIDFn != nil {
		return m.listByWeddingIDFn(ctx, weddingID)
	}
	return nil, nil
}
func (m *mockSupplierRepo) Create(ctx context.Context, supplier *model.Supplier) error {
	if m.createFn != nil {
		return m.createFn(ctx, supplier)
	}
	return nil
}
func (m *mockSupplierRepo) Update(ctx context.Context, supplier *model.Supplier) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, supplier)
	}
	return nil
}
func (m *mockSupplierRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockSanitizer struct{}

func (m *mockSanitizer) Sanitize(raw string) string { return strings.TrimSpace(raw) }

// compile-time interface check
var _ repository.SupplierRepository = (*mockSupplierRepo)(nil)

// --- テスト ---

// 業者の作成と初期ステータスを検証
func TestService_Create_DefaultsToResearching(t *testing.T) {
	var created *model.Supplier
	repo := &mockSupplierRepo{
		createFn: func(ctx context.Context, supplier *model.Supplier) error {
			created = supplier
			return nil
		},
	}
	svc := NewService(repo, &mockSanitizer{})

	supplier, err := svc.Create(context.Background(), "wedding-1", Input{
		Name: "Banda Azul",
		Type: model.SupplierTypeMusic,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created == nil {
		t.Fatal("expected supplier to be persisted")
	}
	if supplier.Status != model.SupplierStatusResearching {
		t.Errorf("Status = %q, want researching by default", supplier.Status)
	}
	if supplier.WeddingID != "wedding-1" {
		t.Errorf("WeddingID = %q, want wedding-1", supplier.WeddingID)
	}
}

// 不明な業者種別での作成が失敗することを検証
func TestService_Create_InvalidType(t *testing.T) {
	svc := NewService(&mockSupplierRepo{}, &mockSanitizer{})

	_, err := svc.Create(context.Background(), "wedding-1", Input{
		Name: "Banda Azul",
		Type: model.SupplierType("venue"),
	})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Fatalf("expected VALIDATION_FAILED error, got %v", err)
	}
}

// 不明な交渉状態での更新が失敗することを検証
func TestService_Update_InvalidStatus(t *testing.T) {
	repo := &mockSupplierRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Supplier, error) {
			return &model.Supplier{ID: id, WeddingID: "wedding-1"}, nil
		},
	}
	svc := NewService(repo, &mockSanitizer{})

	_, err := svc.Update(context.Background(), "wedding-1", "supplier-1", Input{
		Name:   "Banda Azul",
		Type:   model.SupplierTypeMusic,
		Status: model.SupplierStatus("booked"),
	})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Fatalf("expected VALIDATION_FAILED error, got %v", err)
	}
}

// 交渉状態の遷移を含む更新を検証
func TestService_Update(t *testing.T) {
	repo := &mockSupplierRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Supplier, error) {
			return &model.Supplier{
				ID:        id,
				WeddingID: "wedding-1",
				Name:      "Banda Azul",
				Type:      model.SupplierTypeMusic,
				Status:    model.SupplierStatusContacted,
			}, nil
		},
	}
	svc := NewService(repo, &mockSanitizer{})

	supplier, err := svc.Update(context.Background(), "wedding-1", "supplier-1", Input{
		Name:   "Banda Azul",
		Type:   model.SupplierTypeMusic,
		Status: model.SupplierStatusHired,
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if supplier.Status != model.SupplierStatusHired {
		t.Errorf("Status = %q, want hired", supplier.Status)
	}
}

// 他の結婚式に属する業者の削除がNotFoundで拒否されることを検証
func TestService_Delete_OtherWedding(t *testing.T) {
	repo := &mockSupplierRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Supplier, error) {
			return &model.Supplier{ID: id, WeddingID: "other-wedding"}, nil
		},
	}
	svc := NewService(repo, &mockSanitizer{})

	err := svc.Delete(context.Background(), "wedding-1", "supplier-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeSupplierNotFound {
		t.Fatalf("expected SUPPLIER_NOT_FOUND error, got %v", err)
	}
}
