package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/wedplan/internal/middleware"
	"github.com/hitoshi/wedplan/internal/model"
	"github.com/hitoshi/wedplan/internal/supplier"
)

// SupplierServiceInterface は業者ハンドラーが必要とするサービスインターフェース。
type SupplierServiceInterface interface {
	List(ctx context.Context, weddingID string) ([]*model.Supplier, error)
	Create(ctx context.Context, weddingID string, input supplier.Input) (*model.Supplier, error)
	Update(ctx context.Context, weddingID, supplierID string, input supplier.Input) (*model.Supplier, error)
	Delete(ctx context.Context, weddingID, supplierID string) error
}

// SupplierHandler は業者管理のHTTPハンドラー。
type SupplierHandler struct {
	service SupplierServiceInterface
}

// NewSupplierHandler はSupplierHandlerを生成する。
func NewSupplierHandler(service SupplierServiceInterface) *SupplierHandler {
	return &SupplierHandler{service: service}
}

// supplierRequest は業者の作成・更新リクエストのボディ。
type supplierRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	ContractURL string `json:"contract_url"`
}

// supplierResponse は業者情報のAPIレスポンス。
type supplierResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	ContractURL string `json:"contract_url"`
}

// toSupplierResponse はドメインのSupplierをAPIレスポンス型に変換する。
func toSupplierResponse(s *model.Supplier) supplierResponse {
	return supplierResponse{
		ID:          s.ID,
		Name:        s.Name,
		Type:        string(s.Type),
		Status:      string(s.Status),
		Email:       s.Email,
		Phone:       s.Phone,
		ContractURL: s.ContractURL,
	}
}

// toSupplierInput はリクエストボディをサービス入力に変換する。
func toSupplierInput(req supplierRequest) supplier.Input {
	return supplier.Input{
		Name:        req.Name,
		Type:        model.SupplierType(req.Type),
		Status:      model.SupplierStatus(req.Status),
		Email:       req.Email,
		Phone:       req.Phone,
		ContractURL: req.ContractURL,
	}
}

// List は業者一覧を返す。
// GET /api/suppliers
func (h *SupplierHandler) List(w http.ResponseWriter, r *http.Request) {
	wedding, err := middleware.WeddingFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	suppliers, err := h.service.List(r.Context(), wedding.ID)
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	results := make([]supplierResponse, len(suppliers))
	for i, s := range suppliers {
		results[i] = toSupplierResponse(s)
	}
	writeJSON(w, http.StatusOK, results)
}

// Create は業者を登録する。
// POST /api/suppliers
func (h *SupplierHandler) Create(w http.ResponseWriter, r *http.Request) {
	wedding, err := middleware.WeddingFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req supplierRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), wedding.ID, toSupplierInput(req))
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSupplierResponse(created))
}

// Update は業者情報を更新する。
// PUT /api/suppliers/{id}
func (h *SupplierHandler) Update(w http.ResponseWriter, r *http.Request) {
	wedding, err := middleware.WeddingFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req supplierRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	updated, err := h.service.Update(r.Context(), wedding.ID, chi.URLParam(r, "id"), toSupplierInput(req))
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSupplierResponse(updated))
}

// Delete は業者を削除する。
// DELETE /api/suppliers/{id}
func (h *SupplierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	wedding, err := middleware.WeddingFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.service.Delete(r.Context(), wedding.ID, chi.URLParam(r, "id")); err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
