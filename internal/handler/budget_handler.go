package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/wedplan/internal/budget"
	"github.com/hitoshi/wedplan/internal/middleware"
	"github.com/hitoshi/wedplan/internal/model"
)

// BudgetServiceInterface は予算ハンドラーが必要とするサービスインターフェース。
type BudgetServiceInterface interface {
	ListCategories(ctx context.Context) ([]*model.BudgetCategory, error)
	ListItems(ctx context.Context, weddingID string) ([]*model.BudgetItem, error)
	CreateItem(ctx context.Context, weddingID string, input budget.ItemInput) (*model.BudgetItem, error)
	UpdateItem(ctx context.Context, weddingID, itemID string, input budget.ItemInput) (*model.BudgetItem, error)
	DeleteItem(ctx context.Context, weddingID, itemID string) error
	SetTotalBudget(ctx context.Context, weddingID string, totalBudget int64) (*model.WeddingBudget, error)
	Summary(ctx context.Context, weddingID string) (*model.BudgetSummary, error)
}

// BudgetHandler は予算管理のHTTPハンドラー。
type BudgetHandler struct {
	service BudgetServiceInterface
}

// NewBudgetHandler はBudgetHandlerを生成する。
func NewBudgetHandler(service BudgetServiceInterface) *BudgetHandler {
	return &BudgetHandler{service: service}
}

// budgetItemRequest は支出項目の作成・更新リクエストのボディ。
// Amountはセント単位の整数。
type budgetItemRequest struct {
	CategoryID  string `json:"category_id"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Date        string `json:"date"`
}

// totalBudgetRequest は総予算設定リクエストのボディ。
type totalBudgetRequest struct {
	TotalBudget int64 `json:"total_budget"`
}

// budgetCategoryResponse は予算カテゴリのAPIレスポンス。
type budgetCategoryResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

// budgetItemResponse は支出項目のAPIレスポンス。
type budgetItemResponse struct {
	ID          string `json:"id"`
	CategoryID  string `json:"category_id"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Date        string `json:"date"`
}

// budgetSummaryResponse は予算消化状況のAPIレスポンス。
type budgetSummaryResponse struct {
	TotalBudget int64 `json:"total_budget"`
	Spent       int64 `json:"spent"`
	Remaining   int64 `json:"remaining"`
	ItemCount   int   `json:"item_count"`
}

// toBudgetItemResponse はドメインのBudgetItemをAPIレスポンス型に変換する。
func toBudgetItemResponse(item *model.BudgetItem) budgetItemResponse {
	return budgetItemResponse{
		ID:          item.ID,
		CategoryID:  item.CategoryID,
		Description: item.Description,
		Amount:      item.Amount,
		Date:        item.Date.Format(model.WeddingDateFormat),
	}
}

// ListCategories は予算カテゴリ一覧を返す。
// GET /api/budget/categories
func (h *BudgetHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	results := make([]budgetCategoryResponse, len(categories))
	for i, c := range categories {
		results[i] = budgetCategoryResponse{ID: c.ID, Name: c.Name, IsDefault: c.IsDefault}
	}
	writeJSON(w, http.StatusOK, results)
}

// ListItems は支出項目一覧を返す。
// GET /api/budget/items
func (h *BudgetHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	wedding, err := middleware.WeddingFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	items, err := h.service.ListItems(r.Context(), wedding.ID)
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	results := make([]budgetItemResponse, len(items))
	for i, item := range items {
		results[i] = toBudgetItemResponse(item)
	}
	writeJSON(w, http.StatusOK, results)
}

// CreateItem は支出項目を登録する。
// POST /api/budget/items
func (h *BudgetHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	wedding, err := middleware.WeddingFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	input, ok := h.decodeItemInput(w, r)
	if !ok {
		return
	}

	created, err := h.service.CreateItem(r.Context(), wedding.ID, input)
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBudgetItemResponse(created))
}

// UpdateItem は支出項目を更新する。
// PUT /api/budget/items/{id}
func (h *BudgetHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	wedding, err := middleware.WeddingFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	input, ok := h.decodeItemInput(w, r)
	if !ok {
		return
	}

	updated, err := h.service.UpdateItem(r.Context(), wedding.ID, chi.URLParam(r, "id"), input)
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBudgetItemResponse(updated))
}

// DeleteItem は支出項目を削除する。
// DELETE /api/budget/items/{id}
func (h *BudgetHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	wedding, err := middleware.WeddingFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.service.DeleteItem(r.Context(), wedding.ID, chi.URLParam(r, "id")); err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetTotalBudget は総予算を設定する。
// PUT /api/budget/total
func (h *BudgetHandler) SetTotalBudget(w http.ResponseWriter, r *http.Request) {
	wedding, err := middleware.WeddingFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req totalBudgetRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	result, err := h.service.SetTotalBudget(r.Context(), wedding.ID, req.TotalBudget)
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, totalBudgetRequest{TotalBudget: result.TotalBudget})
}

// Summary は予算の消化状況を返す。
// GET /api/budget/summary
func (h *BudgetHandler) Summary(w http.ResponseWriter, r *http.Request) {
	wedding, err := middleware.WeddingFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	summary, err := h.service.Summary(r.Context(), wedding.ID)
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, budgetSummaryResponse{
		TotalBudget: summary.TotalBudget,
		Spent:       summary.Spent,
		Remaining:   summary.Remaining,
		ItemCount:   summary.ItemCount,
	})
}

// decodeItemInput は支出項目のリクエストボディを解析しサービス入力に変換する。
func (h *BudgetHandler) decodeItemInput(w http.ResponseWriter, r *http.Request) (budget.ItemInput, bool) {
	var req budgetItemRequest
	if !decodeRequest(w, r, &req) {
		return budget.ItemInput{}, false
	}

	date, err := parseDate(req.Date)
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidDateError(req.Date))
		return budget.ItemInput{}, false
	}

	return budget.ItemInput{
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Amount:      req.Amount,
		Date:        date,
	}, true
}
