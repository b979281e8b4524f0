package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/wedplan/internal/metrics"
	"github.com/hitoshi/wedplan/internal/middleware"
	"github.com/hitoshi/wedplan/internal/model"
)

// WeddingServiceInterface は結婚式ハンドラーが必要とするサービスインターフェース。
type WeddingServiceInterface interface {
	// FetchUserWedding はユーザーの結婚式を取得する。未作成の場合はnilを返す。
	FetchUserWedding(ctx context.Context, ownerID string) (*model.Wedding, error)
	// SetupWedding は結婚式を作成する。既存の場合は冪等にそれを返す。
	SetupWedding(ctx context.Context, ownerID, coupleName string, weddingDate time.Time, partnerEmail string) (*model.Wedding, error)
	// UpdateWedding はカップル名と挙式日を更新する。
	UpdateWedding(ctx context.Context, wedding *model.Wedding, coupleName string, weddingDate time.Time) (*model.Wedding, error)
}

// WeddingHandler は結婚式管理のHTTPハンドラー。
type WeddingHandler struct {
	service   WeddingServiceInterface
	collector metrics.MetricsCollector
}

// NewWeddingHandler はWeddingHandlerを生成する。
func NewWeddingHandler(service WeddingServiceInterface, collector metrics.MetricsCollector) *WeddingHandler {
	return &WeddingHandler{
		service:   service,
		collector: collector,
	}
}

// setupWeddingRequest は結婚式作成リクエストのボディ。
type setupWeddingRequest struct {
	CoupleName   string `json:"couple_name"`
	WeddingDate  string `json:"wedding_date"`
	PartnerEmail string `json:"partner_email"`
}

// updateWeddingRequest は結婚式更新リクエストのボディ。
type updateWeddingRequest struct {
	CoupleName  string `json:"couple_name"`
	WeddingDate string `json:"wedding_date"`
}

// weddingResponse は結婚式情報のAPIレスポンス。
type weddingResponse struct {
	ID          string  `json:"id"`
	CoupleName  string  `json:"couple_name"`
	WeddingDate string  `json:"wedding_date"`
	OwnerID     string  `json:"owner_id"`
	PartnerID   *string `json:"partner_id"`
}

// toWeddingResponse はドメインのWeddingをAPIレスポンス型に変換する。
func toWeddingResponse(wedding *model.Wedding) weddingResponse {
	return weddingResponse{
		ID:          wedding.ID,
		CoupleName:  wedding.CoupleName,
		WeddingDate: wedding.DateString(),
		OwnerID:     wedding.OwnerID,
		PartnerID:   wedding.PartnerID,
	}
}

// Get はユーザーの結婚式を取得する。
// GET /api/wedding
func (h *WeddingHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	wedding, err := h.service.FetchUserWedding(r.Context(), userID)
	if err != nil {
		middleware.WriteInternalServerError(w)
		return
	}
	if wedding == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewWeddingNotFoundError())
		return
	}

	writeJSON(w, http.StatusOK, toWeddingResponse(wedding))
}

// Setup は結婚式を作成する。
// POST /api/wedding
func (h *WeddingHandler) Setup(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req setupWeddingRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	weddingDate, err := parseDate(req.WeddingDate)
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidDateError(req.WeddingDate))
		return
	}

	wedding, err := h.service.SetupWedding(r.Context(), userID, req.CoupleName, weddingDate, req.PartnerEmail)
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}
	h.collector.RecordWeddingCreated()

	writeJSON(w, http.StatusCreated, toWeddingResponse(wedding))
}

// Update はカップル名と挙式日を更新する。
// PUT /api/wedding
func (h *WeddingHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req updateWeddingRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	weddingDate, err := parseDate(req.WeddingDate)
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidDateError(req.WeddingDate))
		return
	}

	wedding, err := h.service.FetchUserWedding(r.Context(), userID)
	if err != nil {
		middleware.WriteInternalServerError(w)
		return
	}
	if wedding == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewWeddingNotFoundError())
		return
	}

	updated, err := h.service.UpdateWedding(r.Context(), wedding, req.CoupleName, weddingDate)
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toWeddingResponse(updated))
}

// parseDate はYYYY-MM-DD形式の日付文字列を解析する。
func parseDate(value string) (time.Time, error) {
	return time.Parse(model.WeddingDateFormat, value)
}
