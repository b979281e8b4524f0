package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/wedplan/internal/guest"
	"github.com/hitoshi/wedplan/internal/middleware"
	"github.com/hitoshi/wedplan/internal/model"
)

// GuestServiceInterface は招待客ハンドラーが必要とするサービスインターフェース。
type GuestServiceInterface interface {
	List(ctx context.Context, weddingID string) ([]*model.Guest, error)
	Stats(ctx context.Context, weddingID string) (*model.GuestStats, error)
	Create(ctx context.Context, weddingID string, input guest.Input) (*model.Guest, error)
	Update(ctx context.Context, weddingID, guestID string, input guest.Input) (*model.Guest, error)
	Delete(ctx context.Context, weddingID, guestID string) error
}

// GuestHandler は招待客管理のHTTPハンドラー。
type GuestHandler struct {
	service GuestServiceInterface
}

// NewGuestHandler はGuestHandlerを生成する。
func NewGuestHandler(service GuestServiceInterface) *GuestHandler {
	return &GuestHandler{service: service}
}

// guestRequest は招待客の作成・更新リクエストのボディ。
type guestRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Confirmed  bool   `json:"confirmed"`
	Companions int    `json:"companions"`
}

// guestResponse は招待客情報のAPIレスポンス。
type guestResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Confirmed  bool      `json:"confirmed"`
	Companions int       `json:"companions"`
	CreatedAt  time.Time `json:"created_at"`
}

// guestStatsResponse は招待客集計のAPIレスポンス。
type guestStatsResponse struct {
	Total     int `json:"total"`
	Confirmed int `json:"confirmed"`
	Attendees int `json:"attendees"`
}

// toGuestResponse はドメインのGuestをAPIレスポンス型に変換する。
func toGuestResponse(g *model.Guest) guestResponse {
	return guestResponse{
		ID:         g.ID,
		Name:       g.Name,
		Email:      g.Email,
		Phone:      g.Phone,
		Confirmed:  g.Confirmed,
		Companions: g.Companions,
		CreatedAt:  g.CreatedAt,
	}
}

// toGuestInput はリクエストボディをサービス入力に変換する。
func toGuestInput(req guestRequest) guest.Input {
	return guest.Input{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Confirmed:  req.Confirmed,
		Companions: req.Companions,
	}
}

// List は招待客一覧を返す。
// GET /api/guests
func (h *GuestHandler) List(w http.ResponseWriter, r *http.Request) {
	wedding, err := middleware.WeddingFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	guests, err := h.service.List(r.Context(), wedding.ID)
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	results := make([]guestResponse, len(guests))
	for i, g := range guests {
		results[i] = toGuestResponse(g)
	}
	writeJSON(w, http.StatusOK, results)
}

// Stats は招待客の集計情報を返す。
// GET /api/guests/stats
func (h *GuestHandler) Stats(w http.ResponseWriter, r *http.Request) {
	wedding, err := middleware.WeddingFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	stats, err := h.service.Stats(r.Context(), wedding.ID)
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, guestStatsResponse{
		Total:     stats.Total,
		Confirmed: stats.Confirmed,
		Attendees: stats.Attendees,
	})
}

// Create は招待客を登録する。
// POST /api/guests
func (h *GuestHandler) Create(w http.ResponseWriter, r *http.Request) {
	wedding, err := middleware.WeddingFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req guestRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), wedding.ID, toGuestInput(req))
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toGuestResponse(created))
}

// Update は招待客情報を更新する。
// PUT /api/guests/{id}
func (h *GuestHandler) Update(w http.ResponseWriter, r *http.Request) {
	wedding, err := middleware.WeddingFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req guestRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	updated, err := h.service.Update(r.Context(), wedding.ID, chi.URLParam(r, "id"), toGuestInput(req))
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toGuestResponse(updated))
}

// Delete は招待客を削除する。
// DELETE /api/guests/{id}
func (h *GuestHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
