package handler

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/wedplan/internal/middleware"
)

// 起動判定の状態。フロントエンドはこの値でリダイレクト先を決定する。
const (
	bootstrapStateAnonymous     = "anonymous"
	bootstrapStateSetupRequired = "setup_required"
	bootstrapStateReady         = "ready"
)

// BootstrapHandler はセッションの起動判定を返すHTTPハンドラー。
// 未ログイン・結婚式未作成・利用可能の3状態を1リクエストで解決する。
type BootstrapHandler struct {
	authService    AuthServiceInterface
	weddingService WeddingServiceInterface
}

// NewBootstrapHandler はBootstrapHandlerを生成する。
func NewBootstrapHandler(authService AuthServiceInterface, weddingService WeddingServiceInterface) *BootstrapHandler {
	return &BootstrapHandler{
		authService:    authService,
		weddingService: weddingService,
	}
}

// bootstrapResponse は起動判定のAPIレスポンス。
type bootstrapResponse struct {
	State   string           `json:"state"`
	User    *userResponse    `json:"user,omitempty"`
	Wedding *weddingResponse `json:"wedding,omitempty"`
}

// Get はセッションの起動判定を返す。
// GET /api/bootstrap
func (h *BootstrapHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionIDFromRequest(r)
	if sessionID == "" {
		writeJSON(w, http.StatusOK, bootstrapResponse{State: bootstrapStateAnonymous})
		return
	}

	user, err := h.authService.GetCurrentUser(r.Context(), sessionID)
	if err != nil {
		slog.Error("failed to resolve session", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}
	if user == nil {
		writeJSON(w, http.StatusOK, bootstrapResponse{State: bootstrapStateAnonymous})
		return
	}

	wedding, err := h.weddingService.FetchUserWedding(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to fetch wedding", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	userResp := toUserResponse(user)
	if wedding == nil {
		writeJSON(w, http.StatusOK, bootstrapResponse{
			State: bootstrapStateSetupRequired,
			User:  &userResp,
		})
		return
	}

	weddingResp := toWeddingResponse(wedding)
	writeJSON(w, http.StatusOK, bootstrapResponse{
		State:   bootstrapStateReady,
		User:    &userResp,
		Wedding: &weddingResp,
	})
}
