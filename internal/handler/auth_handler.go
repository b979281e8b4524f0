// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/wedplan/internal/metrics"
	"github.com/hitoshi/wedplan/internal/middleware"
	"github.com/hitoshi/wedplan/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, email, password string) (*model.User, *model.Session, error)
	Login(ctx context.Context, email, password string) (*model.User, *model.Session, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はメールアドレス・パスワード認証のHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	config    AuthHandlerConfig
	collector metrics.MetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig, collector metrics.MetricsCollector) *AuthHandler {
	return &AuthHandler{
		service:   service,
		config:    config,
		collector: collector,
	}
}

// credentialsRequest は登録・ログインリクエストのボディ。
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Confirmed bool   `json:"confirmed"`
}

// registerResponse は登録完了のAPIレスポンス。
// メール確認待ちの場合、セッションは発行されずConfirmationRequiredがtrueになる。
type registerResponse struct {
	User                 userResponse `json:"user"`
	ConfirmationRequired bool         `json:"confirmation_required"`
}

// toUserResponse はドメインのUserをAPIレスポンス型に変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.DisplayName(),
		Confirmed: user.ConfirmedAt != nil,
	}
}

// Register は新規ユーザー登録を処理する。
// ログイン済みユーザーからの呼び出しは冪等に成功し、現在のユーザーを返す。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if current := h.currentUser(r); current != nil {
		writeJSON(w, http.StatusOK, registerResponse{User: toUserResponse(current)})
		return
	}

	var req credentialsRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	user, session, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	// メール確認待ちの場合はセッションなし。Cookieは設定しない。
	if session != nil {
		h.setSessionCookie(w, session.ID)
	}
	h.collector.RecordRegistration()

	writeJSON(w, http.StatusCreated, registerResponse{
		User:                 toUserResponse(user),
		ConfirmationRequired: session == nil,
	})
}

// Login はメールアドレスとパスワードでのログインを処理する。
// ログイン済みユーザーからの呼び出しは冪等に成功し、現在のユーザーを返す。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if current := h.currentUser(r); current != nil {
		writeJSON(w, http.StatusOK, toUserResponse(current))
		return
	}

	var req credentialsRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	user, session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	h.setSessionCookie(w, session.ID)
	h.collector.RecordLogin()

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// Logout はセッションを破棄する。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionIDFromRequest(r)
	if sessionID != "" {
		if err := h.service.Logout(r.Context(), sessionID); err != nil {
			slog.Error("failed to logout", slog.String("error", err.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のログインユーザー情報を返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(r)
	if user == nil {
		writeUnauthorized(w)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// currentUser はリクエストのセッションCookieからユーザーを解決する。
// 未ログインやセッション切れの場合はnilを返す。
func (h *AuthHandler) currentUser(r *http.Request) *model.User {
	sessionID := middleware.SessionIDFromRequest(r)
	if sessionID == "" {
		return nil
	}

	user, err := h.service.GetCurrentUser(r.Context(), sessionID)
	if err != nil {
		slog.Error("failed to get current user", slog.String("error", err.Error()))
		return nil
	}
	return user
}

// setSessionCookie はセッションCookieを設定する（HTTP Only）。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie はセッションCookieを削除する。
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// --- handlerパッケージ共通ヘルパー ---

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// decodeRequest はリクエストボディをJSONとして解析する。
// 解析に失敗した場合はエラーレスポンスを書き込みfalseを返す。
func decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return false
	}
	return true
}

// writeUnauthorized は認証エラーレスポンスを書き込む。
func writeUnauthorized(w http.ResponseWriter) {
	middleware.WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	})
}
