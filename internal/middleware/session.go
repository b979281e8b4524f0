// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/wedplan/internal/model"
)

// SessionCookieName はセッションIDを保持するHTTP Only Cookieの名前。
const SessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// weddingContextKey はリクエストコンテキストに結婚式を格納するためのキー。
var weddingContextKey = contextKey("wedding")

// SessionFinder はセッションの検索に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// WeddingFinder は所有ユーザーの結婚式検索に必要なインターフェース。
type WeddingFinder interface {
	FetchUserWedding(ctx context.Context, ownerID string) (*model.Wedding, error)
}

// NewSessionMiddleware はHTTP Only Cookieからセッションを読み取り、
// 有効性を検証するミドルウェアを返す。
// 認証済みユーザーIDをリクエストコンテキストに注入する。
// 未認証リクエストには401 Unauthorizedを返す。
func NewSessionMiddleware(sessionFinder SessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. CookieからセッションIDを取得
			sessionID := SessionIDFromRequest(r)
			if sessionID == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			// 2. セッションの有効性を検証
			session, err := sessionFinder.FindByID(r.Context(), sessionID)
			if err != nil {
				slog.Error("failed to find session",
					slog.String("error", err.Error()),
				)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if session == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			// 3. 認証済みユーザーIDをコンテキストに注入
			ctx := context.WithValue(r.Context(), userIDContextKey, session.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewOptionalSessionMiddleware はセッションがあれば検証してユーザーIDを
// 注入し、なければ匿名のままリクエストを通すミドルウェアを返す。
// 匿名アクセスを許可しつつ認証済みなら本人として扱うルートで使用する。
func NewOptionalSessionMiddleware(sessionFinder SessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := SessionIDFromRequest(r)
			if sessionID == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := sessionFinder.FindByID(r.Context(), sessionID)
			if err != nil {
				slog.Error("failed to find session",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if session == nil {
				// 失効したCookieは匿名として扱う
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, session.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewWeddingGuardMiddleware は結婚式セットアップ済みであることを要求する
// ミドルウェアを返す。セッションミドルウェアの後に配置すること。
//
// 結婚式未設定のユーザーには409 ConflictとSETUP_REQUIREDを返し、
// セットアップ画面への誘導をクライアントに委ねる。通過時は結婚式を
// コンテキストに注入し、配下のハンドラーはWeddingFromContextで
// 自分の結婚式のみにアクセスできる。
func NewWeddingGuardMiddleware(weddingFinder WeddingFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			wedding, err := weddingFinder.FetchUserWedding(r.Context(), userID)
			if err != nil {
				slog.Error("failed to fetch wedding for guard",
					slog.String("user_id", userID),
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if wedding == nil {
				WriteErrorResponse(w, http.StatusConflict, model.NewSetupRequiredError())
				return
			}

			ctx := context.WithValue(r.Context(), weddingContextKey, wedding)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionIDFromRequest はリクエストのCookieからセッションIDを読み取る。
// Cookieがない場合は空文字列を返す。
func SessionIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// WeddingFromContext はリクエストコンテキストから結婚式を取得する。
// 結婚式ガードを通過したリクエストでのみ有効。
func WeddingFromContext(ctx context.Context) (*model.Wedding, error) {
	wedding, ok := ctx.Value(weddingContextKey).(*model.Wedding)
	if !ok || wedding == nil {
		return nil, fmt.Errorf("wedding not found in context")
	}
	return wedding, nil
}

// ContextWithWedding はコンテキストに結婚式を注入する。
func ContextWithWedding(ctx context.Context, wedding *model.Wedding) context.Context {
	return context.WithValue(ctx, weddingContextKey, wedding)
}
