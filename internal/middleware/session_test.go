package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/wedplan/internal/model"
)

// --- モック ---

type mockSessionFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.Session, error)
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

type mockWeddingFinder struct {
	fetchFn func(ctx context.Context, ownerID string) (*model.Wedding, error)
}

func (m *mockWeddingFinder) FetchUserWedding(ctx context.Context, ownerID string) (*model.Wedding, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, ownerID)
	}
	return nil, nil
}

// --- テスト ---

// Cookieなしのリクエストが401になることを検証
func TestSessionMiddleware_NoCookie(t *testing.T) {
	mw := NewSessionMiddleware(&mockSessionFinder{})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be called")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/guests", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// 無効なセッションIDのリクエストが401になることを検証
func TestSessionMiddleware_UnknownSession(t *testing.T) {
	mw := NewSessionMiddleware(&mockSessionFinder{})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/guests", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "unknown"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// 有効なセッションでユーザーIDがコンテキストへ注入されることを検証
func TestSessionMiddleware_ValidSession(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: "user-1"}, nil
		},
	}
	mw := NewSessionMiddleware(finder)

	var gotUserID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/guests", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "session-1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if gotUserID != "user-1" {
		t.Errorf("userID in context = %q, want user-1", gotUserID)
	}
}

// Cookieなしのリクエストが匿名のまま通過することを検証
func TestOptionalSessionMiddleware_NoCookie(t *testing.T) {
	mw := NewOptionalSessionMiddleware(&mockSessionFinder{})

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, err := UserIDFromContext(r.Context()); err == nil {
			t.Error("user ID must not be injected for anonymous requests")
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	if !called {
		t.Error("handler must be called for anonymous requests")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// 失効したセッションIDでも匿名として通過することを検証
func TestOptionalSessionMiddleware_UnknownSession(t *testing.T) {
	mw := NewOptionalSessionMiddleware(&mockSessionFinder{})

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, err := UserIDFromContext(r.Context()); err == nil {
			t.Error("user ID must not be injected for stale sessions")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("handler must be called for stale sessions")
	}
}

// 有効なセッションでユーザーIDが注入されることを検証
func TestOptionalSessionMiddleware_ValidSession(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: "user-1"}, nil
		},
	}
	mw := NewOptionalSessionMiddleware(finder)

	var gotUserID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "session-1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if gotUserID != "user-1" {
		t.Errorf("userID in context = %q, want user-1", gotUserID)
	}
}

// 結婚式未設定のユーザーが409 SETUP_REQUIREDで拒否されることを検証
func TestWeddingGuard_SetupRequired(t *testing.T) {
	mw := NewWeddingGuardMiddleware(&mockWeddingFinder{})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/guests", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), "user-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, model.ErrCodeSetupRequired) {
		t.Errorf("body = %q, want SETUP_REQUIRED", body)
	}
}

// 結婚式ガード通過時に結婚式がコンテキストへ注入されることを検証
func TestWeddingGuard_InjectsWedding(t *testing.T) {
	finder := &mockWeddingFinder{
		fetchFn: func(ctx context.Context, ownerID string) (*model.Wedding, error) {
			return &model.Wedding{ID: "wedding-1", OwnerID: ownerID}, nil
		},
	}
	mw := NewWeddingGuardMiddleware(finder)

	var gotWedding *model.Wedding
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotWedding, _ = WeddingFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/guests", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), "user-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if gotWedding == nil || gotWedding.ID != "wedding-1" {
		t.Errorf("wedding in context = %+v, want wedding-1", gotWedding)
	}
}

// 結婚式の取得失敗が500になることを検証（フェイルクローズ）
func TestWeddingGuard_FetchError(t *testing.T) {
	finder := &mockWeddingFinder{
		fetchFn: func(ctx context.Context, ownerID string) (*model.Wedding, error) {
			return nil, errors.New("db down")
		},
	}
	mw := NewWeddingGuardMiddleware(finder)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/guests", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), "user-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

// コンテキストにユーザーIDがない場合のUserIDFromContextを検証
func TestUserIDFromContext_Missing(t *testing.T) {
	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for missing user ID")
	}
}
