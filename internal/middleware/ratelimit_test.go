package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(1), // 1 req/sec
		GeneralBurst:    2,
		AuthRate:        rate.Limit(1),
		AuthBurst:       1,
		CleanupInterval: time.Hour,
	}
}

// バースト超過でAPI全般のレート制限が429を返すことを検証
func TestRateLimiter_General_Exceeded(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/guests", nil)
		req = req.WithContext(ContextWithUserID(req.Context(), "user-1"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("first two requests = %v, want 200s within burst", codes[:2])
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", codes[2])
	}
}

// ユーザーごとに独立したリミッターであることを検証
func TestRateLimiter_General_PerUser(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// user-1 のバーストを使い切る
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/guests", nil)
		req = req.WithContext(ContextWithUserID(req.Context(), "user-1"))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	// user-2 は影響を受けない
	req := httptest.NewRequest(http.MethodGet, "/api/guests", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), "user-2"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("user-2 request = %d, want 200", rec.Code)
	}
	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Errorf("limiter count = %d, want 2", got)
	}
}

// 未認証コンテキストでのAPI全般制限が401になることを検証
func TestRateLimiter_General_NoUser(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be called")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/guests", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// 認証エンドポイントの制限がIP単位で動作することを検証
func TestRateLimiter_Auth_PerIP(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.AuthMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// 同一IPからの2リクエスト目はバースト1を超過する
	req1 := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req1.RemoteAddr = "203.0.113.1:40001"
	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, req1)

	req2 := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req2.RemoteAddr = "203.0.113.1:40002"
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)

	if rec1.Code != http.StatusOK {
		t.Errorf("first request = %d, want 200", rec1.Code)
	}
	if rec2.Code != http.StatusTooManyRequests {
		t.Errorf("second request from same IP = %d, want 429", rec2.Code)
	}

	// 別IPは影響を受けない
	req3 := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req3.RemoteAddr = "203.0.113.2:40001"
	rec3 := httptest.NewRecorder()
	handler.ServeHTTP(rec3, req3)

	if rec3.Code != http.StatusOK {
		t.Errorf("request from another IP = %d, want 200", rec3.Code)
	}
}

// 429レスポンスにRetry-Afterヘッダーが付与されることを検証
func TestRateLimiter_RetryAfterHeader(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.AuthMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "203.0.113.1:40001"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

// 期限切れエントリがクリーンアップで削除されることを検証
func TestRateLimiter_Cleanup(t *testing.T) {
	config := testRateLimiterConfig()
	config.CleanupInterval = time.Nanosecond
	rl := NewRateLimiter(config)
	defer rl.Stop()

	rl.getOrCreateLimiter(&rl.generalMu, rl.generalLimiters, "user-1",
		config.GeneralRate, config.GeneralBurst)
	if got := rl.GeneralLimiterCount(); got != 1 {
		t.Fatalf("limiter count = %d, want 1", got)
	}

	time.Sleep(time.Millisecond)
	rl.cleanup()

	if got := rl.GeneralLimiterCount(); got != 0 {
		t.Errorf("limiter count after cleanup = %d, want 0", got)
	}
}
