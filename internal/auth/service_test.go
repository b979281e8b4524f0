package auth

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/wedplan/internal/model"
)

// --- モック ---

type mockUserRepo struct {
	findByIDFn    func(ctx context.Context, id string) (*model.User, error)
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
	createFn      func(ctx context.Context, user *model.User) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}
func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}
func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error { return nil }

type mockSessionRepo struct {
	createFn     func(ctx context.Context, session *model.Session) error
	findByIDFn   func(ctx context.Context, id string) (*model.Session, error)
	deleteByIDFn func(ctx context.Context, id string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}
func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockSessionRepo) UpdateData(ctx context.Context, id string, data []byte) error { return nil }
func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}
func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error { return nil }
func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error)        { return 0, nil }

func testConfig() ServiceConfig {
	// テストではbcryptの最小コストを使用して高速化する
	return ServiceConfig{SessionMaxAge: 3600, BcryptCost: bcrypt.MinCost}
}

// --- テスト ---

// 登録が成功し、ユーザーとセッションが返ることを検証
func TestService_Register_Success(t *testing.T) {
	var createdUser *model.User
	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			createdUser = user
			return nil
		},
	}
	svc := NewService(userRepo, &mockSessionRepo{}, testConfig())

	user, session, err := svc.Register(context.Background(), "a@b.com", "secret1")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user == nil || session == nil {
		t.Fatal("expected user and session")
	}
	if user.Email != "a@b.com" {
		t.Errorf("email = %q, want %q", user.Email, "a@b.com")
	}
	if createdUser == nil {
		t.Fatal("expected user to be persisted")
	}
	if createdUser.PasswordHash == "secret1" {
		t.Error("password should be hashed, not stored in plain text")
	}
	if createdUser.ConfirmedAt == nil {
		t.Error("user should be confirmed when confirmation is not required")
	}
}

// 登録時にメールアドレスが正規化されることを検証
func TestService_Register_NormalizesEmail(t *testing.T) {
	userRepo := &mockUserRepo{}
	svc := NewService(userRepo, &mockSessionRepo{}, testConfig())

	user, _, err := svc.Register(context.Background(), "  Ana@Example.COM ", "secret1")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Email != "ana@example.com" {
		t.Errorf("email = %q, want normalized %q", user.Email, "ana@example.com")
	}
}

// 登録済みメールアドレスでの登録が失敗することを検証
func TestService_Register_EmailTaken(t *testing.T) {
	userRepo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "existing", Email: email}, nil
		},
	}
	svc := NewService(userRepo, &mockSessionRepo{}, testConfig())

	_, _, err := svc.Register(context.Background(), "a@b.com", "secret1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeEmailTaken {
		t.Fatalf("expected EMAIL_TAKEN error, got %v", err)
	}
}

// 短すぎるパスワードでの登録が失敗することを検証
func TestService_Register_ShortPassword(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockSessionRepo{}, testConfig())

	_, _, err := svc.Register(context.Background(), "a@b.com", "12345")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Fatalf("expected VALIDATION_FAILED error, got %v", err)
	}
}

// メール確認が必要な設定ではセッションなしでユーザーのみ返ることを検証
func TestService_Register_ConfirmationRequired(t *testing.T) {
	cfg := testConfig()
	cfg.RequireEmailConfirmation = true
	svc := NewService(&mockUserRepo{}, &mockSessionRepo{}, cfg)

	notified := false
	svc.Subscribe(func(event Event) { notified = true })

	user, session, err := svc.Register(context.Background(), "a@b.com", "secret1")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user == nil {
		t.Fatal("expected user")
	}
	if user.ConfirmedAt != nil {
		t.Error("user should not be confirmed yet")
	}
	if session != nil {
		t.Error("session should be nil until email is confirmed")
	}
	if notified {
		t.Error("listener should not be notified without a session")
	}
}

// ログイン成功時にセッションが発行されリスナーへ通知されることを検証
func TestService_Login_Success(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	userRepo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "user-1", Email: email, PasswordHash: string(hash)}, nil
		},
	}
	svc := NewService(userRepo, &mockSessionRepo{}, testConfig())

	var notified Event
	svc.Subscribe(func(event Event) { notified = event })

	user, session, err := svc.Login(context.Background(), "a@b.com", "secret1")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if user == nil || session == nil {
		t.Fatal("expected user and session")
	}
	if session.UserID != "user-1" {
		t.Errorf("session.UserID = %q, want %q", session.UserID, "user-1")
	}
	if notified.User == nil || notified.User.ID != "user-1" {
		t.Errorf("listener should receive the logged-in user, got %+v", notified.User)
	}
	if notified.UserID != "user-1" {
		t.Errorf("event.UserID = %q, want %q", notified.UserID, "user-1")
	}
}

// 誤ったパスワードでのログインが統一エラーで失敗することを検証
func TestService_Login_WrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	userRepo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "user-1", Email: email, PasswordHash: string(hash)}, nil
		},
	}
	svc := NewService(userRepo, &mockSessionRepo{}, testConfig())

	_, _, err := svc.Login(context.Background(), "a@b.com", "wrong")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Fatalf("expected INVALID_CREDENTIALS error, got %v", err)
	}
}

// 存在しないユーザーでのログインも同じ統一エラーになることを検証
func TestService_Login_UnknownUser(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockSessionRepo{}, testConfig())

	_, _, err := svc.Login(context.Background(), "nobody@b.com", "secret1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Fatalf("expected INVALID_CREDENTIALS error, got %v", err)
	}
}

// ログアウトがセッションを削除し、持ち主を特定したサインアウト通知を行うことを検証
func TestService_Logout_NotifiesScopedSignOut(t *testing.T) {
	deleted := false
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: "user-1"}, nil
		},
		deleteByIDFn: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}
	svc := NewService(&mockUserRepo{}, sessionRepo, testConfig())

	called := false
	var notified Event
	svc.Subscribe(func(event Event) {
		called = true
		notified = event
	})

	if err := svc.Logout(context.Background(), "session-1"); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if !deleted {
		t.Error("expected session to be deleted")
	}
	if !called {
		t.Fatal("listener should be notified on logout")
	}
	if notified.User != nil {
		t.Errorf("event.User should be nil on logout, got %+v", notified.User)
	}
	if notified.UserID != "user-1" {
		t.Errorf("event.UserID = %q, want the session owner %q", notified.UserID, "user-1")
	}
}

// 存在しないセッションのログアウトが冪等に成功し、通知しないことを検証
func TestService_Logout_UnknownSessionIsIdempotent(t *testing.T) {
	deleted := false
	sessionRepo := &mockSessionRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}
	svc := NewService(&mockUserRepo{}, sessionRepo, testConfig())

	called := false
	svc.Subscribe(func(event Event) { called = true })

	if err := svc.Logout(context.Background(), "already-gone"); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if deleted {
		t.Error("delete should not be called for an unknown session")
	}
	if called {
		t.Error("listener should not be notified for an unknown session")
	}
}

// セッションなしのGetCurrentUserがエラーではなくnilを返すことを検証（フェイルクローズ）
func TestService_GetCurrentUser_NoSession(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockSessionRepo{}, testConfig())

	user, err := svc.GetCurrentUser(context.Background(), "")
	if err != nil {
		t.Fatalf("GetCurrentUser returned error: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil user without session, got %+v", user)
	}

	user, err = svc.GetCurrentUser(context.Background(), "unknown-session")
	if err != nil {
		t.Fatalf("GetCurrentUser returned error: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil user for unknown session, got %+v", user)
	}
}

// 有効なセッションでGetCurrentUserがユーザーを返すことを検証
func TestService_GetCurrentUser_ValidSession(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: "user-1"}, nil
		},
	}
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Email: "a@b.com"}, nil
		},
	}
	svc := NewService(userRepo, sessionRepo, testConfig())

	user, err := svc.GetCurrentUser(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("GetCurrentUser returned error: %v", err)
	}
	if user == nil || user.ID != "user-1" {
		t.Errorf("user = %+v, want user-1", user)
	}
}

// 解除後のリスナーが呼ばれないことを検証
func TestService_Subscribe_Unsubscribe(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockSessionRepo{}, testConfig())

	calls := 0
	unsubscribe := svc.Subscribe(func(event Event) { calls++ })

	svc.notify(Event{UserID: "user-1"})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	unsubscribe()
	svc.notify(Event{UserID: "user-1"})
	if calls != 1 {
		t.Errorf("calls after unsubscribe = %d, want 1", calls)
	}
}
