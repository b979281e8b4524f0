// Package auth はパスワード認証、セッション管理、認証状態変更通知を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/wedplan/internal/model"
	"github.com/hitoshi/wedplan/internal/repository"
)

// minPasswordLength はパスワードの最小文字数。
const minPasswordLength = 6

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
	BcryptCost    int // bcryptのコストパラメータ
	// RequireEmailConfirmation が有効な場合、登録時にセッションを発行せず
	// メール確認完了を待つ。
	RequireEmailConfirmation bool
}

// Event は1件のセッション遷移を表す。
// UserID は遷移の対象ユーザーを常に特定する。User はセッション開始時のみ
// 非nilで、セッション終了時はnilになる。
type Event struct {
	UserID string
	User   *model.User
}

// Listener は認証状態の変更通知を受け取るコールバック。
// レジストリはプロセス全体で共有されるため、購読側はEvent.UserIDで
// 自分のユーザーの遷移だけを選別する。
type Listener func(event Event)

// Service は認証に関するビジネスロジックを提供する。
// セッションの発行・破棄のたびに登録済みリスナーへ状態変更を通知する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		config:      config,
		listeners:   map[int]Listener{},
	}
}

// Subscribe は認証状態変更リスナーを登録し、解除用の関数を返す。
// リスナーはセッションの発行・破棄のたびに同期的に呼び出される。
// 初回セッションチェックより先に登録できるよう、ネットワークI/Oは行わない。
func (s *Service) Subscribe(listener Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// notify は全リスナーへ認証状態の変更を通知する。
func (s *Service) notify(event Event) {
	s.mu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(event)
	}
}

// Register は新規ユーザーを登録する。
// メール確認が必要な設定の場合、ユーザーは作成されるがセッションはnilで返る。
// それ以外の場合はセッションを発行し、リスナーへログイン通知を行う。
func (s *Service) Register(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateCredentials(email, password); err != nil {
		return nil, nil, err
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, nil, model.NewEmailTakenError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if !s.config.RequireEmailConfirmation {
		user.ConfirmedAt = &now
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	// メール確認待ちの場合はセッションなしで返す。
	// 呼び出し側は失敗ではなく「メールを確認してください」として扱う。
	if s.config.RequireEmailConfirmation {
		return user, nil, nil
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.notify(Event{UserID: user.ID, User: user})
	return user, session, nil
}

// Login はメールアドレスとパスワードでログインし、セッションを発行する。
// 認証失敗時はユーザーの存在有無を区別しない統一エラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))

	s.notify(Event{UserID: user.ID, User: user})
	return user, session, nil
}

// Logout はセッションを破棄し、対象ユーザーを特定したサインアウト通知を行う。
// 通知をセッションの持ち主に限定するため、削除前にセッションを解決する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		// 既に破棄済み。冪等に成功として扱う。
		return nil
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("user_id", session.UserID))

	s.notify(Event{UserID: session.UserID})
	return nil
}

// GetCurrentUser はセッションから現在のユーザーを取得する。
// 有効なセッションが存在しない場合はエラーではなくnilを返す（フェイルクローズ）。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// validateCredentials は登録時の入力を検証する。
func validateCredentials(email, password string) error {
	if email == "" || !strings.Contains(email, "@") {
		return model.NewValidationError("メールアドレスの形式が正しくありません")
	}
	if len(password) < minPasswordLength {
		return model.NewValidationError(fmt.Sprintf("パスワードは%d文字以上にしてください", minPasswordLength))
	}
	return nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
