// Package bootstrap は認証状態の初期化と照合を行う状態機械を提供する。
//
// Bootstrap はリアルタイム接続1本につき1インスタンスを構築し、
// セッション・ユーザー・結婚式の有無をStoreへ反映する。起動時は
// 認証状態変更リスナーを初回セッションチェックより先に登録することで、
// チェック中に発生した遷移の取りこぼしを防ぐ。
package bootstrap

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/wedplan/internal/auth"
	"github.com/hitoshi/wedplan/internal/model"
	"github.com/hitoshi/wedplan/internal/state"
)

// Phase はブートストラップの解決状態を表す。
type Phase string

const (
	// PhaseInitializing は初回セッションチェックが未完了の状態。
	PhaseInitializing Phase = "initializing"
	// PhaseAuthenticated は認証済みとして解決された状態。
	PhaseAuthenticated Phase = "authenticated"
	// PhaseAnonymous は未認証として解決された状態。
	PhaseAnonymous Phase = "anonymous"
)

// AuthService はブートストラップが必要とする認証サービスのインターフェース。
type AuthService interface {
	Subscribe(listener auth.Listener) (unsubscribe func())
	GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, *model.Session, error)
	Register(ctx context.Context, email, password string) (*model.User, *model.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// WeddingService はブートストラップが必要とする結婚式サービスのインターフェース。
type WeddingService interface {
	FetchUserWedding(ctx context.Context, ownerID string) (*model.Wedding, error)
	SetupWedding(ctx context.Context, ownerID, coupleName string, weddingDate time.Time, partnerEmail string) (*model.Wedding, error)
}

// Bootstrap はセッション・ユーザー・結婚式の照合を行う状態機械。
// Initializing → Resolved(authenticated | anonymous) の遷移を持つ。
type Bootstrap struct {
	authSvc    AuthService
	weddingSvc WeddingService
	store      *state.Store

	mu        sync.Mutex
	phase     Phase
	sessionID string
	// userID はこの接続が認証しているユーザー。リスナーへ届く遷移は
	// プロセス全体のものなので、このIDに一致するイベントだけを反映する。
	userID string
	alive  bool
	// epoch は照合の世代番号。古い世代の結婚式フェッチ結果が
	// 新しい遷移の後に書き込まれるのを防ぐ。
	epoch       uint64
	unsubscribe func()
}

// New はBootstrapを生成する。sessionIDは接続時点のセッションID（未認証なら空）。
func New(authSvc AuthService, weddingSvc WeddingService, store *state.Store, sessionID string) *Bootstrap {
	return &Bootstrap{
		authSvc:    authSvc,
		weddingSvc: weddingSvc,
		store:      store,
		phase:      PhaseInitializing,
		sessionID:  sessionID,
	}
}

// Phase は現在の解決状態を返す。
func (b *Bootstrap) Phase() Phase {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.phase
}

// Store は背後の状態コンテナを返す。
func (b *Bootstrap) Store() *state.Store {
	return b.store
}

// Start はリスナー登録と初回セッションチェックを実行する。
// リスナーの登録はセッションチェックより先に行う（順序保証）。
func (b *Bootstrap) Start(ctx context.Context) {
	b.mu.Lock()
	b.alive = true
	sessionID := b.sessionID
	b.mu.Unlock()

	b.store.SetLoading(true)
	defer b.store.SetLoading(false)

	// 1. リスナーを先に登録する。チェック中に発生した遷移を取りこぼさない。
	// 他ユーザーの遷移は接続単位の状態を壊すため、自分のユーザーの
	// イベントだけを反映する。
	unsubscribe := b.authSvc.Subscribe(func(event auth.Event) {
		if !b.accepts(event) {
			return
		}
		b.reconcile(ctx, event.User)
	})
	b.mu.Lock()
	b.unsubscribe = unsubscribe
	b.mu.Unlock()

	// 2. 初回セッションチェック
	user, err := b.authSvc.GetCurrentUser(ctx, sessionID)
	if err != nil {
		slog.Error("initial session check failed", slog.String("error", err.Error()))
		b.resolve(PhaseAnonymous)
		return
	}

	if user == nil {
		b.resolve(PhaseAnonymous)
		return
	}

	b.reconcile(ctx, user)
}

// accepts は遷移イベントがこの接続のユーザーに属するかを判定する。
// 匿名接続は何も受け取らない。接続自身のログインはLogin/Register経由で反映される。
func (b *Bootstrap) accepts(event auth.Event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.userID != "" && event.UserID == b.userID
}

// Close はリスナーを解除し、以後の状態書き込みを停止する。
func (b *Bootstrap) Close() {
	b.mu.Lock()
	b.alive = false
	unsubscribe := b.unsubscribe
	b.unsubscribe = nil
	b.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Login はログインを実行し、成功時はセッションIDを引き継いで
// この接続の状態を照合する。サービスのブロードキャストは匿名の間は
// 届かないため、自分のログインは自分で反映する。
// 実行中はローディングフラグを立て、完了時に必ず解除する。
func (b *Bootstrap) Login(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
	b.store.SetLoading(true)
	defer b.store.SetLoading(false)

	user, session, err := b.authSvc.Login(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	b.mu.Lock()
	b.sessionID = session.ID
	b.mu.Unlock()

	b.reconcile(ctx, user)
	return user, session, nil
}

// Register は登録を実行する。メール確認待ちの場合はセッションがnilで返り、
// 認証状態は変わらない。
func (b *Bootstrap) Register(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
	b.store.SetLoading(true)
	defer b.store.SetLoading(false)

	user, session, err := b.authSvc.Register(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	if session != nil {
		b.mu.Lock()
		b.sessionID = session.ID
		b.mu.Unlock()

		b.reconcile(ctx, user)
	}

	return user, session, nil
}

// Logout はログアウトを実行する。Storeのクリアはリスナー経由の照合で行われる。
func (b *Bootstrap) Logout(ctx context.Context) error {
	b.mu.Lock()
	sessionID := b.sessionID
	b.mu.Unlock()

	if sessionID == "" {
		return nil
	}

	b.store.SetLoading(true)
	defer b.store.SetLoading(false)

	// サインアウト通知はLogout内で同期的に配信され、accepts経由で
	// この接続のreconcileが走る。セッションIDはその後に破棄する。
	if err := b.authSvc.Logout(ctx, sessionID); err != nil {
		return err
	}

	b.mu.Lock()
	b.sessionID = ""
	b.userID = ""
	b.mu.Unlock()

	return nil
}

// SetupWedding は結婚式の初期設定を実行する。
// 未認証での呼び出しは事前条件違反としてネットワーク呼び出しなしで失敗する。
func (b *Bootstrap) SetupWedding(ctx context.Context, coupleName string, weddingDate time.Time, partnerEmail string) (*model.Wedding, error) {
	current := b.store.State().User
	if current == nil {
		return nil, model.NewUserNotFoundError()
	}

	b.store.SetLoading(true)
	defer b.store.SetLoading(false)

	wedding, err := b.weddingSvc.SetupWedding(ctx, current.ID, coupleName, weddingDate, partnerEmail)
	if err != nil {
		return nil, err
	}

	if b.isAlive() {
		b.store.SetWedding(wedding)
	}
	return wedding, nil
}

// reconcile は認証状態の遷移をStoreへ反映する。
// セッションあり: ユーザーを設定し、結婚式をフェッチして設定する。
// セッションなし: ユーザーと結婚式をまとめてクリアする。
// 照合の各ステップは冪等であり、世代番号で古いフェッチ結果を破棄する。
func (b *Bootstrap) reconcile(ctx context.Context, user *model.User) {
	b.mu.Lock()
	if !b.alive {
		b.mu.Unlock()
		return
	}
	b.epoch++
	epoch := b.epoch
	if user == nil {
		b.userID = ""
	} else {
		b.userID = user.ID
	}
	b.mu.Unlock()

	if user == nil {
		b.store.Reset()
		b.resolve(PhaseAnonymous)
		return
	}

	b.store.SetUser(user)

	wedding, err := b.weddingSvc.FetchUserWedding(ctx, user.ID)
	if err != nil {
		slog.Error("failed to fetch wedding during reconciliation",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		wedding = nil
	}

	// フェッチ中に別の遷移または破棄が発生していた場合は結果を捨てる
	b.mu.Lock()
	stale := !b.alive || b.epoch != epoch
	b.mu.Unlock()
	if stale {
		return
	}

	b.store.SetWedding(wedding)
	b.resolve(PhaseAuthenticated)
}

// resolve は解決状態を更新する。
func (b *Bootstrap) resolve(phase Phase) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.alive {
		return
	}
	b.phase = phase
}

// isAlive は破棄済みでないかを返す。
func (b *Bootstrap) isAlive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.alive
}
