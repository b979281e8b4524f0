// Package state はクライアントセッションの状態コンテナを提供する。
//
// Store は現在のユーザー、結婚式、UIフラグを保持する観測可能なコンテナで、
// リアルタイム接続1本につき1インスタンスを構築する。userとweddingの変更は
// Persister経由で永続化され、再接続時に復元される。ローディングフラグと
// サイドバーフラグのうち、永続化されるのはサイドバーフラグのみ。
package state

import (
	"log/slog"
	"sync"

	"github.com/hitoshi/wedplan/internal/model"
)

// State はStoreの観測スナップショットを表す。
type State struct {
	User          *model.User
	Wedding       *model.Wedding
	IsLoading     bool
	IsSidebarOpen bool
}

// Subscriber は状態変更のたびに呼び出されるコールバック。
type Subscriber func(state State)

// Store はクライアントセッション状態の単一コンテナ。
// すべてのセッターは同期的かつ失敗しない。ネットワークI/Oは行わない
// （永続化の失敗はログに記録されるのみで、呼び出し側へは伝播しない）。
type Store struct {
	mu            sync.Mutex
	user          *model.User
	wedding       *model.Wedding
	isLoading     bool
	isSidebarOpen bool

	persister   Persister
	subscribers map[int]Subscriber
	nextID      int
}

// NewStore はStoreを生成し、Persisterから前回のスナップショットを復元する。
// persisterがnilの場合は永続化なしで動作する。
func NewStore(persister Persister) *Store {
	s := &Store{
		isSidebarOpen: true,
		persister:     persister,
		subscribers:   map[int]Subscriber{},
	}

	if persister != nil {
		snapshot, err := persister.Load()
		if err != nil {
			slog.Warn("failed to load state snapshot", slog.String("error", err.Error()))
		} else {
			s.user = snapshot.User()
			s.wedding = snapshot.Wedding()
			if snapshot.SidebarOpen != nil {
				s.isSidebarOpen = *snapshot.SidebarOpen
			}
		}
	}

	return s
}

// Subscribe は状態変更リスナーを登録し、解除用の関数を返す。
func (s *Store) Subscribe(subscriber Subscriber) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = subscriber
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// State は現在の状態のコピーを返す。
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// SetUser は現在のユーザーを設定する。
func (s *Store) SetUser(user *model.User) {
	s.mu.Lock()
	s.user = user
	s.persistLocked()
	state, subscribers := s.stateLocked(), s.subscribersLocked()
	s.mu.Unlock()

	notifyAll(subscribers, state)
}

// SetWedding は現在の結婚式を設定する。
func (s *Store) SetWedding(wedding *model.Wedding) {
	s.mu.Lock()
	s.wedding = wedding
	s.persistLocked()
	state, subscribers := s.stateLocked(), s.subscribersLocked()
	s.mu.Unlock()

	notifyAll(subscribers, state)
}

// SetLoading はローディングフラグを設定する。永続化はされない。
func (s *Store) SetLoading(isLoading bool) {
	s.mu.Lock()
	s.isLoading = isLoading
	state, subscribers := s.stateLocked(), s.subscribersLocked()
	s.mu.Unlock()

	notifyAll(subscribers, state)
}

// ToggleSidebar はサイドバーの開閉フラグを反転する。
func (s *Store) ToggleSidebar() {
	s.mu.Lock()
	s.isSidebarOpen = !s.isSidebarOpen
	s.persistLocked()
	state, subscribers := s.stateLocked(), s.subscribersLocked()
	s.mu.Unlock()

	notifyAll(subscribers, state)
}

// SetSidebarOpen はサイドバーの開閉フラグを設定する。
func (s *Store) SetSidebarOpen(open bool) {
	s.mu.Lock()
	s.isSidebarOpen = open
	s.persistLocked()
	state, subscribers := s.stateLocked(), s.subscribersLocked()
	s.mu.Unlock()

	notifyAll(subscribers, state)
}

// Reset はユーザーと結婚式をまとめてクリアする。
// UIフラグは維持される。
func (s *Store) Reset() {
	s.mu.Lock()
	s.user = nil
	s.wedding = nil
	s.persistLocked()
	state, subscribers := s.stateLocked(), s.subscribersLocked()
	s.mu.Unlock()

	notifyAll(subscribers, state)
}

// stateLocked は現在の状態のコピーを返す。呼び出し側でロックを保持すること。
func (s *Store) stateLocked() State {
	return State{
		User:          s.user,
		Wedding:       s.wedding,
		IsLoading:     s.isLoading,
		IsSidebarOpen: s.isSidebarOpen,
	}
}

// subscribersLocked は現在の購読者一覧のコピーを返す。呼び出し側でロックを保持すること。
func (s *Store) subscribersLocked() []Subscriber {
	subscribers := make([]Subscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		subscribers = append(subscribers, sub)
	}
	return subscribers
}

// persistLocked は現在の{user, wedding, sidebar}をPersisterへ書き出す。
// 永続化の失敗はログに記録するのみで、セッターの成否には影響しない。
func (s *Store) persistLocked() {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(NewSnapshot(s.user, s.wedding, s.isSidebarOpen)); err != nil {
		slog.Warn("failed to persist state snapshot", slog.String("error", err.Error()))
	}
}

// notifyAll はロック外で全購読者へ状態を通知する。
func notifyAll(subscribers []Subscriber, state State) {
	for _, sub := range subscribers {
		sub(state)
	}
}
