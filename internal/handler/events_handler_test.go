package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hitoshi/wedplan/internal/auth"
	"github.com/hitoshi/wedplan/internal/model"
	"github.com/hitoshi/wedplan/internal/state"
)

// --- モック定義 ---

// mockBootstrapAuth はbootstrap.AuthServiceを満たすモック。
type mockBootstrapAuth struct {
	mockAuthService
	listeners []auth.Listener
}

func (m *mockBootstrapAuth) Subscribe(listener auth.Listener) (unsubscribe func()) {
	m.listeners = append(m.listeners, listener)
	return func() {}
}

// mockSessionRepo はrepository.SessionRepositoryを満たすモック。
type mockSessionRepo struct {
	findByIDFn   func(ctx context.Context, id string) (*model.Session, error)
	updateDataFn func(ctx context.Context, id string, data []byte) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error { return nil }

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionRepo) UpdateData(ctx context.Context, id string, data []byte) error {
	if m.updateDataFn != nil {
		return m.updateDataFn(ctx, id, data)
	}
	return nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error         { return nil }
func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error { return nil }
func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error)        { return 0, nil }

// dialEvents はテストサーバーへwebsocket接続する。
func dialEvents(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/events"
	header := http.Header{}
	if sessionID != "" {
		header.Set("Cookie", "session_id="+sessionID)
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	return conn
}

// readStateEvent は次のstateイベントを受信する。
func readStateEvent(t *testing.T, conn *websocket.Conn) stateEvent {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var raw json.RawMessage
		if err := conn.ReadJSON(&raw); err != nil {
			t.Fatalf("failed to read event: %v", err)
		}

		var envelope struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			t.Fatalf("failed to decode envelope: %v", err)
		}
		if envelope.Type != "state" {
			continue
		}

		var event stateEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			t.Fatalf("failed to decode state event: %v", err)
		}
		return event
	}
}

// --- テスト ---

// 認証済み接続で初期状態スナップショットが配信されることを検証
func TestEventsHandler_Connect_StreamsInitialState(t *testing.T) {
	authSvc := &mockBootstrapAuth{
		mockAuthService: mockAuthService{
			getCurrentUserFn: func(ctx context.Context, sessionID string) (*model.User, error) {
				return testUser(), nil
			},
		},
	}
	weddingSvc := &mockWeddingService{
		fetchUserWeddingFn: func(ctx context.Context, ownerID string) (*model.Wedding, error) {
			return testWedding(), nil
		},
	}
	h := NewEventsHandler(authSvc, weddingSvc, &mockSessionRepo{}, &mockCollector{}, "")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Connect(w, r)
	}))
	defer server.Close()

	conn := dialEvents(t, server, "session-1")
	defer conn.Close()

	// ブートストラップが解決するまでstateイベントを読み進める
	deadline := time.Now().Add(2 * time.Second)
	for {
		event := readStateEvent(t, conn)
		if event.User != nil && event.Wedding != nil && !event.IsLoading {
			if event.User.ID != "user-1" {
				t.Errorf("user ID = %q, want %q", event.User.ID, "user-1")
			}
			if event.Wedding.ID != "wedding-1" {
				t.Errorf("wedding ID = %q, want %q", event.Wedding.ID, "wedding-1")
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("resolved state event was not received")
		}
	}
}

// ログインコマンドでユーザーと結婚式が状態に反映されることを検証
func TestEventsHandler_LoginCommand(t *testing.T) {
	authSvc := &mockBootstrapAuth{
		mockAuthService: mockAuthService{
			loginFn: func(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
				return testUser(), testSession(), nil
			},
		},
	}
	weddingSvc := &mockWeddingService{
		fetchUserWeddingFn: func(ctx context.Context, ownerID string) (*model.Wedding, error) {
			return testWedding(), nil
		},
	}
	h := NewEventsHandler(authSvc, weddingSvc, &mockSessionRepo{}, &mockCollector{}, "")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Connect(w, r)
	}))
	defer server.Close()

	conn := dialEvents(t, server, "")
	defer conn.Close()

	// 匿名で解決されるのを待つ
	readStateEvent(t, conn)

	cmd := clientCommand{Op: "login", Email: "hanako@example.com", Password: "secret123"}
	if err := conn.WriteJSON(cmd); err != nil {
		t.Fatalf("failed to send command: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		event := readStateEvent(t, conn)
		if event.User != nil && !event.IsLoading {
			if event.User.Email != "hanako@example.com" {
				t.Errorf("email = %q, want %q", event.User.Email, "hanako@example.com")
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("logged-in state event was not received")
		}
	}
}

// 不明な操作コマンドがエラーイベントになることを検証
func TestEventsHandler_UnknownCommand(t *testing.T) {
	h := NewEventsHandler(&mockBootstrapAuth{}, &mockWeddingService{}, &mockSessionRepo{}, &mockCollector{}, "")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Connect(w, r)
	}))
	defer server.Close()

	conn := dialEvents(t, server, "")
	defer conn.Close()

	readStateEvent(t, conn)

	if err := conn.WriteJSON(clientCommand{Op: "unknown_op"}); err != nil {
		t.Fatalf("failed to send command: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var raw json.RawMessage
		if err := conn.ReadJSON(&raw); err != nil {
			t.Fatalf("failed to read event: %v", err)
		}

		var event errorEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			t.Fatalf("failed to decode event: %v", err)
		}
		if event.Type == "error" {
			if event.Code != model.ErrCodeValidationFailed {
				t.Errorf("code = %q, want %q", event.Code, model.ErrCodeValidationFailed)
			}
			return
		}
	}
}

// 接続数ゲージが接続と切断で増減することを検証
func TestEventsHandler_ConnectionGauge(t *testing.T) {
	collector := &mockCollector{}
	h := NewEventsHandler(&mockBootstrapAuth{}, &mockWeddingService{}, &mockSessionRepo{}, collector, "")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Connect(w, r)
	}))
	defer server.Close()

	conn := dialEvents(t, server, "")
	readStateEvent(t, conn)

	if collector.connections.Load() != 1 {
		t.Errorf("connections = %d, want 1", collector.connections.Load())
	}

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for collector.connections.Load() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection gauge was not decremented after close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// ログイン後のスナップショットが新しく発行されたセッションへ永続化されることを検証
func TestEventsHandler_LoginCommand_PersistsToNewSession(t *testing.T) {
	var mu sync.Mutex
	var savedIDs []string
	repo := &mockSessionRepo{
		updateDataFn: func(ctx context.Context, id string, data []byte) error {
			mu.Lock()
			defer mu.Unlock()
			savedIDs = append(savedIDs, id)
			return nil
		},
	}
	authSvc := &mockBootstrapAuth{
		mockAuthService: mockAuthService{
			loginFn: func(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
				return testUser(), testSession(), nil
			},
		},
	}
	weddingSvc := &mockWeddingService{
		fetchUserWeddingFn: func(ctx context.Context, ownerID string) (*model.Wedding, error) {
			return testWedding(), nil
		},
	}
	h := NewEventsHandler(authSvc, weddingSvc, repo, &mockCollector{}, "")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Connect(w, r)
	}))
	defer server.Close()

	conn := dialEvents(t, server, "")
	defer conn.Close()

	// 匿名で解決されるのを待つ
	readStateEvent(t, conn)

	cmd := clientCommand{Op: "login", Email: "hanako@example.com", Password: "secret123"}
	if err := conn.WriteJSON(cmd); err != nil {
		t.Fatalf("failed to send command: %v", err)
	}

	// 永続化は接続時のセッション（ここでは匿名）ではなく、
	// ログインで発行されたセッションに対して行われなければならない
	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		ids := append([]string(nil), savedIDs...)
		mu.Unlock()

		if len(ids) > 0 {
			for _, id := range ids {
				if id != "session-1" {
					t.Errorf("persisted session ID = %q, want %q", id, "session-1")
				}
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("snapshot was not persisted to the new session")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// --- sessionPersisterのテスト ---

// スナップショットがセッションレコードへ保存されることを検証
func TestSessionPersister_Save(t *testing.T) {
	var savedData []byte
	repo := &mockSessionRepo{
		updateDataFn: func(ctx context.Context, id string, data []byte) error {
			if id != "session-1" {
				t.Errorf("session ID = %q, want %q", id, "session-1")
			}
			savedData = data
			return nil
		},
	}
	p := newSessionPersister(context.Background(), repo, "session-1")

	snapshot := state.NewSnapshot(testUser(), testWedding(), true)
	if err := p.Save(snapshot); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	restored, err := state.DecodeSnapshot(savedData)
	if err != nil {
		t.Fatalf("failed to decode saved data: %v", err)
	}
	if restored.User() == nil || restored.User().ID != "user-1" {
		t.Error("restored snapshot must contain the user")
	}
	if restored.Wedding() == nil || restored.Wedding().ID != "wedding-1" {
		t.Error("restored snapshot must contain the wedding")
	}
}

// 匿名接続のSaveが何もしないことを検証
func TestSessionPersister_Save_Anonymous(t *testing.T) {
	repo := &mockSessionRepo{
		updateDataFn: func(ctx context.Context, id string, data []byte) error {
			t.Error("UpdateData must not be called for anonymous connections")
			return nil
		},
	}
	p := newSessionPersister(context.Background(), repo, "")

	if err := p.Save(state.Snapshot{}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
}

// SetSessionIDで書き込み先が切り替わることを検証
func TestSessionPersister_SetSessionID(t *testing.T) {
	var savedIDs []string
	repo := &mockSessionRepo{
		updateDataFn: func(ctx context.Context, id string, data []byte) error {
			savedIDs = append(savedIDs, id)
			return nil
		},
	}
	p := newSessionPersister(context.Background(), repo, "")

	// 匿名の間は書き込まない
	if err := p.Save(state.Snapshot{}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if len(savedIDs) != 0 {
		t.Fatalf("UpdateData must not be called before a session is adopted, got %v", savedIDs)
	}

	p.SetSessionID("session-9")
	if err := p.Save(state.NewSnapshot(testUser(), nil, true)); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if len(savedIDs) != 1 || savedIDs[0] != "session-9" {
		t.Fatalf("saved session IDs = %v, want [session-9]", savedIDs)
	}

	// ログアウト後は再び書き込まない
	p.SetSessionID("")
	if err := p.Save(state.Snapshot{}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if len(savedIDs) != 1 {
		t.Errorf("UpdateData must not be called after logout, got %v", savedIDs)
	}
}

// セッションのdataカラムからスナップショットが復元されることを検証
func TestSessionPersister_Load(t *testing.T) {
	data, err := state.EncodeSnapshot(state.NewSnapshot(testUser(), nil, false))
	if err != nil {
		t.Fatalf("failed to encode snapshot: %v", err)
	}
	repo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: "user-1", Data: data}, nil
		},
	}
	p := newSessionPersister(context.Background(), repo, "session-1")

	snapshot, err := p.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if snapshot.User() == nil || snapshot.User().ID != "user-1" {
		t.Error("loaded snapshot must contain the user")
	}
	if snapshot.SidebarOpen == nil || *snapshot.SidebarOpen {
		t.Error("sidebar flag must be restored as false")
	}
}

// データ未保存のセッションでゼロ値が返ることを検証
func TestSessionPersister_Load_EmptyData(t *testing.T) {
	repo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: "user-1"}, nil
		},
	}
	p := newSessionPersister(context.Background(), repo, "session-1")

	snapshot, err := p.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if snapshot.User() != nil || snapshot.Wedding() != nil {
		t.Error("expected zero snapshot for empty data")
	}
}
