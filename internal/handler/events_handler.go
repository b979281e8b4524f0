package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/hitoshi/wedplan/internal/bootstrap"
	"github.com/hitoshi/wedplan/internal/metrics"
	"github.com/hitoshi/wedplan/internal/middleware"
	"github.com/hitoshi/wedplan/internal/model"
	"github.com/hitoshi/wedplan/internal/repository"
	"github.com/hitoshi/wedplan/internal/state"
)

// EventsHandler はリアルタイムセッションチャネルのHTTPハンドラー。
// 接続1本につきStoreとブートストラップを構築し、状態変更を
// スナップショットイベントとしてクライアントへ配信する。
type EventsHandler struct {
	authService    bootstrap.AuthService
	weddingService bootstrap.WeddingService
	sessionRepo    repository.SessionRepository
	collector      metrics.MetricsCollector
	upgrader       websocket.Upgrader
}

// NewEventsHandler はEventsHandlerを生成する。
// allowedOriginはwebsocketハンドシェイクのOrigin検証に使用する。
func NewEventsHandler(
	authService bootstrap.AuthService,
	weddingService bootstrap.WeddingService,
	sessionRepo repository.SessionRepository,
	collector metrics.MetricsCollector,
	allowedOrigin string,
) *EventsHandler {
	return &EventsHandler{
		authService:    authService,
		weddingService: weddingService,
		sessionRepo:    sessionRepo,
		collector:      collector,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
	}
}

// stateEvent はクライアントへ配信する状態スナップショットイベント。
type stateEvent struct {
	Type          string           `json:"type"`
	User          *userResponse    `json:"user"`
	Wedding       *weddingResponse `json:"wedding"`
	IsLoading     bool             `json:"is_loading"`
	IsSidebarOpen bool             `json:"is_sidebar_open"`
}

// errorEvent はクライアントへ配信するエラーイベント。
type errorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// clientCommand はクライアントから受信する操作コマンド。
type clientCommand struct {
	Op           string `json:"op"`
	Email        string `json:"email,omitempty"`
	Password     string `json:"password,omitempty"`
	CoupleName   string `json:"couple_name,omitempty"`
	WeddingDate  string `json:"wedding_date,omitempty"`
	PartnerEmail string `json:"partner_email,omitempty"`
	Open         bool   `json:"open,omitempty"`
}

// toStateEvent はStoreの状態を配信イベントに変換する。
func toStateEvent(st state.State) stateEvent {
	event := stateEvent{
		Type:          "state",
		IsLoading:     st.IsLoading,
		IsSidebarOpen: st.IsSidebarOpen,
	}
	if st.User != nil {
		resp := toUserResponse(st.User)
		event.User = &resp
	}
	if st.Wedding != nil {
		resp := toWeddingResponse(st.Wedding)
		event.Wedding = &resp
	}
	return event
}

// Connect はwebsocketへアップグレードし、状態変更の配信とコマンドの受付を行う。
// 接続クローズでブートストラップを破棄し、遅延した取得結果の書き込みを遮断する。
// GET /api/events
func (h *EventsHandler) Connect(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionIDFromRequest(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	h.collector.IncRealtimeConnections()
	defer h.collector.DecRealtimeConnections()

	ctx := r.Context()

	persister := newSessionPersister(ctx, h.sessionRepo, sessionID)
	store := state.NewStore(persister)
	boot := bootstrap.New(h.authService, h.weddingService, store, sessionID)
	defer boot.Close()

	// 書き込みは購読コールバックと読み取りループの両方から発生するため直列化する
	var writeMu sync.Mutex
	send := func(v interface{}) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(v); err != nil {
			slog.Debug("websocket write failed", slog.String("error", err.Error()))
		}
	}

	unsubscribe := store.Subscribe(func(st state.State) {
		send(toStateEvent(st))
	})
	defer unsubscribe()

	boot.Start(ctx)
	send(toStateEvent(store.State()))

	for {
		var cmd clientCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("websocket closed unexpectedly", slog.String("error", err.Error()))
			}
			return
		}
		h.dispatch(ctx, boot, store, persister, cmd, send)
	}
}

// dispatch は受信コマンドをブートストラップとStoreの操作に変換する。
// 認証コマンドでセッションが切り替わったら永続化先も追従させる。
func (h *EventsHandler) dispatch(ctx context.Context, boot *bootstrap.Bootstrap, store *state.Store, persister *sessionPersister, cmd clientCommand, send func(v interface{})) {
	var err error

	switch cmd.Op {
	case "login":
		var session *model.Session
		_, session, err = boot.Login(ctx, cmd.Email, cmd.Password)
		if err == nil {
			adoptSession(store, persister, session.ID)
		}
	case "register":
		var session *model.Session
		_, session, err = boot.Register(ctx, cmd.Email, cmd.Password)
		if err == nil && session != nil {
			adoptSession(store, persister, session.ID)
		}
	case "logout":
		err = boot.Logout(ctx)
		if err == nil {
			adoptSession(store, persister, "")
		}
	case "setup_wedding":
		weddingDate, parseErr := parseDate(cmd.WeddingDate)
		if parseErr != nil {
			err = model.NewInvalidDateError(cmd.WeddingDate)
			break
		}
		_, err = boot.SetupWedding(ctx, cmd.CoupleName, weddingDate, cmd.PartnerEmail)
	case "toggle_sidebar":
		store.ToggleSidebar()
	case "set_sidebar":
		store.SetSidebarOpen(cmd.Open)
	default:
		err = model.NewValidationError("不明な操作です: " + cmd.Op)
	}

	if err != nil {
		send(toErrorEvent(err))
	}
}

// adoptSession は永続化先のセッションを切り替え、切り替え先へ
// 現在のスナップショットを即時に書き出す。ログアウト時は空文字列で
// 以後の書き込みを止める。
func adoptSession(store *state.Store, persister *sessionPersister, sessionID string) {
	persister.SetSessionID(sessionID)
	if sessionID == "" {
		return
	}

	st := store.State()
	if err := persister.Save(state.NewSnapshot(st.User, st.Wedding, st.IsSidebarOpen)); err != nil {
		slog.Warn("failed to persist state snapshot", slog.String("error", err.Error()))
	}
}

// toErrorEvent はサービス層のエラーを配信イベントに変換する。
func toErrorEvent(err error) errorEvent {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return errorEvent{Type: "error", Code: apiErr.Code, Message: apiErr.Message}
	}
	return errorEvent{Type: "error", Code: "INTERNAL_ERROR", Message: "内部エラーが発生しました。"}
}

// sessionPersister はセッションレコードのdataカラムにスナップショットを永続化する。
// websocket経由のログイン・ログアウトでセッションが切り替わるため、
// 書き込み先のセッションIDは接続中に更新できる。
type sessionPersister struct {
	ctx      context.Context
	sessions repository.SessionRepository

	mu        sync.Mutex
	sessionID string
}

// newSessionPersister はsessionPersisterを生成する。
func newSessionPersister(ctx context.Context, sessions repository.SessionRepository, sessionID string) *sessionPersister {
	return &sessionPersister{
		ctx:       ctx,
		sessions:  sessions,
		sessionID: sessionID,
	}
}

// SetSessionID は永続化先のセッションを切り替える。
// ログアウト後は空文字列を渡し、以後の書き込みを止める。
func (p *sessionPersister) SetSessionID(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessionID = sessionID
}

func (p *sessionPersister) currentSessionID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionID
}

// Save はスナップショットをセッションレコードへ書き出す。
// セッションがない匿名接続では何もしない。
func (p *sessionPersister) Save(snapshot state.Snapshot) error {
	sessionID := p.currentSessionID()
	if sessionID == "" {
		return nil
	}

	data, err := state.EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	return p.sessions.UpdateData(p.ctx, sessionID, data)
}

// Load はセッションレコードから前回のスナップショットを読み込む。
func (p *sessionPersister) Load() (state.Snapshot, error) {
	sessionID := p.currentSessionID()
	if sessionID == "" {
		return state.Snapshot{}, nil
	}

	session, err := p.sessions.FindByID(p.ctx, sessionID)
	if err != nil {
		return state.Snapshot{}, err
	}
	if session == nil || len(session.Data) == 0 {
		return state.Snapshot{}, nil
	}
	return state.DecodeSnapshot(session.Data)
}

// compile-time interface check
var _ state.Persister = (*sessionPersister)(nil)
