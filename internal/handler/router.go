package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/wedplan/internal/bootstrap"
	"github.com/hitoshi/wedplan/internal/metrics"
	"github.com/hitoshi/wedplan/internal/middleware"
	"github.com/hitoshi/wedplan/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// *sql.DBがそのまま満たす。
type HealthChecker interface {
	Ping() error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger        *slog.Logger
	HealthChecker HealthChecker

	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	WeddingFinder     middleware.WeddingFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	Collector         metrics.MetricsCollector
	MetricsGatherer   prometheus.Gatherer

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// リアルタイムチャネル（ブートストラップ用の完全なサービス）
	BootstrapAuthService    bootstrap.AuthService
	BootstrapWeddingService bootstrap.WeddingService
	SessionRepository       repository.SessionRepository

	// 機能サービス
	WeddingService  WeddingServiceInterface
	GuestService    GuestServiceInterface
	BudgetService   BudgetServiceInterface
	TaskService     TaskServiceInterface
	SupplierService SupplierServiceInterface
	UserService     UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → SecurityHeaders → CORS
//	→ (認証グループ: Session → RateLimit(General) → CSRF)
//	→ (結婚式スコープグループ: + WeddingGuard)
//
// 認証エンドポイント（login/register）はセッション確立前のため
// グループ外に置き、IP単位のレート制限のみを適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewMetricsMiddleware(deps.Collector))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, deps.Collector)
	bootstrapHandler := NewBootstrapHandler(deps.AuthService, deps.WeddingService)
	weddingHandler := NewWeddingHandler(deps.WeddingService, deps.Collector)
	guestHandler := NewGuestHandler(deps.GuestService)
	budgetHandler := NewBudgetHandler(deps.BudgetService)
	taskHandler := NewTaskHandler(deps.TaskService)
	supplierHandler := NewSupplierHandler(deps.SupplierService)
	userHandler := NewUserHandler(deps.UserService, deps.AuthConfig)
	eventsHandler := NewEventsHandler(
		deps.BootstrapAuthService,
		deps.BootstrapWeddingService,
		deps.SessionRepository,
		deps.Collector,
		deps.CORSAllowedOrigin,
	)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.Ping(); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	r.Route("/api/auth", func(r chi.Router) {
		// ブルートフォース対策としてIP単位のレート制限を適用
		r.With(deps.RateLimiter.AuthMiddleware()).Post("/register", authHandler.Register)
		r.With(deps.RateLimiter.AuthMiddleware()).Post("/login", authHandler.Login)

		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// 起動判定はセッションの有無にかかわらず応答する
	r.Get("/api/bootstrap", bootstrapHandler.Get)

	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// リアルタイムセッションチャネル。匿名クライアントも接続して
	// チャネル上でログイン・登録できるため、セッションは任意とする。
	r.With(middleware.NewOptionalSessionMiddleware(deps.SessionFinder)).
		Get("/api/events", eventsHandler.Connect)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General) → CSRF
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		// 結婚式管理（未作成ユーザーも到達できるためガードの外）
		r.Route("/api/wedding", func(r chi.Router) {
			r.Get("/", weddingHandler.Get)
			r.Post("/", weddingHandler.Setup)
			r.Put("/", weddingHandler.Update)
		})

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Delete("/me", userHandler.Withdraw)
		})

		// --- 結婚式スコープのルート ---
		// 結婚式が未作成の場合は409 SETUP_REQUIREDを返す
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewWeddingGuardMiddleware(deps.WeddingFinder))

			// 招待客管理
			r.Route("/api/guests", func(r chi.Router) {
				r.Get("/", guestHandler.List)
				r.Post("/", guestHandler.Create)
				r.Get("/stats", guestHandler.Stats)

				r.Route("/{id}", func(r chi.Router) {
					r.Put("/", guestHandler.Update)
					r.Delete("/", guestHandler.Delete)
				})
			})

			// 予算管理
			r.Route("/api/budget", func(r chi.Router) {
				r.Get("/categories", budgetHandler.ListCategories)
				r.Get("/summary", budgetHandler.Summary)
				r.Put("/total", budgetHandler.SetTotalBudget)

				r.Route("/items", func(r chi.Router) {
					r.Get("/", budgetHandler.ListItems)
					r.Post("/", budgetHandler.CreateItem)

					r.Route("/{id}", func(r chi.Router) {
						r.Put("/", budgetHandler.UpdateItem)
						r.Delete("/", budgetHandler.DeleteItem)
					})
				})
			})

			// タスク管理
			r.Route("/api/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.List)
				r.Post("/", taskHandler.Create)
				r.Get("/templates", taskHandler.ListTemplates)

				r.Route("/{id}", func(r chi.Router) {
					r.Put("/", taskHandler.Update)
					r.Patch("/done", taskHandler.SetDone)
					r.Delete("/", taskHandler.Delete)
				})
			})

			// 業者管理
			r.Route("/api/suppliers", func(r chi.Router) {
				r.Get("/", supplierHandler.List)
				r.Post("/", supplierHandler.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Put("/", supplierHandler.Update)
					r.Delete("/", supplierHandler.Delete)
				})
			})
		})
	})

	return r
}
