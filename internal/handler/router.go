package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/gatekeeper/internal/metrics"
	"github.com/hitoshi/gatekeeper/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// *sql.DB がそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionValidator middleware.SessionValidator
	Logger           *slog.Logger
	Metrics          *metrics.Collector
	Gatherer         prometheus.Gatherer

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ページ描画
	Renderer *Renderer

	// 運用
	HealthChecker HealthChecker
}

// NewRouter は全ルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → Metrics → UserData注入
//
// UserData注入は全ルートに適用され、認証の強制（RequireAuth）は
// 保護ルートのグループにだけ適用される。注入は強制より必ず先に走る。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	r.Use(middleware.NewUserDataMiddleware(deps.SessionValidator))

	authHandler := NewAuthHandler(deps.AuthService, deps.Renderer, deps.AuthConfig)
	pageHandler := NewPageHandler(deps.Renderer)

	// --- 認証不要のルート ---

	r.Get("/", pageHandler.Index)
	r.Get("/about", pageHandler.About)

	// OAuthフロー
	r.Get("/login", authHandler.Login)
	r.Get("/oauth_return", authHandler.Callback)
	r.Get("/logout", authHandler.Logout)

	// 運用エンドポイント
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewRequireAuthMiddleware())

		r.Get("/profile", pageHandler.Profile)
	})

	return r
}

// NewHealthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func NewHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := checker.PingContext(r.Context()); err != nil {
			slog.Error("health check failed", slog.String("error", err.Error()))
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
