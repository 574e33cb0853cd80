// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/gatekeeper/internal/auth"
	"github.com/hitoshi/gatekeeper/internal/middleware"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Start(ctx context.Context, requestedReturnURL, host string) (string, error)
	Callback(ctx context.Context, state, code, host string) (token string, returnURL string, err error)
	Logout(ctx context.Context, token string)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieSecure  bool
	SessionMaxAge time.Duration
}

// AuthHandler はOAuth認証フローのHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	renderer *Renderer
	config   AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, renderer *Renderer, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		renderer: renderer,
		config:   config,
	}
}

// Login はOAuthハンドシェイクを開始する。
// GET /login?return_url=xxx
// 認証済みユーザーはプロバイダーに接続せずアプリルートへ戻す。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if userData, ok := middleware.UserDataFromContext(r.Context()); ok && userData != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	authURL, err := h.service.Start(r.Context(), r.URL.Query().Get("return_url"), r.Host)
	if err != nil {
		slog.Error("failed to start oauth flow", slog.String("error", err.Error()))
		h.renderer.RenderError(w, http.StatusInternalServerError, "")
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback はプロバイダーからのリダイレクトを処理する。
// GET /oauth_return?state=xxx&code=yyy
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		slog.Warn("oauth callback missing state or code")
		h.renderer.RenderError(w, http.StatusBadRequest,
			"The login request was incomplete. Please try signing in again.")
		return
	}

	token, returnURL, err := h.service.Callback(r.Context(), state, code, r.Host)
	if err != nil {
		h.writeCallbackError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.config.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})

	http.Redirect(w, r, returnURL, http.StatusFound)
}

// writeCallbackError はコールバック失敗をエラー分類に応じて描画する。
// 未確認メールはユーザー向けの説明文を出し、stateの不一致はクライアント
// 起因として4xxで返す。それ以外は詳細をログにだけ残して汎用の500にする。
func (h *AuthHandler) writeCallbackError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrEmailNotVerified):
		slog.Warn("login rejected: unverified email")
		h.renderer.RenderError(w, http.StatusForbidden,
			"Your email address is not verified. Please verify your email address with Google and try again.")
	case errors.Is(err, auth.ErrStateNotFound):
		slog.Warn("oauth callback with unknown state", slog.String("error", err.Error()))
		h.renderer.RenderError(w, http.StatusBadRequest,
			"This login link has expired or was already used. Please try signing in again.")
	default:
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		h.renderer.RenderError(w, http.StatusInternalServerError, "")
	}
}

// Logout はセッションを破棄し、Cookieを失効させる。
// GET /logout
// DB側の削除が失敗してもCookieは必ずクリアする。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		h.service.Logout(r.Context(), cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})

	http.Redirect(w, r, "/", http.StatusFound)
}
