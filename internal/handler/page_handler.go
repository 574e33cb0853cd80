package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/hitoshi/gatekeeper/internal/middleware"
)

// pageData は公開ページテンプレートに渡すデータ。
type pageData struct {
	UserEmail string // 未認証の場合は空
	LoginURL  string // 現在のページに戻るログインリンク
}

// PageHandler はHTMLページのハンドラー。
// 認証コアからは薄いコラボレーターで、コンテキスト上の解決済み
// ユーザー情報を表示に使うだけ。
type PageHandler struct {
	renderer *Renderer
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(renderer *Renderer) *PageHandler {
	return &PageHandler{renderer: renderer}
}

// Index はトップページを表示する。
// GET /
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "index.html", h.publicPageData(r))
}

// About はアバウトページを表示する。
// GET /about
func (h *PageHandler) About(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "about.html", h.publicPageData(r))
}

// Profile はプロフィールページを表示する。認証必須ルート。
// GET /profile
func (h *PageHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userData, ok := middleware.UserDataFromContext(r.Context())
	if !ok || userData == nil {
		// RequireAuthミドルウェアが通した以上ここには来ない
		slog.Error("profile handler reached without authenticated user")
		h.renderer.RenderError(w, http.StatusInternalServerError, "")
		return
	}

	h.renderer.Render(w, http.StatusOK, "profile.html", struct {
		UserEmail string
	}{UserEmail: userData.Email})
}

// publicPageData は公開ページ共通のテンプレートデータを組み立てる。
func (h *PageHandler) publicPageData(r *http.Request) pageData {
	data := pageData{
		LoginURL: "/login?return_url=" + url.QueryEscape(r.URL.RequestURI()),
	}
	if userData, ok := middleware.UserDataFromContext(r.Context()); ok && userData != nil {
		data.UserEmail = userData.Email
	}
	return data
}
