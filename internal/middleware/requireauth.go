package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
)

// loginPath は未認証リクエストのリダイレクト先。
const loginPath = "/login"

// NewRequireAuthMiddleware は認証済みユーザーのみを通すミドルウェアを返す。
// 未認証の場合はログイン開始エンドポイントへ302リダイレクトし、
// 元のURLをreturn_urlクエリとして付与してログイン後に戻れるようにする。
//
// コンテキストにユーザー情報のキー自体が存在しない場合は
// NewUserDataMiddlewareの適用漏れというプログラミングエラーであり、
// 「未ログイン」とは区別してサーバー障害として扱う。
func NewRequireAuthMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userData, ok := UserDataFromContext(r.Context())
			if !ok {
				slog.Error("user data middleware has not run before auth enforcement",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			if userData == nil {
				loginURL := loginPath + "?return_url=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, loginURL, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
