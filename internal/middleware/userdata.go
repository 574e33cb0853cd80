// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"

	"github.com/hitoshi/gatekeeper/internal/model"
)

// SessionCookieName はセッショントークンを保持するCookieの名前。
const SessionCookieName = "session_token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userDataContextKey はリクエストコンテキストにユーザー情報を格納するためのキー。
var userDataContextKey = contextKey("user_data")

// SessionValidator はセッショントークンの検証に必要なインターフェース。
// auth.SessionManagerの部分集合として定義する。
type SessionValidator interface {
	// Validate はトークンが有効であればユーザー情報を、
	// そうでなければnilを返す。エラーは返さない。
	Validate(ctx context.Context, token string) *model.UserData
}

// NewUserDataMiddleware はセッションCookieを解決してユーザー情報を
// リクエストコンテキストに注入するミドルウェアを返す。
// Cookieがない・無効・期限切れのいずれでもリクエストは止めず、
// 「未認証」という結果（nil）をコンテキストに記録して次へ渡す。
// 認証を要求するのはNewRequireAuthMiddlewareの仕事。
func NewUserDataMiddleware(validator SessionValidator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userData *model.UserData

			if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
				userData = validator.Validate(r.Context(), cookie.Value)
			}

			// 匿名の場合もnilを明示的に格納する。キーの不在は
			// 「このミドルウェアが実行されていない」ことを意味する。
			ctx := ContextWithUserData(r.Context(), userData)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserDataFromContext はリクエストコンテキストからユーザー情報を取得する。
// okはNewUserDataMiddlewareが実行済みかどうかを示す。
// ok=trueかつuserData=nilは「未認証」を意味する。
func UserDataFromContext(ctx context.Context) (userData *model.UserData, ok bool) {
	userData, ok = ctx.Value(userDataContextKey).(*model.UserData)
	return userData, ok
}

// ContextWithUserData はコンテキストにユーザー情報を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserData(ctx context.Context, userData *model.UserData) context.Context {
	return context.WithValue(ctx, userDataContextKey, userData)
}
