package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/hitoshi/gatekeeper/internal/model"
)

func TestRequireAuthMiddleware_Authenticated_PassesThrough(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req = req.WithContext(ContextWithUserData(req.Context(), &model.UserData{UserID: 1, Email: "a@b.com"}))
	rec := httptest.NewRecorder()

	NewRequireAuthMiddleware()(next).ServeHTTP(rec, req)

	if !called {
		t.Error("authenticated request should reach the handler")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequireAuthMiddleware_Anonymous_RedirectsToLogin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("anonymous request must not reach the handler")
	})

	req := httptest.NewRequest(http.MethodGet, "/profile?tab=settings", nil)
	req = req.WithContext(ContextWithUserData(req.Context(), nil))
	rec := httptest.NewRecorder()

	NewRequireAuthMiddleware()(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}

	location := rec.Header().Get("Location")
	parsed, err := url.Parse(location)
	if err != nil {
		t.Fatalf("failed to parse Location %q: %v", location, err)
	}
	if parsed.Path != "/login" {
		t.Errorf("redirect path = %q, want /login", parsed.Path)
	}
	if got := parsed.Query().Get("return_url"); got != "/profile?tab=settings" {
		t.Errorf("return_url = %q, want %q", got, "/profile?tab=settings")
	}
}

func TestRequireAuthMiddleware_MiddlewareChainBroken_Returns500(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the handler when injection never ran")
	})

	// ユーザー情報注入ミドルウェアを通していないリクエスト
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	rec := httptest.NewRecorder()

	NewRequireAuthMiddleware()(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if rec.Header().Get("Location") != "" {
		t.Error("configuration error must not redirect to login")
	}
}
