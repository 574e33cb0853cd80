// Package auth はOAuth認証フローとセッション管理を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/hitoshi/gatekeeper/internal/metrics"
	"github.com/hitoshi/gatekeeper/internal/model"
	"github.com/hitoshi/gatekeeper/internal/repository"
)

// callbackPath はプロバイダーからのリダイレクトを受けるパス。
const callbackPath = "/oauth_return"

// ErrStateNotFound はコールバックのstateがDBに存在しない（期限切れ・
// リプレイ・CSRFの可能性がある）場合のエラー。クライアント起因として扱う。
var ErrStateNotFound = errors.New("oauth state not found")

// ErrEmailNotVerified はプロバイダーがemailを未確認と報告した場合のエラー。
// 内部障害とは区別し、ユーザー向けの説明文付きで表示する。
var ErrEmailNotVerified = errors.New("email address is not verified")

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	StateMaxAge time.Duration // ハンドシェイク状態の有効期間
}

// Service はOAuthハンドシェイク全体を調停する。
// 状態ストア・ユーザーストア・セッション管理・プロバイダーをまとめ、
// ログイン開始 → コールバック → セッション発行の3段階を駆動する。
type Service struct {
	provider Provider
	states   repository.OAuthStateRepository
	users    repository.UserRepository
	sessions *SessionManager
	metrics  metrics.AuthMetricsCollector
	config   ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	provider Provider,
	states repository.OAuthStateRepository,
	users repository.UserRepository,
	sessions *SessionManager,
	collector metrics.AuthMetricsCollector,
	config ServiceConfig,
) *Service {
	return &Service{
		provider: provider,
		states:   states,
		users:    users,
		sessions: sessions,
		metrics:  collector,
		config:   config,
	}
}

// Start はOAuthハンドシェイクを開始し、プロバイダーの認可URLを返す。
// PKCE検証値とCSRFトークンを生成してDBに保存し、認可URLにはS256チャレンジと
// stateパラメータを埋め込む。requestedReturnURLはログイン完了後の戻り先で、
// 相対パス以外はオープンリダイレクト防止のため "/" に落とす。
func (s *Service) Start(ctx context.Context, requestedReturnURL, host string) (string, error) {
	returnURL := sanitizeReturnURL(requestedReturnURL)
	verifier := oauth2.GenerateVerifier()
	state := uuid.New().String()

	now := time.Now()
	record := &model.OAuthState{
		CSRFToken:    state,
		PKCEVerifier: verifier,
		ReturnURL:    returnURL,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.config.StateMaxAge),
	}
	if err := s.states.Create(ctx, record); err != nil {
		return "", fmt.Errorf("failed to save oauth state: %w", err)
	}

	s.metrics.RecordLoginStarted()
	return s.provider.AuthCodeURL(state, verifier, callbackURL(host)), nil
}

// Callback はプロバイダーからのリダイレクトを処理し、セッションを発行する。
// 返り値はブラウザに渡すセッショントークンと、ログイン開始時に保存した戻り先URL。
//
// stateの消費は読み取りと同時に削除される単一操作のため、同じstateによる
// 2回目のコールバックは必ずErrStateNotFoundになる。
func (s *Service) Callback(ctx context.Context, state, code, host string) (string, string, error) {
	record, err := s.states.Consume(ctx, state)
	if err != nil {
		s.metrics.RecordLoginFailure(metrics.FailureStorage)
		return "", "", fmt.Errorf("failed to consume oauth state: %w", err)
	}
	if record == nil {
		s.metrics.RecordLoginFailure(metrics.FailureStateNotFound)
		return "", "", ErrStateNotFound
	}

	accessToken, err := s.provider.ExchangeCode(ctx, code, record.PKCEVerifier, callbackURL(host))
	if err != nil {
		s.metrics.RecordLoginFailure(metrics.FailureExchange)
		return "", "", fmt.Errorf("token exchange failed: %w", err)
	}

	userInfo, err := s.provider.FetchUserInfo(ctx, accessToken)
	if err != nil {
		s.metrics.RecordLoginFailure(metrics.FailureUserInfo)
		return "", "", fmt.Errorf("user info fetch failed: %w", err)
	}

	if !userInfo.VerifiedEmail {
		s.metrics.RecordLoginFailure(metrics.FailureEmailUnverified)
		return "", "", fmt.Errorf("%w: %s", ErrEmailNotVerified, userInfo.Email)
	}

	user, err := s.users.FindOrCreateByEmail(ctx, userInfo.Email)
	if err != nil {
		s.metrics.RecordLoginFailure(metrics.FailureStorage)
		return "", "", fmt.Errorf("failed to resolve user: %w", err)
	}

	token, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		s.metrics.RecordLoginFailure(metrics.FailureStorage)
		return "", "", fmt.Errorf("failed to issue session: %w", err)
	}

	s.metrics.RecordLoginSuccess()
	slog.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return token, record.ReturnURL, nil
}

// Logout はセッションをベストエフォートで破棄する。
// 削除の失敗は呼び出し側に伝えず、ログに残すだけにする。
// Cookieは削除の成否にかかわらずクリアされる。
func (s *Service) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		slog.Error("failed to delete session on logout", slog.String("error", err.Error()))
	}
}

// callbackURL はリクエストのHostヘッダーからコールバックURLを組み立てる。
// localhost系のホストだけは平文HTTPを許す。
func callbackURL(host string) string {
	scheme := "https"
	if strings.HasPrefix(host, "localhost") || strings.HasPrefix(host, "127.0.0.1") {
		scheme = "http"
	}
	return scheme + "://" + host + callbackPath
}

// sanitizeReturnURL はログイン後の戻り先を検証する。
// 受け付けるのは同一オリジンの相対パスのみ。スキーム付きURL、
// プロトコル相対（//）、バックスラッシュ変種はすべて "/" に落とす。
func sanitizeReturnURL(raw string) string {
	if raw == "" {
		return "/"
	}
	if !strings.HasPrefix(raw, "/") {
		return "/"
	}
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	return raw
}
