package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/gatekeeper/internal/metrics"
	"github.com/hitoshi/gatekeeper/internal/model"
	"github.com/hitoshi/gatekeeper/internal/repository"
)

const (
	// tokenPartBytes はトークン各半分の乱数バイト数。128bitの推測不能性を確保する。
	tokenPartBytes = 16

	// encodedPartLen はhexエンコード後の各半分の固定長。
	encodedPartLen = tokenPartBytes * 2

	// tokenSeparator はpart1とpart2の区切り文字。
	tokenSeparator = "_"
)

// SessionManager は分割トークン方式のセッション発行・検証・破棄を提供する。
// トークンは "part1_part2" 形式で、DB検索には非秘密のpart1だけを使い、
// 秘密のpart2は固定長バッファの定数時間比較でのみ照合する。
// これによりDBのインデックス検索時間からpart2が漏れることを防ぐ。
type SessionManager struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	metrics  metrics.AuthMetricsCollector
	maxAge   time.Duration
}

// NewSessionManager はSessionManagerを生成する。
// maxAgeは発行するセッションの有効期間。
func NewSessionManager(
	sessions repository.SessionRepository,
	users repository.UserRepository,
	collector metrics.AuthMetricsCollector,
	maxAge time.Duration,
) *SessionManager {
	return &SessionManager{
		sessions: sessions,
		users:    users,
		metrics:  collector,
		maxAge:   maxAge,
	}
}

// Issue は指定ユーザーの新しいセッションを発行し、ブラウザに渡すトークンを返す。
func (m *SessionManager) Issue(ctx context.Context, userID int64) (string, error) {
	part1, err := generateTokenPart()
	if err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	part2, err := generateTokenPart()
	if err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		TokenPart1: part1,
		TokenPart2: part2,
		UserID:     userID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(m.maxAge),
	}

	if err := m.sessions.Create(ctx, session); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	return part1 + tokenSeparator + part2, nil
}

// Validate はトークンを検証し、有効であれば対応するユーザー情報を返す。
// 無効・期限切れ・不正な形式の場合はnilを返す。
// この経路は匿名リクエストを含む全リクエストで実行されるため、
// ストアのエラーもnil（未認証扱い）に落とし、リクエストを中断させない。
func (m *SessionManager) Validate(ctx context.Context, token string) *model.UserData {
	part1, part2, ok := splitToken(token)
	if !ok {
		m.metrics.RecordSessionValidation(metrics.ValidationRejected)
		return nil
	}

	session, err := m.sessions.FindByTokenPart1(ctx, part1)
	if err != nil {
		slog.Error("session lookup failed", slog.String("error", err.Error()))
		m.metrics.RecordSessionValidation(metrics.ValidationError)
		return nil
	}
	if session == nil {
		m.metrics.RecordSessionValidation(metrics.ValidationRejected)
		return nil
	}

	// part2は短絡しない定数時間比較で照合する。両辺とも固定長。
	if subtle.ConstantTimeCompare([]byte(session.TokenPart2), []byte(part2)) != 1 {
		m.metrics.RecordSessionValidation(metrics.ValidationRejected)
		return nil
	}

	if session.Expired(time.Now()) {
		m.metrics.RecordSessionValidation(metrics.ValidationRejected)
		return nil
	}

	user, err := m.users.FindByID(ctx, session.UserID)
	if err != nil {
		slog.Error("user lookup failed", slog.String("error", err.Error()))
		m.metrics.RecordSessionValidation(metrics.ValidationError)
		return nil
	}
	if user == nil {
		slog.Warn("session references missing user", slog.Int64("user_id", session.UserID))
		m.metrics.RecordSessionValidation(metrics.ValidationRejected)
		return nil
	}

	m.metrics.RecordSessionValidation(metrics.ValidationOK)
	return &model.UserData{UserID: user.ID, Email: user.Email}
}

// Delete はトークンに対応するセッションを削除する。
// part1だけでなくpart2の一致も削除条件に含める。
// 不正な形式のトークンは削除対象なしとして成功扱いにする。
func (m *SessionManager) Delete(ctx context.Context, token string) error {
	part1, part2, ok := splitToken(token)
	if !ok {
		return nil
	}
	if err := m.sessions.DeleteByTokenParts(ctx, part1, part2); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// splitToken はトークンをpart1とpart2に分割する。
// ちょうど2つの非空パートに分かれ、part2が規定の固定長である場合のみ
// okを返す。それ以外はすべて不正な形式として閉じる。
func splitToken(token string) (part1, part2 string, ok bool) {
	parts := strings.Split(token, tokenSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	if len(parts[1]) != encodedPartLen {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// generateTokenPart は暗号的に安全なトークン半分を生成する。
func generateTokenPart() (string, error) {
	b := make([]byte, tokenPartBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
