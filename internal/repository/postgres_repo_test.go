package repository

import (
	"testing"
	"time"

	"github.com/hitoshi/gatekeeper/internal/model"
)

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// PostgresSessionRepoはSessionRepositoryインターフェースを満たすことを検証
func TestPostgresSessionRepo_ImplementsInterface(t *testing.T) {
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
}

// PostgresOAuthStateRepoはOAuthStateRepositoryインターフェースを満たすことを検証
func TestPostgresOAuthStateRepo_ImplementsInterface(t *testing.T) {
	var _ OAuthStateRepository = (*PostgresOAuthStateRepo)(nil)
}

// 各リポジトリが正しく初期化されることを検証
func TestNewRepos_Initialize(t *testing.T) {
	if NewPostgresUserRepo(nil) == nil {
		t.Fatal("expected non-nil user repo")
	}
	if NewPostgresSessionRepo(nil) == nil {
		t.Fatal("expected non-nil session repo")
	}
	if NewPostgresOAuthStateRepo(nil) == nil {
		t.Fatal("expected non-nil oauth state repo")
	}
}

// セッションの期限判定モデルの期待動作
// （DB接続なしでロジックのみ検証）
func TestSessionModel_Expired(t *testing.T) {
	now := time.Now()

	expired := &model.Session{ExpiresAt: now.Add(-time.Minute)}
	if !expired.Expired(now) {
		t.Error("past expiry should be expired")
	}

	active := &model.Session{ExpiresAt: now.Add(time.Minute)}
	if active.Expired(now) {
		t.Error("future expiry should not be expired")
	}

	// ちょうど期限時刻のセッションは期限切れとして扱う
	boundary := &model.Session{ExpiresAt: now}
	if !boundary.Expired(now) {
		t.Error("session at the exact expiry instant should be expired")
	}
}
