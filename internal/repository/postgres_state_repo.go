package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/gatekeeper/internal/model"
)

// PostgresOAuthStateRepo はPostgreSQLを使用したOAuthハンドシェイク状態リポジトリ。
type PostgresOAuthStateRepo struct {
	db *sql.DB
}

// NewPostgresOAuthStateRepo はPostgresOAuthStateRepoを生成する。
func NewPostgresOAuthStateRepo(db *sql.DB) *PostgresOAuthStateRepo {
	return &PostgresOAuthStateRepo{db: db}
}

// Create はハンドシェイク状態を作成する。
func (r *PostgresOAuthStateRepo) Create(ctx context.Context, state *model.OAuthState) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO oauth_states (csrf_token, pkce_verifier, return_url, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		state.CSRFToken, state.PKCEVerifier, state.ReturnURL,
		state.CreatedAt, state.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create oauth state: %w", err)
	}
	return nil
}

// Consume はcsrf_tokenに対応する状態を読み取りと同時に削除する。
// DELETE ... RETURNING により読み取りと削除が1文で行われるため、
// 同じcsrf_tokenに対する2回目のConsumeは必ずnilになる（リプレイ不可）。
func (r *PostgresOAuthStateRepo) Consume(ctx context.Context, csrfToken string) (*model.OAuthState, error) {
	state := &model.OAuthState{}
	err := r.db.QueryRowContext(ctx,
		`DELETE FROM oauth_states
		 WHERE csrf_token = $1 AND expires_at > now()
		 RETURNING csrf_token, pkce_verifier, return_url, created_at, expires_at`,
		csrfToken,
	).Scan(&state.CSRFToken, &state.PKCEVerifier, &state.ReturnURL,
		&state.CreatedAt, &state.ExpiresAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume oauth state: %w", err)
	}

	return state, nil
}

// DeleteExpired は期限切れの状態を削除し、削除件数を返す。
// クライアントがハンドシェイク途中で離脱した場合の残骸もここで回収される。
func (r *PostgresOAuthStateRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM oauth_states WHERE expires_at <= now()`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired oauth states: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// compile-time interface check
var _ OAuthStateRepository = (*PostgresOAuthStateRepo)(nil)
