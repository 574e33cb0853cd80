package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/gatekeeper/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用したセッションリポジトリ。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// Create はセッションを作成する。
func (r *PostgresSessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token_part1, token_part2, user_id, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		session.TokenPart1, session.TokenPart2, session.UserID,
		session.CreatedAt, session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByTokenPart1 はpart1でセッションを検索する。
// 検索キーは非秘密側のpart1のみ。期限切れ、または見つからない場合はnilを返す。
func (r *PostgresSessionRepo) FindByTokenPart1(ctx context.Context, part1 string) (*model.Session, error) {
	session := &model.Session{}
	err := r.db.QueryRowContext(ctx,
		`SELECT token_part1, token_part2, user_id, created_at, expires_at
		 FROM sessions
		 WHERE token_part1 = $1 AND expires_at > now()`,
		part1,
	).Scan(&session.TokenPart1, &session.TokenPart2, &session.UserID,
		&session.CreatedAt, &session.ExpiresAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return session, nil
}

// DeleteByTokenParts はpart1とpart2の両方が一致するセッションを削除する。
func (r *PostgresSessionRepo) DeleteByTokenParts(ctx context.Context, part1, part2 string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE token_part1 = $1 AND token_part2 = $2`,
		part1, part2,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
func (r *PostgresSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= now()`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
