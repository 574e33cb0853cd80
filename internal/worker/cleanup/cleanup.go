// Package cleanup は期限切れ認証レコードの自動削除ジョブを提供する。
// セッションは遅延失効（読み取り時の期限判定）だけでも安全だが、
// 放置すると失効済み行が溜まり続けるため、定期バッチで物理削除する。
// ハンドシェイク途中で離脱したOAuth状態レコードもここで回収する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ExpiredDeleter は期限切れレコードの一括削除インターフェース。
// repository.SessionRepositoryとrepository.OAuthStateRepositoryの部分集合。
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Job は期限切れセッションとOAuth状態の削除ジョブ。
// 冪等な削除処理のため、多重起動しても整合性は壊れない。
type Job struct {
	sessions ExpiredDeleter
	states   ExpiredDeleter
	logger   *slog.Logger
}

// NewJob は新しいJobを生成する。
func NewJob(sessions, states ExpiredDeleter, logger *slog.Logger) *Job {
	return &Job{
		sessions: sessions,
		states:   states,
		logger:   logger,
	}
}

// Run は期限切れレコードを1回分削除する。
// 削除対象がない場合もエラーにはならない。
func (j *Job) Run(ctx context.Context) error {
	start := time.Now()

	deletedSessions, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("failed to delete expired sessions",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("session cleanup failed: %w", err)
	}

	deletedStates, err := j.states.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("failed to delete expired oauth states",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("oauth state cleanup failed: %w", err)
	}

	j.logger.Info("cleanup job completed",
		slog.Int64("deleted_sessions", deletedSessions),
		slog.Int64("deleted_states", deletedStates),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// Start は指定間隔でRunを繰り返す。ctxのキャンセルで停止する。
// 起動直後にも1回実行する。
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	if err := j.Run(ctx); err != nil {
		j.logger.Error("cleanup job failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("cleanup job failed", slog.String("error", err.Error()))
			}
		}
	}
}
