// Package cleanup は期限切れセッションの自動削除ジョブを提供する。
// 有効期限を超過したsessionsレコードを定期バッチで削除し、
// セッションテーブルの肥大化を防ぐ。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/wedplan/internal/repository"
)

// SessionCleaner は期限切れセッションの削除に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionCleaner interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CleanupJob は期限切れセッションの自動削除ジョブ。
// 定期実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	sessions SessionCleaner
	logger   *slog.Logger
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(sessions SessionCleaner, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		sessions: sessions,
		logger:   logger,
	}
}

// Run は期限切れセッションを削除し、実行結果の統計を返す。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) (*repository.CleanupStats, error) {
	stats := &repository.CleanupStats{StartedAt: time.Now()}

	deleted, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	stats.ExpiredSessions = deleted
	stats.FinishedAt = time.Now()

	duration := stats.FinishedAt.Sub(stats.StartedAt)
	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deleted),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return stats, nil
}

// RunPeriodic は指定間隔でクリーンアップを繰り返し実行する。
// コンテキストのキャンセルで停止する。起動直後にも1回実行する。
func (j *CleanupJob) RunPeriodic(ctx context.Context, interval time.Duration) {
	if _, err := j.Run(ctx); err != nil {
		j.logger.Error("初回クリーンアップに失敗しました", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := j.Run(ctx); err != nil {
				j.logger.Error("定期クリーンアップに失敗しました", slog.String("error", err.Error()))
			}
		case <-ctx.Done():
			j.logger.Info("クリーンアップワーカーを停止します")
			return
		}
	}
}
