// Package cleanup は期限切れセッションの定期削除ジョブを提供する。
// 読み込み時にも期限は判定されるため、このジョブはテーブルの肥大化を防ぐだけで
// 正しさには影響しない。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/darave/studio/internal/metrics"
)

// SessionPurger は期限切れセッションの一括削除を抽象化するインターフェース。
type SessionPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CleanupJob は期限切れセッションを削除するジョブ。
// 冪等であり、削除対象がなくてもエラーにならない。
type CleanupJob struct {
	sessions SessionPurger
	logger   *slog.Logger
	metrics  metrics.MetricsCollector
	Timeout  time.Duration // 1回の実行の上限時間（デフォルト: 30秒）
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(sessions SessionPurger, logger *slog.Logger, collector metrics.MetricsCollector) *CleanupJob {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &CleanupJob{
		sessions: sessions,
		logger:   logger,
		metrics:  collector,
		Timeout:  30 * time.Second,
	}
}

// Run は期限切れセッションを1回削除する。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, j.Timeout)
	defer cancel()

	deleted, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}
	j.metrics.RecordSessionsPurged(deleted)

	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deleted),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// Schedule はinterval間隔でRunを実行するgocronスケジューラを起動する。
// 起動直後に1回実行し、前回の実行が終わっていない場合はその回をスキップする。
// 停止は呼び出し側がShutdownで行う。
func (j *CleanupJob) Schedule(ctx context.Context, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLogger(j.logger))
	if err != nil {
		return nil, fmt.Errorf("スケジューラの生成に失敗: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			// エラーはRun内でログ出力済み
			_ = j.Run(ctx)
		}),
		gocron.WithName("session-cleanup"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("クリーンアップジョブの登録に失敗: %w", err)
	}

	sched.Start()
	j.logger.Info("セッションクリーンアップスケジューラを開始しました",
		slog.Duration("interval", interval),
	)
	return sched, nil
}

// Start はctxがキャンセルされるまでスケジューラを動かし、停止後に戻る。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) error {
	sched, err := j.Schedule(ctx, interval)
	if err != nil {
		return err
	}

	<-ctx.Done()
	if err := sched.Shutdown(); err != nil {
		return fmt.Errorf("スケジューラの停止に失敗: %w", err)
	}
	j.logger.Info("セッションクリーンアップスケジューラを停止しました")
	return nil
}
