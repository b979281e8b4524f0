package cleanup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

// --- モック ---

type mockSessionCleaner struct {
	deleteExpiredFn func(ctx context.Context) (int64, error)
	calls           atomic.Int32
}

func (m *mockSessionCleaner) DeleteExpired(ctx context.Context) (int64, error) {
	m.calls.Add(1)
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx)
	}
	return 0, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// --- テスト ---

// 期限切れセッションが削除され、統計が返ることを検証
func TestCleanupJob_Run(t *testing.T) {
	cleaner := &mockSessionCleaner{
		deleteExpiredFn: func(ctx context.Context) (int64, error) {
			return 7, nil
		},
	}
	job := NewCleanupJob(cleaner, testLogger())

	stats, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if stats.ExpiredSessions != 7 {
		t.Errorf("ExpiredSessions = %d, want 7", stats.ExpiredSessions)
	}
	if stats.FinishedAt.Before(stats.StartedAt) {
		t.Error("FinishedAt must not precede StartedAt")
	}
}

// 削除対象がなくてもエラーにならないことを検証（冪等）
func TestCleanupJob_Run_NothingToDelete(t *testing.T) {
	job := NewCleanupJob(&mockSessionCleaner{}, testLogger())

	stats, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if stats.ExpiredSessions != 0 {
		t.Errorf("ExpiredSessions = %d, want 0", stats.ExpiredSessions)
	}
}

// 削除失敗がエラーとして返ることを検証
func TestCleanupJob_Run_Error(t *testing.T) {
	cleaner := &mockSessionCleaner{
		deleteExpiredFn: func(ctx context.Context) (int64, error) {
			return 0, errors.New("db down")
		},
	}
	job := NewCleanupJob(cleaner, testLogger())

	if _, err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error from failed cleanup")
	}
}

// 定期実行がコンテキストのキャンセルで停止することを検証
func TestCleanupJob_RunPeriodic_StopsOnCancel(t *testing.T) {
	cleaner := &mockSessionCleaner{}
	job := NewCleanupJob(cleaner, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		job.RunPeriodic(ctx, time.Hour)
	}()

	// 起動直後の1回が実行されるのを待ってからキャンセル
	deadline := time.After(time.Second)
	for cleaner.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("initial cleanup was not executed")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunPeriodic did not stop after context cancellation")
	}
}
