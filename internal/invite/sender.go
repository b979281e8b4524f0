// Package invite はパートナー招待の送信を抽象化する。
package invite

import (
	"context"
	"log/slog"
)

// Sender はパートナー招待の送信インターフェース。
type Sender interface {
	// SendInvitation は指定メールアドレスへ招待を送信する。
	SendInvitation(ctx context.Context, email, coupleName string) error
}

// LogSender は招待をログへ記録するだけのSender。
// メール配送基盤が未接続の環境向けのスタブで、送信は常に成功扱いになる。
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender はLogSenderを生成する。loggerがnilの場合は既定のロガーを使う。
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// SendInvitation は招待内容をINFOレベルでログに記録する。
func (s *LogSender) SendInvitation(ctx context.Context, email, coupleName string) error {
	s.logger.InfoContext(ctx, "partner invitation requested",
		slog.String("email", email),
		slog.String("couple_name", coupleName),
	)
	return nil
}

// compile-time interface check
var _ Sender = (*LogSender)(nil)
