package notify

import (
	"errors"
	"fmt"
	"log/slog"

	"ArxivDigest/internal/config"
	"ArxivDigest/internal/ports"
)

// ErrNoChannel is the fatal configuration error raised when neither
// webhook is configured. It is checked before any network call.
var ErrNoChannel = errors.New("no notification channel configured")

// ChunkFailure records one failed chunk dispatch.
type ChunkFailure struct {
	Index int
	Err   error
}

// DispatchError reports partial delivery: some chunks failed while
// the rest were sent. Already-sent chunks are never re-attempted.
type DispatchError struct {
	Channel  string
	Total    int
	Failures []ChunkFailure
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s dispatch: %d of %d chunks failed", e.Channel, len(e.Failures), e.Total)
}

// Select picks exactly one channel from configuration: a configured
// WeChat webhook wins over Feishu even when both are present.
func Select(cfg config.NotifyConfig, query string, logger *slog.Logger) (ports.Notifier, error) {
	switch {
	case cfg.WeChat.WebhookURL != "":
		return NewWeChatNotifier(cfg.WeChat, cfg.Title, query, logger), nil
	case cfg.Feishu.WebhookURL != "":
		return NewFeishuNotifier(cfg.Feishu, cfg.Title, query), nil
	default:
		return nil, ErrNoChannel
	}
}
