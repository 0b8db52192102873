package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ArxivDigest/internal/config"
	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
)

// WeChatNotifier posts the digest to a WeChat Work group-robot
// webhook as Markdown messages, chunked at match boundaries.
type WeChatNotifier struct {
	webhookURL string
	chunkLimit int
	title      string
	query      string
	client     *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

var _ ports.Notifier = (*WeChatNotifier)(nil)

// NewWeChatNotifier wires the webhook from configuration.
func NewWeChatNotifier(cfg config.WeChatConfig, title, query string, logger *slog.Logger) *WeChatNotifier {
	return &WeChatNotifier{
		webhookURL: cfg.WebhookURL,
		chunkLimit: cfg.ChunkLimit,
		title:      title,
		query:      query,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		now:        time.Now,
	}
}

// Name identifies the channel.
func (n *WeChatNotifier) Name() string {
	return "wechat"
}

// Notify formats the digest, splits it into ordered chunks, and
// dispatches them in sequence. Each chunk is attempted at most once;
// a failed chunk is recorded and the remaining chunks still go out.
// The returned DispatchError summarizes any per-chunk failures.
func (n *WeChatNotifier) Notify(ctx context.Context, matches []domain.PaperMatch) error {
	if n.webhookURL == "" {
		return fmt.Errorf("wechat notifier misconfigured")
	}

	blocks := BuildBlocks(n.title, n.query, matches, n.now())
	chunks := SplitChunks(blocks, n.chunkLimit)

	dispatch := &DispatchError{Channel: n.Name(), Total: len(chunks)}
	for i, chunk := range chunks {
		if err := n.sendChunk(ctx, chunk); err != nil {
			n.warn("chunk dispatch failed", "chunk", i+1, "total", len(chunks), "error", err)
			dispatch.Failures = append(dispatch.Failures, ChunkFailure{Index: i, Err: err})
			continue
		}
		n.debug("chunk dispatched", "chunk", i+1, "total", len(chunks), "size", len(chunk))
	}

	if len(dispatch.Failures) > 0 {
		return dispatch
	}
	return nil
}

type wechatResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func (n *WeChatNotifier) sendChunk(ctx context.Context, content string) error {
	body, err := json.Marshal(map[string]any{
		"msgtype": "markdown",
		"markdown": map[string]string{
			"content": content,
		},
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("wechat returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var parsed wechatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if parsed.ErrCode != 0 {
		return fmt.Errorf("wechat error %d: %s", parsed.ErrCode, parsed.ErrMsg)
	}
	return nil
}

func (n *WeChatNotifier) warn(msg string, args ...any) {
	if n.logger != nil {
		n.logger.Warn(msg, args...)
	}
}

func (n *WeChatNotifier) debug(msg string, args ...any) {
	if n.logger != nil {
		n.logger.Debug(msg, args...)
	}
}
