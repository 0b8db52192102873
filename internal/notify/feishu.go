package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ArxivDigest/internal/config"
	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
)

// FeishuNotifier posts the digest to a Feishu custom-bot webhook as a
// single interactive card per run.
type FeishuNotifier struct {
	webhookURL     string
	headerTemplate string
	title          string
	query          string
	client         *http.Client
	now            func() time.Time
}

var _ ports.Notifier = (*FeishuNotifier)(nil)

// NewFeishuNotifier wires the webhook from configuration.
func NewFeishuNotifier(cfg config.FeishuConfig, title, query string) *FeishuNotifier {
	template := cfg.HeaderTemplate
	if template == "" {
		template = "turquoise"
	}
	return &FeishuNotifier{
		webhookURL:     cfg.WebhookURL,
		headerTemplate: template,
		title:          title,
		query:          query,
		client:         &http.Client{Timeout: 10 * time.Second},
		now:            time.Now,
	}
}

// Name identifies the channel.
func (n *FeishuNotifier) Name() string {
	return "feishu"
}

// Notify builds and sends the card payload.
func (n *FeishuNotifier) Notify(ctx context.Context, matches []domain.PaperMatch) error {
	if n.webhookURL == "" {
		return fmt.Errorf("feishu notifier misconfigured")
	}

	body, err := json.Marshal(n.buildCard(matches))
	if err != nil {
		return fmt.Errorf("marshal card: %w", err)
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
		return fmt.Errorf("feishu returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var parsed struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if parsed.Code != 0 {
		return fmt.Errorf("feishu error %d: %s", parsed.Code, parsed.Msg)
	}
	return nil
}

func (n *FeishuNotifier) buildCard(matches []domain.PaperMatch) map[string]any {
	subtitle := fmt.Sprintf("%s · query `%s` · **%d** matching papers",
		n.now().Format("2006-01-02"), n.query, len(matches))

	elements := []map[string]any{markdownDiv(subtitle)}
	if len(matches) == 0 {
		elements = append(elements, map[string]any{"tag": "hr"}, markdownDiv("No new matching papers today."))
	}
	for i, match := range matches {
		elements = append(elements, map[string]any{"tag": "hr"}, markdownDiv(matchMarkdown(i+1, match)))
	}

	return map[string]any{
		"msg_type": "interactive",
		"card": map[string]any{
			"header": map[string]any{
				"title": map[string]any{
					"tag":     "plain_text",
					"content": n.title,
				},
				"template": n.headerTemplate,
			},
			"elements": elements,
		},
	}
}

func markdownDiv(content string) map[string]any {
	return map[string]any{
		"tag": "div",
		"text": map[string]any{
			"tag":     "lark_md",
			"content": content,
		},
	}
}
