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

	"github.com/Jahvion/ControlDeJavi/internal/logging"
)

// Notifier delivers a text message to the configured channel. Send reports
// success; it never panics or propagates errors — delivery problems are
// logged and reduced to false so callers can fail closed.
type Notifier interface {
	Send(ctx context.Context, text string) bool
}

// NopNotifier discards messages and reports success. Used in tests and when
// notifications are disabled.
type NopNotifier struct{}

// Send is a no-op.
func (NopNotifier) Send(context.Context, string) bool { return true }

const (
	defaultBaseURL = "https://api.telegram.org"
	sendTimeout    = 10 * time.Second
)

// TelegramNotifier sends messages through the Telegram Bot API.
type TelegramNotifier struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
	logger  logging.Logger
}

// NewTelegramNotifier builds a notifier for the given bot credentials.
// Empty credentials are allowed; Send then always returns false.
func NewTelegramNotifier(token, chatID string, logger logging.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		token:   strings.TrimSpace(token),
		chatID:  strings.TrimSpace(chatID),
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: sendTimeout},
		logger:  logging.OrNop(logger),
	}
}

// WithBaseURL points the notifier at an alternate API host. Tests use this
// to target an httptest server.
func (n *TelegramNotifier) WithBaseURL(baseURL string) *TelegramNotifier {
	n.baseURL = strings.TrimRight(baseURL, "/")
	return n
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts the text to the configured chat. Missing credentials, transport
// errors, non-2xx statuses and API-level rejections all return false.
func (n *TelegramNotifier) Send(ctx context.Context, text string) bool {
	if n.token == "" || n.chatID == "" {
		n.logger.Warn("telegram credentials missing; dropping notification")
		return false
	}
	if ctx == nil {
		ctx = context.Background()
	}

	payload, err := json.Marshal(sendMessageRequest{
		ChatID:                n.chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		n.logger.Error("telegram payload encode failed: %v", err)
		return false
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		n.logger.Error("telegram request build failed: %v", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("telegram send failed: %v", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Warn("telegram send rejected: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
		return false
	}

	var parsed sendMessageResponse
	if err := json.Unmarshal(body, &parsed); err == nil && !parsed.OK {
		n.logger.Warn("telegram API error: %s", parsed.Description)
		return false
	}

	n.logger.Debug("telegram message delivered (%d bytes)", len(text))
	return true
}
