package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"DailyCast/internal/config"
	"DailyCast/internal/domain"
	"DailyCast/internal/ports"
	"DailyCast/internal/retry"
)

const defaultEndpoint = "https://api.telegram.org"

// Notifier sends messages to Telegram chats via the bot API.
type Notifier struct {
	endpoint string
	botToken string
	chatID   string
	policy   retry.Policy
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers the bot token and the default chat identifier.
func NewNotifier(cfg config.TelegramConfig, policy retry.Policy) *Notifier {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Notifier{
		endpoint: endpoint,
		botToken: strings.TrimSpace(cfg.BotToken),
		chatID:   strings.TrimSpace(cfg.ChatID),
		policy:   policy,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// DefaultChatID is the operator chat used when a message names none.
func (n *Notifier) DefaultChatID() string {
	return n.chatID
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage posts msg to its chat, or to the default chat when unset.
func (n *Notifier) SendMessage(ctx context.Context, msg domain.ChatMessage) error {
	chatID := strings.TrimSpace(msg.ChatID)
	if chatID == "" {
		chatID = n.chatID
	}
	if n.botToken == "" || chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.endpoint, n.botToken)
	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", msg.Text)
	if msg.Markdown {
		form.Set("parse_mode", "Markdown")
	}
	if msg.DisablePreview {
		form.Set("disable_web_page_preview", strconv.FormatBool(true))
	}
	encoded := form.Encode()

	return n.policy.Do(ctx, "telegram sendMessage", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(encoded))
		if err != nil {
			return fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := n.client.Do(req)
		if err != nil {
			// The URL embeds the bot token; keep it out of logs.
			return fmt.Errorf("telegram sendMessage: %w", redact(err, n.botToken))
		}
		defer resp.Body.Close()

		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if resp.StatusCode != http.StatusOK {
			return retry.NewStatusError("telegram sendMessage", resp, raw)
		}
		var parsed apiResponse
		if err := json.Unmarshal(raw, &parsed); err == nil && !parsed.OK {
			return fmt.Errorf("telegram error: %s", parsed.Description)
		}
		return nil
	})
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, secret string) error {
	if secret == "" {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), secret, "<token>"), err: err}
}
