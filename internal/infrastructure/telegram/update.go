package telegram

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"DailyCast/internal/domain"
)

// SecretHeader carries the webhook secret configured with setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Update is the subset of a Telegram webhook update the concierge reads.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an inbound chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// Chat identifies the conversation a message came from.
type Chat struct {
	ID int64 `json:"id"`
}

// ParseUpdate decodes a webhook body. ok is false for updates that carry
// no text message (edits, joins, stickers), which are acknowledged and ignored.
func ParseUpdate(body []byte) (cmd domain.OperatorCommand, ok bool, err error) {
	var upd Update
	if err := json.Unmarshal(body, &upd); err != nil {
		return domain.OperatorCommand{}, false, fmt.Errorf("decode telegram update: %w", err)
	}
	if upd.Message == nil || strings.TrimSpace(upd.Message.Text) == "" {
		return domain.OperatorCommand{}, false, nil
	}
	return domain.OperatorCommand{
		ChatID:    strconv.FormatInt(upd.Message.Chat.ID, 10),
		MessageID: upd.Message.MessageID,
		Text:      upd.Message.Text,
	}, true, nil
}

// ValidSecret compares the request header against the configured secret.
// An empty configured secret accepts every request.
func ValidSecret(configured, got string) bool {
	if configured == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(got)) == 1
}
