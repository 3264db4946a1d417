// Package telegram wraps the bot API: decoding webhook updates into inbound
// events, resolving transient file URLs, and pushing replies to a chat.
package telegram

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxMessageLength is the platform cap on one outbound text message.
const maxMessageLength = 4096

var (
	// ErrDelivery marks a rejected or failed outbound push. Callers log it;
	// there is no automatic retry.
	ErrDelivery = errors.New("telegram: delivery failed")
	// ErrFileNotFound marks a file id the platform reports unknown or expired.
	ErrFileNotFound = errors.New("telegram: file not found")
)

// Client is a thin wrapper over one bot token.
type Client struct {
	bot *tgbotapi.BotAPI
}

func NewClient(token string) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Client{bot: bot}, nil
}

// SendMessage pushes text to a chat, splitting at the platform cap.
func (c *Client) SendMessage(chatID int64, text string) error {
	for _, chunk := range splitMessage(text, maxMessageLength) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		if _, err := c.bot.Send(msg); err != nil {
			return fmt.Errorf("%w: chat %d: %v", ErrDelivery, chatID, err)
		}
	}
	return nil
}

// FileURL resolves a platform file id to a fetchable (transient) URL.
func (c *Client) FileURL(fileID string) (string, error) {
	url, err := c.bot.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFileNotFound, fileID, err)
	}
	return url, nil
}

// splitMessage cuts text into rune-bounded chunks of at most limit runes,
// preferring to break at a newline near the limit.
func splitMessage(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i > limit/2; i-- {
			if runes[i] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, strings.TrimSpace(string(runes[:cut])))
		runes = runes[cut:]
	}
	if rest := strings.TrimSpace(string(runes)); rest != "" {
		chunks = append(chunks, rest)
	}
	return chunks
}
