package telegram

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// EventKind classifies an inbound webhook update.
type EventKind string

const (
	EventText        EventKind = "text"
	EventPhoto       EventKind = "photo"
	EventVoice       EventKind = "voice"
	EventUnsupported EventKind = "unsupported"
	// EventNone is an update that carries nothing to handle (edits, channel
	// posts, service messages without content).
	EventNone EventKind = "none"
)

// Event is the normalized view of one webhook update.
type Event struct {
	Kind   EventKind
	ChatID int64
	// Text holds the message text, or the caption for media messages.
	Text string
	// FileID references the photo (highest resolution) or voice note.
	FileID string
}

// UserID is the history key for the originating chat.
func (e Event) UserID() string {
	return strconv.FormatInt(e.ChatID, 10)
}

// ParseUpdate decodes a webhook request body into an Event.
func ParseUpdate(body []byte) (Event, error) {
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return Event{}, fmt.Errorf("decode update: %w", err)
	}
	return ClassifyMessage(update.Message), nil
}

// ClassifyMessage maps a platform message onto an Event.
func ClassifyMessage(msg *tgbotapi.Message) Event {
	if msg == nil || msg.Chat == nil {
		return Event{Kind: EventNone}
	}

	ev := Event{ChatID: msg.Chat.ID}
	text := strings.TrimSpace(msg.Text)
	caption := strings.TrimSpace(msg.Caption)

	switch {
	case len(msg.Photo) > 0:
		ev.Kind = EventPhoto
		ev.Text = caption
		ev.FileID = largestPhoto(msg.Photo).FileID
	case msg.Voice != nil:
		ev.Kind = EventVoice
		ev.FileID = msg.Voice.FileID
	case msg.Audio != nil:
		ev.Kind = EventVoice
		ev.FileID = msg.Audio.FileID
	case msg.Video != nil, msg.VideoNote != nil, msg.Document != nil, msg.Sticker != nil:
		ev.Kind = EventUnsupported
	case text != "":
		ev.Kind = EventText
		ev.Text = text
	default:
		ev.Kind = EventNone
	}
	return ev
}

// largestPhoto picks the highest-resolution variant the platform offered.
func largestPhoto(sizes []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height > best.Width*best.Height {
			best = s
		}
	}
	return best
}
