// Package assembler turns raw inbound platform events into normalized
// conversation turns, staging and uploading media on the way.
package assembler

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/matheusdonha/cheftesteagente/internal/history"
	"github.com/matheusdonha/cheftesteagente/internal/media"
	"github.com/matheusdonha/cheftesteagente/internal/observability"
	"github.com/matheusdonha/cheftesteagente/internal/telegram"
)

// User-facing notices for paths that never reach the orchestrator. The user
// gets a short apology, never a raw error.
const (
	NoticeUnsupported   = "Desculpe, ainda não consigo processar esse tipo de mensagem. Me mande texto, foto ou mensagem de voz."
	NoticeMediaDisabled = "Desculpe, o envio de imagens está desativado no momento. Me mande uma mensagem de texto."
	NoticeDownloadFail  = "Desculpe, não consegui baixar seu arquivo. Pode tentar enviar de novo?"
	NoticeUploadFail    = "Desculpe, não consegui guardar sua imagem. Tente novamente em instantes."
	NoticeVoiceFail     = "Desculpe, não consegui entender sua mensagem de voz. Pode escrever?"
)

// FileResolver resolves a platform file id to a transient fetchable URL.
type FileResolver interface {
	FileURL(fileID string) (string, error)
}

// Downloader stages a remote resource into a scoped temporary file.
type Downloader interface {
	Download(ctx context.Context, url, pattern string) (*media.StagedFile, error)
}

// Uploader pushes a staged file to durable storage and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, localPath, remoteName, contentType string) (string, error)
}

// Transcriber turns a staged audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Notifier delivers a direct notice to the originating chat.
type Notifier interface {
	SendMessage(chatID int64, text string) error
}

// Assembler normalizes inbound events. A nil Uploader disables image events,
// a nil Transcriber disables voice events; text chat is unaffected.
type Assembler struct {
	files       FileResolver
	stager      Downloader
	uploader    Uploader
	transcriber Transcriber
	notifier    Notifier
	metrics     *observability.Metrics
}

func New(files FileResolver, stager Downloader, uploader Uploader, transcriber Transcriber, notifier Notifier, metrics *observability.Metrics) *Assembler {
	return &Assembler{
		files:       files,
		stager:      stager,
		uploader:    uploader,
		transcriber: transcriber,
		notifier:    notifier,
		metrics:     metrics,
	}
}

// Assemble converts one event into the content of a user turn. ok reports
// whether the exchange should proceed; when false the assembler has already
// notified the user (or the event carried nothing) and history must stay
// untouched.
func (a *Assembler) Assemble(ctx context.Context, ev telegram.Event) (content history.Content, ok bool) {
	switch ev.Kind {
	case telegram.EventText:
		return history.TextContent(ev.Text), true
	case telegram.EventPhoto:
		return a.assemblePhoto(ctx, ev)
	case telegram.EventVoice:
		return a.assembleVoice(ctx, ev)
	case telegram.EventUnsupported:
		a.notify(ev.ChatID, NoticeUnsupported)
		return history.Content{}, false
	default:
		return history.Content{}, false
	}
}

func (a *Assembler) assemblePhoto(ctx context.Context, ev telegram.Event) (history.Content, bool) {
	if a.uploader == nil {
		a.notify(ev.ChatID, NoticeMediaDisabled)
		return history.Content{}, false
	}

	url, err := a.files.FileURL(ev.FileID)
	if err != nil {
		log.Printf("photo resolve failed for chat %d: %v", ev.ChatID, err)
		a.observeMedia("photo", "resolve_error")
		a.notify(ev.ChatID, NoticeDownloadFail)
		return history.Content{}, false
	}

	staged, err := a.stager.Download(ctx, url, "photo-*.jpg")
	if err != nil {
		log.Printf("photo download failed for chat %d: %v", ev.ChatID, err)
		a.observeMedia("photo", "download_error")
		a.notify(ev.ChatID, NoticeDownloadFail)
		return history.Content{}, false
	}
	defer staged.Remove()

	remoteName := fmt.Sprintf("%s_%s.jpg", ev.UserID(), uuid.NewString())
	publicURL, err := a.uploader.Upload(ctx, staged.Path, remoteName, "image/jpeg")
	if err != nil {
		log.Printf("photo upload failed for chat %d: %v", ev.ChatID, err)
		a.observeMedia("photo", "upload_error")
		a.notify(ev.ChatID, NoticeUploadFail)
		return history.Content{}, false
	}
	a.observeMedia("photo", "ok")

	// The turn references the durable public URL; the platform URL expires.
	parts := make([]history.Part, 0, 2)
	if ev.Text != "" {
		parts = append(parts, history.Part{Type: history.PartText, Text: ev.Text})
	}
	parts = append(parts, history.Part{Type: history.PartImageURL, URL: publicURL})
	return history.PartsContent(parts...), true
}

func (a *Assembler) assembleVoice(ctx context.Context, ev telegram.Event) (history.Content, bool) {
	if a.transcriber == nil {
		a.notify(ev.ChatID, NoticeUnsupported)
		return history.Content{}, false
	}

	url, err := a.files.FileURL(ev.FileID)
	if err != nil {
		log.Printf("voice resolve failed for chat %d: %v", ev.ChatID, err)
		a.observeMedia("voice", "resolve_error")
		a.notify(ev.ChatID, NoticeDownloadFail)
		return history.Content{}, false
	}

	staged, err := a.stager.Download(ctx, url, "voice-*.oga")
	if err != nil {
		log.Printf("voice download failed for chat %d: %v", ev.ChatID, err)
		a.observeMedia("voice", "download_error")
		a.notify(ev.ChatID, NoticeDownloadFail)
		return history.Content{}, false
	}
	defer staged.Remove()

	transcript, err := a.transcriber.Transcribe(ctx, staged.Path)
	if err != nil || transcript == "" {
		log.Printf("voice transcription failed for chat %d: %v", ev.ChatID, err)
		a.observeMedia("voice", "transcribe_error")
		a.notify(ev.ChatID, NoticeVoiceFail)
		return history.Content{}, false
	}
	a.observeMedia("voice", "ok")

	// Only the transcript enters history; the audio itself is not retained.
	return history.TextContent(transcript), true
}

func (a *Assembler) notify(chatID int64, text string) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.SendMessage(chatID, text); err != nil {
		log.Printf("notice delivery failed for chat %d: %v", chatID, err)
	}
}

func (a *Assembler) observeMedia(kind, outcome string) {
	if a.metrics != nil {
		a.metrics.MediaEvents.WithLabelValues(kind, outcome).Inc()
	}
}
