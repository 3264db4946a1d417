package assembler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matheusdonha/cheftesteagente/internal/history"
	"github.com/matheusdonha/cheftesteagente/internal/media"
	"github.com/matheusdonha/cheftesteagente/internal/telegram"
)

type fakeResolver struct {
	url string
	err error
}

func (f *fakeResolver) FileURL(string) (string, error) { return f.url, f.err }

type fakeStager struct {
	dir  string
	err  error
	last string
}

func (f *fakeStager) Download(_ context.Context, _ string, pattern string) (*media.StagedFile, error) {
	if f.err != nil {
		return nil, f.err
	}
	tmp, err := os.CreateTemp(f.dir, pattern)
	if err != nil {
		return nil, err
	}
	tmp.Close()
	f.last = tmp.Name()
	return &media.StagedFile{Path: tmp.Name()}, nil
}

type fakeUploader struct {
	url  string
	err  error
	name string
}

func (f *fakeUploader) Upload(_ context.Context, _, remoteName, _ string) (string, error) {
	f.name = remoteName
	return f.url, f.err
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(context.Context, string) (string, error) {
	return f.text, f.err
}

type fakeNotifier struct {
	sent []string
}

func (f *fakeNotifier) SendMessage(_ int64, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

func TestAssembleText(t *testing.T) {
	a := New(nil, nil, nil, nil, &fakeNotifier{}, nil)
	content, ok := a.Assemble(context.Background(), telegram.Event{Kind: telegram.EventText, ChatID: 42, Text: "oi"})
	if !ok {
		t.Fatalf("ok = false for text event")
	}
	if content.Multimodal() || content.Text != "oi" {
		t.Fatalf("content = %+v", content)
	}
}

func TestAssemblePhotoBuildsMultimodalTurn(t *testing.T) {
	stager := &fakeStager{dir: t.TempDir()}
	uploader := &fakeUploader{url: "https://cdn.example.com/images/42_x.jpg"}
	notifier := &fakeNotifier{}
	a := New(&fakeResolver{url: "https://tg.example.com/f/abc"}, stager, uploader, nil, notifier, nil)

	ev := telegram.Event{Kind: telegram.EventPhoto, ChatID: 42, Text: "minha geladeira", FileID: "abc"}
	content, ok := a.Assemble(context.Background(), ev)
	if !ok {
		t.Fatalf("ok = false, notices = %v", notifier.sent)
	}
	if len(content.Parts) != 2 {
		t.Fatalf("parts = %+v", content.Parts)
	}
	if content.Parts[0].Type != history.PartText || content.Parts[0].Text != "minha geladeira" {
		t.Fatalf("caption part = %+v", content.Parts[0])
	}
	if content.Parts[1].Type != history.PartImageURL || content.Parts[1].URL != uploader.url {
		t.Fatalf("image part = %+v", content.Parts[1])
	}
	if !strings.HasPrefix(uploader.name, "42_") || !strings.HasSuffix(uploader.name, ".jpg") {
		t.Fatalf("remote name = %q", uploader.name)
	}
	if _, err := os.Stat(stager.last); !os.IsNotExist(err) {
		t.Fatalf("staged file not cleaned up: %v", err)
	}
}

func TestAssemblePhotoWithoutCaption(t *testing.T) {
	stager := &fakeStager{dir: t.TempDir()}
	uploader := &fakeUploader{url: "https://cdn.example.com/images/42_x.jpg"}
	a := New(&fakeResolver{url: "https://tg.example.com/f/abc"}, stager, uploader, nil, &fakeNotifier{}, nil)

	content, ok := a.Assemble(context.Background(), telegram.Event{Kind: telegram.EventPhoto, ChatID: 42, FileID: "abc"})
	if !ok {
		t.Fatalf("ok = false")
	}
	if len(content.Parts) != 1 || content.Parts[0].Type != history.PartImageURL {
		t.Fatalf("parts = %+v", content.Parts)
	}
}

func TestAssemblePhotoUploadFailureNotifiesAndCleansUp(t *testing.T) {
	stager := &fakeStager{dir: t.TempDir()}
	uploader := &fakeUploader{err: errors.New("bucket rejected")}
	notifier := &fakeNotifier{}
	a := New(&fakeResolver{url: "https://tg.example.com/f/abc"}, stager, uploader, nil, notifier, nil)

	_, ok := a.Assemble(context.Background(), telegram.Event{Kind: telegram.EventPhoto, ChatID: 42, FileID: "abc"})
	if ok {
		t.Fatalf("ok = true after upload failure")
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != NoticeUploadFail {
		t.Fatalf("notices = %v", notifier.sent)
	}
	if _, err := os.Stat(stager.last); !os.IsNotExist(err) {
		t.Fatalf("staged file not cleaned up after failure: %v", err)
	}
}

func TestAssemblePhotoDownloadFailureNotifies(t *testing.T) {
	notifier := &fakeNotifier{}
	a := New(&fakeResolver{url: "https://tg.example.com/f/abc"}, &fakeStager{err: media.ErrTransfer}, &fakeUploader{}, nil, notifier, nil)

	_, ok := a.Assemble(context.Background(), telegram.Event{Kind: telegram.EventPhoto, ChatID: 42, FileID: "abc"})
	if ok {
		t.Fatalf("ok = true after download failure")
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != NoticeDownloadFail {
		t.Fatalf("notices = %v", notifier.sent)
	}
}

func TestAssemblePhotoMediaDisabled(t *testing.T) {
	notifier := &fakeNotifier{}
	a := New(&fakeResolver{}, &fakeStager{dir: t.TempDir()}, nil, nil, notifier, nil)

	_, ok := a.Assemble(context.Background(), telegram.Event{Kind: telegram.EventPhoto, ChatID: 42, FileID: "abc"})
	if ok {
		t.Fatalf("ok = true with media disabled")
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != NoticeMediaDisabled {
		t.Fatalf("notices = %v", notifier.sent)
	}
}

func TestAssembleVoiceProducesTranscriptTurn(t *testing.T) {
	stager := &fakeStager{dir: t.TempDir()}
	a := New(&fakeResolver{url: "https://tg.example.com/f/v1"}, stager, nil, &fakeTranscriber{text: "quero fazer um bolo"}, &fakeNotifier{}, nil)

	content, ok := a.Assemble(context.Background(), telegram.Event{Kind: telegram.EventVoice, ChatID: 7, FileID: "v1"})
	if !ok {
		t.Fatalf("ok = false")
	}
	if content.Multimodal() || content.Text != "quero fazer um bolo" {
		t.Fatalf("content = %+v", content)
	}
	if _, err := os.Stat(stager.last); !os.IsNotExist(err) {
		t.Fatalf("staged audio not cleaned up: %v", err)
	}
	if !strings.Contains(filepath.Base(stager.last), "voice-") {
		t.Fatalf("staged name = %q", stager.last)
	}
}

func TestAssembleVoiceTranscriptionFailure(t *testing.T) {
	notifier := &fakeNotifier{}
	a := New(&fakeResolver{url: "https://tg.example.com/f/v1"}, &fakeStager{dir: t.TempDir()}, nil, &fakeTranscriber{err: errors.New("api down")}, notifier, nil)

	_, ok := a.Assemble(context.Background(), telegram.Event{Kind: telegram.EventVoice, ChatID: 7, FileID: "v1"})
	if ok {
		t.Fatalf("ok = true after transcription failure")
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != NoticeVoiceFail {
		t.Fatalf("notices = %v", notifier.sent)
	}
}

func TestAssembleUnsupportedNotifiesWithoutTurn(t *testing.T) {
	notifier := &fakeNotifier{}
	a := New(nil, nil, nil, nil, notifier, nil)

	_, ok := a.Assemble(context.Background(), telegram.Event{Kind: telegram.EventUnsupported, ChatID: 9})
	if ok {
		t.Fatalf("ok = true for unsupported event")
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != NoticeUnsupported {
		t.Fatalf("notices = %v", notifier.sent)
	}
}
