package history

import (
	"encoding/json"
	"testing"
)

func TestTextContentRoundTrip(t *testing.T) {
	raw, err := json.Marshal(TextContent("hello"))
	if err != nil {
		t.Fatalf("marshal error = %v", err)
	}
	if string(raw) != `{"content":"hello"}` {
		t.Fatalf("stored form = %s, want envelope", raw)
	}

	var got Content
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal error = %v", err)
	}
	if got.Multimodal() {
		t.Fatalf("decoded content is multimodal, want text")
	}
	if got.Text != "hello" {
		t.Fatalf("decoded text = %q, want %q", got.Text, "hello")
	}
}

func TestMultimodalContentRoundTrip(t *testing.T) {
	in := PartsContent(
		Part{Type: PartText, Text: "olha essa foto"},
		Part{Type: PartImageURL, URL: "https://cdn.example.com/images/42_abc.jpg"},
	)

	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal error = %v", err)
	}

	var got Content
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal error = %v", err)
	}
	if !got.Multimodal() {
		t.Fatalf("decoded content is text, want parts")
	}
	if len(got.Parts) != 2 {
		t.Fatalf("decoded parts = %d, want 2", len(got.Parts))
	}
	if got.Parts[0] != in.Parts[0] || got.Parts[1] != in.Parts[1] {
		t.Fatalf("decoded parts = %+v, want %+v", got.Parts, in.Parts)
	}
}

func TestUnmarshalAcceptsBareShapes(t *testing.T) {
	var text Content
	if err := json.Unmarshal([]byte(`"oi"`), &text); err != nil {
		t.Fatalf("bare string error = %v", err)
	}
	if text.Text != "oi" {
		t.Fatalf("bare string text = %q, want %q", text.Text, "oi")
	}

	var parts Content
	if err := json.Unmarshal([]byte(`[{"type":"text","text":"oi"}]`), &parts); err != nil {
		t.Fatalf("bare array error = %v", err)
	}
	if len(parts.Parts) != 1 || parts.Parts[0].Text != "oi" {
		t.Fatalf("bare array parts = %+v", parts.Parts)
	}
}

func TestUnmarshalRejectsUnknownShape(t *testing.T) {
	var c Content
	if err := json.Unmarshal([]byte(`{"weird":1}`), &c); err == nil {
		t.Fatalf("expected error for unknown shape")
	}
}

func TestPlainText(t *testing.T) {
	if got := TextContent("oi").PlainText(); got != "oi" {
		t.Fatalf("text PlainText = %q", got)
	}
	c := PartsContent(
		Part{Type: PartText, Text: "uma"},
		Part{Type: PartImageURL, URL: "https://x/y.jpg"},
		Part{Type: PartText, Text: "foto"},
	)
	if got := c.PlainText(); got != "uma foto" {
		t.Fatalf("parts PlainText = %q, want %q", got, "uma foto")
	}
}
