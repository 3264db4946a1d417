package history

import (
	"encoding/json"
	"fmt"
)

const (
	PartText     = "text"
	PartImageURL = "image_url"
)

// Part is one element of a multimodal turn: either a text fragment or a
// reference to a durably stored image.
type Part struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Content is the tagged payload of a turn: plain text or an ordered sequence
// of multimodal parts. Exactly one shape is populated.
type Content struct {
	Text  string
	Parts []Part
}

func TextContent(text string) Content {
	return Content{Text: text}
}

func PartsContent(parts ...Part) Content {
	return Content{Parts: parts}
}

// Multimodal reports whether the content carries structured parts.
func (c Content) Multimodal() bool {
	return len(c.Parts) > 0
}

// PlainText returns the textual rendering of the content: the raw string for
// text turns, the concatenated text parts for multimodal turns.
func (c Content) PlainText() string {
	if !c.Multimodal() {
		return c.Text
	}
	out := ""
	for _, p := range c.Parts {
		if p.Type == PartText {
			if out != "" {
				out += " "
			}
			out += p.Text
		}
	}
	return out
}

// envelope is the stored representation. Scalar text is wrapped so that both
// shapes live in the same JSONB column; decoding unwraps it again, so a text
// turn round-trips to an identical string.
type envelope struct {
	Content json.RawMessage `json:"content"`
}

// MarshalJSON encodes the content into its storage envelope.
func (c Content) MarshalJSON() ([]byte, error) {
	var inner any
	if c.Multimodal() {
		inner = c.Parts
	} else {
		inner = c.Text
	}
	raw, err := json.Marshal(inner)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Content: raw})
}

// UnmarshalJSON decodes a storage envelope back into the tagged variant.
// Unwrapped scalars and bare part arrays are accepted too, so rows written
// before the envelope existed still load.
func (c *Content) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && env.Content != nil {
		data = env.Content
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*c = Content{Text: text}
		return nil
	}

	var parts []Part
	if err := json.Unmarshal(data, &parts); err == nil {
		*c = Content{Parts: parts}
		return nil
	}

	return fmt.Errorf("history: unrecognized content shape %q", string(data))
}
