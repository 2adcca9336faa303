// Package slack builds and delivers Block Kit webhook payloads.
//
// The block shapes and their size limits are a fixed contract of the chat
// platform; a limit violation is a validation error raised before delivery,
// never a webhook rejection.
package slack

import (
	"fmt"
	"unicode/utf8"
)

// Size limits imposed by the chat platform.
const (
	sectionTextMax = 3000
	contextElemMax = 10
	contextTextMax = 2000
	imageURLMax    = 3000
	imageAltMax    = 2000
)

// Message is the payload posted to the incoming webhook.
type Message struct {
	Text    string  `json:"text"`
	Blocks  []Block `json:"blocks"`
	Channel string  `json:"channel"`
}

// Validate checks every block against the platform's size limits.
func (m *Message) Validate() error {
	for i, b := range m.Blocks {
		if err := b.validate(); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
	}
	return nil
}

// Block is one layout block of a message. The set of implementations is
// closed: section, divider, image, and context.
type Block interface {
	validate() error
}

// TextObject is an inline text element, markdown or plain.
type TextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Mrkdwn returns a markdown text object.
func Mrkdwn(text string) *TextObject {
	return &TextObject{Type: "mrkdwn", Text: text}
}

// Plain returns a plain-text object.
func Plain(text string) *TextObject {
	return &TextObject{Type: "plain_text", Text: text}
}

func (t *TextObject) contextElement() {}

// SectionBlock is a single-text section.
type SectionBlock struct {
	Type string      `json:"type"`
	Text *TextObject `json:"text"`
}

// Section returns a section block wrapping the given text.
func Section(text *TextObject) *SectionBlock {
	return &SectionBlock{Type: "section", Text: text}
}

func (b *SectionBlock) validate() error {
	if b.Text == nil {
		return fmt.Errorf("section has no text")
	}
	if n := utf8.RuneCountInString(b.Text.Text); n > sectionTextMax {
		return fmt.Errorf("section text length %d exceeds %d", n, sectionTextMax)
	}
	return nil
}

// DividerBlock is a horizontal rule.
type DividerBlock struct {
	Type string `json:"type"`
}

// Divider returns a divider block.
func Divider() *DividerBlock {
	return &DividerBlock{Type: "divider"}
}

func (b *DividerBlock) validate() error { return nil }

// ImageBlock displays a standalone image.
type ImageBlock struct {
	Type     string `json:"type"`
	ImageURL string `json:"image_url"`
	AltText  string `json:"alt_text"`
}

// Image returns an image block.
func Image(url, alt string) *ImageBlock {
	return &ImageBlock{Type: "image", ImageURL: url, AltText: alt}
}

func (b *ImageBlock) validate() error {
	if n := utf8.RuneCountInString(b.ImageURL); n > imageURLMax {
		return fmt.Errorf("image url length %d exceeds %d", n, imageURLMax)
	}
	if n := utf8.RuneCountInString(b.AltText); n > imageAltMax {
		return fmt.Errorf("image alt text length %d exceeds %d", n, imageAltMax)
	}
	return nil
}

// ContextElement is an inline element of a context block: a text object or
// an image element.
type ContextElement interface {
	contextElement()
}

// ImageElement is an inline image inside a context block.
type ImageElement struct {
	Type     string `json:"type"`
	ImageURL string `json:"image_url"`
	AltText  string `json:"alt_text"`
}

// ContextImage returns an inline image element.
func ContextImage(url, alt string) *ImageElement {
	return &ImageElement{Type: "image", ImageURL: url, AltText: alt}
}

func (e *ImageElement) contextElement() {}

// ContextBlock shows a small row of inline text and image elements.
type ContextBlock struct {
	Type     string           `json:"type"`
	Elements []ContextElement `json:"elements"`
}

// Context returns a context block with the given elements.
func Context(elements ...ContextElement) *ContextBlock {
	return &ContextBlock{Type: "context", Elements: elements}
}

func (b *ContextBlock) validate() error {
	if len(b.Elements) > contextElemMax {
		return fmt.Errorf("context has %d elements, limit is %d", len(b.Elements), contextElemMax)
	}
	for i, e := range b.Elements {
		t, ok := e.(*TextObject)
		if !ok {
			continue
		}
		if n := utf8.RuneCountInString(t.Text); n > contextTextMax {
			return fmt.Errorf("context element %d length %d exceeds %d", i, n, contextTextMax)
		}
	}
	return nil
}

// Truncate shortens s to at most max runes, marking the cut with an
// ellipsis. Formatters use it to keep free-form bodies inside block limits.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}
