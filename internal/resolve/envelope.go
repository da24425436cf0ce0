package resolve

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Envelope is the chat-completions response shape returned by the LLM transport.
type Envelope struct {
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Message *Message `json:"message,omitempty"`
}

type Message struct {
	Role    string  `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}

// NewEnvelope wraps content the way a provider would; handy for callers that only hold text.
func NewEnvelope(content string) Envelope {
	return Envelope{Choices: []Choice{{Message: &Message{Role: "assistant", Content: &content}}}}
}

// ParseEnvelope decodes raw response bytes. Undecodable bytes are an EnvelopeError.
func ParseEnvelope(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, &EnvelopeError{Reason: "response is not a JSON envelope", Err: err}
	}
	return env, nil
}

// Text returns the first choice's assistant content.
func (env Envelope) Text() (string, error) {
	if len(env.Choices) == 0 {
		return "", &EnvelopeError{Reason: "choices missing or empty"}
	}
	msg := env.Choices[0].Message
	if msg == nil {
		return "", &EnvelopeError{Reason: "choices[0].message missing"}
	}
	if msg.Content == nil {
		return "", &EnvelopeError{Reason: "choices[0].message.content missing"}
	}
	if strings.TrimSpace(*msg.Content) == "" {
		return "", &EnvelopeError{Reason: "choices[0].message.content empty"}
	}
	return *msg.Content, nil
}

type ContentKind string

const (
	ContentJSON ContentKind = "json"
	ContentText ContentKind = "text"
)

// Content is the assistant's answer after fence stripping and classification.
type Content struct {
	// Raw is message.content exactly as received.
	Raw string
	// Working is the fenced body when a fence was found, else the trimmed Raw.
	Working string
	Fenced  bool
	Kind    ContentKind
}

var fencePattern = regexp.MustCompile("(?is)```(?:json)?[ \\t]*\\r?\\n(.*?)\\r?\\n[ \\t]*```")

// ClassifyContent strips a markdown code fence (if any) and decides whether the
// working text looks like a standalone JSON value.
func ClassifyContent(raw string) Content {
	c := Content{Raw: raw, Working: strings.TrimSpace(raw), Kind: ContentText}
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		c.Working = strings.TrimSpace(m[1])
		c.Fenced = true
	}
	if looksLikeJSON(c.Working) {
		c.Kind = ContentJSON
	}
	return c
}

func looksLikeJSON(s string) bool {
	if len(s) < 2 {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return (first == '{' && last == '}') || (first == '[' && last == ']')
}
