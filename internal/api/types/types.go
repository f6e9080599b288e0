// Package types contains the wire types shared by the chat endpoints,
// the bridge pipeline, and the CLI.
package types

import (
	"strings"
	"time"
)

// Message is one conversation turn. Content is either a plain string
// or a list of typed parts for multimodal payloads; only text parts
// matter to the bridge.
type Message struct {
	Role    string `json:"role"` // user, assistant, system
	Content any    `json:"content,omitempty"`
}

// ContentPart is one typed chunk of message content.
type ContentPart struct {
	Type string `json:"type"` // "text"
	Text string `json:"text,omitempty"`
}

// Text flattens the turn's content to plain text, concatenating
// text-typed parts in order. Non-text parts are ignored.
func (m Message) Text() string {
	switch c := m.Content.(type) {
	case string:
		return c
	case []ContentPart:
		var b strings.Builder
		for _, p := range c {
			if p.Type == "" || p.Type == "text" {
				b.WriteString(p.Text)
			}
		}
		return b.String()
	case []any:
		// JSON-decoded part lists arrive as []any of map[string]any.
		var b strings.Builder
		for _, raw := range c {
			part, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if t, _ := part["type"].(string); t != "" && t != "text" {
				continue
			}
			if s, _ := part["text"].(string); s != "" {
				b.WriteString(s)
			}
		}
		return b.String()
	}
	return ""
}

// LatestUserText returns the trimmed text of the most recent user
// turn, or "" when the conversation has none.
func LatestUserText(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" {
			return strings.TrimSpace(msgs[i].Text())
		}
	}
	return ""
}

// ChatRequest is the inbound conversation for one bridge invocation.
type ChatRequest struct {
	Messages   []Message `json:"messages"`
	Platform   string    `json:"platform,omitempty"`   // pin selection to one platform id
	SessionID  string    `json:"sessionId,omitempty"`  // caller's session, echoed to the turn log
	SessionKey string    `json:"sessionKey,omitempty"` // caller's routing key, echoed to the turn log
	TimeoutSec int       `json:"timeoutSec,omitempty"` // response wait override, seconds
	CdpURL     string    `json:"cdpUrl,omitempty"`     // browser endpoint override
	URLPattern string    `json:"urlPattern,omitempty"` // tab selection pattern override
	Stream     bool      `json:"stream,omitempty"`
}

// EventType tags one frame of the synthesized assistant stream.
type EventType string

const (
	EventStart        EventType = "start"
	EventContentStart EventType = "content-start"
	EventContentDelta EventType = "content-delta"
	EventContentEnd   EventType = "content-end"
	EventDone         EventType = "done"
	EventError        EventType = "error"
)

// Terminal reports whether the event ends the stream. Exactly one
// terminal event is emitted per invocation.
func (t EventType) Terminal() bool {
	return t == EventDone || t == EventError
}

const (
	StopReasonStop  = "stop"
	StopReasonError = "error"
)

// StreamEvent is one frame of the assistant stream.
type StreamEvent struct {
	Type    EventType         `json:"type"`
	Delta   string            `json:"delta,omitempty"`   // content-delta only
	Content string            `json:"content,omitempty"` // content-end only
	Error   string            `json:"error,omitempty"`   // error only, human-readable
	Message *AssistantMessage `json:"message,omitempty"`
}

// AssistantMessage mirrors the record a streaming model API returns.
// Usage and cost stay zeroed: the platform UI exposes no token
// accounting.
type AssistantMessage struct {
	Role       string        `json:"role"`
	Content    []ContentPart `json:"content"`
	API        string        `json:"api"`
	Provider   string        `json:"provider"`
	Model      string        `json:"model"`
	Usage      Usage         `json:"usage"`
	StopReason string        `json:"stopReason,omitempty"` // stop | error
	Timestamp  time.Time     `json:"timestamp"`
}

// Text returns the concatenated text parts of the message.
func (m *AssistantMessage) Text() string {
	if m == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range m.Content {
		if p.Type == "" || p.Type == "text" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// Usage carries token accounting fields for API compatibility.
type Usage struct {
	InputTokens  int     `json:"inputTokens"`
	OutputTokens int     `json:"outputTokens"`
	TotalTokens  int     `json:"totalTokens"`
	Cost         float64 `json:"cost"`
}
