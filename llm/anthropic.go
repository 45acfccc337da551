package llm

import (
	"encoding/json"
	"strings"
)

// defaultAnthropicMaxTokens is sent when the Prompt sets no MaxTokens; the
// Messages API rejects requests without max_tokens.
const defaultAnthropicMaxTokens = 4096

// AnthropicAdapter translates between unified types and the Anthropic Messages API format.
type AnthropicAdapter struct{}

// NewAnthropicAdapter creates a new AnthropicAdapter.
func NewAnthropicAdapter() *AnthropicAdapter {
	return &AnthropicAdapter{}
}

func (a *AnthropicAdapter) Dialect() string { return "anthropic" }

// --- Anthropic request types ---

type anthropicRequest struct {
	Model         string             `json:"model"`
	MaxTokens     int                `json:"max_tokens"`
	System        string             `json:"system,omitempty"`
	Messages      []anthropicMessage `json:"messages"`
	Stream        bool               `json:"stream"`
	Temperature   *float64           `json:"temperature,omitempty"`
	TopP          *float64           `json:"top_p,omitempty"`
	StopSequences []string           `json:"stop_sequences,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (a *AnthropicAdapter) EncodeRequest(p *Prompt) ([]byte, error) {
	ar := anthropicRequest{
		Model:       p.Model,
		MaxTokens:   defaultAnthropicMaxTokens,
		Temperature: p.Temperature,
		TopP:        p.TopP,
	}
	if p.MaxTokens != nil {
		ar.MaxTokens = *p.MaxTokens
	}
	if p.Stream != nil {
		ar.Stream = *p.Stream
	}
	if len(p.StopSequences) > 0 {
		ar.StopSequences = p.StopSequences
	}

	// System messages go to the top-level field, never into the turn list.
	system, turns := partitionSystem(p.Messages)
	if len(system) > 0 {
		parts := make([]string, 0, len(system))
		for _, m := range system {
			parts = append(parts, m.Content)
		}
		ar.System = strings.Join(parts, "\n\n")
	}

	ar.Messages = make([]anthropicMessage, 0, len(turns))
	for _, m := range turns {
		ar.Messages = append(ar.Messages, anthropicMessage{Role: string(m.Role), Content: m.Content})
	}

	body, err := json.Marshal(ar)
	if err != nil {
		return nil, &Error{Kind: ErrAdapter, Provider: a.Dialect(), Message: "failed to marshal request", Cause: err}
	}
	return body, nil
}

// --- Anthropic response types ---

type anthropicResponse struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Role       string                  `json:"role"`
	Content    []anthropicContentBlock `json:"content"`
	StopReason string                  `json:"stop_reason"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func (a *AnthropicAdapter) DecodeResponse(body []byte) (Message, error) {
	var ar anthropicResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return Message{}, &Error{Kind: ErrDecode, Provider: a.Dialect(), Message: "failed to unmarshal response", Cause: err, Raw: body}
	}

	var b strings.Builder
	found := false
	for _, block := range ar.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
			found = true
		}
	}
	if !found {
		return Message{}, &Error{Kind: ErrDecode, Provider: a.Dialect(), Message: "response has no text content", Raw: body}
	}
	return AssistantMessage(b.String()), nil
}

// partitionSystem splits messages into system and turn-taking messages,
// keeping the relative order within each list.
func partitionSystem(msgs []Message) (system, turns []Message) {
	for _, m := range msgs {
		if m.Role == RoleSystem {
			system = append(system, m)
		} else {
			turns = append(turns, m)
		}
	}
	return system, turns
}
