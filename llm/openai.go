package llm

import "encoding/json"

// OpenAIAdapter translates between unified types and the OpenAI Chat Completions format.
// It serves every OpenAI-compatible provider; only transport headers differ between them.
type OpenAIAdapter struct{}

// NewOpenAIAdapter creates a new OpenAIAdapter.
func NewOpenAIAdapter() *OpenAIAdapter {
	return &OpenAIAdapter{}
}

func (a *OpenAIAdapter) Dialect() string { return "openai" }

// --- OpenAI request types ---

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	Stream      bool            `json:"stream"`
	Temperature *float64        `json:"temperature,omitempty"`
	TopP        *float64        `json:"top_p,omitempty"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
	Stop        []string        `json:"stop,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (a *OpenAIAdapter) EncodeRequest(p *Prompt) ([]byte, error) {
	body, err := json.Marshal(toOpenAIRequest(p))
	if err != nil {
		return nil, &Error{Kind: ErrAdapter, Provider: a.Dialect(), Message: "failed to marshal request", Cause: err}
	}
	return body, nil
}

// toOpenAIRequest is shared with the Ollama dialect, whose request shape is identical.
func toOpenAIRequest(p *Prompt) openaiRequest {
	or := openaiRequest{
		Model:       p.Model,
		Messages:    make([]openaiMessage, 0, len(p.Messages)),
		Temperature: p.Temperature,
		TopP:        p.TopP,
		MaxTokens:   p.MaxTokens,
	}
	if p.Stream != nil {
		or.Stream = *p.Stream
	}
	if len(p.StopSequences) > 0 {
		or.Stop = p.StopSequences
	}
	for _, m := range p.Messages {
		or.Messages = append(or.Messages, openaiMessage{Role: string(m.Role), Content: m.Content})
	}
	return or
}

// --- OpenAI response types ---

type openaiResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []openaiChoice `json:"choices"`
}

type openaiChoice struct {
	Index        int           `json:"index"`
	Message      openaiRespMsg `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openaiRespMsg struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

func (a *OpenAIAdapter) DecodeResponse(body []byte) (Message, error) {
	var or openaiResponse
	if err := json.Unmarshal(body, &or); err != nil {
		return Message{}, &Error{Kind: ErrDecode, Provider: a.Dialect(), Message: "failed to unmarshal response", Cause: err, Raw: body}
	}

	if len(or.Choices) == 0 {
		return Message{}, &Error{Kind: ErrDecode, Provider: a.Dialect(), Message: "response has no choices", Raw: body}
	}

	content := or.Choices[0].Message.Content
	if content == nil {
		return Message{}, &Error{Kind: ErrDecode, Provider: a.Dialect(), Message: "first choice has no content", Raw: body}
	}
	return AssistantMessage(*content), nil
}
