package llm

import "encoding/json"

// OllamaAdapter speaks Ollama's chat API. Requests use the OpenAI shape; the
// response carries a single message object instead of a choices list.
type OllamaAdapter struct{}

// NewOllamaAdapter creates a new OllamaAdapter.
func NewOllamaAdapter() *OllamaAdapter {
	return &OllamaAdapter{}
}

func (a *OllamaAdapter) Dialect() string { return "ollama" }

func (a *OllamaAdapter) EncodeRequest(p *Prompt) ([]byte, error) {
	body, err := json.Marshal(toOpenAIRequest(p))
	if err != nil {
		return nil, &Error{Kind: ErrAdapter, Provider: a.Dialect(), Message: "failed to marshal request", Cause: err}
	}
	return body, nil
}

type ollamaResponse struct {
	Model   string         `json:"model"`
	Message *ollamaMessage `json:"message"`
	Done    bool           `json:"done"`
}

type ollamaMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

func (a *OllamaAdapter) DecodeResponse(body []byte) (Message, error) {
	var or ollamaResponse
	if err := json.Unmarshal(body, &or); err != nil {
		return Message{}, &Error{Kind: ErrDecode, Provider: a.Dialect(), Message: "failed to unmarshal response", Cause: err, Raw: body}
	}
	if or.Message == nil || or.Message.Content == nil {
		return Message{}, &Error{Kind: ErrDecode, Provider: a.Dialect(), Message: "response has no message", Raw: body}
	}
	return AssistantMessage(*or.Message.Content), nil
}
