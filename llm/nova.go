package llm

import "encoding/json"

// defaultNovaMaxNewTokens is the generation ceiling when the Prompt sets none.
const defaultNovaMaxNewTokens = 1000

// NovaAdapter encodes the Amazon Nova body carried inside a Bedrock
// InvokeModel payload.
type NovaAdapter struct{}

// NewNovaAdapter creates a new NovaAdapter.
func NewNovaAdapter() *NovaAdapter {
	return &NovaAdapter{}
}

func (a *NovaAdapter) Dialect() string { return "nova" }

type novaRequest struct {
	InferenceConfig novaInferenceConfig `json:"inferenceConfig"`
	System          []novaText          `json:"system,omitempty"`
	Messages        []novaMessage       `json:"messages"`
}

type novaInferenceConfig struct {
	MaxNewTokens  int      `json:"max_new_tokens"`
	Temperature   *float64 `json:"temperature,omitempty"`
	TopP          *float64 `json:"top_p,omitempty"`
	StopSequences []string `json:"stopSequences,omitempty"`
}

type novaText struct {
	Text string `json:"text"`
}

type novaMessage struct {
	Role    string     `json:"role"`
	Content []novaText `json:"content"`
}

type novaResponse struct {
	Output struct {
		Message *novaMessage `json:"message"`
	} `json:"output"`
	StopReason string `json:"stopReason"`
}

func (a *NovaAdapter) EncodeRequest(p *Prompt) ([]byte, error) {
	system, turns := partitionSystem(p.Messages)

	nr := novaRequest{
		InferenceConfig: novaInferenceConfig{
			MaxNewTokens:  defaultNovaMaxNewTokens,
			Temperature:   p.Temperature,
			TopP:          p.TopP,
			StopSequences: p.StopSequences,
		},
		Messages: make([]novaMessage, 0, len(turns)),
	}
	if p.MaxTokens != nil {
		nr.InferenceConfig.MaxNewTokens = *p.MaxTokens
	}
	for _, m := range system {
		nr.System = append(nr.System, novaText{Text: m.Content})
	}
	for _, m := range turns {
		nr.Messages = append(nr.Messages, novaMessage{
			Role:    string(m.Role),
			Content: []novaText{{Text: m.Content}},
		})
	}

	body, err := json.Marshal(nr)
	if err != nil {
		return nil, &Error{Kind: ErrAdapter, Provider: a.Dialect(), Message: "failed to marshal request", Cause: err}
	}
	return body, nil
}

func (a *NovaAdapter) DecodeResponse(body []byte) (Message, error) {
	var nr novaResponse
	if err := json.Unmarshal(body, &nr); err != nil {
		return Message{}, &Error{Kind: ErrDecode, Provider: a.Dialect(), Message: "failed to unmarshal response", Cause: err, Raw: body}
	}
	if nr.Output.Message == nil || len(nr.Output.Message.Content) == 0 {
		return Message{}, &Error{Kind: ErrDecode, Provider: a.Dialect(), Message: "response has no output message content", Raw: body}
	}
	return AssistantMessage(nr.Output.Message.Content[0].Text), nil
}
