package llm

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Provider identifies an upstream LLM API. The set is closed: each value
// fixes the wire dialect, auth headers and response envelope used for it.
type Provider int

const (
	ProviderOpenAI      Provider = iota // generic OpenAI-compatible endpoint
	ProviderAzureOpenAI                 // Azure OpenAI, api-key auth
	ProviderOllama
	ProviderMistral
	ProviderGroq
	ProviderCerebras
	ProviderAnthropic
	ProviderBedrock
	ProviderTest // exercises the router only; never reaches the network
)

var providerNames = [...]string{
	ProviderOpenAI:      "openai",
	ProviderAzureOpenAI: "azureopenai",
	ProviderOllama:      "ollama",
	ProviderMistral:     "mistral",
	ProviderGroq:        "groq",
	ProviderCerebras:    "cerebras",
	ProviderAnthropic:   "anthropic",
	ProviderBedrock:     "bedrock",
	ProviderTest:        "test",
}

func (p Provider) String() string {
	if p >= 0 && int(p) < len(providerNames) {
		return providerNames[p]
	}
	return fmt.Sprintf("unknown(%d)", p)
}

// ParseProvider maps a provider name to its Provider. Matching ignores case,
// and "azure_openai" / "azure-openai" are accepted for ProviderAzureOpenAI.
func ParseProvider(name string) (Provider, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("_", "", "-", "").Replace(n)
	for i, s := range providerNames {
		if s == n {
			return Provider(i), nil
		}
	}
	return 0, fmt.Errorf("unknown provider %q", name)
}

// MarshalText implements encoding.TextMarshaler using the provider name.
func (p Provider) MarshalText() ([]byte, error) {
	if p < 0 || int(p) >= len(providerNames) {
		return nil, fmt.Errorf("unknown provider %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler via ParseProvider.
func (p *Provider) UnmarshalText(text []byte) error {
	v, err := ParseProvider(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ProviderConfig holds the connection settings for one configured API. It is
// read-only once built; Send never modifies it.
type ProviderConfig struct {
	URL            string  // endpoint; for Bedrock an optional endpoint override
	APIKey         string  // sent per the provider's auth header policy; no auth header when empty
	Version        string  // protocol version, required by Anthropic
	DefaultModel   string  // used when the Prompt names no model
	TimeoutSeconds *uint32 // nil means no timeout
}

// Timeout returns the per-call timeout, or zero when none is configured.
func (c ProviderConfig) Timeout() time.Duration {
	if c.TimeoutSeconds == nil {
		return 0
	}
	return time.Duration(*c.TimeoutSeconds) * time.Second
}

// Role represents a message participant. Any string is allowed; system, user
// and assistant carry special meaning to the dialect adapters.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single message in a conversation.
type Message struct {
	Role    Role
	Content string
}

// SystemMessage creates a system message with the given text.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// UserMessage creates a user message with the given text.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantMessage creates an assistant message with the given text.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// Prompt is the provider-agnostic request: ordered conversation history plus
// generation parameters.
type Prompt struct {
	Provider      Provider
	Model         string
	Messages      []Message
	Stream        *bool // always forced off before dispatch
	Temperature   *float64
	TopP          *float64
	MaxTokens     *int
	StopSequences []string
}

// Clone returns a deep copy of p.
func (p Prompt) Clone() Prompt {
	c := p
	c.Messages = slices.Clone(p.Messages)
	c.StopSequences = slices.Clone(p.StopSequences)
	if p.Stream != nil {
		v := *p.Stream
		c.Stream = &v
	}
	if p.Temperature != nil {
		v := *p.Temperature
		c.Temperature = &v
	}
	if p.TopP != nil {
		v := *p.TopP
		c.TopP = &v
	}
	if p.MaxTokens != nil {
		v := *p.MaxTokens
		c.MaxTokens = &v
	}
	return c
}

// normalize clones p, substitutes the configured default model when none is
// set, and turns streaming off.
func normalize(p Prompt, cfg ProviderConfig) Prompt {
	n := p.Clone()
	if n.Model == "" {
		n.Model = cfg.DefaultModel
	}
	off := false
	n.Stream = &off
	return n
}
