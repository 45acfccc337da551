package llm

import (
	"context"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// Adapter translates between unified types and one provider wire dialect.
// Implementations are stateless.
type Adapter interface {
	// Dialect returns the dialect name (e.g., "openai", "anthropic").
	Dialect() string

	// EncodeRequest serializes a normalized Prompt into the dialect's request body.
	EncodeRequest(p *Prompt) ([]byte, error)

	// DecodeResponse extracts the assistant Message from a success body.
	DecodeResponse(body []byte) (Message, error)
}

// BedrockInvoker abstracts the Bedrock InvokeModel call for testing.
type BedrockInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockFactory builds a call-scoped BedrockInvoker.
type BedrockFactory func(ctx context.Context, cfg ProviderConfig) (BedrockInvoker, error)

// clientUserAgent is sent to Cerebras, which rejects some default user agents.
const clientUserAgent = "llm-dispatch/1.0"

// headerPolicy applies provider-specific headers to an outbound request.
type headerPolicy func(h http.Header, cfg ProviderConfig) error

// route pairs a dialect with the auth policy of one provider.
type route struct {
	adapter Adapter
	headers headerPolicy
}

var (
	openaiDialect    = NewOpenAIAdapter()
	anthropicDialect = NewAnthropicAdapter()
	ollamaDialect    = NewOllamaAdapter()
	novaDialect      = NewNovaAdapter()
)

// routes is the only place the provider-to-dialect mapping is spelled out.
// ProviderTest is deliberately absent.
var routes = map[Provider]route{
	ProviderOpenAI:      {openaiDialect, bearerAuth},
	ProviderMistral:     {openaiDialect, bearerAuth},
	ProviderGroq:        {openaiDialect, bearerAuth},
	ProviderCerebras:    {openaiDialect, cerebrasAuth},
	ProviderAzureOpenAI: {openaiDialect, azureAuth},
	ProviderOllama:      {ollamaDialect, noAuth},
	ProviderAnthropic:   {anthropicDialect, anthropicAuth},
	ProviderBedrock:     {novaDialect, nil},
}

func bearerAuth(h http.Header, cfg ProviderConfig) error {
	if cfg.APIKey != "" {
		h.Set("Authorization", "Bearer "+cfg.APIKey)
	}
	return nil
}

func cerebrasAuth(h http.Header, cfg ProviderConfig) error {
	h.Set("User-Agent", clientUserAgent)
	return bearerAuth(h, cfg)
}

func azureAuth(h http.Header, cfg ProviderConfig) error {
	if cfg.APIKey != "" {
		h.Set("api-key", cfg.APIKey)
	}
	return nil
}

func anthropicAuth(h http.Header, cfg ProviderConfig) error {
	if cfg.Version == "" {
		return &Error{Kind: ErrConfig, Provider: ProviderAnthropic.String(), Message: "version required for anthropic, add a version to the api config"}
	}
	if cfg.APIKey != "" {
		h.Set("x-api-key", cfg.APIKey)
	}
	h.Set("anthropic-version", cfg.Version)
	return nil
}

func noAuth(http.Header, ProviderConfig) error { return nil }
