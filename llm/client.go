package llm

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client routes prompts to providers. It holds no per-call state, so one
// Client may serve concurrent Send calls.
type Client struct {
	logger    *slog.Logger
	transport http.RoundTripper
	bedrock   BedrockFactory
}

type clientConfig struct {
	logger    *slog.Logger
	transport http.RoundTripper
	bedrock   BedrockFactory
}

// ClientOption configures a Client.
type ClientOption func(*clientConfig)

// WithLogger sets the logger. Defaults to slog.Default() at call time.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithTransport sets the round tripper used by the per-call HTTP client.
// Without it every call builds and tears down its own transport.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *clientConfig) {
		c.transport = rt
	}
}

// WithBedrockFactory replaces how the Bedrock client is built for each call.
func WithBedrockFactory(f BedrockFactory) ClientOption {
	return func(c *clientConfig) {
		c.bedrock = f
	}
}

// NewClient creates a new Client with the given options.
func NewClient(opts ...ClientOption) *Client {
	cfg := &clientConfig{bedrock: defaultBedrockFactory}
	for _, o := range opts {
		o(cfg)
	}

	return &Client{
		logger:    cfg.logger,
		transport: cfg.transport,
		bedrock:   cfg.bedrock,
	}
}

var defaultClient = NewClient()

// SendPrompt sends p with a Client built with default options.
func SendPrompt(ctx context.Context, cfg ProviderConfig, p Prompt) (Message, error) {
	return defaultClient.Send(ctx, cfg, p)
}

// Send sends one prompt and blocks until the provider answers with one
// assistant message or the call fails. The caller's Prompt is never modified:
// Send works on a clone with the default model filled in and streaming off.
func (c *Client) Send(ctx context.Context, cfg ProviderConfig, p Prompt) (Message, error) {
	prompt := normalize(p, cfg)

	log := c.log().With(
		"call_id", uuid.NewString(),
		"provider", prompt.Provider.String(),
	)
	log.Debug("dispatching prompt",
		"url", cfg.URL,
		"model", prompt.Model,
		"messages", len(prompt.Messages),
	)

	start := time.Now()
	msg, err := c.dispatch(ctx, cfg, &prompt)
	if err != nil {
		log.Warn("prompt failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return Message{}, err
	}

	log.Debug("prompt answered", "elapsed_ms", time.Since(start).Milliseconds())
	return msg, nil
}

func (c *Client) dispatch(ctx context.Context, cfg ProviderConfig, p *Prompt) (Message, error) {
	switch p.Provider {
	case ProviderBedrock:
		return c.sendBedrock(ctx, cfg, p)
	case ProviderTest:
		return Message{}, &Error{Kind: ErrUnsupported, Provider: p.Provider.String(), Message: "this provider is not made for actual use"}
	}

	rt, ok := routes[p.Provider]
	if !ok {
		return Message{}, &Error{Kind: ErrUnsupported, Provider: p.Provider.String(), Message: "no route for provider"}
	}
	if cfg.URL == "" {
		return Message{}, &Error{Kind: ErrConfig, Provider: p.Provider.String(), Message: "url must be configured"}
	}

	body, err := rt.adapter.EncodeRequest(p)
	if err != nil {
		return Message{}, stampProvider(err, p.Provider)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return Message{}, &Error{Kind: ErrConfig, Provider: p.Provider.String(), Message: "invalid url", Cause: err}
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	if err := rt.headers(req.Header, cfg); err != nil {
		return Message{}, err
	}

	hc, release := c.httpClient(cfg.Timeout())
	defer release()

	resp, err := hc.Do(req)
	if err != nil {
		return Message{}, &Error{Kind: ErrTransport, Provider: p.Provider.String(), Message: "request failed", Cause: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	return normalizeResponse(p.Provider, rt.adapter, resp)
}

// httpClient returns a client for one call and a func that releases its
// idle connections.
func (c *Client) httpClient(timeout time.Duration) (*http.Client, func()) {
	if c.transport != nil {
		return &http.Client{Timeout: timeout, Transport: c.transport}, func() {}
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	return &http.Client{Timeout: timeout, Transport: tr}, tr.CloseIdleConnections
}

func (c *Client) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// normalizeResponse turns an HTTP response into the single assistant Message,
// or into ErrAPI / ErrDecode carrying the raw body.
func normalizeResponse(provider Provider, a Adapter, resp *http.Response) (Message, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Message{}, &Error{Kind: ErrTransport, Provider: provider.String(), Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Message{}, &Error{
			Kind:     ErrAPI,
			Provider: provider.String(),
			Message:  "upstream returned non-success status",
			Status:   resp.StatusCode,
			Raw:      body,
		}
	}

	msg, err := a.DecodeResponse(body)
	if err != nil {
		return Message{}, stampProvider(err, provider)
	}
	return msg, nil
}

// stampProvider replaces the dialect name an adapter put on err with the
// provider the call was routed to.
func stampProvider(err error, provider Provider) error {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		llmErr.Provider = provider.String()
	}
	return err
}
