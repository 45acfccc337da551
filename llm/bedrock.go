package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"
)

const (
	bedrockProfile        = "dev"
	bedrockFallbackRegion = "us-west-2"
	bedrockEndpoint       = "https://bedrock-runtime.us-west-2.amazonaws.com"
	defaultNovaModelID    = "us.amazon.nova-lite-v1:0"
	contentTypeJSON       = "application/json"
)

// defaultBedrockFactory resolves credentials and region from the ambient AWS
// environment (shared profile, then the usual region chain, then a fixed
// fallback region) and binds a fresh client to the regional endpoint.
// cfg.URL, when set, replaces the endpoint.
func defaultBedrockFactory(ctx context.Context, cfg ProviderConfig) (BedrockInvoker, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithSharedConfigProfile(bedrockProfile),
		awsconfig.WithDefaultRegion(bedrockFallbackRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := bedrockEndpoint
	if cfg.URL != "" {
		endpoint = cfg.URL
	}
	return bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	}), nil
}

// sendBedrock encodes the Nova body and runs the InvokeModel call through
// runToCompletion. Every failure before decoding is reported as ErrProvider.
func (c *Client) sendBedrock(ctx context.Context, cfg ProviderConfig, p *Prompt) (Message, error) {
	body, err := novaDialect.EncodeRequest(p)
	if err != nil {
		return Message{}, stampProvider(err, ProviderBedrock)
	}

	modelID := p.Model
	if modelID == "" {
		modelID = defaultNovaModelID
	}

	return runToCompletion(ctx, cfg.Timeout(), func(ctx context.Context) (Message, error) {
		invoker, err := c.bedrock(ctx, cfg)
		if err != nil {
			return Message{}, bedrockError("failed to build bedrock client", err)
		}

		out, err := invoker.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(modelID),
			Body:        body,
			ContentType: aws.String(contentTypeJSON),
			Accept:      aws.String(contentTypeJSON),
		})
		if err != nil {
			return Message{}, bedrockError("invoke model failed", err)
		}

		msg, err := novaDialect.DecodeResponse(out.Body)
		if err != nil {
			return Message{}, stampProvider(err, ProviderBedrock)
		}
		return msg, nil
	})
}

// bedrockError folds credential, region, transport and service failures into
// one ErrProvider. The service error code, when there is one, only shows up in
// the message text.
func bedrockError(msg string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		msg = fmt.Sprintf("%s (%s)", msg, apiErr.ErrorCode())
	}
	return &Error{
		Kind:     ErrProvider,
		Provider: ProviderBedrock.String(),
		Message:  msg,
		Cause:    err,
	}
}

// runToCompletion runs fn on its own goroutine under a call-scoped context and
// blocks until fn returns. The context is cancelled before runToCompletion
// returns, so nothing fn started outlives the call. Each invocation owns its
// context and goroutine; there is no state to reuse between calls.
func runToCompletion[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var (
		callCtx context.Context
		cancel  context.CancelFunc
	)
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		callCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				done <- result{v: zero, err: fmt.Errorf("task panicked: %v", r)}
			}
		}()
		v, err := fn(callCtx)
		done <- result{v: v, err: err}
	}()

	r := <-done
	return r.v, r.err
}
