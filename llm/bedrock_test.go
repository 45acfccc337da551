package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// mockInvoker is a test double for BedrockInvoker.
type mockInvoker struct {
	output *bedrockruntime.InvokeModelOutput
	err    error

	input       *bedrockruntime.InvokeModelInput
	hasDeadline bool
}

func (m *mockInvoker) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	m.input = params
	_, m.hasDeadline = ctx.Deadline()
	if m.err != nil {
		return nil, m.err
	}
	return m.output, nil
}

func factoryFor(inv BedrockInvoker) BedrockFactory {
	return func(context.Context, ProviderConfig) (BedrockInvoker, error) {
		return inv, nil
	}
}

func novaOutput(text string) *bedrockruntime.InvokeModelOutput {
	return &bedrockruntime.InvokeModelOutput{
		Body:        []byte(`{"output":{"message":{"role":"assistant","content":[{"text":"` + text + `"}]}},"stopReason":"end_turn"}`),
		ContentType: strPtr("application/json"),
	}
}

func strPtr(s string) *string { return &s }

func TestBedrockSend_SimpleText(t *testing.T) {
	mock := &mockInvoker{output: novaOutput("Roses bloom")}
	client := NewClient(WithBedrockFactory(factoryFor(mock)))

	msg, err := client.Send(context.Background(), ProviderConfig{}, Prompt{
		Provider: ProviderBedrock,
		Messages: []Message{
			SystemMessage("A"),
			UserMessage("B"),
			SystemMessage("C"),
			AssistantMessage("D"),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if msg != AssistantMessage("Roses bloom") {
		t.Errorf("got %+v", msg)
	}

	if got := *mock.input.ModelId; got != defaultNovaModelID {
		t.Errorf("ModelId = %q, want %q", got, defaultNovaModelID)
	}
	if got := *mock.input.ContentType; got != "application/json" {
		t.Errorf("ContentType = %q", got)
	}
	assertJSONEqual(t, mock.input.Body, loadGolden(t, "nova/request_partitioned.json"))
	if mock.hasDeadline {
		t.Error("expected no deadline without timeout_seconds")
	}
}

func TestBedrockSend_UsesDefaultModelAndTimeout(t *testing.T) {
	mock := &mockInvoker{output: novaOutput("ok")}
	client := NewClient(WithBedrockFactory(factoryFor(mock)))

	cfg := ProviderConfig{DefaultModel: "us.amazon.nova-pro-v1:0", TimeoutSeconds: uint32Ptr(5)}
	if _, err := client.Send(context.Background(), cfg, Prompt{
		Provider: ProviderBedrock,
		Messages: []Message{UserMessage("hi")},
	}); err != nil {
		t.Fatal(err)
	}
	if got := *mock.input.ModelId; got != "us.amazon.nova-pro-v1:0" {
		t.Errorf("ModelId = %q", got)
	}
	if !mock.hasDeadline {
		t.Error("expected the call context to carry the configured timeout")
	}
}

func TestBedrockSend_FactoryError(t *testing.T) {
	cause := errors.New("failed to get shared config profile, dev")
	client := NewClient(WithBedrockFactory(func(context.Context, ProviderConfig) (BedrockInvoker, error) {
		return nil, cause
	}))

	_, err := client.Send(context.Background(), ProviderConfig{}, Prompt{
		Provider: ProviderBedrock,
		Messages: []Message{UserMessage("hi")},
	})
	var llmErr *Error
	if !errors.As(err, &llmErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if llmErr.Kind != ErrProvider {
		t.Errorf("Kind = %v, want ErrProvider", llmErr.Kind)
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be preserved")
	}
}

func TestBedrockSend_InvokeErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"AccessDeniedException", &types.AccessDeniedException{Message: strPtr("access denied")}, "AccessDeniedException"},
		{"ThrottlingException", &types.ThrottlingException{Message: strPtr("slow down")}, "ThrottlingException"},
		{"ValidationException", &types.ValidationException{Message: strPtr("bad body")}, "ValidationException"},
		{"transport", errors.New("dial tcp: connection refused"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(WithBedrockFactory(factoryFor(&mockInvoker{err: tt.err})))
			_, err := client.Send(context.Background(), ProviderConfig{}, Prompt{
				Provider: ProviderBedrock,
				Messages: []Message{UserMessage("hi")},
			})

			var llmErr *Error
			if !errors.As(err, &llmErr) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if llmErr.Kind != ErrProvider {
				t.Errorf("Kind = %v, want ErrProvider", llmErr.Kind)
			}
			if llmErr.Provider != "bedrock" {
				t.Errorf("Provider = %q", llmErr.Provider)
			}
			if llmErr.Cause != tt.err {
				t.Error("Cause should be the original error")
			}
			if tt.wantCode != "" && !strings.Contains(llmErr.Message, tt.wantCode) {
				t.Errorf("Message = %q, want it to mention %q", llmErr.Message, tt.wantCode)
			}
		})
	}
}

func TestBedrockSend_MalformedPayload(t *testing.T) {
	mock := &mockInvoker{output: &bedrockruntime.InvokeModelOutput{Body: []byte(`{"completion":"legacy"}`)}}
	client := NewClient(WithBedrockFactory(factoryFor(mock)))

	_, err := client.Send(context.Background(), ProviderConfig{}, Prompt{
		Provider: ProviderBedrock,
		Messages: []Message{UserMessage("hi")},
	})
	var llmErr *Error
	if !errors.As(err, &llmErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if llmErr.Kind != ErrDecode {
		t.Errorf("Kind = %v, want ErrDecode", llmErr.Kind)
	}
	if llmErr.Provider != "bedrock" {
		t.Errorf("Provider = %q", llmErr.Provider)
	}
}

func TestRunToCompletion_CancelsContextOnReturn(t *testing.T) {
	var taskCtx context.Context
	got, err := runToCompletion(context.Background(), 0, func(ctx context.Context) (string, error) {
		taskCtx = ctx
		return "done", nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "done" {
		t.Errorf("got %q", got)
	}
	if taskCtx.Err() == nil {
		t.Error("expected call-scoped context to be cancelled after return")
	}
}

func TestRunToCompletion_Timeout(t *testing.T) {
	_, err := runToCompletion(context.Background(), 10*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
}

func TestRunToCompletion_RecoversPanic(t *testing.T) {
	_, err := runToCompletion(context.Background(), 0, func(context.Context) (int, error) {
		panic("boom")
	})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("err = %v", err)
	}
}
