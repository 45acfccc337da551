package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quells-bot/llm-dispatch/llm"
)

func TestBuildPrompt(t *testing.T) {
	p := buildPrompt(llm.ProviderGroq, "m", "be brief", "hello")
	if p.Provider != llm.ProviderGroq || p.Model != "m" {
		t.Errorf("unexpected prompt: %+v", p)
	}
	want := []llm.Message{llm.SystemMessage("be brief"), llm.UserMessage("hello")}
	if len(p.Messages) != len(want) || p.Messages[0] != want[0] || p.Messages[1] != want[1] {
		t.Errorf("Messages = %+v", p.Messages)
	}

	if p := buildPrompt(llm.ProviderGroq, "", "", "hello"); len(p.Messages) != 1 {
		t.Errorf("Messages = %+v, want only the user turn", p.Messages)
	}
}

func TestRunSendsPromptFromStdin(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"pong"}}]}`)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "llm.yaml")
	conf := "apis:\n  local:\n    api: openai\n    url: " + srv.URL + "\n    default_model: gpt-test\n"
	if err := os.WriteFile(path, []byte(conf), 0o600); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	code := run([]string{"-c", path, "--max-tokens", "16"}, strings.NewReader("ping\n"), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
	if strings.TrimSpace(stdout.String()) != "pong" {
		t.Errorf("stdout = %q", stdout.String())
	}
	if got["model"] != "gpt-test" || got["max_tokens"] != float64(16) {
		t.Errorf("request body = %v", got)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"bad flag", []string{"--nope"}, 2},
		{"bad log level", []string{"--log-level", "loud"}, 2},
		{"missing config", []string{"-c", filepath.Join(t.TempDir(), "none.yaml"), "hi"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if got := run(tt.args, strings.NewReader(""), &stdout, &stderr); got != tt.want {
				t.Errorf("exit code = %d, want %d", got, tt.want)
			}
		})
	}
}
