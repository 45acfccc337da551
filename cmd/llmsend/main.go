package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/pflag"

	"github.com/quells-bot/llm-dispatch/config"
	"github.com/quells-bot/llm-dispatch/llm"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("llmsend", pflag.ContinueOnError)
	flags.SetOutput(stderr)

	var (
		configPath  = flags.StringP("config", "c", "llm.yaml", "path to the api config file (.yaml or .toml)")
		apiName     = flags.StringP("api", "a", "", "configured api to send to (defaults to the config default)")
		model       = flags.StringP("model", "m", "", "model name, overrides the api default_model")
		system      = flags.StringP("system", "s", "", "system instruction prepended to the prompt")
		temperature = flags.Float64("temperature", -1, "sampling temperature, unset when negative")
		maxTokens   = flags.Int("max-tokens", 0, "maximum tokens to generate, unset when zero")
		logLevel    = flags.String("log-level", "warn", "log level: debug, info, warn, error")
	)
	flags.Usage = func() {
		fmt.Fprintln(stderr, "usage: llmsend [flags] [prompt...]")
		fmt.Fprintln(stderr, "Reads the prompt from stdin when no prompt arguments are given.")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(stderr, "invalid --log-level %q\n", *logLevel)
		return 2
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}
	provider, pc, err := cfg.Resolve(*apiName)
	if err != nil {
		logger.Error("failed to resolve api", "error", err)
		return 1
	}

	text := strings.Join(flags.Args(), " ")
	if text == "" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			logger.Error("failed to read prompt", "error", err)
			return 1
		}
		text = string(b)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		fmt.Fprintln(stderr, "empty prompt")
		return 2
	}

	prompt := buildPrompt(provider, *model, *system, text)
	if *temperature >= 0 {
		prompt.Temperature = temperature
	}
	if *maxTokens > 0 {
		prompt.MaxTokens = maxTokens
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := llm.NewClient(llm.WithLogger(logger))
	msg, err := client.Send(ctx, pc, prompt)
	if err != nil {
		logger.Error("failed to send", "api", *apiName, "provider", provider, "error", err)
		return 1
	}

	fmt.Fprintln(stdout, msg.Content)
	return 0
}

func buildPrompt(provider llm.Provider, model, system, text string) llm.Prompt {
	var msgs []llm.Message
	if system != "" {
		msgs = append(msgs, llm.SystemMessage(system))
	}
	msgs = append(msgs, llm.UserMessage(text))
	return llm.Prompt{
		Provider: provider,
		Model:    model,
		Messages: msgs,
	}
}
