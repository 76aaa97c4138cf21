// Command gridiron answers natural-language NFL questions with an
// LLM-driven agent backed by ESPN data tools.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridironlabs/gridiron/pkg/espn"
	"github.com/gridironlabs/gridiron/pkg/gridiron"
	"github.com/gridironlabs/gridiron/pkg/gridiron/checkpoint"
	"github.com/gridironlabs/gridiron/pkg/gridiron/config"
	"github.com/gridironlabs/gridiron/pkg/gridiron/llm"
	"github.com/gridironlabs/gridiron/pkg/gridiron/observability"
	"github.com/gridironlabs/gridiron/pkg/gridiron/tool"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		sessionID  string
		verbose    bool
	)

	root := &cobra.Command{
		Use:           "gridiron",
		Short:         "LLM agent for NFL stats questions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML or JSON config file")
	root.PersistentFlags().StringVar(&sessionID, "session", "default", "session id; reuse to continue a conversation")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print intermediate graph steps")

	ask := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), configPath, sessionID, strings.Join(args, " "), verbose)
		},
	}
	root.AddCommand(ask)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	root.SetContext(ctx)
	cobra.OnFinalize(stop)

	return root
}

func runAsk(ctx context.Context, configPath, sessionID, question string, verbose bool) error {
	settings, err := loadSettings(configPath)
	if err != nil {
		return err
	}

	shutdown, err := observability.InitTracing(ctx, settings.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("trace shutdown failed", slog.String("error", err.Error()))
		}
	}()

	gateway, err := buildGateway(settings)
	if err != nil {
		return err
	}

	registry := tool.NewRegistry()
	if err := espn.Register(registry, espn.NewClient()); err != nil {
		return fmt.Errorf("register tools: %w", err)
	}

	store, err := buildStore(settings)
	if err != nil {
		return err
	}
	defer store.Close()

	runner := gridiron.NewRunner(gateway, registry,
		gridiron.WithCheckpointStore(store),
		gridiron.WithSpanManager(observability.NewSpanManager()),
		gridiron.WithMetrics(observability.NewMetricsRecorder()),
		gridiron.WithMaxIterations(settings.MaxIterations),
	)

	turn := runner.RunTurn(ctx, sessionID, question)
	for step := range turn.Steps() {
		if verbose {
			fmt.Printf("[%d] %s -> %s (%d messages, %s)\n",
				step.Seq, step.State, step.Next, step.MessageCount, step.Duration.Round(time.Millisecond))
		}
	}
	if err := turn.Err(); err != nil {
		return err
	}

	fmt.Println(turn.Answer())
	return nil
}

func loadSettings(configPath string) (config.Settings, error) {
	if configPath == "" {
		return config.DefaultSettings(), nil
	}
	return config.Load(configPath)
}

func buildGateway(settings config.Settings) (llm.Gateway, error) {
	switch settings.Provider {
	case config.ProviderAnthropic:
		apiKey := settings.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic api key missing: set api_key in config or ANTHROPIC_API_KEY")
		}
		var opts []llm.AnthropicOption
		if settings.Model != "" {
			opts = append(opts, llm.WithAnthropicModel(settings.Model))
		}
		if settings.SystemPrompt != "" {
			opts = append(opts, llm.WithAnthropicSystemPrompt(settings.SystemPrompt))
		}
		return llm.NewAnthropicGateway(apiKey, opts...), nil

	case config.ProviderOpenAI:
		apiKey := settings.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("openai api key missing: set api_key in config or OPENAI_API_KEY")
		}
		var opts []llm.OpenAIOption
		if settings.Model != "" {
			opts = append(opts, llm.WithOpenAIModel(settings.Model))
		}
		if settings.SystemPrompt != "" {
			opts = append(opts, llm.WithOpenAISystemPrompt(settings.SystemPrompt))
		}
		return llm.NewOpenAIGateway(apiKey, opts...), nil

	default:
		return nil, fmt.Errorf("unsupported provider: %s", settings.Provider)
	}
}

func buildStore(settings config.Settings) (checkpoint.Store, error) {
	if settings.CheckpointPath == "" {
		return checkpoint.NewMemoryStore(), nil
	}
	store, err := checkpoint.NewSQLiteStore(settings.CheckpointPath)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint store: %w", err)
	}
	return store, nil
}
