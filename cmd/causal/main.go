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

	"github.com/spf13/cobra"

	"github.com/ravi-parthasarathy/causalagent/pkg/analysis"
	"github.com/ravi-parthasarathy/causalagent/pkg/config"
	"github.com/ravi-parthasarathy/causalagent/pkg/llm"

	// Register all LLM providers via their init() functions.
	_ "github.com/ravi-parthasarathy/causalagent/pkg/llm/providers"
)

func main() {
	if err := rootCmd(llm.NewClient).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// clientFactory builds a client for a "provider:model" ID.
type clientFactory func(modelID string) (llm.Client, error)

// app carries the global flags and collaborators shared by subcommands.
type app struct {
	configPath string
	logLevel   string
	logFormat  string
	model      string

	newClient clientFactory
}

func rootCmd(newClient clientFactory) *cobra.Command {
	a := &app{newClient: newClient}
	root := &cobra.Command{
		Use:   "causal",
		Short: "Causal: extract cause-effect diagrams from text",
		Long: `Causal classifies a piece of text and then either extracts its causal
relationships as a Mermaid diagram, summarizes it, or rejects it.

Provider keys are read from ANTHROPIC_API_KEY, OPENAI_API_KEY and
GEMINI_API_KEY, or from a .env file in the working directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ./causal.yaml or $HOME/.config/causal/config.yaml)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: text or json")
	pf.StringVar(&a.model, "model", "", "model for every step (provider:model-id)")

	root.AddCommand(analyzeCmd(a))
	root.AddCommand(batchCmd(a))
	root.AddCommand(graphCmd())
	root.AddCommand(versionCmd())
	return root
}

// loadConfig resolves configuration, applies flag overrides and installs
// the default logger.
func (a *app) loadConfig() (config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if a.model != "" {
		cfg.Models = config.Models{Default: a.model}
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	if err := initLogger(cfg.Log.Level, cfg.Log.Format); err != nil {
		return config.Config{}, err
	}
	if cfg.File != "" {
		slog.Debug("using config file", "path", cfg.File)
	}
	return cfg, nil
}

// analyzer builds an Analyzer with one client per distinct model ID.
func (a *app) analyzer(cfg config.Config) (*analysis.Analyzer, error) {
	clients := map[string]llm.Client{}
	clientFor := func(step string) (llm.Client, error) {
		id := cfg.ModelFor(step)
		if c, ok := clients[id]; ok {
			return c, nil
		}
		c, err := a.newClient(id)
		if err != nil {
			return nil, fmt.Errorf("%s model: %w", step, err)
		}
		c = llm.Retrying(c, cfg.LLM.MaxAttempts)
		clients[id] = c
		return c, nil
	}

	classifier, err := clientFor(config.StepClassify)
	if err != nil {
		return nil, err
	}
	extractor, err := clientFor(config.StepExtract)
	if err != nil {
		return nil, err
	}
	summarizer, err := clientFor(config.StepSummarize)
	if err != nil {
		return nil, err
	}
	return analysis.New(analysis.Options{
		Classifier: classifier,
		Extractor:  extractor,
		Summarizer: summarizer,
		Timeout:    cfg.LLM.Timeout,
		MaxTokens:  cfg.LLM.MaxTokens,
		Logger:     slog.Default(),
	})
}

// initLogger installs the process-wide slog logger on stderr.
func initLogger(level, format string) error {
	l, err := newLogger(os.Stderr, level, format)
	if err != nil {
		return err
	}
	slog.SetDefault(l)
	return nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q: use debug, info, warn or error", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q: use text or json", format)
	}
}

// signalContext returns a context that is cancelled on SIGINT or SIGTERM.
// Call stop to release the signal handler.
func signalContext(parent context.Context, stderr io.Writer) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-ch:
			fmt.Fprintln(stderr, "\n[causal] interrupted, cancelling analysis")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(ch)
		cancel()
	}
}
