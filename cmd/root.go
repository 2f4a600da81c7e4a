package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fakeyudi/ctxchat/internal/chat"
	"github.com/fakeyudi/ctxchat/internal/config"
	"github.com/fakeyudi/ctxchat/internal/llm"
	"github.com/fakeyudi/ctxchat/internal/logging"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// logger is replaced in PersistentPreRunE; commands may log before that.
var logger = zap.NewNop()

var (
	flagModel       string
	flagMaxTokens   int
	flagTemperature float64
	flagProvider    string
	flagSystem      string
	flagVerbose     bool
)

// newGenerator builds the generation client for the merged config.
// Tests replace it to avoid network calls.
var newGenerator = func(ctx context.Context, c config.Config) (llm.Generator, error) {
	key, err := config.APIKey(c.Provider, os.Getenv)
	if err != nil {
		return nil, err
	}
	return llm.New(ctx, llm.Provider(c.Provider), key, c.BaseURL)
}

var rootCmd = &cobra.Command{
	Use:   "ctxchat",
	Short: "Chat with a language model over your local files",
	Long: `ctxchat sends prompts to a hosted language model together with the
contents of local files, records every exchange to a transcript, and keeps
an index of past sessions so they can be replayed later.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(flagVerbose)
		if err != nil {
			return err
		}
		logger = l

		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		project, err := config.LoadProject()
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.Merge(global, project)
		applyFlags(cmd, &cfg)

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		logger.Debug("configuration loaded",
			zap.String("provider", cfg.Provider),
			zap.String("model", cfg.Model),
			zap.Int("max_tokens", cfg.MaxTokens),
			zap.Float64("temperature", cfg.TemperatureValue()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// applyFlags overlays explicitly set global flags onto c.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	over := &config.Config{}
	if flags.Changed("provider") {
		over.Provider = flagProvider
	}
	if flags.Changed("model") {
		over.Model = flagModel
	}
	if flags.Changed("max-tokens") {
		over.MaxTokens = flagMaxTokens
		if flagMaxTokens == 0 {
			// Apply skips zero values; keep an explicit 0 so Validate rejects it.
			c.MaxTokens = 0
		}
	}
	if flags.Changed("temperature") {
		t := flagTemperature
		over.Temperature = &t
	}
	if flags.Changed("system") {
		over.SystemPrompt = flagSystem
	}
	c.Apply(over)
}

// newSession builds a chat session from the merged configuration.
func newSession(ctx context.Context) (*chat.Session, error) {
	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return chat.New(gen, chat.Config{
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.TemperatureValue(),
	}, chat.WithLogger(logger))
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagProvider, "provider", "", "generation provider: anthropic or gemini")
	pf.StringVar(&flagModel, "model", "", "model identifier")
	pf.IntVar(&flagMaxTokens, "max-tokens", 0, "maximum tokens per response")
	pf.Float64Var(&flagTemperature, "temperature", 0, "sampling temperature between 0 and 1")
	pf.StringVar(&flagSystem, "system", "", "system instruction sent with every prompt")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging to stderr")
}
