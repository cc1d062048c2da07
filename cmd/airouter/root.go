package main

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/Maynkbisht/AI-Router/internal/llm/provider"
	"github.com/Maynkbisht/AI-Router/internal/router"
	"github.com/Maynkbisht/AI-Router/pkg/config"
	"github.com/spf13/cobra"
)

// Version is set via ldflags at build time.
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "airouter",
	Short: "Route prompts to the best available AI provider",
	Long: `airouter classifies each prompt (math, language, weather, news,
greeting, general), ranks the configured providers for that category
and tries them in order until one answers.

Provider keys are read from GEMINI_API_KEY, OPENAI_API_KEY and
CLAUDE_API_KEY. Without any key the local evaluator still answers
arithmetic.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !verbose && cmd.Name() != "serve" {
			log.SetOutput(io.Discard)
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of airouter",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "airouter %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads and validates the configuration named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newRouter builds the provider registry and the router on top of it.
func newRouter(ctx context.Context, cfg *config.Config) (*router.Router, *provider.Registry, error) {
	reg, err := provider.NewDefaultRegistry(ctx, cfg.Providers)
	if err != nil {
		return nil, nil, fmt.Errorf("creating providers: %w", err)
	}
	r := router.New(reg, cfg.Router.AttemptTimeout, router.WithWordDelay(max(cfg.Router.StreamWordDelay, 0)))
	return r, reg, nil
}
