package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pvasilyev/factfuse/internal/cache"
	"github.com/pvasilyev/factfuse/internal/logging"
	"github.com/pvasilyev/factfuse/internal/model"
	"github.com/pvasilyev/factfuse/internal/store"
)

var (
	cfgFile  string
	verbose  bool
	logLevel string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "factfuse",
	Short: "Factfuse - fact attribution and evidence-weighted merge for loan documents",
	Long: `Factfuse turns per-document extracted facts from scanned loan-application
documents into per-borrower and per-application records.

Facts arrive with evidence and nearby names; factfuse resolves each fact
to its owner using proximity and source trust weights, then merges records
across documents and scores every merged value HIGH, MEDIUM or LOW based
on how much evidence weight agrees versus disagrees.

Every resulting value stays traceable to the exact document, page and
quote it came from.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for Factfuse.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("factfuse v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.factfuse/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.factfuse")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match FACTFUSE_*
	viper.SetEnvPrefix("FACTFUSE")
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig layers the config file and environment over the defaults.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid configuration, using defaults: %v\n", err)
		cfg = model.DefaultConfig()
	}
	cfg.Output.Verbose = verbose
	applyLLMKeys(cfg)
	return cfg
}

// applyLLMKeys pulls provider credentials from the environment. Keys never
// live in the config file.
func applyLLMKeys(cfg *model.Config) {
	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}
}

// storeLabel describes the effective persistence target for verbose output.
func storeLabel(cfg *model.Config, disabled bool) string {
	if disabled {
		return "disabled"
	}
	if cfg.Store.Driver == "" {
		return "memory"
	}
	return cfg.Store.Driver
}

// openRepository builds the persistence backend selected in the config.
func openRepository(ctx context.Context, cfg *model.Config) (store.Repository, error) {
	switch cfg.Store.Driver {
	case "", "memory":
		return store.NewMemoryRepository(), nil
	case "postgres":
		if cfg.Store.DSN == "" {
			return nil, fmt.Errorf("store driver postgres requires store.dsn")
		}
		return store.NewPostgresRepository(ctx, cfg.Store.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// buildCache builds the read-side cache, or nil when disabled.
func buildCache(cfg *model.Config) cache.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}
	ttl := cfg.Cache.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if cfg.Cache.Dir != "" {
		return cache.NewLayeredCache(ttl, cfg.Cache.Dir, ttl)
	}
	return cache.NewMemoryCache(ttl, 2*ttl)
}

// newLogger builds the process logger from the --log-level flag.
func newLogger() *slog.Logger {
	return logging.New(logLevel)
}
