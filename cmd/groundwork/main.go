// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the groundwork CLI. It answers
// requests from a local document folder through the plan, retrieve,
// extract, draft and verify pipeline, and can serve the same pipeline
// over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/groundwork/internal/app"
	"github.com/pdiddy/groundwork/internal/logging"
	"github.com/pdiddy/groundwork/internal/secrets"
	"github.com/pdiddy/groundwork/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

var rootCmd = &cobra.Command{
	Use:   "groundwork",
	Short: "Grounded answers from your own documents",
	Long: `groundwork answers requests using only the documents in a local data
folder. Every request runs through a fixed pipeline: a planner breaks the
request down, a retriever scopes excerpts from the index, an extractor turns
them into cited facts, a drafter writes the deliverable and a verifier audits
it against the facts. Each answer carries a trace of what every stage did.

Build the index with "groundwork index rebuild" before asking questions.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/", nil)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./groundwork.yaml or ~/.config/groundwork/groundwork.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "document folder (overrides corpus.data_dir)")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error (overrides log.level)")

	_ = viper.BindPFlag("corpus.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("groundwork")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "groundwork"))
		}
	}

	viper.SetEnvPrefix("GROUNDWORK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(types.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers the keys most often overridden from the
// environment; AutomaticEnv only reaches keys viper already knows.
func setDefaults(d types.Config) {
	viper.SetDefault("ai.model", d.AI.Model)
	viper.SetDefault("ai.api_key", d.AI.APIKey)
	viper.SetDefault("ai.base_url", d.AI.BaseURL)
	viper.SetDefault("embedding.model", d.Embedding.Model)
	viper.SetDefault("corpus.data_dir", d.Corpus.DataDir)
	viper.SetDefault("corpus.convert_pdf", d.Corpus.ConvertPDF)
	viper.SetDefault("index.dir", d.Index.Dir)
	viper.SetDefault("log.level", d.Log.Level)
	viper.SetDefault("log.development", d.Log.Development)
	viper.SetDefault("server.addr", d.Server.Addr)
}

// loadConfig overlays the config file and environment on the defaults and
// validates the result.
func loadConfig() (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// openApp loads configuration, builds the logger and wires the app. The
// caller closes the app and syncs the logger.
func openApp(ctx context.Context) (*app.App, types.Config, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, cfg, nil, err
	}

	apiKey := cfg.AI.APIKey
	if apiKey == "" {
		apiKey, err = secrets.Require(loadedSecrets, secrets.KeyOpenAI)
		if err != nil {
			return nil, cfg, logger, err
		}
	}

	a, err := app.New(ctx, cfg, apiKey, app.Deps{}, logger)
	if err != nil {
		return nil, cfg, logger, err
	}
	return a, cfg, logger, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
