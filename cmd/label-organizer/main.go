// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the label-organizer CLI.
// Splits label sheet PDFs into per-label page pairs, groups them by model
// number from the SKU workbook, and packages the result as a zip archive.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/label-organizer/internal/archive"
	"github.com/pdiddy/label-organizer/internal/logging"
	"github.com/pdiddy/label-organizer/internal/sku"
	"github.com/pdiddy/label-organizer/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the label-organizer CLI.
var rootCmd = &cobra.Command{
	Use:   "label-organizer",
	Short: "Split and organize shipping labels by model number",
	Long: `label-organizer splits multi-page label sheet PDFs into two-page labels,
reads the SKU code printed on each label, maps it to a model number using the
SKU workbook, and writes one PDF per model number into a zip archive.

Use split for one-off runs from the shell and serve for the upload form.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is not an error.
		_ = godotenv.Load()
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./label-organizer.yaml or ~/.config/label-organizer/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("history-dir", "", "directory for the run history database (default .label-organizer)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("label-organizer")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "label-organizer"))
		}
	}

	viper.SetEnvPrefix("LABEL_ORGANIZER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so that Unmarshal sees
// LABEL_ORGANIZER_<SECTION>_<KEY> variables even without a config file.
// Zero values leave the default to the package that owns the setting.
func setDefaults() {
	viper.SetDefault("mapping.sheet", "")
	viper.SetDefault("mapping.header_row", 9)
	viper.SetDefault("mapping.sku_column", "B")
	viper.SetDefault("mapping.model_column", "C")

	viper.SetDefault("match.pattern", sku.DefaultPattern)
	viper.SetDefault("match.fallback", types.DefaultFallbackLabel)
	viper.SetDefault("match.backend", string(types.BackendNative))

	viper.SetDefault("output.archive_name", archive.DefaultName)
	viper.SetDefault("output.dir", "")
	viper.SetDefault("output.omit_manifest", false)

	viper.SetDefault("server.addr", defaultAddr)
	viper.SetDefault("server.max_upload_bytes", 0)
	viper.SetDefault("server.read_timeout", time.Duration(0))
	viper.SetDefault("server.write_timeout", time.Duration(0))

	viper.SetDefault("history.dir", ".label-organizer")
	viper.SetDefault("history.disabled", false)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
}

// loadConfig decodes the viper settings and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetString("history-dir"); v != "" {
		cfg.History.Dir = v
	}
	return cfg, nil
}

// truncate shortens s to at most n runes for table output.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func newLogger(cfg types.Config) zerolog.Logger {
	return logging.New(cfg.Log, os.Stderr)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
