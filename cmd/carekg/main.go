// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the carekg CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// logCloser releases the rotating log file, when one is open.
var logCloser io.Closer

// rootCmd is the base command for the carekg CLI.
var rootCmd = &cobra.Command{
	Use:   "carekg",
	Short: "Build a geriatric care knowledge graph from public guidelines",
	Long: `carekg turns public clinical guidance for older adults into a knowledge
graph of care tasks, scoring rules, medication alerts, safety actions and
screening questions.

Each pipeline stage is a subcommand: crawl fetches guideline pages, clean
reduces them to relevant text, extract runs the rule-based extraction
engine, and graph stores, queries and exports the result.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		bindFlags(cmd.Flags())
		closer, err := setupLogging(logConfig())
		if err != nil {
			return err
		}
		logCloser = closer
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./carekg.yaml or ~/.config/carekg/carekg.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-file", "", "write JSON logs to this rotating file instead of stderr")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("carekg")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "carekg"))
		}
	}

	viper.SetEnvPrefix("CAREKG")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// bindFlags binds every flag of the running command to the viper key of
// the same name with dashes turned into underscores, so "pages-dir" reads
// from --pages-dir, CAREKG_PAGES_DIR, or pages_dir in the config file.
func bindFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viper.BindPFlag(configKey(f.Name), f)
	})
}

func configKey(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

// setting helpers read a flag's value through viper.

func stringSetting(flag string) string { return viper.GetString(configKey(flag)) }

func intSetting(flag string) int { return viper.GetInt(configKey(flag)) }

func boolSetting(flag string) bool { return viper.GetBool(configKey(flag)) }

func stringsSetting(flag string) []string { return viper.GetStringSlice(configKey(flag)) }

func durationSetting(flag string) time.Duration { return viper.GetDuration(configKey(flag)) }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
