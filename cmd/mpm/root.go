package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	logLevel  string
	quiet     bool
	yesToAll  bool
	rootFlag  string
	manifestF string
)

// rootCmd is the application entry point.
var rootCmd = &cobra.Command{
	Use:   "mpm",
	Short: "A declarative package manager for Minecraft-like game server plugins",
	Long: `mpm manages a server's plugin directory declaratively: a manifest file
records which plugins are managed and at what version, and mpm resolves,
downloads, installs, updates, and backs up plugins against a configurable
set of upstream repositories (GitHub, Modrinth, Hangar, SpigotMC, Jenkins).`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mpm/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all log output, errors included")
	rootCmd.PersistentFlags().BoolVarP(&yesToAll, "yes", "y", false, "assume yes for destructive operation confirmations")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "server root directory (default is the working directory)")
	rootCmd.PersistentFlags().StringVar(&manifestF, "manifest", "", "manifest file name within root (default \"mpm.json\")")
}

// initConfig loads configuration from the config file and environment, in
// the shape of the optional ~/.mpm/config.yaml global tool config. The keys
// read (by withContainer) are root, manifest, backup_retain, local_sources
// and remote_sources.
func initConfig() {
	viper.SetEnvPrefix("mpm")
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			slog.Error("failed to read specified config file", "file", cfgFile, "error", err)
			os.Exit(1)
		}
		slog.Debug("using config file", "file", viper.ConfigFileUsed())
		return
	}

	home, err := os.UserHomeDir()
	if err != nil {
		slog.Error("failed to find home directory", "error", err)
		os.Exit(1)
	}

	viper.AddConfigPath(home + "/.mpm")
	viper.SetConfigType("yaml")
	viper.SetConfigName("config")

	if err := viper.ReadInConfig(); err == nil {
		slog.Debug("using config file", "file", viper.ConfigFileUsed())
	}
	// Silently continue if the default config doesn't exist.
}

func setupLogging() {
	level := parseLogLevel(logLevel)
	if quiet {
		level = slog.LevelError + 1
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
