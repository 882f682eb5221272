// Package main provides the trafficast binary entry point.
// Trafficast predicts interstate traffic volume from weather and calendar
// inputs: it runs the offline pipeline stages (fetch, clean, features,
// train, evaluate) and serves the trained model over HTTP.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/smartcity/trafficast/internal/config"
)

const (
	Version   = "1.0.0"
	BuildTime = "dev"
	appName   = "trafficast"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "trafficast",
		Short: "Traffic volume prediction pipeline and server",
		Long: `Trafficast predicts interstate traffic volume from weather and
calendar inputs.

The offline stages (fetch, clean, features, train, evaluate) prepare the
dataset and fit the model; predict scores a single record from the command
line; serve exposes the trained model over HTTP.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Environment variables may carry the database URL and port.
			if err := godotenv.Load(); err != nil {
				slog.Debug("no .env file found, using system environment")
			}
			setupLogging(logLevel)
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/pipeline.yaml", "Pipeline config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		fetchCmd(&configPath),
		cleanCmd(&configPath),
		featuresCmd(&configPath),
		trainCmd(&configPath),
		evaluateCmd(&configPath),
		predictCmd(&configPath),
		serveCmd(&configPath),
		initDBCmd(),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func setupLogging(logLevel string) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func loadPipelineConfig(path string) (*config.Pipeline, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
