package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/noxical/noxical/internal/compiler"
	"github.com/noxical/noxical/internal/config"
	"github.com/noxical/noxical/internal/driver"
	"github.com/noxical/noxical/internal/history"
)

var (
	cfgPath    string
	inputDir   string
	outputPath string
	watchMode  bool
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "noxical --input <directory>",
		Short: "Compile Noxical sources into TypeScript bindings",
		Long: "Compiles the Noxical sources in an input folder into a generated TypeScript\n" +
			"bindings file. With --watch the folder is monitored and recompiled on changes.",
		RunE:         runCompile,
		SilenceUsage: true,
	}
	rootCmd.Flags().StringVar(&inputDir, "input", "", "input directory containing Noxical sources")
	rootCmd.Flags().StringVar(&outputPath, "output", "", "output file for generated bindings (overrides config)")
	rootCmd.Flags().BoolVar(&watchMode, "watch", false, "watch the input directory and recompile on changes")
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	_ = rootCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(newConfigCmd(), newHistoryCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	setupLogging(cfg.LogLevel, verbose)

	info, err := os.Stat(inputDir)
	if err != nil {
		return fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("input path %s is not a directory", inputDir)
	}

	if outputPath != "" {
		cfg.OutputPath = outputPath
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensuring directories: %w", err)
	}

	store, err := history.NewStore(cfg.HistoryDBPath)
	if err != nil {
		return fmt.Errorf("opening build history: %w", err)
	}
	defer func() { _ = store.Close() }()

	noxc := compiler.New(cfg.SourceExtension, cfg.OutputPath)
	d := driver.New(cfg, inputDir, noxc, store, os.Stdout)

	if !watchMode {
		if outcome := d.RunOnce(); !outcome.Success {
			return errors.New("compilation failed")
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return d.Watch(ctx)
}

func setupLogging(level string, verbose bool) {
	logLevel := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}
