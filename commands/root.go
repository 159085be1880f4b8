package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Intrinsec/mactime/internal/analyzer"
	"github.com/Intrinsec/mactime/internal/config"
	"github.com/Intrinsec/mactime/internal/core/model"
	"github.com/Intrinsec/mactime/internal/data/parser"
	"github.com/Intrinsec/mactime/internal/data/watcher"
	"github.com/Intrinsec/mactime/internal/presentation/formatter"
	"github.com/Intrinsec/mactime/internal/util"
)

var (
	// Logging related
	debug     bool
	logFile   string
	logFormat string

	configFile string

	// Input and output
	bodyfile string
	output   string

	// Timeline shaping
	filter     string
	sortEvents bool

	// Cache, metrics and run control
	cacheDir    string
	reset       bool
	metricsFile string
	watch       bool
	quiet       bool

	rootCmd = &cobra.Command{
		Use:   "mactime -b <bodyfile> [flags]",
		Short: "Bodyfile to MACB timeline converter",
		Long: `mactime reads a bodyfile (as produced by fls, mft2bodyfile or similar
tools) and writes a CSV timeline with one row per distinct timestamp of
each file, flagged with the MACB letters it stands for.

Examples:
  mactime -b body.txt                                  # CSV timeline on standard output
  mactime -b body.txt -o timeline.csv --sort           # Sorted timeline written to a file
  mactime -b body.txt -f 2020-07-01..2020-07-31        # Only events from July 2020
  fls -r -m c: image.dd | mactime -b -                 # Read the bodyfile from standard input
  mactime -b body.txt --cache-dir ~/.mactime/cache     # Reuse parse results across runs
  mactime -b body.txt -o timeline.csv --watch          # Rebuild the timeline on every change`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTimeline,
	}
)

const watchQuietPeriod = 500 * time.Millisecond

func init() {
	// Input and output
	rootCmd.Flags().StringVarP(&bodyfile, "bodyfile", "b", "",
		"Bodyfile path, - for standard input")
	rootCmd.Flags().StringVarP(&output, "output", "o", "-",
		"CSV output path, - for standard output")
	_ = rootCmd.MarkFlagRequired("bodyfile")

	// Timeline shaping
	rootCmd.Flags().StringVarP(&filter, "filter", "f", "",
		model.DateFilterFormat)
	rootCmd.Flags().BoolVarP(&sortEvents, "sort", "s", false,
		"Sort events by date then file name")

	// Cache and metrics
	rootCmd.Flags().StringVar(&cacheDir, "cache-dir", "",
		"Directory for cached parse results (disabled when empty)")
	rootCmd.Flags().BoolVarP(&reset, "reset", "r", false,
		"Clear cache before processing")
	rootCmd.Flags().StringVar(&metricsFile, "metrics-file", "",
		"Write run metrics in the Prometheus text format to this file")

	// Run control
	rootCmd.Flags().BoolVarP(&watch, "watch", "w", false,
		"Rebuild the timeline each time the bodyfile changes")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false,
		"Do not print the run report")

	// System and debugging
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"YAML configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"Also write diagnostics to this file")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"Diagnostic format (text, json)")
}

func runTimeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Initialize logging
	loggerConfig := util.LoggerConfig{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Console: true,
	}
	if cfg.Log.File != "" {
		loggerConfig.File = expandPath(cfg.Log.File)
	}
	if err := util.InitLogger(loggerConfig); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer util.CloseLogger()

	dateFilter, err := cfg.DateFilter()
	if err != nil {
		return err
	}

	input := bodyfile
	if input != parser.StdinPath {
		input = expandPath(input)
	}
	if watch && input == parser.StdinPath {
		return fmt.Errorf("--watch needs a bodyfile path, not standard input")
	}

	analyzerConfig := &analyzer.Config{
		Input:  input,
		Output: cfg.Output,
		Filter: dateFilter,
		Sort:   cfg.Sort,
		Stdin:  cmd.InOrStdin(),
		Stdout: cmd.OutOrStdout(),
	}
	if cfg.Output != "-" {
		analyzerConfig.Output = expandPath(cfg.Output)
	}
	if cfg.CacheDir != "" {
		analyzerConfig.CacheDir = expandPath(cfg.CacheDir)
	}
	if cfg.MetricsFile != "" {
		analyzerConfig.MetricsFile = expandPath(cfg.MetricsFile)
		if err := ensureDir(filepath.Dir(analyzerConfig.MetricsFile)); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
	}

	a := analyzer.New(analyzerConfig)

	// Clear cache if needed
	if reset {
		if err := a.ResetCache(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
	}

	runOnce := func() error {
		report, err := a.Run()
		if err != nil {
			return err
		}
		if cfg.Quiet {
			return nil
		}
		return formatter.NewSummaryFormatter().Format(cmd.ErrOrStderr(), report)
	}

	if err := runOnce(); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	return watchBodyfile(cmd.Context(), input, runOnce)
}

// loadConfig merges the config file with the flags set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configFile
	if path != "" {
		path = expandPath(path)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output = output
	}
	if flags.Changed("filter") {
		cfg.Filter = filter
	}
	if flags.Changed("sort") {
		cfg.Sort = sortEvents
	}
	if flags.Changed("cache-dir") {
		cfg.CacheDir = cacheDir
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = metricsFile
	}
	if flags.Changed("quiet") {
		cfg.Quiet = quiet
	}
	if flags.Changed("log-file") {
		cfg.Log.File = logFile
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	if debug {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func watchBodyfile(parent context.Context, path string, run func() error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fw, err := watcher.NewFileWatcher(path)
	if err != nil {
		return fmt.Errorf("failed to watch bodyfile: %w", err)
	}
	defer fw.Close()

	util.LogInfo(fmt.Sprintf("Watching %s for changes, press Ctrl+C to stop", path))
	fw.Run(ctx, watchQuietPeriod, func() {
		if err := run(); err != nil {
			util.LogError(fmt.Sprintf("Timeline rebuild failed: %v", err))
		}
	})
	util.LogInfo("Stopped watching")
	return nil
}

func Execute() error {
	return rootCmd.Execute()
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
