package analyzer

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Intrinsec/mactime/internal/core/model"
	"github.com/Intrinsec/mactime/internal/core/timeline"
	"github.com/Intrinsec/mactime/internal/data/cache"
	"github.com/Intrinsec/mactime/internal/data/parser"
	"github.com/Intrinsec/mactime/internal/metrics"
	"github.com/Intrinsec/mactime/internal/presentation/formatter"
	"github.com/Intrinsec/mactime/internal/util"
)

// StdoutName is how standard output is shown in reports.
const StdoutName = "stdout"

type Config struct {
	// Input is the bodyfile path, "-" for standard input.
	Input string
	// Output is the CSV path. Empty or "-" writes to Stdout.
	Output      string
	Filter      *model.DateFilter
	Sort        bool
	CacheDir    string
	MetricsFile string

	Stdin  io.Reader
	Stdout io.Writer
}

type Analyzer struct {
	config    *Config
	cache     cache.Cache
	parser    *parser.Parser
	builder   *timeline.TimelineBuilder
	formatter *formatter.CSVFormatter
	metrics   *metrics.Recorder
}

func New(config *Config) *Analyzer {
	if config.Stdin == nil {
		config.Stdin = os.Stdin
	}
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}

	a := &Analyzer{
		config:    config,
		parser:    parser.NewParser(),
		builder:   timeline.NewTimelineBuilder(config.Filter),
		formatter: formatter.NewCSVFormatter(),
	}

	if config.CacheDir != "" {
		fileCache, err := cache.NewFileCache(config.CacheDir)
		if err != nil {
			util.LogWarn(fmt.Sprintf("Cache disabled, unable to use %s: %v", config.CacheDir, err))
		} else {
			a.cache = fileCache
		}
	}

	if config.MetricsFile != "" {
		a.metrics = metrics.NewRecorder()
	}

	return a
}

// Run converts the bodyfile into a CSV timeline. Malformed lines and rows
// that cannot be written are skipped; only failures to open, read or flush
// a file are returned.
func (a *Analyzer) Run() (*formatter.Report, error) {
	startTime := time.Now()
	report := &formatter.Report{
		Input:  a.config.Input,
		Output: a.outputName(),
		Filter: a.config.Filter.String(),
	}

	// Phase 1: Parse bodyfile
	parseStart := time.Now()
	stats := NewParseStats()
	result, err := a.parse(stats)
	if err != nil {
		return nil, err
	}
	parseDuration := time.Since(parseStart)
	util.LogDebug(fmt.Sprintf("Phase 1 - Parse duration: %v, %d entries", parseDuration, len(result.Entries)))
	stats.PrintFinalStats(a.config.Input)

	// Phase 2: Build timeline
	buildStart := time.Now()
	tl := a.builder.Build(result.Entries)
	buildDuration := time.Since(buildStart)
	util.LogDebug(fmt.Sprintf("Phase 2 - Build duration: %v, %d events", buildDuration, tl.EventCount()))

	// Phase 3: Sort events
	sortStart := time.Now()
	if a.config.Sort {
		tl.Sort()
	}
	sortDuration := time.Since(sortStart)
	util.LogDebug(fmt.Sprintf("Phase 3 - Sort duration: %v", sortDuration))

	// Phase 4: Emit CSV
	emitStart := time.Now()
	emitted, err := a.emit(tl.Events)
	if err != nil {
		return nil, err
	}
	emitDuration := time.Since(emitStart)
	util.LogDebug(fmt.Sprintf("Phase 4 - Emit duration: %v, %d rows", emitDuration, emitted.Rows))

	totalDuration := time.Since(startTime)
	util.LogDebug(fmt.Sprintf("Total duration: %v (parse:%v build:%v sort:%v emit:%v)",
		totalDuration, parseDuration, buildDuration, sortDuration, emitDuration))

	report.Lines = result.Lines
	report.Entries = tl.EntryCount()
	report.Events = tl.EventCount()
	report.Sorted = tl.Sorted
	report.Rows = emitted.Rows
	report.FailedRows = emitted.Failed
	report.Malformed = stats.FailuresByKind()
	report.Categories = countCategories(tl.Events)
	report.First, report.Last = timeRange(tl.Events)
	report.Cache = formatter.CacheStatus{
		Enabled: stats.cacheUsed,
		Hit:     stats.cacheHit,
	}
	if stats.cacheUsed && !stats.cacheHit {
		report.Cache.Reason = stats.missReason.String()
	}
	report.Phases = []formatter.PhaseDuration{
		{Phase: "parse", Duration: parseDuration},
		{Phase: "build", Duration: buildDuration},
		{Phase: "sort", Duration: sortDuration},
		{Phase: "emit", Duration: emitDuration},
	}
	report.Total = totalDuration

	a.writeMetrics(report)

	return report, nil
}

// ResetCache drops every cached parse result.
func (a *Analyzer) ResetCache() error {
	if a.cache == nil {
		return nil
	}
	_, fileCount := a.cache.GetCacheStats()
	util.LogInfo(fmt.Sprintf("Clearing parse cache (%d entries)", fileCount))
	return a.cache.Clear()
}

func (a *Analyzer) parse(stats *ParseStats) (*parser.ParseResult, error) {
	if a.config.Input == parser.StdinPath {
		result, err := a.parser.Parse(a.config.Stdin)
		if err != nil {
			return nil, err
		}
		stats.Record(result)
		return result, nil
	}

	if a.cache != nil {
		cached := a.cache.Get(a.config.Input)
		stats.RecordCache(cached.Found, cached.MissReason)
		if cached.Found {
			result := cached.Data.Result
			for _, f := range result.Failures {
				parser.LogFailure(f)
			}
			stats.Record(result)
			return result, nil
		}
	}

	var identity *cache.FileIdentity
	if a.cache != nil {
		var err error
		if identity, err = cache.Snapshot(a.config.Input); err != nil {
			util.LogDebugf("Parse result of %s will not be cached: %v", a.config.Input, err)
		}
	}

	result, err := a.parser.ParseFile(a.config.Input)
	if err != nil {
		return nil, err
	}
	stats.Record(result)

	if identity != nil {
		if err := a.cache.Set(a.config.Input, identity, result); err != nil {
			util.LogWarn(fmt.Sprintf("Failed to save cache for %s: %v", a.config.Input, err))
		}
	}

	return result, nil
}

func (a *Analyzer) emit(events []model.Event) (formatter.EmitResult, error) {
	if a.toStdout() {
		return a.formatter.Format(a.config.Stdout, events)
	}

	util.LogInfo(fmt.Sprintf("Writing CSV to %s", a.config.Output))
	file, err := os.Create(a.config.Output)
	if err != nil {
		return formatter.EmitResult{}, fmt.Errorf("failed to create output file: %w", err)
	}

	emitted, err := a.formatter.Format(file, events)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close output file: %w", closeErr)
	}
	return emitted, err
}

func (a *Analyzer) writeMetrics(report *formatter.Report) {
	if a.metrics == nil {
		return
	}
	a.metrics.Observe(report)
	if err := a.metrics.WriteTextfile(a.config.MetricsFile); err != nil {
		util.LogWarn(fmt.Sprintf("Failed to write metrics to %s: %v", a.config.MetricsFile, err))
	}
}

func (a *Analyzer) toStdout() bool {
	return a.config.Output == "" || a.config.Output == "-"
}

func (a *Analyzer) outputName() string {
	if a.toStdout() {
		return StdoutName
	}
	return a.config.Output
}

func countCategories(events []model.Event) map[string]int {
	counts := make(map[string]int)
	for _, ev := range events {
		counts[ev.MACB.String()]++
	}
	return counts
}

func timeRange(events []model.Event) (first, last time.Time) {
	for i, ev := range events {
		if i == 0 || ev.Datetime.Before(first) {
			first = ev.Datetime
		}
		if i == 0 || ev.Datetime.After(last) {
			last = ev.Datetime
		}
	}
	return first, last
}
