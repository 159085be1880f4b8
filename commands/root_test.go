package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Intrinsec/mactime/internal/core/model"
	"github.com/Intrinsec/mactime/internal/testing/fixtures"
)

const mftCSV = "Datetime,MACB,Meta,Size,FileName\n" +
	"2020-07-21 00:38:18,macb,0-128-6,1835008,c:/$MFT\n"

// execute runs the root command with fresh flag values.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.Flags().VisitAll(reset)
	rootCmd.PersistentFlags().VisitAll(reset)

	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestExpandPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected func(string) string
	}{
		{
			name:  "home directory expansion",
			input: "~/test/path",
			expected: func(home string) string {
				return filepath.Join(home, "test/path")
			},
		},
		{
			name:  "absolute path unchanged",
			input: "/absolute/path",
			expected: func(home string) string {
				return "/absolute/path"
			},
		},
		{
			name:  "relative path converted to absolute",
			input: "relative/path",
			expected: func(home string) string {
				abs, _ := filepath.Abs("relative/path")
				return abs
			},
		},
	}

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandPath(tt.input)
			expected := tt.expected(home)
			assert.Equal(t, expected, result)
		})
	}
}

func TestEnsureDir(t *testing.T) {
	tempDir := t.TempDir()
	testDir := filepath.Join(tempDir, "test", "nested", "dir")

	err := ensureDir(testDir)
	assert.NoError(t, err)

	// Verify directory was created
	info, err := os.Stat(testDir)
	assert.NoError(t, err)
	assert.True(t, info.IsDir())

	// Test idempotency
	err = ensureDir(testDir)
	assert.NoError(t, err)
}

func TestRootCommandFlags(t *testing.T) {
	tests := []struct {
		flag         string
		defaultValue string
		shorthand    string
	}{
		{"bodyfile", "", "b"},
		{"output", "-", "o"},
		{"filter", "", "f"},
		{"sort", "false", "s"},
		{"cache-dir", "", ""},
		{"reset", "false", "r"},
		{"metrics-file", "", ""},
		{"watch", "false", "w"},
		{"quiet", "false", "q"},
		{"config", "", ""},
		{"debug", "false", ""},
		{"log-file", "", ""},
		{"log-format", "text", ""},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			flag := rootCmd.Flags().Lookup(tt.flag)
			if flag == nil {
				flag = rootCmd.PersistentFlags().Lookup(tt.flag)
			}
			require.NotNil(t, flag)
			assert.Equal(t, tt.defaultValue, flag.DefValue)
			assert.Equal(t, tt.shorthand, flag.Shorthand)
		})
	}
}

func TestRunTimelineToStdout(t *testing.T) {
	g := fixtures.NewTestDataGenerator(t.TempDir())
	input, err := g.GenerateBodyfile("body.txt", fixtures.MFTRecord())
	require.NoError(t, err)

	stdout, stderr, err := execute(t, "", "-b", input)
	require.NoError(t, err)

	assert.Equal(t, mftCSV, stdout)
	assert.Contains(t, stderr, "Number of file records read from "+input+": 1")
	assert.Contains(t, stderr, "Number of datetime records read from "+input+": 1")
	assert.NotContains(t, stderr, "Datetime,MACB", "the timeline never goes to stderr")
}

func TestRunTimelineToFile(t *testing.T) {
	dir := t.TempDir()
	g := fixtures.NewTestDataGenerator(dir)
	input, err := g.GenerateBodyfile("body.txt", fixtures.Record("b", 10, 4, 3, 2, 1))
	require.NoError(t, err)
	output := filepath.Join(dir, "timeline.csv")

	stdout, _, err := execute(t, "", "-b", input, "-o", output, "--sort", "--quiet")
	require.NoError(t, err)
	assert.Empty(t, stdout)

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "1970-01-01 00:00:01,...b,0-128-6,10,b", lines[1])
	assert.Equal(t, "1970-01-01 00:00:04,.a..,0-128-6,10,b", lines[4])
}

func TestRunTimelineFromStdin(t *testing.T) {
	stdout, stderr, err := execute(t, fixtures.MFTLine+"\n", "-b", "-", "-q")
	require.NoError(t, err)

	assert.Equal(t, mftCSV, stdout)
	assert.Empty(t, stderr)
}

func TestRunTimelineMalformedLinesAreSkipped(t *testing.T) {
	g := fixtures.NewTestDataGenerator(t.TempDir())
	input, err := g.GenerateMalformedScenario("body.txt")
	require.NoError(t, err)

	stdout, stderr, err := execute(t, "", "-b", input)
	require.NoError(t, err)

	assert.Equal(t, mftCSV, stdout)
	assert.Contains(t, stderr, "Number of file records read from "+input+": 1")
}

func TestRunTimelineErrors(t *testing.T) {
	g := fixtures.NewTestDataGenerator(t.TempDir())
	input, err := g.GenerateBodyfile("body.txt", fixtures.MFTRecord())
	require.NoError(t, err)

	tests := []struct {
		name   string
		args   []string
		target error
		errMsg string
	}{
		{
			name:   "missing bodyfile flag",
			args:   []string{},
			errMsg: `required flag(s) "bodyfile" not set`,
		},
		{
			name:   "filter without range",
			args:   []string{"-b", input, "-f", "2020-01-01"},
			target: model.ErrInvalidDateFilter,
		},
		{
			name:   "filter start after end",
			args:   []string{"-b", input, "-f", "2020-02-01..2020-01-01"},
			target: model.ErrInvalidDateFilter,
		},
		{
			name:   "nonexistent bodyfile",
			args:   []string{"-b", filepath.Join(t.TempDir(), "missing.txt")},
			target: os.ErrNotExist,
		},
		{
			name:   "watch on stdin",
			args:   []string{"-b", "-", "--watch"},
			errMsg: "--watch needs a bodyfile path",
		},
		{
			name:   "unexpected argument",
			args:   []string{"-b", input, "extra"},
			errMsg: "unknown command",
		},
		{
			name:   "bad log format",
			args:   []string{"-b", input, "--log-format", "xml"},
			errMsg: "unknown log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, "", tt.args...)
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
			assert.Empty(t, stdout)
		})
	}
}

func TestRunTimelineConfigFile(t *testing.T) {
	dir := t.TempDir()
	g := fixtures.NewTestDataGenerator(dir)
	input, err := g.GenerateBodyfile("body.txt",
		fixtures.Record("b", 10, 4, 3, 2, 1),
		fixtures.Record("a", 20, 1, 1, 1, 1),
	)
	require.NoError(t, err)

	configOutput := filepath.Join(dir, "from-config.csv")
	configPath := filepath.Join(dir, "mactime.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(
		"output: "+configOutput+"\nsort: true\nquiet: true\nfilter: 1970-01-01..1970-01-01\n"), 0644))

	// Config values apply
	_, stderr, err := execute(t, "", "-b", input, "--config", configPath)
	require.NoError(t, err)
	assert.Empty(t, stderr)

	content, err := os.ReadFile(configOutput)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "1970-01-01 00:00:01,macb,0-128-6,20,a", lines[1])

	// Flags win over the config file
	stdout, _, err := execute(t, "", "-b", input, "--config", configPath, "-o", "-", "-f", "1970-01-02..1970-01-03")
	require.NoError(t, err)
	assert.Equal(t, "Datetime,MACB,Meta,Size,FileName\n", stdout)
}

func TestRunTimelineCacheAndMetrics(t *testing.T) {
	dir := t.TempDir()
	g := fixtures.NewTestDataGenerator(dir)
	input, err := g.GenerateBodyfile("body.txt", fixtures.MFTRecord())
	require.NoError(t, err)
	cacheDir := filepath.Join(dir, "cache")
	metricsFile := filepath.Join(dir, "metrics", "mactime.prom")

	args := []string{"-b", input, "--cache-dir", cacheDir, "--metrics-file", metricsFile}

	_, stderr, err := execute(t, "", args...)
	require.NoError(t, err)
	assert.Contains(t, stderr, "miss (Cache not found)")

	stdout, stderr, err := execute(t, "", args...)
	require.NoError(t, err)
	assert.Equal(t, mftCSV, stdout)
	assert.Contains(t, stderr, "Cache:                 hit")

	_, stderr, err = execute(t, "", append(args, "--reset")...)
	require.NoError(t, err)
	assert.Contains(t, stderr, "miss (Cache not found)")

	content, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "mactime_runs_total 1")
}

func TestRunTimelineLogFile(t *testing.T) {
	dir := t.TempDir()
	g := fixtures.NewTestDataGenerator(dir)
	input, err := g.GenerateMalformedScenario("body.txt")
	require.NoError(t, err)
	logPath := filepath.Join(dir, "logs", "mactime.log")

	_, _, err = execute(t, "", "-b", input, "-q", "--log-file", logPath, "--log-format", "json")
	require.NoError(t, err)

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"message":"Error deserializing record"`)
}
