package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Intrinsec/mactime/internal/core/model"
	"github.com/Intrinsec/mactime/internal/util"
)

// StdinPath selects standard input as the bodyfile source.
const StdinPath = "-"

var (
	ErrFieldCount = errors.New("wrong number of fields")
	ErrTimestamp  = errors.New("invalid timestamp")
	ErrSize       = errors.New("invalid size")
)

// FailureKind classifies why a line was rejected.
type FailureKind int

const (
	FailureFieldCount FailureKind = iota
	FailureTimestamp
	FailureSize
)

func (k FailureKind) String() string {
	switch k {
	case FailureFieldCount:
		return "field count"
	case FailureTimestamp:
		return "timestamp"
	case FailureSize:
		return "size"
	default:
		return "unknown"
	}
}

// LineError describes a rejected bodyfile line.
type LineError struct {
	Line int         `json:"line"`
	Kind FailureKind `json:"kind"`
	Msg  string      `json:"msg"`
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *LineError) Unwrap() error {
	switch e.Kind {
	case FailureFieldCount:
		return ErrFieldCount
	case FailureTimestamp:
		return ErrTimestamp
	case FailureSize:
		return ErrSize
	default:
		return nil
	}
}

// ParseResult holds the decoded entries and the rejected lines of one input.
type ParseResult struct {
	Entries  []model.Entry `json:"entries"`
	Failures []*LineError  `json:"failures"`
	Lines    int           `json:"lines"`
}

// Parser decodes bodyfile lines into entries.
type Parser struct {
	maxLineSize int
}

// NewParser creates a new Parser instance.
func NewParser() *Parser {
	return &Parser{maxLineSize: 10 * 1024 * 1024}
}

// ParseFile parses the bodyfile at path. StdinPath reads standard input.
// Only failures to open or read the input are returned as errors.
func (p *Parser) ParseFile(path string) (*ParseResult, error) {
	if path == StdinPath {
		util.LogDebug("Start parsing bodyfile from standard input")
		return p.Parse(os.Stdin)
	}

	util.LogDebugf("Start parsing file: %s", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bodyfile: %w", err)
	}
	defer file.Close()

	return p.Parse(file)
}

// Parse reads bodyfile lines from r. Malformed lines are logged and skipped.
func (p *Parser) Parse(r io.Reader) (*ParseResult, error) {
	start := time.Now()
	result := &ParseResult{}

	scanner := bufio.NewScanner(r)
	bufSize := 64 * 1024
	if p.maxLineSize < bufSize {
		bufSize = p.maxLineSize
	}
	scanner.Buffer(make([]byte, 0, bufSize), p.maxLineSize)

	for scanner.Scan() {
		result.Lines++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		entry, lineErr := ParseLine(line, result.Lines)
		if lineErr != nil {
			LogFailure(lineErr)
			result.Failures = append(result.Failures, lineErr)
			continue
		}
		result.Entries = append(result.Entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bodyfile at line %d: %w", result.Lines+1, err)
	}

	util.LogDebugf("Parsed %d lines in %v: %d entries, %d malformed",
		result.Lines, time.Since(start), len(result.Entries), len(result.Failures))

	return result, nil
}

// LogFailure reports a rejected line on the diagnostic log.
func LogFailure(e *LineError) {
	util.LogWarn("Error deserializing record",
		util.F("line", e.Line),
		util.F("kind", e.Kind.String()),
		util.F("error", e.Msg))
}

// ParseLine decodes a single bodyfile line:
//
//	md5|name|inode|mode_as_string|uid|gid|size|atime|mtime|ctime|crtime
func ParseLine(line string, lineNo int) (model.Entry, *LineError) {
	fields := strings.Split(line, model.BodyfileDelimiter)
	if len(fields) != len(model.BodyfileFields) {
		return model.Entry{}, &LineError{
			Line: lineNo,
			Kind: FailureFieldCount,
			Msg:  fmt.Sprintf("expected %d fields, found %d", len(model.BodyfileFields), len(fields)),
		}
	}

	size, err := strconv.ParseUint(fields[model.FieldSize], 10, 64)
	if err != nil {
		return model.Entry{}, &LineError{
			Line: lineNo,
			Kind: FailureSize,
			Msg:  fmt.Sprintf("field size: %q is not an unsigned integer", fields[model.FieldSize]),
		}
	}

	entry := model.Entry{
		Name: fields[model.FieldName],
		Meta: fields[model.FieldInode],
		Size: size,
		Line: lineNo,
	}

	times := []struct {
		field int
		dst   *time.Time
	}{
		{model.FieldAtime, &entry.Atime},
		{model.FieldMtime, &entry.Mtime},
		{model.FieldCtime, &entry.Ctime},
		{model.FieldCrtime, &entry.Crtime},
	}
	for _, tf := range times {
		t, err := ParseEpoch(fields[tf.field])
		if err != nil {
			return model.Entry{}, &LineError{
				Line: lineNo,
				Kind: FailureTimestamp,
				Msg:  fmt.Sprintf("field %s: %v", model.BodyfileFields[tf.field], err),
			}
		}
		*tf.dst = t
	}

	return entry, nil
}

// ParseEpoch converts a decimal, possibly negative, Unix epoch second to a UTC instant.
func ParseEpoch(s string) (time.Time, error) {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not an integer epoch: %w", s, ErrTimestamp)
	}
	return time.Unix(secs, 0).UTC(), nil
}
