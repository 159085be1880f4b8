package analyzer

import (
	"fmt"
	"sort"

	"github.com/Intrinsec/mactime/internal/data/cache"
	"github.com/Intrinsec/mactime/internal/data/parser"
	"github.com/Intrinsec/mactime/internal/util"
)

// ParseStats holds the outcome of reading one bodyfile
type ParseStats struct {
	lines      int
	entries    int
	failures   map[parser.FailureKind]int
	cacheUsed  bool
	cacheHit   bool
	missReason cache.CacheMissReason
}

// NewParseStats creates a new ParseStats instance
func NewParseStats() *ParseStats {
	return &ParseStats{
		failures: make(map[parser.FailureKind]int),
	}
}

// Record adds the counts of a parse result
func (ps *ParseStats) Record(result *parser.ParseResult) {
	ps.lines += result.Lines
	ps.entries += len(result.Entries)
	for _, f := range result.Failures {
		ps.failures[f.Kind]++
	}
}

// RecordCache remembers how the cache served the input
func (ps *ParseStats) RecordCache(hit bool, reason cache.CacheMissReason) {
	ps.cacheUsed = true
	ps.cacheHit = hit
	ps.missReason = reason
}

func (ps *ParseStats) Malformed() int {
	total := 0
	for _, n := range ps.failures {
		total += n
	}
	return total
}

// FailuresByKind returns the malformed line counts keyed by failure kind name
func (ps *ParseStats) FailuresByKind() map[string]int {
	out := make(map[string]int, len(ps.failures))
	for kind, n := range ps.failures {
		out[kind.String()] = n
	}
	return out
}

// PrintFinalStats logs the parse statistics and a summary of failure kinds
func (ps *ParseStats) PrintFinalStats(input string) {
	util.LogDebug(fmt.Sprintf("Parse statistics for %s: %d lines, %d entries, %d malformed",
		input, ps.lines, ps.entries, ps.Malformed()))

	if ps.cacheUsed {
		if ps.cacheHit {
			util.LogDebug("Parsed entries served from cache")
		} else {
			util.LogDebug(fmt.Sprintf("Cache miss: %s", ps.missReason))
		}
	}

	if ps.Malformed() > 0 {
		util.LogInfo(fmt.Sprintf("Skipped %d malformed records", ps.Malformed()))
		for _, kind := range ps.failureKinds() {
			util.LogInfo(fmt.Sprintf("  %s: %d lines", kind, ps.failures[kind]))
		}
	}
}

// failureKinds returns the recorded failure kinds in declaration order.
func (ps *ParseStats) failureKinds() []parser.FailureKind {
	kinds := make([]parser.FailureKind, 0, len(ps.failures))
	for kind := range ps.failures {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
