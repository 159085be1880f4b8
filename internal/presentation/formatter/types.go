package formatter

import (
	"sort"
	"time"
)

// Report is what one run hands back to the caller for display.
type Report struct {
	Input      string
	Output     string
	Filter     string
	Sorted     bool
	Lines      int
	Entries    int
	Events     int
	Rows       int
	FailedRows int
	// Malformed counts rejected lines per failure kind.
	Malformed map[string]int
	// Categories counts emitted events per MACB pattern.
	Categories map[string]int
	First      time.Time
	Last       time.Time
	Cache      CacheStatus
	Phases     []PhaseDuration
	Total      time.Duration
}

type CacheStatus struct {
	Enabled bool
	Hit     bool
	Reason  string
}

type PhaseDuration struct {
	Phase    string
	Duration time.Duration
}

// MalformedTotal returns the number of rejected lines.
func (r *Report) MalformedTotal() int {
	total := 0
	for _, n := range r.Malformed {
		total += n
	}
	return total
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
