package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/Intrinsec/mactime/internal/core/model"
	"github.com/Intrinsec/mactime/internal/presentation/layout"
	"github.com/Intrinsec/mactime/internal/util"
)

const labelWidth = 22

// SummaryFormatter writes the human readable run report.
type SummaryFormatter struct{}

// NewSummaryFormatter creates a new instance of SummaryFormatter.
func NewSummaryFormatter() *SummaryFormatter {
	return &SummaryFormatter{}
}

// Format writes the report of one run to w.
func (f *SummaryFormatter) Format(w io.Writer, r *Report) error {
	sizer := layout.NewSizer(w)
	width := sizer.GetMaxWidth()

	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "  %s %s\n", sizer.PadString(label+":", labelWidth, true), value)
	}

	b.WriteString(strings.Repeat("=", width) + "\n")
	b.WriteString("Timeline Summary Report\n")
	b.WriteString(strings.Repeat("=", width) + "\n\n")

	fmt.Fprintf(&b, "Number of file records read from %s: %d\n", r.Input, r.Entries)
	fmt.Fprintf(&b, "Number of datetime records read from %s: %d\n\n", r.Input, r.Events)

	b.WriteString("Input:\n")
	line("Bodyfile", sizer.Truncate(r.Input, width-labelWidth-3))
	line("Lines read", util.FormatCount(r.Lines))
	line("Malformed lines", util.FormatCount(r.MalformedTotal()))
	for _, kind := range SortedKeys(r.Malformed) {
		line("  "+kind, util.FormatCount(r.Malformed[kind]))
	}
	if r.Filter != "" {
		line("Date filter", r.Filter)
	}
	line("Cache", cacheLabel(r.Cache))
	b.WriteString("\n")

	b.WriteString("Output:\n")
	line("Destination", r.Output)
	line("Order", orderLabel(r.Sorted))
	line("Rows written", util.FormatCount(r.Rows))
	line("Rows failed", util.FormatCount(r.FailedRows))
	if r.Events > 0 {
		first := r.First.UTC().Format(model.DatetimeLayout)
		last := r.Last.UTC().Format(model.DatetimeLayout)
		if first == last {
			line("Time range", first)
		} else {
			line("Time range", first+" to "+last)
		}
	}
	b.WriteString("\n")

	if len(r.Categories) > 0 {
		b.WriteString("MACB Patterns:\n")
		b.WriteString(strings.Repeat("-", width) + "\n")
		for _, pattern := range SortedKeys(r.Categories) {
			line(pattern, util.FormatCount(r.Categories[pattern]))
		}
		b.WriteString("\n")
	}

	if len(r.Phases) > 0 {
		b.WriteString("Durations:\n")
		for _, p := range r.Phases {
			line(p.Phase, util.FormatDuration(p.Duration))
		}
		line("total", util.FormatDuration(r.Total))
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("=", width) + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func orderLabel(sorted bool) string {
	if sorted {
		return "by date, then file name"
	}
	return "bodyfile order"
}

func cacheLabel(c CacheStatus) string {
	switch {
	case !c.Enabled:
		return "disabled"
	case c.Hit:
		return "hit"
	case c.Reason != "":
		return "miss (" + c.Reason + ")"
	default:
		return "miss"
	}
}
