package formatter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/Intrinsec/mactime/internal/core/model"
	"github.com/Intrinsec/mactime/internal/util"
)

// CSVHeaders is the header row of the timeline CSV.
var CSVHeaders = []string{"Datetime", "MACB", "Meta", "Size", "FileName"}

// EmitResult reports how many rows reached the writer.
type EmitResult struct {
	Rows   int
	Failed int
}

type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

// Format writes the header and one row per event to w. A row that fails to
// serialize is logged and skipped. The writer is flushed before returning and
// the flush error, if any, is returned.
func (f *CSVFormatter) Format(out io.Writer, events []model.Event) (EmitResult, error) {
	var result EmitResult

	w := csv.NewWriter(out)
	if err := w.Write(CSVHeaders); err != nil {
		return result, fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(CSVHeaders))
	for _, ev := range events {
		record[0] = ev.FormattedDatetime()
		record[1] = ev.MACB.String()
		record[2] = ev.Meta
		record[3] = strconv.FormatUint(ev.Size, 10)
		record[4] = ev.FileName

		if err := w.Write(record); err != nil {
			result.Failed++
			util.LogError("Error writing CSV record",
				util.F("file", ev.FileName),
				util.F("datetime", record[0]),
				util.F("error", err))
			continue
		}
		result.Rows++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return result, fmt.Errorf("failed to flush CSV output: %w", err)
	}

	return result, nil
}
