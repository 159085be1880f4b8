package timeline

import (
	"time"

	"github.com/Intrinsec/mactime/internal/core/model"
	"github.com/Intrinsec/mactime/internal/util"
)

// TimelineBuilder turns bodyfile entries into MACB timeline events
type TimelineBuilder struct {
	filter *model.DateFilter
}

// NewTimelineBuilder creates a builder. A nil filter retains every event.
func NewTimelineBuilder(filter *model.DateFilter) *TimelineBuilder {
	return &TimelineBuilder{
		filter: filter,
	}
}

// Build consolidates every entry into its events and keeps the entries alongside.
func (tb *TimelineBuilder) Build(entries []model.Entry) *Timeline {
	tl := &Timeline{
		Entries: entries,
		Events:  make([]model.Event, 0, len(entries)),
	}

	filtered := 0
	for _, entry := range entries {
		// For one entry we can have up to 4 events, one per distinct timestamp
		for _, group := range GroupTimestamps(entry) {
			if !tb.filter.Contains(group.Time) {
				filtered++
				continue
			}
			tl.Events = append(tl.Events, model.NewEvent(entry, group.Time, group.MACB))
		}
	}

	if tb.filter != nil {
		util.LogDebugf("Date filter %s excluded %d events", tb.filter, filtered)
	}

	return tl
}

// TimestampGroup is one distinct instant of an entry with every category sharing it.
type TimestampGroup struct {
	Time time.Time
	MACB model.MACB
}

// GroupTimestamps merges the entry's four timestamps by equal instant.
// Groups are returned in first-visit order m, a, c, b so output is reproducible.
func GroupTimestamps(entry model.Entry) []TimestampGroup {
	groups := make([]TimestampGroup, 0, 4)
	index := make(map[int64]int, 4)

	for _, ct := range entry.Timestamps() {
		key := ct.Time.Unix()
		if i, ok := index[key]; ok {
			groups[i].MACB = groups[i].MACB.Union(model.NewMACB(ct.Category))
			continue
		}
		index[key] = len(groups)
		groups = append(groups, TimestampGroup{
			Time: ct.Time.UTC(),
			MACB: model.NewMACB(ct.Category),
		})
	}

	return groups
}
