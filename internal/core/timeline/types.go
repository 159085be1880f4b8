package timeline

import (
	"github.com/Intrinsec/mactime/internal/core/model"
)

// Timeline holds the parsed entries of one bodyfile together with the events
// derived from them. Entries are kept so record counts stay queryable.
type Timeline struct {
	Entries []model.Entry
	Events  []model.Event
	Sorted  bool
}

// EntryCount returns the number of file records the timeline was built from.
func (tl *Timeline) EntryCount() int {
	return len(tl.Entries)
}

// EventCount returns the number of datetime records in the timeline.
func (tl *Timeline) EventCount() int {
	return len(tl.Events)
}

// Sort orders the events by instant, then file name. Events already in
// order are left untouched.
func (tl *Timeline) Sort() {
	if !isSorted(tl.Events) {
		SortEvents(tl.Events)
	}
	tl.Sorted = true
}
