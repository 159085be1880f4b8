package timeline

import (
	"sort"

	"github.com/Intrinsec/mactime/internal/core/model"
)

// SortEvents orders events by instant ascending, then by file name.
// MACB, meta and size are not part of the key. The sort is stable
// so events equal on both keys keep their build order.
func SortEvents(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return Less(events[i], events[j])
	})
}

// Less reports whether a sorts before b.
func Less(a, b model.Event) bool {
	if !a.Datetime.Equal(b.Datetime) {
		return a.Datetime.Before(b.Datetime)
	}
	return a.FileName < b.FileName
}

// isSorted reports whether events are in timeline order.
func isSorted(events []model.Event) bool {
	return sort.SliceIsSorted(events, func(i, j int) bool {
		return Less(events[i], events[j])
	})
}
