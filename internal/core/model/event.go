package model

import "time"

// DatetimeLayout is the layout used for the timeline's Datetime column.
const DatetimeLayout = "2006-01-02 15:04:05"

// Event is a single row of the timeline: one instant of one entry, with all
// categories of that entry that share the instant.
type Event struct {
	Datetime time.Time
	MACB     MACB
	Meta     string
	Size     uint64
	FileName string
}

// NewEvent builds an event for the given entry at instant t.
func NewEvent(e Entry, t time.Time, macb MACB) Event {
	return Event{
		Datetime: t.UTC(),
		MACB:     macb,
		Meta:     e.Meta,
		Size:     e.Size,
		FileName: e.Name,
	}
}

// FormattedDatetime renders the event instant in UTC.
func (ev Event) FormattedDatetime() string {
	return ev.Datetime.UTC().Format(DatetimeLayout)
}
