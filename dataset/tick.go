package dataset

import (
	"strings"
	"time"
)

// TickFormat is the granularity of a footer label.
type TickFormat uint8

const (
	Seconds TickFormat = iota
	HourMinutes
	Day
)

// TickFormats lists every format from the smallest label to the largest.
var TickFormats = []TickFormat{Seconds, HourMinutes, Day}

func (f TickFormat) String() string {
	switch f {
	case HourMinutes:
		return "hour-minutes"
	case Day:
		return "day"
	default:
		return "seconds"
	}
}

// Layout is the time.Format layout used for labels of this format.
func (f TickFormat) Layout() string {
	switch f {
	case HourMinutes:
		return "15:04"
	case Day:
		return "02 Jan"
	default:
		return "15:04:05"
	}
}

// Sample is a representative label used to measure the widest rendering of
// the format.
func (f TickFormat) Sample() string {
	switch f {
	case HourMinutes:
		return "00:00"
	case Day:
		return "31 DEC"
	default:
		return "00:00:00"
	}
}

// TickFormatOf picks the format for a timestamp given in milliseconds since
// the Unix epoch. Local midnight is a Day, a whole minute is HourMinutes and
// anything else is Seconds.
func TickFormatOf(timestamp int64, loc *time.Location) TickFormat {
	if loc == nil {
		loc = time.Local
	}
	t := time.UnixMilli(timestamp).In(loc)
	if t.Second() != 0 || t.Nanosecond()/int(time.Millisecond) != 0 {
		return Seconds
	}
	if t.Hour() == 0 && t.Minute() == 0 {
		return Day
	}
	return HourMinutes
}

// TickLabel renders the label for a timestamp in the given format.
func TickLabel(timestamp int64, f TickFormat, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return strings.ToUpper(time.UnixMilli(timestamp).In(loc).Format(f.Layout()))
}

// DayFormatTracker accumulates the NeedsDayFormat flag over a sequence of
// neighbouring rows, visited in either direction.
type DayFormatTracker struct {
	Loc     *time.Location
	started bool
	last    TickFormat
	needs   bool
}

// Observe feeds the next timestamp of the scan and returns the running flag.
func (d *DayFormatTracker) Observe(timestamp int64) bool {
	f := TickFormatOf(timestamp, d.Loc)
	if f == Day || (d.started && f != d.last) {
		d.needs = true
	}
	d.last = f
	d.started = true
	return d.needs
}

// Seed starts the tracker from a previously computed flag.
func (d *DayFormatTracker) Seed(needs bool) {
	d.needs = needs
}

func (d *DayFormatTracker) Needs() bool {
	return d.needs
}
