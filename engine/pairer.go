/*
pairer.go - Pairing chronological clock events into worked intervals

ALGORITHM:
  Sort events ascending by occurrence time and sweep once, keeping a single
  open clock-in slot. A CLOCK_OUT with an open slot closes an interval; the
  interval's whole minutes are credited to the day the clock-in fell on.

EDGE BEHAVIOR (all deliberate, matching the production system):
  - A CLOCK_IN while a slot is already open silently overwrites it. The
    earlier open-in is discarded and contributes no minutes.
  - A CLOCK_OUT with no open slot is ignored.
  - A trailing open-in at the end of the window yields no minutes; an open
    shift is not counted until it closes.
  - An interval that crosses midnight is credited entirely to its start day,
    and the start day is flagged.
*/
package engine

import (
	"sort"
	"time"
)

// PairResult is the per-day outcome of pairing one user's clock events.
type PairResult struct {
	// MinutesByDay maps the day key of each interval's clock-in to the
	// gross minutes credited to that day.
	MinutesByDay map[string]int64

	// CrossMidnightStartDays flags start days whose interval closed on a
	// later day.
	CrossMidnightStartDays map[string]struct{}
}

// GrossMinutes returns the gross minutes credited to the day containing t.
func (r PairResult) GrossMinutes(t time.Time) int64 {
	return r.MinutesByDay[DayKey(t)]
}

// CrossesMidnight reports whether an interval starting on t's day closed on
// a later day.
func (r PairResult) CrossesMidnight(t time.Time) bool {
	_, ok := r.CrossMidnightStartDays[DayKey(t)]
	return ok
}

// PairEntries pairs an unordered list of one user's clock events into gross
// minutes per start day.
func PairEntries(entries []TimeEntry) PairResult {
	sorted := make([]TimeEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].OccurredAt.Before(sorted[j].OccurredAt)
	})

	result := PairResult{
		MinutesByDay:           make(map[string]int64),
		CrossMidnightStartDays: make(map[string]struct{}),
	}

	var openClockIn *time.Time
	for _, e := range sorted {
		switch e.Type {
		case ClockIn:
			t := e.OccurredAt
			openClockIn = &t
		case ClockOut:
			if openClockIn == nil {
				continue
			}
			diff := e.OccurredAt.Sub(*openClockIn)
			if diff > 0 {
				startKey := DayKey(*openClockIn)
				result.MinutesByDay[startKey] += int64(diff / time.Minute)
				if DayKey(e.OccurredAt) != startKey {
					result.CrossMidnightStartDays[startKey] = struct{}{}
				}
			}
			openClockIn = nil
		}
	}

	return result
}

// HasShiftLongerThan reports whether any clock-in is followed by a clock-out
// more than limit later. Used for the long-shift alert on the summary view.
func HasShiftLongerThan(entries []TimeEntry, limit time.Duration) bool {
	if len(entries) < 2 {
		return false
	}
	sorted := make([]TimeEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].OccurredAt.Before(sorted[j].OccurredAt)
	})

	for i, e := range sorted {
		if e.Type != ClockIn {
			continue
		}
		for _, next := range sorted[i+1:] {
			if next.Type == ClockOut {
				if next.OccurredAt.Sub(e.OccurredAt) > limit {
					return true
				}
				break
			}
		}
	}
	return false
}

// GroupByDay indexes entries by day key and sorts each day's entries
// chronologically.
func GroupByDay(entries []TimeEntry) map[string][]TimeEntry {
	byDay := make(map[string][]TimeEntry)
	for _, e := range entries {
		key := DayKey(e.OccurredAt)
		byDay[key] = append(byDay[key], e)
	}
	for _, list := range byDay {
		sort.Slice(list, func(i, j int) bool {
			return list[i].OccurredAt.Before(list[j].OccurredAt)
		})
	}
	return byDay
}
