// Package marketdata decides which data-feed mode the venue should serve
// based on the instrument's trading-session schedule.
package marketdata

import (
	"fmt"
	"strings"
	"time"
)

// Interval is one open trading session, bounds inclusive.
type Interval struct {
	Start time.Time
	End   time.Time
}

// SessionSchedule holds today's open intervals in the exchange timezone.
// Intervals are non-overlapping and sorted; an empty set means closed all
// day. Schedules are rebuilt whenever the cache key changes and reused
// otherwise.
type SessionSchedule struct {
	Loc       *time.Location
	Intervals []Interval
}

// IsOpenAt reports whether now falls within any interval, inclusive of both
// endpoints.
func (s *SessionSchedule) IsOpenAt(now time.Time) bool {
	for _, iv := range s.Intervals {
		if !now.Before(iv.Start) && !now.After(iv.End) {
			return true
		}
	}
	return false
}

// ParseHours parses venue trading-hours text into today's intervals.
//
// The grammar is semicolon-separated day segments "YYYYMMDD:SPEC" where SPEC
// is either the literal "CLOSED" or comma-separated "HHMM-HHMM" sessions:
//
//	20250101:CLOSED;20250102:0930-1600
//	20250102:0930-1600,1700-2000
//
// Only the segment matching day contributes intervals; a CLOSED segment for
// day short-circuits to an empty schedule regardless of other segments.
func ParseHours(hoursText string, loc *time.Location, day string) ([]Interval, error) {
	var intervals []Interval

	for _, seg := range strings.Split(hoursText, ";") {
		if seg == "" {
			continue
		}
		datePart, sessPart, ok := strings.Cut(seg, ":")
		if !ok {
			return nil, fmt.Errorf("marketdata: malformed hours segment %q", seg)
		}
		if datePart != day {
			continue
		}
		if strings.EqualFold(sessPart, "CLOSED") {
			return nil, nil
		}

		for _, session := range strings.Split(sessPart, ",") {
			startHM, endHM, ok := strings.Cut(session, "-")
			if !ok {
				return nil, fmt.Errorf("marketdata: malformed session %q in segment %q", session, seg)
			}
			start, err := sessionTime(datePart, startHM, loc)
			if err != nil {
				return nil, err
			}
			end, err := sessionTime(datePart, endHM, loc)
			if err != nil {
				return nil, err
			}
			intervals = append(intervals, Interval{Start: start, End: end})
		}
	}

	return intervals, nil
}

func sessionTime(day, hm string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("20060102 1504", day+" "+hm, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("marketdata: invalid session time %q on %s: %w", hm, day, err)
	}
	return t, nil
}
