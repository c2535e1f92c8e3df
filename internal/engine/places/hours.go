package places

import (
	"fmt"

	"github.com/nablem/bluette/internal/model"
)

// dayNames maps the directory's day numbering (0 = Sunday) to the canonical
// lowercase names used in the persisted availability object.
var dayNames = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// endOfDay stands in for a missing or next-day closing time.
const endOfDay = "23:59"

// NormalizeHours collapses raw opening periods into one window per weekday.
//
// Periods for the same day are merged by earliest start and latest end, so a
// venue listing separate lunch and dinner service ends up with a single span
// covering both. A period closing on the following day keeps only the opening
// side: the day is marked open through midnight and the closing time is
// dropped. Days with no usable period are omitted entirely.
func NormalizeHours(periods []Period) map[string]model.TimeWindow {
	availability := make(map[string]model.TimeWindow)

	for _, p := range periods {
		if p.Open == nil || p.Open.Day < 0 || p.Open.Day > 6 {
			continue
		}

		day := dayNames[p.Open.Day]
		start := formatClock(p.Open.Time)

		switch {
		case p.Close == nil:
			// No closing time: open until end of day.
			mergeWindow(availability, day, start, endOfDay)
		case p.Close.Day == p.Open.Day:
			mergeWindow(availability, day, start, formatClock(p.Close.Time))
		case p.Close.Day == (p.Open.Day+1)%7:
			// Closes after midnight: the opening day runs to end of day and
			// the closing time contributes nothing to the next day.
			mergeWindow(availability, day, start, endOfDay)
		default:
			// Close more than one day out: malformed upstream data, ignored.
		}
	}

	return availability
}

// mergeWindow widens the window for day to the earliest start and latest end.
// Lexicographic comparison is valid for zero-padded HH:MM strings.
func mergeWindow(availability map[string]model.TimeWindow, day, start, end string) {
	w, ok := availability[day]
	if !ok {
		availability[day] = model.TimeWindow{Start: start, End: end}
		return
	}
	if start < w.Start {
		w.Start = start
	}
	if end > w.End {
		w.End = end
	}
	availability[day] = w
}

// formatClock converts the wire "HHMM" form to "HH:MM". Empty input means
// midnight.
func formatClock(hhmm string) string {
	if len(hhmm) != 4 {
		return "00:00"
	}
	return fmt.Sprintf("%s:%s", hhmm[:2], hhmm[2:])
}
