package domain

import (
	"fmt"
	"strings"
	"time"
)

// Weekdays is the course provider's canonical schedule ordering, Monday-first.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// shortDays and longDays are the accepted forms for a day argument.
// Timetables only run Monday through Friday.
var (
	shortDays = []string{"mon", "tue", "wed", "thu", "fri"}
	longDays  = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}
)

// DefaultLabRooms is the fixed room set checked by the labfree command.
var DefaultLabRooms = []string{"LG25", "LG26", "LG27", "L101", "L114", "L125", "L128", "L129"}

// Cron specs for the scheduled triggers.
const (
	MorningUpdateSpec = "0 6 * * *"  // today's timetable, nextDay=false entries
	EveningUpdateSpec = "0 18 * * *" // tomorrow's timetable, nextDay=true entries
	RolloverSpec      = "0 0 1 9 *"  // yearly course-code rollover, September 1
)

// CurrentWeekday returns today's weekday name in canonical ordering.
func CurrentWeekday() string {
	return WeekdayName(time.Now().Weekday())
}

// WeekdayName maps a time.Weekday onto the Monday-first Weekdays list.
func WeekdayName(d time.Weekday) string {
	return Weekdays[(int(d)+6)%7]
}

// ParseWeekday maps a short or long day name to its time.Weekday. Only
// Monday through Friday are valid.
func ParseWeekday(input string) (time.Weekday, error) {
	day := strings.ToLower(strings.TrimSpace(input))

	for i, s := range shortDays {
		if day == s || day == longDays[i] {
			return time.Weekday(i + 1), nil
		}
	}
	return 0, fmt.Errorf("`%s` doesn't seem to be a valid day", input)
}
