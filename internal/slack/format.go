package slack

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"timetable-slack-bot/pkg/models"
)

// FilterTutorials drops tutorial-type events, provided they're flagged right
// in the event data.
func FilterTutorials(events []models.Event) []models.Event {
	kept := make([]models.Event, 0, len(events))
	for _, e := range events {
		if strings.EqualFold(e.EventType, "Tutorial") {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// FormatTimetableMessage renders a day's events as a Slack message. Events
// are sorted by start time.
func FormatTimetableMessage(courseName string, day time.Time, events []models.Event) string {
	sorted := make([]models.Event, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartDateTime.Before(sorted[j].StartDateTime)
	})

	var b strings.Builder
	b.WriteString(fmt.Sprintf("*%s timetable for %s*\n", courseName, day.Format("Monday, 2 Jan")))
	for _, e := range sorted {
		line := fmt.Sprintf("• `%s - %s` %s",
			e.StartDateTime.Local().Format("15:04"),
			e.EndDateTime.Local().Format("15:04"),
			e.Name)
		if e.Location != "" {
			line += fmt.Sprintf(" (%s)", e.Location)
		}
		b.WriteString(line + "\n")
	}

	zone, _ := time.Now().Zone()
	b.WriteString(fmt.Sprintf("_Times shown are in `%s`_", zone))
	return b.String()
}

// FormatRoomStatuses renders per-room occupancy, one line per requested room.
func FormatRoomStatuses(statuses []models.RoomStatus, r models.TimeRange) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("*Room availability %s - %s*\n",
		r.Start.Format("15:04"), r.End.Format("15:04")))
	for _, st := range statuses {
		if !st.Occupied {
			b.WriteString(fmt.Sprintf("• `%s` is free ✅\n", st.Room))
			continue
		}
		b.WriteString(fmt.Sprintf("• `%s` is occupied: %s\n", st.Room, strings.Join(st.Bookings, ", ")))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatSubscription dumps a stored subscription's fields.
func FormatSubscription(sub models.Subscription) string {
	return fmt.Sprintf("courseCode: `%s`\nnextDay: `%t`\nignoreTutorials: `%t`\nautoUpdate: `%t`",
		sub.CourseCode, sub.NextDay, sub.IgnoreTutorials, sub.AutoUpdate)
}

// FormatSubscriptionConfirmation echoes the effective settings after a
// successful subscribe, phrased for a user or a channel target.
func FormatSubscriptionConfirmation(sub models.Subscription, channel bool) string {
	subject := "You"
	if channel {
		subject = "This channel"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s will receive updates for `%s`\n", subject, sub.CourseCode))
	if sub.NextDay {
		b.WriteString(fmt.Sprintf("%s will receive the timetable the day before at `18:00`.\n", subject))
	} else {
		b.WriteString(fmt.Sprintf("%s will receive the timetable in the morning at `6:00`.\n", subject))
	}
	if sub.IgnoreTutorials {
		b.WriteString("Tutorials will be filtered from the timetable, provided they're set right in the event data.\n")
	}
	if sub.AutoUpdate {
		b.WriteString("The course code will be updated year-by-year.\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
