package contract

import (
	"context"
	"time"

	"timetable-slack-bot/pkg/models"
)

// CourseFieldName selects the canonical display name from ResolveCourse
// instead of the default opaque identity.
const CourseFieldName = "Name"

// TimetableAPI is the contract for the external course-timetable service.
type TimetableAPI interface {
	// ResolveCourse maps a human course code to the provider's internal
	// identity (field == "") or its canonical display name
	// (field == CourseFieldName).
	ResolveCourse(ctx context.Context, code, field string) (string, error)

	// FetchEvents returns the first category's events for a course within
	// [start, end]. Zero events is success, not an error.
	FetchEvents(ctx context.Context, courseID string, start, end time.Time, categoryKind string) (*models.CategoryEvents, error)
}

// RoomChecker is the contract for the room availability service.
type RoomChecker interface {
	// CheckRooms reports occupancy for each requested room within the range,
	// preserving input order.
	CheckRooms(ctx context.Context, roomCodes []string, r models.TimeRange) ([]models.RoomStatus, error)
}
