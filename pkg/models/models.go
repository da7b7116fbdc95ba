package models

import "time"

// Subscription is one stored preference record tying a Slack target (user or
// channel) to a course code and its delivery settings. The target ID is the
// map key in Document, not a field here, matching the on-disk layout.
type Subscription struct {
	CourseCode      string `json:"courseCode"`
	NextDay         bool   `json:"nextDay"`
	IgnoreTutorials bool   `json:"ignoreTutorials"`
	AutoUpdate      bool   `json:"autoUpdate"`
}

// Document is the whole preference file: two independent mappings keyed by
// Slack platform ID. It is always read and written as a single unit.
type Document struct {
	UserData    map[string]Subscription `json:"userData"`
	ChannelData map[string]Subscription `json:"channelData"`
}

// NewDocument returns an empty document with both maps allocated.
func NewDocument() *Document {
	return &Document{
		UserData:    make(map[string]Subscription),
		ChannelData: make(map[string]Subscription),
	}
}

// Event is a single scheduled timetable event as returned by the timetable API.
type Event struct {
	Name          string    `json:"Name"`
	EventType     string    `json:"EventType"`
	Location      string    `json:"Location"`
	StartDateTime time.Time `json:"StartDateTime"`
	EndDateTime   time.Time `json:"EndDateTime"`
}

// CategoryEvents is one category block of a timetable response. Results may
// be empty; zero events for a day is a normal outcome.
type CategoryEvents struct {
	Name    string  `json:"Name"`
	Results []Event `json:"Results"`
}

// TimeRange is a validated, normalized user-supplied time range.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// RoomBooking is one entry of the room availability feed.
type RoomBooking struct {
	Room    string    `json:"Room"`
	Summary string    `json:"Summary"`
	Start   time.Time `json:"Start"`
	End     time.Time `json:"End"`
}

// RoomStatus reports occupancy of a single room within a queried range.
type RoomStatus struct {
	Room     string
	Occupied bool
	Bookings []string
}
