// Package rooms checks lab and lecture room occupancy against the room
// booking feed, and validates the user-supplied time ranges that drive the
// checkrooms and labfree commands.
package rooms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"timetable-slack-bot/internal/domain"
	"timetable-slack-bot/pkg/models"
)

// InvalidTimeRangeError reports a time range the user gave that cannot be
// parsed. It is rendered back to the user, never logged.
type InvalidTimeRangeError struct {
	Input  string
	Reason string
}

func (e *InvalidTimeRangeError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("no time range given: %s", e.Reason)
	}
	return fmt.Sprintf("`%s` is not a valid time range: %s", e.Input, e.Reason)
}

// timePattern matches HH:MM or a bare hour.
var timePattern = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?$`)

// ParseTimeRange validates and normalizes a time-range expression like
// "10:00-12:00", "10:00 12:00" or "9-17" into instants anchored to today.
func ParseTimeRange(raw string) (models.TimeRange, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.TimeRange{}, &InvalidTimeRangeError{Reason: "expected something like `10:00-12:00`"}
	}

	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '-' || r == ' '
	})
	if len(parts) != 2 {
		return models.TimeRange{}, &InvalidTimeRangeError{Input: raw, Reason: "expected a start and an end time"}
	}

	now := time.Now()
	start, err := parseClock(parts[0], now)
	if err != nil {
		return models.TimeRange{}, &InvalidTimeRangeError{Input: raw, Reason: err.Error()}
	}
	end, err := parseClock(parts[1], now)
	if err != nil {
		return models.TimeRange{}, &InvalidTimeRangeError{Input: raw, Reason: err.Error()}
	}
	if !end.After(start) {
		return models.TimeRange{}, &InvalidTimeRangeError{Input: raw, Reason: "end must be after start"}
	}

	return models.TimeRange{Start: start, End: end}, nil
}

func parseClock(s string, anchor time.Time) (time.Time, error) {
	m := timePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("`%s` is not a time of day", s)
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if hour > 23 || minute > 59 {
		return time.Time{}, fmt.Errorf("`%s` is not a time of day", s)
	}

	y, mo, d := anchor.Date()
	return time.Date(y, mo, d, hour, minute, 0, 0, anchor.Location()), nil
}

type Client struct {
	FeedURL    string
	HTTPClient *http.Client
}

func NewClient(feedURL string) *Client {
	return &Client{
		FeedURL:    feedURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// CheckRooms reports, for each requested room in input order, whether it is
// occupied anywhere within r and by what.
func (c *Client) CheckRooms(ctx context.Context, roomCodes []string, r models.TimeRange) ([]models.RoomStatus, error) {
	bookings, err := c.fetchBookings(ctx, r)
	if err != nil {
		return nil, err
	}

	byRoom := make(map[string][]string)
	for _, b := range bookings {
		if b.Start.Before(r.End) && b.End.After(r.Start) {
			byRoom[strings.ToUpper(b.Room)] = append(byRoom[strings.ToUpper(b.Room)], b.Summary)
		}
	}

	statuses := make([]models.RoomStatus, 0, len(roomCodes))
	for _, code := range roomCodes {
		summaries := byRoom[strings.ToUpper(code)]
		statuses = append(statuses, models.RoomStatus{
			Room:     strings.ToUpper(code),
			Occupied: len(summaries) > 0,
			Bookings: summaries,
		})
	}
	return statuses, nil
}

func (c *Client) fetchBookings(ctx context.Context, r models.TimeRange) ([]models.RoomBooking, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.FeedURL, nil)
	q := req.URL.Query()
	q.Set("start", r.Start.Format(time.RFC3339))
	q.Set("end", r.End.Format(time.RFC3339))
	req.URL.RawQuery = q.Encode()

	resp, err := c.http().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: room feed returned status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var bookings []models.RoomBooking
	if err := json.NewDecoder(resp.Body).Decode(&bookings); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	return bookings, nil
}
