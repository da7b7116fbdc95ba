// Package timetable contains the client for the external course-timetable
// API: resolving a human course code to the provider's internal identity (or
// canonical name) and fetching a day's events for that identity.
package timetable

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"timetable-slack-bot/internal/domain"
	"timetable-slack-bot/internal/domain/contract"
	"timetable-slack-bot/pkg/models"
)

// CategoryProgramme is the category kind used for full-programme timetables.
const CategoryProgramme = "programme"

// Delivery days span 08:00 to 22:00 local time.
const (
	dayStartHour = 8
	dayEndHour   = 22
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// The upstream is slow and unauthenticated; keep our request rate polite.
	limiter *rate.Limiter
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 3),
	}
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// ResolveCourse maps a course code to the provider's internal identity, or to
// its canonical display name when field is contract.CourseFieldName.
func (c *Client) ResolveCourse(ctx context.Context, code, field string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("%w: empty course code", domain.ErrCourseNotFound)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/categories", nil)
	q := req.URL.Query()
	q.Set("query", code)
	q.Set("type", CategoryProgramme)
	req.URL.RawQuery = q.Encode()

	resp, err := c.http().Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: categories returned status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var body struct {
		Results []struct {
			Identity string `json:"Identity"`
			Name     string `json:"Name"`
		} `json:"Results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	if len(body.Results) == 0 {
		return "", fmt.Errorf("%w: no match for %q", domain.ErrCourseNotFound, code)
	}

	if field == contract.CourseFieldName {
		return body.Results[0].Name, nil
	}
	return body.Results[0].Identity, nil
}

// FetchEvents returns the first category's events for courseID within
// [start, end]. An empty result list is success.
func (c *Client) FetchEvents(ctx context.Context, courseID string, start, end time.Time, categoryKind string) (*models.CategoryEvents, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	endpoint := fmt.Sprintf("%s/categories/%s/events", c.BaseURL, url.PathEscape(courseID))
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	q := req.URL.Query()
	q.Set("start", start.Format(time.RFC3339))
	q.Set("end", end.Format(time.RFC3339))
	q.Set("type", categoryKind)
	req.URL.RawQuery = q.Encode()

	resp, err := c.http().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: events returned status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var body struct {
		CategoryEvents []models.CategoryEvents `json:"CategoryEvents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	if len(body.CategoryEvents) == 0 {
		return nil, fmt.Errorf("%w: response contained no categories", domain.ErrUpstreamUnavailable)
	}

	return &body.CategoryEvents[0], nil
}

// DayWindow returns the delivery window for the day containing anchor:
// 08:00 to 22:00 local time. Offsetting anchor by whole days shifts both
// endpoints accordingly.
func DayWindow(anchor time.Time) (start, end time.Time) {
	y, m, d := anchor.Date()
	start = time.Date(y, m, d, dayStartHour, 0, 0, 0, anchor.Location())
	end = time.Date(y, m, d, dayEndHour, 0, 0, 0, anchor.Location())
	return start, end
}

// AnchorForWeekday returns now shifted to the requested weekday within the
// current calendar week: asking for Tuesday on a Wednesday gives yesterday,
// asking for Friday on a Wednesday gives the day after tomorrow.
func AnchorForWeekday(now time.Time, target time.Weekday) time.Time {
	offset := int(now.Weekday()) - int(target)
	return now.AddDate(0, 0, -offset)
}
