package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetable-slack-bot/internal/domain"
	slackcmd "timetable-slack-bot/internal/slack"
	"timetable-slack-bot/internal/store"
	"timetable-slack-bot/pkg/models"
)

const testSigningSecret = "test-signing-secret"

// fakeTimetable scripts the timetable API for handler tests.
type fakeTimetable struct {
	courses map[string]string // code -> identity
	names   map[string]string // code -> display name
	events  map[string][]models.Event
}

func newFakeTimetable() *fakeTimetable {
	return &fakeTimetable{
		courses: make(map[string]string),
		names:   make(map[string]string),
		events:  make(map[string][]models.Event),
	}
}

func (f *fakeTimetable) ResolveCourse(ctx context.Context, code, field string) (string, error) {
	id, ok := f.courses[code]
	if !ok {
		return "", fmt.Errorf("%w: no match for %q", domain.ErrCourseNotFound, code)
	}
	if field == "Name" {
		if name, ok := f.names[code]; ok {
			return name, nil
		}
		return code, nil
	}
	return id, nil
}

func (f *fakeTimetable) FetchEvents(ctx context.Context, courseID string, start, end time.Time, categoryKind string) (*models.CategoryEvents, error) {
	return &models.CategoryEvents{Name: courseID, Results: f.events[courseID]}, nil
}

// fakeRooms records whether the upstream was hit.
type fakeRooms struct {
	calls    int
	statuses []models.RoomStatus
}

func (f *fakeRooms) CheckRooms(ctx context.Context, roomCodes []string, r models.TimeRange) ([]models.RoomStatus, error) {
	f.calls++
	if f.statuses != nil {
		return f.statuses, nil
	}
	out := make([]models.RoomStatus, 0, len(roomCodes))
	for _, code := range roomCodes {
		out = append(out, models.RoomStatus{Room: strings.ToUpper(code)})
	}
	return out, nil
}

func newTestHandler(t *testing.T) (*SlackHandler, *store.Store, *fakeTimetable, *fakeRooms) {
	t.Helper()

	st := store.New(filepath.Join(t.TempDir(), "user-data.json"))
	require.NoError(t, st.EnsureExists())

	tt := newFakeTimetable()
	rc := &fakeRooms{}
	return New(st, tt, rc, testSigningSecret), st, tt, rc
}

func dispatch(t *testing.T, h *SlackHandler, text, userID, channelID string) *slack.Msg {
	t.Helper()

	cmd, err := slackcmd.ParseCommand(text)
	require.NoError(t, err)

	return h.handleCommand(context.Background(), cmd, &slack.SlashCommand{
		UserID:    userID,
		ChannelID: channelID,
	})
}

func TestPing(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	msg := dispatch(t, h, "ping", "U1", "C1")
	assert.Equal(t, "Pong!", msg.Text)
}

func TestTimetableCommand(t *testing.T) {
	h, _, tt, _ := newTestHandler(t)
	tt.courses["COMSCI1"] = "cs1-id"
	tt.events["cs1-id"] = []models.Event{{
		Name:          "Programming",
		EventType:     "Lecture",
		StartDateTime: time.Now(),
		EndDateTime:   time.Now().Add(time.Hour),
	}}

	msg := dispatch(t, h, "timetable comsci1", "U1", "C1")
	assert.Equal(t, slack.ResponseTypeInChannel, msg.ResponseType)
	assert.Contains(t, msg.Text, "Programming")
}

func TestTimetableCourseNotFound(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	msg := dispatch(t, h, "timetable NOPE9", "U1", "C1")
	assert.Contains(t, msg.Text, "No courses found for code `NOPE9`")
}

func TestTimetableInvalidDay(t *testing.T) {
	h, _, tt, _ := newTestHandler(t)
	tt.courses["COMSCI1"] = "cs1-id"

	msg := dispatch(t, h, "timetable COMSCI1 someday", "U1", "C1")
	assert.Contains(t, msg.Text, "doesn't seem to be a valid day")
}

func TestTimetableNoEvents(t *testing.T) {
	h, _, tt, _ := newTestHandler(t)
	tt.courses["COMSCI1"] = "cs1-id"

	msg := dispatch(t, h, "timetable COMSCI1", "U1", "C1")
	assert.Contains(t, msg.Text, "No events found")
}

func TestCheckRoomsInvalidRangeSkipsUpstream(t *testing.T) {
	h, _, _, rc := newTestHandler(t)

	for _, text := range []string{"checkrooms", "checkrooms nonsense L101", "labfree", "labfree 26:00-27:00"} {
		msg := dispatch(t, h, text, "U1", "C1")
		assert.Contains(t, msg.Text, "❌", "input %q should produce a validation reply", text)
	}
	assert.Zero(t, rc.calls, "no upstream request may be issued for invalid ranges")
}

func TestCheckRoomsRequiresRooms(t *testing.T) {
	h, _, _, rc := newTestHandler(t)

	msg := dispatch(t, h, "checkrooms 10:00-12:00", "U1", "C1")
	assert.Contains(t, msg.Text, "Please give the rooms")
	assert.Zero(t, rc.calls)
}

func TestCheckRoomsListsRequestedRooms(t *testing.T) {
	h, _, _, rc := newTestHandler(t)

	msg := dispatch(t, h, "checkrooms 10:00-12:00 l101 L128", "U1", "C1")
	assert.Equal(t, 1, rc.calls)
	assert.Contains(t, msg.Text, "L101")
	assert.Contains(t, msg.Text, "L128")
}

func TestLabFreeUsesDefaultRooms(t *testing.T) {
	h, _, _, rc := newTestHandler(t)

	msg := dispatch(t, h, "labfree 10:00-12:00", "U1", "C1")
	assert.Equal(t, 1, rc.calls)
	for _, room := range domain.DefaultLabRooms {
		assert.Contains(t, msg.Text, room)
	}
}

func TestUpdateMeSubscribes(t *testing.T) {
	h, st, tt, _ := newTestHandler(t)
	tt.courses["COMSCI1"] = "cs1-id"
	tt.names["COMSCI1"] = "BSc in Computer Science Year 1"

	msg := dispatch(t, h, "updateme comsci1 nextday ignoretutorials", "U1", "C1")
	assert.Contains(t, msg.Text, "Successfully registered")
	assert.Contains(t, msg.Text, "the day before at `18:00`")

	doc, err := st.Load()
	require.NoError(t, err)
	sub, ok := doc.UserData["U1"]
	require.True(t, ok)
	// The canonical display name is stored, not the raw code.
	assert.Equal(t, "BSc in Computer Science Year 1", sub.CourseCode)
	assert.True(t, sub.NextDay)
	assert.True(t, sub.IgnoreTutorials)
	assert.False(t, sub.AutoUpdate)
	assert.NotContains(t, doc.ChannelData, "U1")
}

func TestUpdateMeOverwritesExisting(t *testing.T) {
	h, st, tt, _ := newTestHandler(t)
	tt.courses["COMSCI1"] = "cs1-id"
	tt.courses["EE2"] = "ee2-id"

	dispatch(t, h, "updateme COMSCI1 nextday", "U1", "C1")
	dispatch(t, h, "updateme EE2", "U1", "C1")

	doc, err := st.Load()
	require.NoError(t, err)
	sub := doc.UserData["U1"]
	assert.Equal(t, "EE2", sub.CourseCode)
	// Full replacement: flags from the first subscribe do not survive.
	assert.False(t, sub.NextDay)
}

func TestUpdateMeUnknownCourse(t *testing.T) {
	h, st, _, _ := newTestHandler(t)

	msg := dispatch(t, h, "updateme NOPE9", "U1", "C1")
	assert.Contains(t, msg.Text, "was not found")

	doc, err := st.Load()
	require.NoError(t, err)
	assert.NotContains(t, doc.UserData, "U1")
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	h, st, tt, _ := newTestHandler(t)
	tt.courses["COMSCI1"] = "cs1-id"

	dispatch(t, h, "updateme COMSCI1", "U1", "C1")

	first := dispatch(t, h, "updateme", "U1", "C1")
	assert.Contains(t, first.Text, "Successfully unregistered")

	second := dispatch(t, h, "updateme", "U1", "C1")
	assert.Contains(t, second.Text, "nothing to remove")

	doc, err := st.Load()
	require.NoError(t, err)
	assert.NotContains(t, doc.UserData, "U1")
}

func TestUpdateChannelUsesChannelMapping(t *testing.T) {
	h, st, tt, _ := newTestHandler(t)
	tt.courses["COMSCI1"] = "cs1-id"

	msg := dispatch(t, h, "updatechannel COMSCI1 autoupdate", "U1", "C1")
	assert.Contains(t, msg.Text, "This channel will receive updates")

	doc, err := st.Load()
	require.NoError(t, err)
	assert.Contains(t, doc.ChannelData, "C1")
	assert.NotContains(t, doc.UserData, "C1")
	assert.True(t, doc.ChannelData["C1"].AutoUpdate)
}

func TestMyInfo(t *testing.T) {
	h, _, tt, _ := newTestHandler(t)
	tt.courses["COMSCI1"] = "cs1-id"

	notRegistered := dispatch(t, h, "myinfo", "U1", "C1")
	assert.Contains(t, notRegistered.Text, "You aren't in the database")

	dispatch(t, h, "updateme COMSCI1 nextday", "U1", "C1")

	registered := dispatch(t, h, "myinfo", "U1", "C1")
	assert.Contains(t, registered.Text, "Your info")
	assert.Contains(t, registered.Text, "courseCode: `COMSCI1`")
	assert.Contains(t, registered.Text, "nextDay: `true`")
}

func TestChannelInfoNotRegistered(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	msg := dispatch(t, h, "channelinfo", "U1", "C1")
	assert.Contains(t, msg.Text, "This channel isn't in the database")
}

// createSlackRequest builds a properly signed Slack slash command request.
func createSlackRequest(t *testing.T, text string) *http.Request {
	t.Helper()

	form := url.Values{
		"token":        {"test-token"},
		"team_id":      {"T1"},
		"channel_id":   {"C1"},
		"channel_name": {"test-channel"},
		"user_id":      {"U1"},
		"user_name":    {"test-user"},
		"command":      {"/timetable"},
		"text":         {text},
	}
	body := form.Encode()

	req, err := http.NewRequest(http.MethodPost, "/slack/commands", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("X-Slack-Request-Timestamp", timestamp)

	baseString := fmt.Sprintf("v0:%s:%s", timestamp, body)
	mac := hmac.New(sha256.New, []byte(testSigningSecret))
	mac.Write([]byte(baseString))
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))

	return req
}

func TestHandleSlashCommandVerifiesSignature(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	req := createSlackRequest(t, "ping")
	req.Header.Set("X-Slack-Signature", "v0=deadbeef")

	rec := httptest.NewRecorder()
	h.HandleSlashCommand(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleSlashCommandEndToEnd(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.HandleSlashCommand(rec, createSlackRequest(t, "ping"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Pong!")
}

func TestHandleSlashCommandUnknown(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.HandleSlashCommand(rec, createSlackRequest(t, "frobnicate"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown command")
}
