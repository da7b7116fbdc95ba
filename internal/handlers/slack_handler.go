package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"timetable-slack-bot/internal/domain"
	"timetable-slack-bot/internal/domain/contract"
	"timetable-slack-bot/internal/rooms"
	slackcmd "timetable-slack-bot/internal/slack"
	"timetable-slack-bot/internal/store"
	"timetable-slack-bot/internal/timetable"
	"timetable-slack-bot/pkg/models"
)

type SlackHandler struct {
	store         *store.Store
	timetableAPI  contract.TimetableAPI
	roomChecker   contract.RoomChecker
	signingSecret string
}

func New(st *store.Store, timetableAPI contract.TimetableAPI, roomChecker contract.RoomChecker, signingSecret string) *SlackHandler {
	return &SlackHandler{
		store:         st,
		timetableAPI:  timetableAPI,
		roomChecker:   roomChecker,
		signingSecret: signingSecret,
	}
}

func (h *SlackHandler) HandleSlashCommand(w http.ResponseWriter, r *http.Request) {
	// Verify request from Slack
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	r.Body = io.NopCloser(bytes.NewBuffer(body))

	// Verify Slack signature
	verifier, err := slack.NewSecretsVerifier(r.Header, h.signingSecret)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if _, err := verifier.Write(body); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if err := verifier.Ensure(); err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	// Parse command
	s, err := slack.SlashCommandParse(r)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	// Parse our command
	cmd, err := slackcmd.ParseCommand(s.Text)
	if err != nil {
		h.respondWithError(w, err.Error())
		return
	}

	// Handle command
	response := h.handleCommand(r.Context(), cmd, &s)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (h *SlackHandler) handleCommand(ctx context.Context, cmd *slackcmd.Command, slashCmd *slack.SlashCommand) *slack.Msg {
	switch cmd.Type {
	case slackcmd.CmdPing:
		return &slack.Msg{ResponseType: slack.ResponseTypeEphemeral, Text: "Pong!"}
	case slackcmd.CmdTimetable:
		return h.handleTimetable(ctx, cmd)
	case slackcmd.CmdCheckRooms:
		return h.handleCheckRooms(ctx, cmd, false)
	case slackcmd.CmdLabFree:
		return h.handleCheckRooms(ctx, cmd, true)
	case slackcmd.CmdUpdateMe:
		return h.handleUpdateSubscription(ctx, cmd, slashCmd.UserID, false)
	case slackcmd.CmdUpdateChannel:
		return h.handleUpdateSubscription(ctx, cmd, slashCmd.ChannelID, true)
	case slackcmd.CmdMyInfo:
		return h.handleInfo(slashCmd.UserID, false)
	case slackcmd.CmdChannelInfo:
		return h.handleInfo(slashCmd.ChannelID, true)
	case slackcmd.CmdHelp:
		return h.handleHelp()
	default:
		return h.createErrorResponse("Unknown command")
	}
}

func (h *SlackHandler) handleTimetable(ctx context.Context, cmd *slackcmd.Command) *slack.Msg {
	if len(cmd.Args) == 0 {
		return h.createErrorResponse("Please give a course code: `/timetable timetable COMSCI1 [day]`")
	}

	courseCode := strings.ToUpper(cmd.Args[0])
	courseID, err := h.timetableAPI.ResolveCourse(ctx, courseCode, "")
	if err != nil {
		if errors.Is(err, domain.ErrCourseNotFound) {
			return h.createErrorResponse(fmt.Sprintf("No courses found for code `%s`. Did you spell it correctly?", courseCode))
		}
		return h.createErrorResponse("The timetable service is not responding. Try again later.")
	}

	// Day defaults to today; an explicit day anchors to its occurrence in
	// the current calendar week.
	anchor := time.Now()
	if len(cmd.Args) > 1 {
		weekday, err := domain.ParseWeekday(cmd.Args[1])
		if err != nil {
			return h.createErrorResponse(err.Error())
		}
		anchor = timetable.AnchorForWeekday(anchor, weekday)
	}

	start, end := timetable.DayWindow(anchor)
	category, err := h.timetableAPI.FetchEvents(ctx, courseID, start, end, timetable.CategoryProgramme)
	if err != nil {
		return h.createErrorResponse("The timetable service is not responding. Try again later.")
	}

	name := category.Name
	if name == "" {
		name = courseCode
	}
	if len(category.Results) == 0 {
		return h.createErrorResponse(fmt.Sprintf("No events found for `%s`", name))
	}

	return &slack.Msg{
		ResponseType: slack.ResponseTypeInChannel,
		Text:         slackcmd.FormatTimetableMessage(name, anchor, category.Results),
	}
}

func (h *SlackHandler) handleCheckRooms(ctx context.Context, cmd *slackcmd.Command, useDefaultRooms bool) *slack.Msg {
	var rawRange string
	if len(cmd.Args) > 0 {
		rawRange = cmd.Args[0]
	}

	// Validation failures short-circuit before any upstream request.
	timeRange, err := rooms.ParseTimeRange(rawRange)
	if err != nil {
		return h.createErrorResponse(err.Error())
	}

	roomCodes := domain.DefaultLabRooms
	if !useDefaultRooms {
		if len(cmd.Args) < 2 {
			return h.createErrorResponse("Please give the rooms to check: `/timetable checkrooms 10:00-12:00 L101 L128`")
		}
		roomCodes = cmd.Args[1:]
	}

	statuses, err := h.roomChecker.CheckRooms(ctx, roomCodes, timeRange)
	if err != nil {
		return h.createErrorResponse("The room feed is not responding. Try again later.")
	}

	return &slack.Msg{
		ResponseType: slack.ResponseTypeInChannel,
		Text:         slackcmd.FormatRoomStatuses(statuses, timeRange),
	}
}

func (h *SlackHandler) handleUpdateSubscription(ctx context.Context, cmd *slackcmd.Command, targetID string, channel bool) *slack.Msg {
	var courseCode string
	if len(cmd.Args) > 0 {
		courseCode = strings.ToUpper(cmd.Args[0])
	}

	// Blank course code means unsubscribe.
	if courseCode == "" {
		return h.handleUnsubscribe(targetID, channel)
	}

	// Store the canonical display name, so deliveries and info dumps show
	// the course as the provider titles it.
	courseName, err := h.timetableAPI.ResolveCourse(ctx, courseCode, contract.CourseFieldName)
	if err != nil {
		if errors.Is(err, domain.ErrCourseNotFound) {
			return h.createErrorResponse(fmt.Sprintf("The course `%s` was not found. Did you spell it correctly?", courseCode))
		}
		return h.createErrorResponse("The timetable service is not responding. Try again later.")
	}

	sub := models.Subscription{
		CourseCode:      courseName,
		NextDay:         hasFlag(cmd.Args[1:], "nextday"),
		IgnoreTutorials: hasFlag(cmd.Args[1:], "ignoretutorials"),
		AutoUpdate:      hasFlag(cmd.Args[1:], "autoupdate"),
	}

	err = h.store.Update(func(doc *models.Document) error {
		mapping(doc, channel)[targetID] = sub
		return nil
	})
	if err != nil {
		return h.createErrorResponse("Failed to save your subscription")
	}

	return &slack.Msg{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         "Successfully registered\n" + slackcmd.FormatSubscriptionConfirmation(sub, channel),
	}
}

func (h *SlackHandler) handleUnsubscribe(targetID string, channel bool) *slack.Msg {
	subject := "You aren't"
	if channel {
		subject = "This channel isn't"
	}

	found := false
	err := h.store.Update(func(doc *models.Document) error {
		m := mapping(doc, channel)
		if _, ok := m[targetID]; ok {
			found = true
			delete(m, targetID)
		}
		return nil
	})
	if err != nil {
		return h.createErrorResponse("Failed to update the database")
	}

	if !found {
		return h.createErrorResponse(fmt.Sprintf("%s in the database. There is nothing to remove.", subject))
	}

	noun := "You"
	if channel {
		noun = "This channel"
	}
	return &slack.Msg{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         fmt.Sprintf("Successfully unregistered\n%s will no longer receive updates", noun),
	}
}

func (h *SlackHandler) handleInfo(targetID string, channel bool) *slack.Msg {
	doc, err := h.store.Load()
	if err != nil {
		return h.createErrorResponse("Failed to read the database")
	}

	sub, ok := mapping(doc, channel)[targetID]
	if !ok {
		subject := "You aren't"
		if channel {
			subject = "This channel isn't"
		}
		return h.createErrorResponse(fmt.Sprintf("%s in the database.", subject))
	}

	title := "Your info"
	if channel {
		title = "Channel info"
	}
	return &slack.Msg{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         fmt.Sprintf("*%s*\n%s", title, slackcmd.FormatSubscription(sub)),
	}
}

func (h *SlackHandler) handleHelp() *slack.Msg {
	return &slack.Msg{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         slackcmd.GetHelpText(),
	}
}

func mapping(doc *models.Document, channel bool) map[string]models.Subscription {
	if channel {
		return doc.ChannelData
	}
	return doc.UserData
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if strings.EqualFold(a, flag) {
			return true
		}
	}
	return false
}

func (h *SlackHandler) createErrorResponse(message string) *slack.Msg {
	return &slack.Msg{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         fmt.Sprintf("❌ %s", message),
	}
}

func (h *SlackHandler) respondWithError(w http.ResponseWriter, message string) {
	response := h.createErrorResponse(message)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
