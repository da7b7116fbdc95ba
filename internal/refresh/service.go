// Package refresh implements the scheduled subscription jobs: the twice-daily
// timetable delivery with partial-failure pruning, and the yearly course-code
// rollover. Entries are processed concurrently and independently; a failure
// on one entry never aborts its siblings.
package refresh

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	slackapi "github.com/slack-go/slack"
	"golang.org/x/sync/errgroup"

	"timetable-slack-bot/internal/domain"
	"timetable-slack-bot/internal/domain/contract"
	slackfmt "timetable-slack-bot/internal/slack"
	"timetable-slack-bot/internal/store"
	"timetable-slack-bot/internal/timetable"
	"timetable-slack-bot/pkg/models"
)

type targetKind string

const (
	targetUser    targetKind = "user"
	targetChannel targetKind = "channel"
)

type Service struct {
	store       *store.Store
	timetable   contract.TimetableAPI
	slackClient contract.SlackClient
}

func New(st *store.Store, tt contract.TimetableAPI, slackClient contract.SlackClient) *Service {
	return &Service{
		store:       st,
		timetable:   tt,
		slackClient: slackClient,
	}
}

// DailyUpdate runs one delivery pass. The morning job (nextDay=false)
// delivers today's timetable to nextDay=false entries; the evening job
// (nextDay=true) delivers tomorrow's to nextDay=true entries. Entries whose
// target or course no longer resolves are removed; the document is written
// back once, unconditionally, after all entries settle.
func (s *Service) DailyUpdate(ctx context.Context, nextDay bool) error {
	return s.store.Update(func(doc *models.Document) error {
		s.processEntries(ctx, doc.UserData, nextDay, targetUser)
		s.processEntries(ctx, doc.ChannelData, nextDay, targetChannel)
		return nil
	})
}

func (s *Service) processEntries(ctx context.Context, entries map[string]models.Subscription, nextDay bool, kind targetKind) {
	var (
		g     errgroup.Group
		mu    sync.Mutex
		prune []string
	)

	for id, sub := range entries {
		if sub.NextDay != nextDay {
			continue
		}

		// Each entry is independent: failures are handled here and the
		// closure always returns nil, so no entry can abort the others.
		g.Go(func() error {
			channelID, err := s.resolveTarget(kind, id)
			var courseID string
			if err == nil {
				courseID, err = s.timetable.ResolveCourse(ctx, sub.CourseCode, "")
			}
			if err != nil {
				log.Printf("%v, removing %s %s from database", err, kind, id)
				mu.Lock()
				prune = append(prune, id)
				mu.Unlock()
				return nil
			}

			offset := 0
			if sub.NextDay {
				offset = 1
			}
			// Delivery failures may be transient; log and keep the entry.
			if err := s.deliverTimetable(ctx, channelID, courseID, offset, sub.IgnoreTutorials); err != nil {
				log.Printf("failed to deliver timetable to %s %s: %v", kind, id, err)
			}
			return nil
		})
	}
	g.Wait()

	for _, id := range prune {
		delete(entries, id)
	}
}

func (s *Service) resolveTarget(kind targetKind, id string) (string, error) {
	switch kind {
	case targetUser:
		channel, _, _, err := s.slackClient.OpenConversation(&slackapi.OpenConversationParameters{
			Users: []string{id},
		})
		if err != nil {
			return "", fmt.Errorf("%w: failed to open conversation with user '%s': %v", domain.ErrTargetUnresolvable, id, err)
		}
		return channel.ID, nil
	default:
		if _, err := s.slackClient.GetConversationInfo(&slackapi.GetConversationInfoInput{ChannelID: id}); err != nil {
			return "", fmt.Errorf("%w: failed to find channel with ID '%s': %v", domain.ErrTargetUnresolvable, id, err)
		}
		return id, nil
	}
}

func (s *Service) deliverTimetable(ctx context.Context, channelID, courseID string, offset int, ignoreTutorials bool) error {
	day := time.Now().AddDate(0, 0, offset)
	start, end := timetable.DayWindow(day)

	category, err := s.timetable.FetchEvents(ctx, courseID, start, end, timetable.CategoryProgramme)
	if err != nil {
		return err
	}

	events := category.Results
	if ignoreTutorials {
		events = slackfmt.FilterTutorials(events)
	}
	if len(events) == 0 {
		// Nothing scheduled that day; stay quiet.
		return nil
	}

	name := category.Name
	if name == "" {
		name = courseID
	}
	msg := slackfmt.FormatTimetableMessage(name, day, events)

	if _, _, err := s.slackClient.PostMessage(channelID, slackapi.MsgOptionText(msg, false)); err != nil {
		return err
	}
	return nil
}

// RolloverCourseCodes is the yearly job: entries flagged autoUpdate get the
// trailing digit of their course code incremented; codes that fail to resolve
// afterwards have their entry deleted.
func (s *Service) RolloverCourseCodes(ctx context.Context) error {
	return s.store.Update(func(doc *models.Document) error {
		s.rolloverEntries(ctx, doc.UserData, targetUser)
		s.rolloverEntries(ctx, doc.ChannelData, targetChannel)
		return nil
	})
}

func (s *Service) rolloverEntries(ctx context.Context, entries map[string]models.Subscription, kind targetKind) {
	var (
		g     errgroup.Group
		mu    sync.Mutex
		prune []string
		bump  = make(map[string]string)
	)

	for id, sub := range entries {
		if !sub.AutoUpdate {
			continue
		}

		g.Go(func() error {
			next, err := bumpCourseCode(sub.CourseCode)
			if err == nil {
				_, err = s.timetable.ResolveCourse(ctx, next, "")
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("the course '%s' doesn't seem to exist anymore (%v), deleting %s %s from database", sub.CourseCode, err, kind, id)
				prune = append(prune, id)
				return nil
			}
			bump[id] = next
			return nil
		})
	}
	g.Wait()

	for id, next := range bump {
		sub := entries[id]
		sub.CourseCode = next
		entries[id] = sub
	}
	for _, id := range prune {
		delete(entries, id)
	}
}

// bumpCourseCode increments the trailing digit of a course code:
// ABC1234 becomes ABC1235. Codes not ending in a digit cannot roll over.
func bumpCourseCode(code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("empty course code")
	}
	last := code[len(code)-1:]
	n, err := strconv.Atoi(last)
	if err != nil {
		return "", fmt.Errorf("course code '%s' does not end in a digit", code)
	}
	return code[:len(code)-1] + strconv.Itoa(n+1), nil
}
