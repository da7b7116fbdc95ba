// Package scheduler wires the refresh jobs onto their fixed cron triggers:
// morning delivery at 06:00, evening delivery at 18:00 and the course-code
// rollover at midnight on September 1.
package scheduler

import (
	"context"
	"log"

	cron "github.com/robfig/cron/v3"

	"timetable-slack-bot/internal/domain"
	"timetable-slack-bot/internal/refresh"
)

type Scheduler struct {
	cron           *cron.Cron
	refreshService *refresh.Service
}

func New(refreshService *refresh.Service) *Scheduler {
	return &Scheduler{
		cron:           cron.New(),
		refreshService: refreshService,
	}
}

func (s *Scheduler) Start() error {
	jobs := []struct {
		spec string
		run  func()
	}{
		{domain.MorningUpdateSpec, func() {
			if err := s.refreshService.DailyUpdate(context.Background(), false); err != nil {
				log.Printf("morning update failed: %v", err)
			}
		}},
		{domain.EveningUpdateSpec, func() {
			if err := s.refreshService.DailyUpdate(context.Background(), true); err != nil {
				log.Printf("evening update failed: %v", err)
			}
		}},
		{domain.RolloverSpec, func() {
			if err := s.refreshService.RolloverCourseCodes(context.Background()); err != nil {
				log.Printf("course rollover failed: %v", err)
			}
		}},
	}

	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.spec, job.run); err != nil {
			return err
		}
	}

	s.cron.Start()
	log.Println("Scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Scheduler stopped")
}
