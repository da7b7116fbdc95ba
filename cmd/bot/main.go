package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/slack-go/slack"

	"timetable-slack-bot/internal/config"
	"timetable-slack-bot/internal/handlers"
	"timetable-slack-bot/internal/refresh"
	"timetable-slack-bot/internal/rooms"
	"timetable-slack-bot/internal/scheduler"
	"timetable-slack-bot/internal/store"
	"timetable-slack-bot/internal/timetable"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := config.Load()

	preferences := store.New(cfg.DataPath)
	if err := preferences.EnsureExists(); err != nil {
		log.Fatalf("Failed to initialize preference store: %v", err)
	}

	slackClient := slack.New(cfg.SlackBotToken)
	timetableClient := timetable.NewClient(cfg.TimetableAPIURL)
	roomClient := rooms.NewClient(cfg.RoomFeedURL)

	refreshService := refresh.New(preferences, timetableClient, slackClient)

	sched := scheduler.New(refreshService)
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	handler := handlers.New(preferences, timetableClient, roomClient, cfg.SlackSigningSecret)

	http.HandleFunc("/slack/commands", handler.HandleSlashCommand)
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	})

	log.Printf("Server starting on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, nil); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
