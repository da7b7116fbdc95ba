package config

import "os"

type Config struct {
	SlackBotToken      string
	SlackSigningSecret string
	TimetableAPIURL    string
	RoomFeedURL        string
	DataPath           string
	Port               string
}

func Load() *Config {
	return &Config{
		SlackBotToken:      getEnv("SLACK_BOT_TOKEN", ""),
		SlackSigningSecret: getEnv("SLACK_SIGNING_SECRET", ""),
		TimetableAPIURL:    getEnv("TIMETABLE_API_URL", "https://opentimetable.dcu.ie/broker/api"),
		RoomFeedURL:        getEnv("ROOM_FEED_URL", "https://opentimetable.dcu.ie/broker/api/rooms"),
		DataPath:           getEnv("DATA_PATH", "./user-data.json"),
		Port:               getEnv("PORT", "3000"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
