package contract

import "github.com/slack-go/slack"

// SlackClient defines the interface for Slack operations used by the bot.
// This allows mocking in tests while keeping the real implementation simple.
type SlackClient interface {
	// GetConversationInfo verifies that a channel still exists and is reachable.
	GetConversationInfo(input *slack.GetConversationInfoInput) (*slack.Channel, error)

	// OpenConversation opens (or resumes) a direct message with a user.
	OpenConversation(params *slack.OpenConversationParameters) (*slack.Channel, bool, bool, error)

	// PostMessage sends a message to a Slack channel.
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
}
