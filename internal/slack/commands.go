package slack

import (
	"fmt"
	"strings"
)

type CommandType string

const (
	CmdPing          CommandType = "ping"
	CmdTimetable     CommandType = "timetable"
	CmdCheckRooms    CommandType = "checkrooms"
	CmdLabFree       CommandType = "labfree"
	CmdUpdateMe      CommandType = "updateme"
	CmdUpdateChannel CommandType = "updatechannel"
	CmdMyInfo        CommandType = "myinfo"
	CmdChannelInfo   CommandType = "channelinfo"
	CmdHelp          CommandType = "help"
)

type Command struct {
	Type CommandType
	Args []string
	Raw  string
}

func ParseCommand(text string) (*Command, error) {
	parts := strings.Fields(strings.TrimSpace(text))
	if len(parts) == 0 {
		return &Command{Type: CmdHelp}, nil
	}

	cmd := &Command{
		Raw: text,
	}
	if len(parts) > 1 {
		cmd.Args = parts[1:]
	}

	switch strings.ToLower(parts[0]) {
	case "ping":
		cmd.Type = CmdPing
	case "timetable", "tt":
		cmd.Type = CmdTimetable
	case "checkrooms", "rooms":
		cmd.Type = CmdCheckRooms
	case "labfree":
		cmd.Type = CmdLabFree
	case "updateme":
		cmd.Type = CmdUpdateMe
	case "updatechannel":
		cmd.Type = CmdUpdateChannel
	case "myinfo":
		cmd.Type = CmdMyInfo
	case "channelinfo":
		cmd.Type = CmdChannelInfo
	case "help", "":
		cmd.Type = CmdHelp
	default:
		return nil, fmt.Errorf("unknown command: %s", parts[0])
	}

	return cmd, nil
}

func GetHelpText() string {
	return `*Available commands:*

*Timetables:*
• ` + "`/timetable timetable COMSCI1 [day]`" + ` - Show a course's timetable (day defaults to today)
• ` + "`/timetable ping`" + ` - Check the bot is alive

*Rooms:*
• ` + "`/timetable checkrooms 10:00-12:00 L101 L128`" + ` - Check who's in the given rooms
• ` + "`/timetable labfree 10:00-12:00`" + ` - Check the usual lab rooms

*Daily updates:*
• ` + "`/timetable updateme COMSCI1 [nextday] [ignoretutorials] [autoupdate]`" + ` - Subscribe yourself
• ` + "`/timetable updateme`" + ` - Unsubscribe yourself
• ` + "`/timetable updatechannel COMSCI1 [nextday] [ignoretutorials] [autoupdate]`" + ` - Subscribe this channel
• ` + "`/timetable updatechannel`" + ` - Unsubscribe this channel
• ` + "`/timetable myinfo`" + ` / ` + "`/timetable channelinfo`" + ` - Show stored settings

Subscribed targets get the timetable at 6:00 for the day, or at 18:00 for the
next day with the ` + "`nextday`" + ` flag.`
}
