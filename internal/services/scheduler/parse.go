package scheduler

import (
	"errors"
	"strings"
	"time"
)

// Schedule command argument layout (space-delimited, positional):
//
//	<dd/MM/yyyy> <HH:mm> <message...>
//	media <dd/MM/yyyy> <HH:mm> [caption...]
//
// The media literal selects the media branch; the payload itself comes from
// the replied-to message and is resolved by the caller.
const dateTimeLayout = "02/01/2006 15:04"

var (
	// ErrUsage is returned when too few arguments are given.
	ErrUsage = errors.New("not enough arguments")

	// ErrBadDateTime is returned when the date/time tokens do not parse.
	ErrBadDateTime = errors.New("invalid date or time format")

	// ErrEmptyText is returned when a text schedule has no message body.
	ErrEmptyText = errors.New("text message content is empty")
)

// Args is the parsed form of a schedule command.
type Args struct {
	At    time.Time
	Media bool
	Text  string // message text, or caption for the media branch (may be empty)
}

// ParseArgs parses schedule command arguments against now in loc.
// The trigger time must be strictly in the future.
func ParseArgs(args []string, now time.Time, loc *time.Location) (Args, error) {
	if loc == nil {
		loc = time.Local
	}
	if len(args) < 2 {
		return Args{}, ErrUsage
	}

	media := args[0] == "media"
	if media {
		args = args[1:]
		if len(args) < 2 {
			return Args{}, ErrUsage
		}
	}

	at, err := time.ParseInLocation(dateTimeLayout, args[0]+" "+args[1], loc)
	if err != nil {
		return Args{}, ErrBadDateTime
	}
	if !at.After(now) {
		return Args{}, ErrPastTime
	}

	text := strings.Join(args[2:], " ")
	if !media && strings.TrimSpace(text) == "" {
		return Args{}, ErrEmptyText
	}

	return Args{At: at, Media: media, Text: text}, nil
}
