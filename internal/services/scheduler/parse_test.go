package scheduler

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var parseNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func TestParseArgsVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		args  string
		media bool
		text  string
		at    time.Time
	}{
		{
			name: "text",
			args: "01/01/2099 10:00 Happy New Year",
			text: "Happy New Year",
			at:   time.Date(2099, 1, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:  "media with caption",
			args:  "media 24/12/2024 18:30 Season greetings",
			media: true,
			text:  "Season greetings",
			at:    time.Date(2024, 12, 24, 18, 30, 0, 0, time.UTC),
		},
		{
			name:  "media without caption",
			args:  "media 24/12/2024 18:30",
			media: true,
			at:    time.Date(2024, 12, 24, 18, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseArgs(strings.Fields(tt.args), parseNow, time.UTC)
			if err != nil {
				t.Fatalf("ParseArgs(%q) error: %v", tt.args, err)
			}
			if got.Media != tt.media {
				t.Fatalf("Media = %v, want %v", got.Media, tt.media)
			}
			if got.Text != tt.text {
				t.Fatalf("Text = %q, want %q", got.Text, tt.text)
			}
			if !got.At.Equal(tt.at) {
				t.Fatalf("At = %v, want %v", got.At, tt.at)
			}
		})
	}
}

func TestParseArgsRejections(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		args string
		want error
	}{
		{name: "too few args", args: "tomorrow", want: ErrUsage},
		{name: "media too few args", args: "media 01/01/2099", want: ErrUsage},
		{name: "garbage date", args: "2099-01-01 10:00 hi", want: ErrBadDateTime},
		{name: "month day swapped out of range", args: "13/13/2099 10:00 hi", want: ErrBadDateTime},
		{name: "bad time", args: "01/01/2099 25:00 hi", want: ErrBadDateTime},
		{name: "past date", args: "01/01/2000 10:00 old message", want: ErrPastTime},
		{name: "exactly now", args: "15/06/2024 12:00 hi", want: ErrPastTime},
		{name: "empty text", args: "01/01/2099 10:00", want: ErrEmptyText},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(strings.Fields(tt.args), parseNow, time.UTC)
			if !errors.Is(err, tt.want) {
				t.Fatalf("ParseArgs(%q) error = %v, want %v", tt.args, err, tt.want)
			}
		})
	}
}

func TestParseHHMM(t *testing.T) {
	t.Parallel()
	h, m, err := parseHHMM("23:15")
	if err != nil {
		t.Fatalf("parseHHMM error: %v", err)
	}
	if h != 23 || m != 15 {
		t.Fatalf("unexpected result: %d:%d", h, m)
	}

	if _, _, err := parseHHMM("24:00"); err == nil {
		t.Fatal("expected error for invalid hour")
	}
}
