// Package scheduling turns preset or picker input into a concrete send
// time and checks the preconditions for scheduling a post.
package scheduling

import (
	"fmt"
	"strings"
	"time"

	"github.com/socialdesk/core/internal/domain/entities"
)

type Preset string

const (
	PresetCustom    Preset = "custom"
	PresetTomorrow  Preset = "tomorrow"
	PresetNextWeek  Preset = "nextWeek"
	PresetNextMonth Preset = "nextMonth"
)

func (p Preset) IsValid() bool {
	switch p {
	case PresetCustom, PresetTomorrow, PresetNextWeek, PresetNextMonth:
		return true
	default:
		return false
	}
}

// ParsePreset accepts the preset names case-insensitively; an empty string
// means custom.
func ParsePreset(s string) (Preset, error) {
	if s == "" {
		return PresetCustom, nil
	}
	for _, p := range []Preset{PresetCustom, PresetTomorrow, PresetNextWeek, PresetNextMonth} {
		if strings.EqualFold(string(p), s) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown preset %q", s)
}

// PresetDate shifts now by the preset. nextMonth is calendar aware. Custom
// returns now unchanged.
func PresetDate(now time.Time, preset Preset) time.Time {
	switch preset {
	case PresetTomorrow:
		return now.AddDate(0, 0, 1)
	case PresetNextWeek:
		return now.AddDate(0, 0, 7)
	case PresetNextMonth:
		return now.AddDate(0, 1, 0)
	default:
		return now
	}
}

// ResolvePreset computes the send time for preset relative to now, keeping
// the hour and minute of the currently selected time.
func ResolvePreset(now time.Time, preset Preset, selected time.Time) time.Time {
	return Combine(PresetDate(now, preset), selected)
}

// Combine joins the calendar date of date with the hour and minute of
// clock, in date's location. Seconds are dropped.
func Combine(date, clock time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, date.Location())
}

// Validate checks the post preconditions for scheduling.
func Validate(content string, channelIDs []string) error {
	if strings.TrimSpace(content) == "" {
		return entities.NewValidationError("content", entities.CodeContentRequired)
	}
	if len(entities.UniqueIDs(channelIDs)) == 0 {
		return entities.NewValidationError("channelIds", entities.CodeChannelRequired)
	}
	return nil
}

// RequireFuture rejects send times that are not after now.
func RequireFuture(now, when time.Time) error {
	if !when.After(now) {
		return entities.NewValidationError("scheduledFor", entities.CodeScheduleInPast)
	}
	return nil
}
