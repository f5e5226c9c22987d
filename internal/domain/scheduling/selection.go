package scheduling

import "time"

// Selection is the editing state of the schedule picker: a date, a time of
// day and the preset that produced them.
type Selection struct {
	Date   time.Time
	Time   time.Time
	Preset Preset
}

// NewSelection starts a custom selection at start (usually now or the
// post's existing send time).
func NewSelection(start time.Time) Selection {
	return Selection{Date: start, Time: start, Preset: PresetCustom}
}

// ApplyPreset moves the date by preset relative to now and keeps the
// selected hour and minute.
func (s *Selection) ApplyPreset(now time.Time, preset Preset) {
	s.Preset = preset
	s.Date = PresetDate(now, preset)
	s.Time = Combine(s.Date, s.Time)
}

// SetDate changes the calendar date and reverts to a custom selection.
func (s *Selection) SetDate(date time.Time) {
	s.Date = date
	s.Preset = PresetCustom
}

// SetTime changes the time of day and reverts to a custom selection.
func (s *Selection) SetTime(clock time.Time) {
	s.Time = clock
	s.Preset = PresetCustom
}

// Resolve returns the combined send time.
func (s Selection) Resolve() time.Time {
	return Combine(s.Date, s.Time)
}
