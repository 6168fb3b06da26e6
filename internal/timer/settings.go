package timer

import (
	"errors"
	"fmt"
)

// ErrInvalidSettings is returned when a settings update would leave a
// non-positive duration or a long-break interval below 2.
var ErrInvalidSettings = errors.New("invalid timer settings")

// Settings configures session lengths (in minutes) and sequencing.
type Settings struct {
	WorkDuration       int  `json:"workDuration" yaml:"work_duration"`
	ShortBreakDuration int  `json:"shortBreakDuration" yaml:"short_break_duration"`
	LongBreakDuration  int  `json:"longBreakDuration" yaml:"long_break_duration"`
	LongBreakInterval  int  `json:"longBreakInterval" yaml:"long_break_interval"`
	AutoStartBreaks    bool `json:"autoStartBreaks" yaml:"auto_start_breaks"`
	AutoStartWork      bool `json:"autoStartWork" yaml:"auto_start_work"`
}

// DefaultSettings returns the classic 25/5/15 schedule with a long break
// after every fourth work session.
func DefaultSettings() Settings {
	return Settings{
		WorkDuration:       25,
		ShortBreakDuration: 5,
		LongBreakDuration:  15,
		LongBreakInterval:  4,
	}
}

// Validate checks that every duration is at least one minute and the
// long-break interval is at least 2.
func (s Settings) Validate() error {
	switch {
	case s.WorkDuration < 1:
		return fmt.Errorf("%w: work duration %d", ErrInvalidSettings, s.WorkDuration)
	case s.ShortBreakDuration < 1:
		return fmt.Errorf("%w: short break duration %d", ErrInvalidSettings, s.ShortBreakDuration)
	case s.LongBreakDuration < 1:
		return fmt.Errorf("%w: long break duration %d", ErrInvalidSettings, s.LongBreakDuration)
	case s.LongBreakInterval < 2:
		return fmt.Errorf("%w: long break interval %d", ErrInvalidSettings, s.LongBreakInterval)
	}
	return nil
}

// DurationFor returns the configured length of t in minutes.
func (s Settings) DurationFor(t SessionType) int {
	switch t {
	case ShortBreak:
		return s.ShortBreakDuration
	case LongBreak:
		return s.LongBreakDuration
	default:
		return s.WorkDuration
	}
}

// SettingsPatch is a partial settings update; nil fields are left alone.
type SettingsPatch struct {
	WorkDuration       *int
	ShortBreakDuration *int
	LongBreakDuration  *int
	LongBreakInterval  *int
	AutoStartBreaks    *bool
	AutoStartWork      *bool
}

// Apply returns s with the patch merged in.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.WorkDuration != nil {
		s.WorkDuration = *p.WorkDuration
	}
	if p.ShortBreakDuration != nil {
		s.ShortBreakDuration = *p.ShortBreakDuration
	}
	if p.LongBreakDuration != nil {
		s.LongBreakDuration = *p.LongBreakDuration
	}
	if p.LongBreakInterval != nil {
		s.LongBreakInterval = *p.LongBreakInterval
	}
	if p.AutoStartBreaks != nil {
		s.AutoStartBreaks = *p.AutoStartBreaks
	}
	if p.AutoStartWork != nil {
		s.AutoStartWork = *p.AutoStartWork
	}
	return s
}

// Empty reports whether the patch changes nothing.
func (p SettingsPatch) Empty() bool {
	return p.WorkDuration == nil && p.ShortBreakDuration == nil && p.LongBreakDuration == nil &&
		p.LongBreakInterval == nil && p.AutoStartBreaks == nil && p.AutoStartWork == nil
}

// PatchFrom builds a patch that replaces every field with the values in s.
func PatchFrom(s Settings) SettingsPatch {
	return SettingsPatch{
		WorkDuration:       &s.WorkDuration,
		ShortBreakDuration: &s.ShortBreakDuration,
		LongBreakDuration:  &s.LongBreakDuration,
		LongBreakInterval:  &s.LongBreakInterval,
		AutoStartBreaks:    &s.AutoStartBreaks,
		AutoStartWork:      &s.AutoStartWork,
	}
}
