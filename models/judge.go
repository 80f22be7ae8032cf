package models

import (
	"fmt"
	"time"
)

type ExperienceTier int

const (
	TierNovice ExperienceTier = iota
	TierIntermediate
	TierAdvanced
	TierExpert
)

var tierNames = map[ExperienceTier]string{
	TierNovice:       "novice",
	TierIntermediate: "intermediate",
	TierAdvanced:     "advanced",
	TierExpert:       "expert",
}

func (t ExperienceTier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

func ParseExperienceTier(s string) (ExperienceTier, error) {
	for tier, name := range tierNames {
		if name == s {
			return tier, nil
		}
	}
	return TierNovice, fmt.Errorf("unknown experience tier %q", s)
}

func (t ExperienceTier) MarshalText() ([]byte, error) {
	if _, ok := tierNames[t]; !ok {
		return nil, fmt.Errorf("unknown experience tier %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *ExperienceTier) UnmarshalText(text []byte) error {
	tier, err := ParseExperienceTier(string(text))
	if err != nil {
		return err
	}
	*t = tier
	return nil
}

type TimeOfDay string

const (
	TimeMorning   TimeOfDay = "morning"
	TimeAfternoon TimeOfDay = "afternoon"
	TimeEvening   TimeOfDay = "evening"
)

// TimeOfDayOf buckets a wall-clock time: before noon, before 17:00, later.
func TimeOfDayOf(t time.Time) TimeOfDay {
	switch h := t.Hour(); {
	case h < 12:
		return TimeMorning
	case h < 17:
		return TimeAfternoon
	default:
		return TimeEvening
	}
}

// DateKey is the civil date a pairing or availability record refers to.
func DateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

// Availability maps a civil date ("2006-01-02") to the preferred time-of-day
// buckets on that date. An empty bucket list means no preference.
// An empty Availability means the judge has not restricted their dates.
type Availability struct {
	Dates map[string][]TimeOfDay `json:"dates,omitempty"`
}

func (a Availability) Restricted() bool {
	return len(a.Dates) > 0
}

// AvailableOn reports whether the judge can sit on the given date.
func (a Availability) AvailableOn(date string) bool {
	if !a.Restricted() {
		return true
	}
	_, ok := a.Dates[date]
	return ok
}

// Prefers reports whether the bucket matches the judge's preferences for the date.
func (a Availability) Prefers(date string, bucket TimeOfDay) bool {
	prefs := a.Dates[date]
	if len(prefs) == 0 {
		return true
	}
	for _, p := range prefs {
		if p == bucket {
			return true
		}
	}
	return false
}

type Judge struct {
	ID              int            `json:"id" db:"id"`
	TournamentID    int            `json:"tournament_id" db:"tournament_id"`
	Name            string         `json:"name" db:"name"`
	Tier            ExperienceTier `json:"tier" db:"tier"`
	Specializations []string       `json:"specializations,omitempty" db:"specializations"`
	Availability    Availability   `json:"availability" db:"availability"`
	Alumni          bool           `json:"alumni" db:"alumni"`
	MaxRoundsPerDay int            `json:"max_rounds_per_day" db:"max_rounds_per_day"`
}

func (j Judge) Specializes(tag string) bool {
	for _, s := range j.Specializations {
		if s == tag {
			return true
		}
	}
	return false
}
