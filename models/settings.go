package models

import (
	"errors"
	"fmt"
)

var ErrInvalidSettings = errors.New("invalid tabulation settings")

type DrawMethod string

const (
	DrawPowerPaired DrawMethod = "power_paired"
	DrawRandom      DrawMethod = "random"
	DrawRoundRobin  DrawMethod = "round_robin"
)

type SideMethod string

const (
	SidesBalance      SideMethod = "balance"
	SidesRandom       SideMethod = "random"
	SidesPreAllocated SideMethod = "pre_allocated"
)

type OddBracketPolicy string

const (
	OddPullUpTop    OddBracketPolicy = "pullup_top"
	OddPullUpBottom OddBracketPolicy = "pullup_bottom"
	OddIntermediate OddBracketPolicy = "intermediate"
	OddBubble       OddBracketPolicy = "bubble"
)

type ByeSpeaksPolicy string

const (
	ByeSpeaksAverage ByeSpeaksPolicy = "average"
	ByeSpeaksZero    ByeSpeaksPolicy = "zero"
)

// TabulationSettings is passed by value into every engine call so a solve
// never observes a change made while it runs.
type TabulationSettings struct {
	DrawMethod            DrawMethod       `json:"draw_method"`
	SideMethod            SideMethod       `json:"side_method"`
	OddBracket            OddBracketPolicy `json:"odd_bracket"`
	AvoidRematches        bool             `json:"avoid_rematches"`
	MaxRepeatOpponents    int              `json:"max_repeat_opponents"`
	InstitutionProtection bool             `json:"institution_protection"`
	PullUpRestriction     bool             `json:"pull_up_restriction"`

	HistoryPenalty     float64 `json:"history_penalty"`
	InstitutionPenalty float64 `json:"institution_penalty"`
	SidePenalty        float64 `json:"side_penalty"`

	JudgesPerRoom      int     `json:"judges_per_room"`
	ExperienceWeight   float64 `json:"experience_weight"`
	TimePrefPenalty    float64 `json:"time_pref_penalty"`
	SpecializationCost float64 `json:"specialization_cost"`
	RepeatJudgePenalty float64 `json:"repeat_judge_penalty"`
	AlumniChairPenalty float64 `json:"alumni_chair_penalty"`

	RandomSeed  int64           `json:"random_seed"`
	HighLowDrop bool            `json:"high_low_drop"`
	ByeSpeaks   ByeSpeaksPolicy `json:"bye_speaks"`
}

func DefaultSettings() TabulationSettings {
	return TabulationSettings{
		DrawMethod:            DrawPowerPaired,
		SideMethod:            SidesBalance,
		OddBracket:            OddPullUpTop,
		AvoidRematches:        true,
		MaxRepeatOpponents:    0,
		InstitutionProtection: true,
		PullUpRestriction:     true,
		HistoryPenalty:        1000,
		InstitutionPenalty:    100,
		SidePenalty:           10,
		JudgesPerRoom:         1,
		ExperienceWeight:      1,
		TimePrefPenalty:       5,
		SpecializationCost:    3,
		RepeatJudgePenalty:    4,
		AlumniChairPenalty:    2,
		ByeSpeaks:             ByeSpeaksAverage,
	}
}

func (s TabulationSettings) Validate() error {
	switch s.DrawMethod {
	case DrawPowerPaired, DrawRandom, DrawRoundRobin:
	default:
		return fmt.Errorf("%w: unknown draw method %q", ErrInvalidSettings, s.DrawMethod)
	}
	switch s.SideMethod {
	case SidesBalance, SidesRandom, SidesPreAllocated:
	default:
		return fmt.Errorf("%w: unknown side method %q", ErrInvalidSettings, s.SideMethod)
	}
	switch s.OddBracket {
	case OddPullUpTop, OddPullUpBottom, OddIntermediate, OddBubble:
	default:
		return fmt.Errorf("%w: unknown odd bracket policy %q", ErrInvalidSettings, s.OddBracket)
	}
	switch s.ByeSpeaks {
	case ByeSpeaksAverage, ByeSpeaksZero, "":
	default:
		return fmt.Errorf("%w: unknown bye speaks policy %q", ErrInvalidSettings, s.ByeSpeaks)
	}
	if s.MaxRepeatOpponents < 0 {
		return fmt.Errorf("%w: max repeat opponents must not be negative", ErrInvalidSettings)
	}
	if s.JudgesPerRoom < 1 {
		return fmt.Errorf("%w: judges per room must be at least 1, got %d", ErrInvalidSettings, s.JudgesPerRoom)
	}
	if s.HistoryPenalty < 0 || s.InstitutionPenalty < 0 || s.SidePenalty < 0 {
		return fmt.Errorf("%w: penalty weights must not be negative", ErrInvalidSettings)
	}
	return nil
}
