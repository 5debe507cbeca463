package kiosk

import (
	"strconv"

	"github.com/myrjola/totem/internal/models"
	"github.com/myrjola/totem/internal/questionnaire"
)

// Screen is what the kiosk currently shows.
type Screen string

const (
	ScreenWelcome  Screen = "welcome"
	ScreenForm     Screen = "form"
	ScreenThankYou Screen = "thank-you"
)

// SaveStatus tracks the persistence of the last submitted answer set.
type SaveStatus int

const (
	SaveIdle SaveStatus = iota
	SaveSaving
	SaveSuccess
	SaveError
)

func (s SaveStatus) String() string {
	switch s {
	case SaveIdle:
		return "idle"
	case SaveSaving:
		return "saving"
	case SaveSuccess:
		return "success"
	case SaveError:
		return "error"
	}
	return "SaveStatus(" + strconv.Itoa(int(s)) + ")"
}

// ResetReason tells why a session went back to the welcome screen.
type ResetReason string

const (
	ResetInactivity ResetReason = "inactivity"
	ResetCountdown  ResetReason = "countdown"
	ResetUser       ResetReason = "user"
)

// View is a read-only projection of a session for rendering.
type View struct {
	Screen     Screen
	Step       questionnaire.Step
	Answers    models.AnswerSet
	Errors     questionnaire.Errors
	SaveStatus SaveStatus
	// Countdown is the number of seconds left on the thank-you screen.
	Countdown int
}

// Key identifies the rendered screen. Two views with equal keys and no running countdown render the same page
// layout, which lets pollers skip redundant swaps.
func (v View) Key() string {
	if v.Screen == ScreenForm {
		return string(v.Screen) + "-" + strconv.Itoa(int(v.Step))
	}
	return string(v.Screen)
}
