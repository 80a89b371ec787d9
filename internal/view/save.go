package view

import (
	"strings"

	"github.com/Makepad-fr/destinai/internal/api"
)

// SaveState is the per-card state of "save to favorites".
type SaveState int

const (
	SaveIdle SaveState = iota
	SaveSaving
	SaveSaved
)

// SaveOutcome is what a finished save request means for the card.
type SaveOutcome int

const (
	OutcomeSaved SaveOutcome = iota
	OutcomeAlreadySaved
	OutcomeLimitReached
	OutcomeFailed
)

// Structured reason codes a server may send in the error body.
const (
	ReasonLimitReached = "favorites_limit_reached"
	ReasonAlreadySaved = "favorite_already_exists"
)

// ClassifySave maps the result of POST /api/favorites to an outcome.
// A 400 is classified by its reason code when present, otherwise by the
// message text ("limit", "already"). Unauthorized is not an outcome; check
// it before calling.
func ClassifySave(err error) SaveOutcome {
	if err == nil {
		return OutcomeSaved
	}
	apiErr, ok := api.AsError(err)
	if !ok || apiErr.Status != 400 {
		return OutcomeFailed
	}
	switch apiErr.Body.Reason {
	case ReasonLimitReached:
		return OutcomeLimitReached
	case ReasonAlreadySaved:
		return OutcomeAlreadySaved
	}
	msg := strings.ToLower(apiErr.Body.Message)
	switch {
	case strings.Contains(msg, "limit"):
		return OutcomeLimitReached
	case strings.Contains(msg, "already"):
		return OutcomeAlreadySaved
	default:
		return OutcomeFailed
	}
}

// State and text a card shows after outcome.
func (o SaveOutcome) Result() (SaveState, string) {
	switch o {
	case OutcomeSaved:
		return SaveSaved, "Saved."
	case OutcomeAlreadySaved:
		return SaveSaved, "Already saved."
	case OutcomeLimitReached:
		return SaveIdle, "Favorites limit reached."
	default:
		return SaveIdle, "Could not save. Try again."
	}
}

type cardState struct {
	state   SaveState
	message string
}

// SaveStates holds the save state of each recommendation card, keyed by
// country. Saved is terminal.
type SaveStates struct {
	cards map[string]cardState
}

func NewSaveStates() *SaveStates {
	return &SaveStates{cards: map[string]cardState{}}
}

// Begin moves country to Saving. It refuses (returns false) for an empty
// country or a card that is already saving or saved.
func (s *SaveStates) Begin(country string) bool {
	if country == "" {
		return false
	}
	if cur := s.cards[country].state; cur == SaveSaving || cur == SaveSaved {
		return false
	}
	s.cards[country] = cardState{state: SaveSaving, message: "Saving..."}
	return true
}

// Resolve records the outcome of the request started by Begin.
func (s *SaveStates) Resolve(country string, o SaveOutcome) {
	if s.cards[country].state == SaveSaved {
		return
	}
	state, msg := o.Result()
	s.cards[country] = cardState{state: state, message: msg}
}

// Reset forgets a card's transient state. Saved cards are kept.
func (s *SaveStates) Reset(country string) {
	if s.cards[country].state != SaveSaved {
		delete(s.cards, country)
	}
}

func (s *SaveStates) State(country string) SaveState { return s.cards[country].state }

func (s *SaveStates) Message(country string) string { return s.cards[country].message }

// Disabled reports whether the card's save action must be disabled.
func (s *SaveStates) Disabled(country string) bool {
	st := s.cards[country].state
	return st == SaveSaving || st == SaveSaved
}
