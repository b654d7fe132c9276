package lesson

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/example/espbot/internal/content"
)

// EventKind is the type of a user interaction
type EventKind int

const (
	EventStart EventKind = iota
	EventMenu
	EventLearn
	EventPath
	EventContinue
	EventToCards
	EventNext
	EventFinish
	EventSkip
	EventChoice
	EventText
	EventVoice
	EventNextLesson
	EventTrack
	EventReview
	EventReviewFinish
	EventPlacement
	EventPlacementAnswer
	EventProfile
)

// Event is one user interaction coming from the chat gateway
type Event struct {
	Kind EventKind

	Username  string
	FirstName string

	Text      string
	AudioPath string // EventVoice: local file, owned and removed by the caller

	Card     int    // EventNext: card the button belongs to
	Exercise int    // EventChoice
	Question int    // EventPlacementAnswer
	Option   int    // EventChoice, EventPlacementAnswer
	Path     string // EventPath: "zero" or "test"
	Track    string // EventTrack: track to move to
}

// Button is an inline button with its callback data
type Button struct {
	Text string
	Data string
}

// Reply is a transport-neutral message
type Reply struct {
	Text    string
	Buttons [][]Button
	Dice    bool // send a dice animation instead of text
}

// Callback data understood by ParseCallback
const (
	DataMenu         = "menu"
	DataLearn        = "learn"
	DataContinue     = "continue"
	DataToCards      = "to_cards"
	DataFinish       = "finish"
	DataSkip         = "skip"
	DataNextLesson   = "lesson:next"
	DataReview       = "review"
	DataReviewFinish = "review:finish"
	DataPlacement    = "placement"
	DataProfile      = "profile"
	DataPathZero     = "path:zero"
	DataPathTest     = "path:test"
)

var simpleCallbacks = map[string]Event{
	DataMenu:         {Kind: EventMenu},
	DataLearn:        {Kind: EventLearn},
	DataContinue:     {Kind: EventContinue},
	DataToCards:      {Kind: EventToCards},
	DataFinish:       {Kind: EventFinish},
	DataSkip:         {Kind: EventSkip},
	DataNextLesson:   {Kind: EventNextLesson},
	DataReview:       {Kind: EventReview},
	DataReviewFinish: {Kind: EventReviewFinish},
	DataPlacement:    {Kind: EventPlacement},
	DataProfile:      {Kind: EventProfile},
	DataPathZero:     {Kind: EventPath, Path: "zero"},
	DataPathTest:     {Kind: EventPath, Path: "test"},
}

func nextData(card int) string {
	return fmt.Sprintf("next:%d", card)
}

func choiceData(exercise, option int) string {
	return fmt.Sprintf("choice:%d:%d", exercise, option)
}

func placementData(question, option int) string {
	return fmt.Sprintf("lt:%d:%d", question, option)
}

func trackData(track content.Track) string {
	return "track:next:" + string(track)
}

// ParseCallback decodes inline button data into an event
func ParseCallback(data string) (Event, bool) {
	if ev, ok := simpleCallbacks[data]; ok {
		return ev, true
	}

	parts := strings.Split(data, ":")
	if len(parts) == 2 && parts[0] == "next" {
		card, err := strconv.Atoi(parts[1])
		if err != nil || card < 0 {
			return Event{}, false
		}
		return Event{Kind: EventNext, Card: card}, true
	}
	if len(parts) != 3 {
		return Event{}, false
	}

	switch parts[0] {
	case "choice", "lt":
		a, errA := strconv.Atoi(parts[1])
		b, errB := strconv.Atoi(parts[2])
		if errA != nil || errB != nil || a < 0 || b < 0 {
			return Event{}, false
		}
		if parts[0] == "choice" {
			return Event{Kind: EventChoice, Exercise: a, Option: b}, true
		}
		return Event{Kind: EventPlacementAnswer, Question: a, Option: b}, true
	case "track":
		track, ok := content.ParseTrack(parts[2])
		if parts[1] != "next" || !ok {
			return Event{}, false
		}
		return Event{Kind: EventTrack, Track: string(track)}, true
	}
	return Event{}, false
}
