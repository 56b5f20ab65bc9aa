package domain

import "regexp"

// ActionType identifies an action executed when a state is entered.
type ActionType string

const (
	// ActionCollectData stores the turn's raw input into the session data map.
	ActionCollectData ActionType = "collect_data"
)

// ActionSpec is a tagged action. Exactly one payload is set, matching Type.
type ActionSpec struct {
	Type    ActionType
	Collect *CollectData
}

// CollectData captures the raw input of the current turn into Session.Data[Field].
type CollectData struct {
	Field     string
	Validator *InputValidator
	// MaxAttempts bounds consecutive rejections. Zero means unbounded.
	MaxAttempts int
	// OnExhausted is followed once MaxAttempts rejections happened in a row.
	OnExhausted *Target
}

// InputValidator restricts what a CollectData action accepts. Zero fields are ignored.
type InputValidator struct {
	Digits    bool
	Length    int
	MinLength int
	MaxLength int
	Pattern   *regexp.Regexp
	// Message is spoken before the re-prompt when the input is rejected.
	Message string
}
