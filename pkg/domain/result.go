package domain

// InputClass is the syntactic category of a caller input.
type InputClass int

const (
	// ControlCode is a single keypad signal: 0-9, * or #.
	ControlCode InputClass = iota
	// FreeText is anything else, typically speech transcribed to text.
	FreeText
)

func (c InputClass) String() string {
	if c == ControlCode {
		return "control_code"
	}
	return "free_text"
}

// StepResult is what a turn produces for the caller.
type StepResult struct {
	Flow     string  `json:"flow"`
	State    string  `json:"state"`
	Message  string  `json:"message"`
	Options  Options `json:"options"`
	Terminal bool    `json:"is_end"`

	// Fault carries the error absorbed by a recovered turn. Nil on normal turns.
	Fault error `json:"-"`
}

// Recovered reports whether the turn was produced by a recovery path.
func (r StepResult) Recovered() bool {
	return r.Fault != nil
}
