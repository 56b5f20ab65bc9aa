package ivrflow

import "time"

// DefaultWelcome follows the greeting when a call starts.
const DefaultWelcome = "Thank you for calling the Train Enquiry System. My name is your virtual assistant, and I'm here to help you with all your train-related queries today."

// Greeting returns the time-of-day salutation for t.
func Greeting(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return "Good morning"
	case h >= 12 && h < 17:
		return "Good afternoon"
	case h >= 17 && h < 21:
		return "Good evening"
	default:
		return "Good night"
	}
}
