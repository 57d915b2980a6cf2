package kiosk

import "log"

// Feedback receives one signal per policy outcome. Rendering and sound are
// the implementation's concern.
type Feedback interface {
	Positive(text, section string)
	Negative(text string)
	Notice(text string)
}

// LogFeedback prints signals to the process log.
type LogFeedback struct{}

func (LogFeedback) Positive(text, section string) {
	if section != "" {
		log.Printf("OK  %s | %s", text, section)
		return
	}
	log.Printf("OK  %s", text)
}

func (LogFeedback) Negative(text string) {
	log.Printf("ERR %s", text)
}

func (LogFeedback) Notice(text string) {
	log.Printf("--- %s", text)
}
