package quiz

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizComplete is returned when the quiz has no more questions.
	ErrQuizComplete = errors.New("quiz is complete")

	// ErrSessionAborted is returned after an inference failure until Reset.
	ErrSessionAborted = errors.New("quiz session aborted, reset to start over")
)

// NoSelectionError indicates Submit was called without a valid displayed
// choice. The engine state is unchanged.
type NoSelectionError struct {
	Question  int
	Displayed int
}

func (e *NoSelectionError) Error() string {
	if e.Displayed == NoSelection {
		return fmt.Sprintf("question %d: no option selected", e.Question+1)
	}
	return fmt.Sprintf("question %d: option %d does not exist", e.Question+1, e.Displayed+1)
}
