package inference

import "fmt"

// InvalidVectorError indicates an answer vector of the wrong length or with
// an out-of-domain value reached inference. It is fatal for the session.
type InvalidVectorError struct {
	Answers []int
	Reason  string
}

func (e *InvalidVectorError) Error() string {
	return fmt.Sprintf("invalid answer vector %v: %s", e.Answers, e.Reason)
}
