package model

import (
	"errors"
	"fmt"
)

// ErrPairMismatch indicates the classifier and codec artifacts were not
// produced by the same training run.
var ErrPairMismatch = errors.New("model and codec artifacts are not a pair")

// ArtifactLoadError indicates a model or codec artifact could not be read,
// validated or decoded. It is fatal at startup.
type ArtifactLoadError struct {
	Path string
	Err  error
}

func (e *ArtifactLoadError) Error() string {
	return fmt.Sprintf("load artifact %s: %v", e.Path, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error { return e.Err }

// CodecMismatchError indicates the classifier produced a code or distribution
// that the loaded label codec cannot account for.
type CodecMismatchError struct {
	Reason string
}

func (e *CodecMismatchError) Error() string {
	return "classifier and label codec disagree: " + e.Reason
}
