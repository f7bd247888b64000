package common

import (
	"errors"
	"fmt"
)

// Queue errors
var (
	ErrEmptyQueue = errors.New("queue is empty")
	ErrOutOfRange = errors.New("position out of range")
	ErrNoOp       = errors.New("source and destination are the same")
)

// Collaborator errors
var (
	ErrExtractionFailure = errors.New("no songs found")
	ErrConnectFailure    = errors.New("could not connect to the voice channel")
	ErrStreamFailure     = errors.New("could not stream the track")
)

// RangeError reports a 1-based position outside [1, Max]
type RangeError struct {
	Field string // "index", "from" or "to"
	Index int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %d out of range [1, %d]", e.Field, e.Index, e.Max)
}

func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}
