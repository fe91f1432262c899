// ABOUTME: Domain-level sentinel errors for the enrichment pipeline
// ABOUTME: These errors are used with errors.Is() for error type checking
package domain

import (
	"errors"
	"fmt"
)

// Retrieval errors
var (
	// ErrFetchFailure indicates a feed or item page could not be retrieved or parsed
	ErrFetchFailure = errors.New("fetch failure")

	// ErrInvalidFeed indicates the feed payload has no items array; the source is skipped
	ErrInvalidFeed = errors.New("feed payload has no items array")

	// ErrRobotsDisallowed indicates robots.txt forbids fetching the item page
	ErrRobotsDisallowed = errors.New("fetch disallowed by robots.txt")
)

// Content errors
var (
	// ErrExtractionEmpty indicates extracted text is empty or below the minimum length
	ErrExtractionEmpty = errors.New("extracted content is empty or too short")
)

// Generation errors
var (
	// ErrGenerationFailure indicates the generation capability failed after retries
	ErrGenerationFailure = errors.New("generation failure")

	// ErrGenerationDisabled indicates the generation capability is switched off
	ErrGenerationDisabled = errors.New("generation disabled")

	// ErrCircuitOpen indicates calls are rejected while the circuit breaker is open
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// Sink and state errors
var (
	// ErrPublishFailure indicates the publish sink rejected the record
	ErrPublishFailure = errors.New("publish failure")

	// ErrStateIO indicates the dedup state could not be read or written
	ErrStateIO = errors.New("state io failure")
)

// Configuration errors
var (
	// ErrUnknownSource indicates a source id that is not present in the sources file
	ErrUnknownSource = errors.New("unknown source")
)

// GenerationError is returned by the generation client when no text could be produced.
type GenerationError struct {
	Cause    error
	Attempts int
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed after %d attempt(s): %v", e.Attempts, e.Cause)
}

func (e *GenerationError) Unwrap() []error {
	return []error{ErrGenerationFailure, e.Cause}
}

// NewGenerationError wraps cause as a GenerationError.
func NewGenerationError(cause error, attempts int) *GenerationError {
	return &GenerationError{Cause: cause, Attempts: attempts}
}
