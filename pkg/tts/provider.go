// Package tts defines the Text-To-Speech provider contract used when no
// pre-recorded asset exists for an announcement.
package tts

import (
	"context"
	"errors"
)

// MinAudioSize is the minimum size of a synthesized audio file (1KB).
// Files smaller than this are likely failed synthesis attempts.
const MinAudioSize = 1024

// Provider defines the interface for Text-To-Speech engines.
type Provider interface {
	// Synthesize generates audio from text and writes it to outputPath.
	// Returns the audio format ("mp3", "wav") and error.
	Synthesize(ctx context.Context, text, voice, outputPath string) (string, error)
}

// FatalError represents a TTS error that will not succeed on retry, such as
// auth failures (401/403), rate limits (429) or server errors (5xx). The
// Speaker stops calling the provider once it sees one.
type FatalError struct {
	StatusCode int
	Message    string
}

func (e *FatalError) Error() string {
	return e.Message
}

// NewFatalError creates a new FatalError with the given status code and message.
func NewFatalError(statusCode int, message string) *FatalError {
	return &FatalError{StatusCode: statusCode, Message: message}
}

// IsFatalError checks if an error is, or wraps, a TTS fatal error.
func IsFatalError(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
