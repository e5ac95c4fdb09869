package elevenlabs

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAPIKey is returned when the client is used without a key.
	ErrNoAPIKey = errors.New("ELEVENLABS_API_KEY is not set")

	// ErrTextTooLong indicates the synthesis text exceeds the character limit.
	ErrTextTooLong = errors.New("text exceeds character limit")

	// ErrEmptyText indicates synthesis was requested for empty text.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrUnknownVoice indicates a voice name that is not in the voice list.
	ErrUnknownVoice = errors.New("unknown voice")
)

// NetworkError wraps a transport-level failure (DNS, refused connection,
// timeout) for a single request.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: unable to connect to ElevenLabs API: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is returned for any non-200 response.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP status %d: %s", e.Op, e.StatusCode, e.Body)
}

// IsNetworkError reports whether err is or wraps a *NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsAPIError reports whether err is or wraps an *APIError.
func IsAPIError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae)
}
