package core

import (
	"errors"
	"fmt"
)

// Error represents a relay error attributed to a pipeline stage.
type Error struct {
	Type     ErrorType `json:"type"`
	Message  string    `json:"message"`
	Code     string    `json:"code,omitempty"`
	Provider string    `json:"provider,omitempty"`

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorType categorizes errors by the stage that produced them.
type ErrorType string

const (
	ErrDecode      ErrorType = "decode_error"
	ErrRecognition ErrorType = "recognition_error"
	ErrTranslation ErrorType = "translation_error"
	ErrSynthesis   ErrorType = "synthesis_error"
	ErrProtocol    ErrorType = "protocol_error"
	ErrTransport   ErrorType = "transport_error"
	ErrInternal    ErrorType = "internal_error"
)

// Codes refine an ErrorType where callers branch on the cause.
const (
	CodeNoSpeech           = "no_speech"
	CodeServiceUnavailable = "service_unavailable"
)

// Notice renders the error as the plain warning string sent to clients.
// Decode and recognition failures share the STT prefix because clients
// only observe them as a failed recognition attempt.
func (e *Error) Notice() string {
	switch e.Type {
	case ErrDecode, ErrRecognition:
		return "STT failed: " + e.Message
	case ErrTranslation:
		return "Translation failed: " + e.Message
	case ErrSynthesis:
		return "TTS failed: " + e.Message
	default:
		return e.Message
	}
}

// NewDecodeError creates an error for audio container decoding failures.
func NewDecodeError(message string, cause error) *Error {
	return &Error{
		Type:    ErrDecode,
		Message: message,
		cause:   cause,
	}
}

// NewRecognitionError creates an error for speech recognition failures.
func NewRecognitionError(provider, message string, cause error) *Error {
	return &Error{
		Type:     ErrRecognition,
		Message:  message,
		Provider: provider,
		cause:    cause,
	}
}

// NewNoSpeechError creates a recognition error for audio that contained
// no recognizable speech.
func NewNoSpeechError(provider string) *Error {
	return &Error{
		Type:     ErrRecognition,
		Message:  "could not understand audio",
		Code:     CodeNoSpeech,
		Provider: provider,
	}
}

// NewServiceUnavailableError creates a recognition error for an
// unreachable or failing recognition service.
func NewServiceUnavailableError(provider string, cause error) *Error {
	return &Error{
		Type:     ErrRecognition,
		Message:  fmt.Sprintf("recognition service unavailable: %v", cause),
		Code:     CodeServiceUnavailable,
		Provider: provider,
		cause:    cause,
	}
}

// NewTranslationError creates an error for translation failures.
func NewTranslationError(provider string, cause error) *Error {
	return &Error{
		Type:     ErrTranslation,
		Message:  cause.Error(),
		Provider: provider,
		cause:    cause,
	}
}

// NewSynthesisError creates an error for speech synthesis failures.
func NewSynthesisError(provider string, cause error) *Error {
	return &Error{
		Type:     ErrSynthesis,
		Message:  cause.Error(),
		Provider: provider,
		cause:    cause,
	}
}

// NewProtocolError creates an error for malformed client frames. The
// message is the complete client-facing notice.
func NewProtocolError(message string) *Error {
	return &Error{
		Type:    ErrProtocol,
		Message: message,
	}
}

// NewTransportError creates an error for socket-level failures.
func NewTransportError(message string, cause error) *Error {
	return &Error{
		Type:    ErrTransport,
		Message: message,
		cause:   cause,
	}
}

// NewInternalError creates a generic internal error.
func NewInternalError(message string) *Error {
	return &Error{
		Type:    ErrInternal,
		Message: message,
	}
}

// IsType reports whether err is a *Error of the given type.
func IsType(err error, t ErrorType) bool {
	var coreErr *Error
	if errors.As(err, &coreErr) && coreErr != nil {
		return coreErr.Type == t
	}
	return false
}

// Unwrap returns the underlying error for error wrapping.
func (e *Error) Unwrap() error {
	return e.cause
}
