package asr

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrEmptyAudio = errors.New("audio data is empty")

	// ErrTimeout wraps deadline errors, both from the caller's context and
	// the http client
	ErrTimeout = errors.New("transcription timed out")
	// ErrCancelled wraps caller cancellation
	ErrCancelled = errors.New("transcription cancelled")
	// ErrNetwork wraps any other failure to reach the provider or read its
	// response
	ErrNetwork = errors.New("provider unreachable")
)

type AuthError struct {
	StatusCode int
	Detail     string
}

func (e *AuthError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("authentication failed: [%d]", e.StatusCode)
	}
	return fmt.Sprintf("authentication failed: [%d] %s", e.StatusCode, e.Detail)
}

type UnsupportedLanguageError struct {
	Language string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language: %q", e.Language)
}

// ProviderError is a non-2xx response, or a 2xx response that couldn't be
// understood.
type ProviderError struct {
	Provider   string
	StatusCode int
	Detail     string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: provider error [%d]", e.Provider, e.StatusCode)
	if e.Detail != "" {
		msg += " " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// TransportError converts an error from http.Client.Do into ErrTimeout or
// ErrCancelled when it was caused by a deadline or cancellation. Anything
// else is wrapped in ErrNetwork.
func TransportError(ctx context.Context, err error) error {
	var netErr net.Error

	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	case errors.Is(ctx.Err(), context.DeadlineExceeded),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	return fmt.Errorf("%w: %w", ErrNetwork, err)
}

const (
	OutcomeSuccess             = "success"
	OutcomeAuth                = "auth"
	OutcomeUnsupportedLanguage = "unsupported_language"
	OutcomeEmptyAudio          = "empty_audio"
	OutcomeTimeout             = "timeout"
	OutcomeCancelled           = "cancelled"
	OutcomeNetwork             = "network"
	OutcomeProvider            = "provider"
	OutcomeError               = "error"
)

// Classify maps an error from a SpeechRecognitionAPI to a short outcome name
func Classify(err error) string {
	if err == nil {
		return OutcomeSuccess
	}

	var authErr *AuthError
	var langErr *UnsupportedLanguageError
	var providerErr *ProviderError

	switch {
	case errors.As(err, &authErr):
		return OutcomeAuth
	case errors.As(err, &langErr):
		return OutcomeUnsupportedLanguage
	case errors.Is(err, ErrEmptyAudio):
		return OutcomeEmptyAudio
	case errors.Is(err, ErrCancelled):
		return OutcomeCancelled
	case errors.Is(err, ErrTimeout):
		return OutcomeTimeout
	case errors.Is(err, ErrNetwork):
		return OutcomeNetwork
	case errors.As(err, &providerErr):
		return OutcomeProvider
	default:
		return OutcomeError
	}
}
