package stream

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// ErrNotReady is returned when a poll limit is set and the video is still
// processing after that many polls.
var ErrNotReady = errors.New("video not ready to stream")

// BuildError is returned by ClientBuilder.Build when a credential is missing.
type BuildError struct {
	Missing []string
}

func (e *BuildError) Error() string {
	return "failed to build client: missing " + strings.Join(e.Missing, ", ")
}

// TransportError covers everything below the provider's own success flag:
// request construction, network, TLS, and bodies that are not an envelope.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Method, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProviderError means the API answered with an envelope that reports failure,
// or claimed success without a result.
type ProviderError struct {
	StatusCode int
	Errors     []Message
	Reason     string
}

func (e *ProviderError) Error() string {
	if len(e.Errors) == 0 {
		return "cloudflare request failed: " + e.Reason
	}
	msgs := lo.Map(e.Errors, func(m Message, _ int) string { return m.String() })
	return fmt.Sprintf("cloudflare request failed: [%s]", strings.Join(msgs, "; "))
}

// IsTransport reports whether err wraps a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsProvider reports whether err wraps a ProviderError.
func IsProvider(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
