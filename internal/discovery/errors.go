package discovery

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// ErrorKind classifies a discovery failure so callers can distinguish
// authentication problems, quota exhaustion, transport failures, and
// unusable responses.
type ErrorKind string

const (
	KindAuth      ErrorKind = "auth"
	KindRateLimit ErrorKind = "rate_limit"
	KindNetwork   ErrorKind = "network"
	KindParse     ErrorKind = "parse"
)

// Error is a classified discovery failure.
type Error struct {
	Kind ErrorKind
	Op   string // "city_search" or "source_search"
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("discovery %s failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// classify wraps an upstream error with the appropriate kind.
func classify(op string, err error) *Error {
	kind := KindNetwork

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401, 403:
			kind = KindAuth
		case 429:
			kind = KindRateLimit
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		kind = KindNetwork
	}

	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindNetwork
	}

	return &Error{Kind: kind, Op: op, Err: err}
}

// parseError wraps a response-shape failure.
func parseError(op string, err error) *Error {
	return &Error{Kind: KindParse, Op: op, Err: err}
}

// KindOf extracts the classification from err, or "" when err is not a
// discovery error.
func KindOf(err error) ErrorKind {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Kind
	}
	return ""
}
