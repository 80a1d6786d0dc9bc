package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

// ErrorKind is the normalized category of a failed API call.
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindTimeout
	KindAuthenticationRequired
	KindAuthenticationFailed
	KindForbidden
	KindNotFound
	KindServerError
	KindNetworkError
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindAuthenticationRequired:
		return "authentication_required"
	case KindAuthenticationFailed:
		return "authentication_failed"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindServerError:
		return "server_error"
	case KindNetworkError:
		return "network_error"
	default:
		return "unexpected"
	}
}

// APIError is a classified API failure. The same raw outcome always
// classifies to the same kind and message.
type APIError struct {
	Kind    ErrorKind
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// errorDetail is the backend's error body shape.
type errorDetail struct {
	Detail string `json:"detail"`
}

// ClassifyStatus maps a non-2xx HTTP status and its body to an APIError.
// The message is taken from the body's `detail` field when present.
func ClassifyStatus(status int, body []byte) *APIError {
	var kind ErrorKind
	var message string

	switch {
	case status == http.StatusUnauthorized:
		kind, message = KindAuthenticationRequired, "authentication required"
	case status == http.StatusForbidden:
		kind, message = KindForbidden, "access denied"
	case status == http.StatusNotFound:
		kind, message = KindNotFound, "not found"
	case status >= http.StatusInternalServerError:
		kind, message = KindServerError, fmt.Sprintf("server error (status %d)", status)
	default:
		kind, message = KindUnexpected, fmt.Sprintf("unexpected status %d", status)
	}

	var detail errorDetail
	if err := jsoniter.Unmarshal(body, &detail); err == nil && detail.Detail != "" {
		message = detail.Detail
	}

	return &APIError{Kind: kind, Message: message}
}

// ClassifyTransport maps a transport-level failure (no HTTP response) to an
// APIError. A deadline firing is a timeout; everything else that looks like a
// connection problem is a network error.
func ClassifyTransport(err error) *APIError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &APIError{Kind: KindTimeout, Message: "request timed out"}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &APIError{Kind: KindTimeout, Message: "request timed out"}
	default:
		return &APIError{Kind: KindNetworkError, Message: err.Error()}
	}
}

// kindOf extracts the classified kind of err, seeing through trace wrapping.
// Unclassified errors report KindUnexpected.
func kindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnexpected
}

// IsTimeout reports whether err classified as a request timeout.
func IsTimeout(err error) bool { return kindOf(err) == KindTimeout }

// IsAuthenticationRequired reports whether err classified as a 401 that was
// not (or could not be) resolved by a token refresh.
func IsAuthenticationRequired(err error) bool { return kindOf(err) == KindAuthenticationRequired }

// IsAuthenticationFailed reports whether err is the terminal authentication
// failure; the credential store is empty when this is returned.
func IsAuthenticationFailed(err error) bool { return kindOf(err) == KindAuthenticationFailed }

// IsForbidden reports whether err classified as a 403.
func IsForbidden(err error) bool { return kindOf(err) == KindForbidden }

// IsNotFound reports whether err classified as a 404.
func IsNotFound(err error) bool { return kindOf(err) == KindNotFound }

// IsServerError reports whether err classified as a 5xx.
func IsServerError(err error) bool { return kindOf(err) == KindServerError }

// IsNetworkError reports whether err classified as a connection problem.
func IsNetworkError(err error) bool { return kindOf(err) == KindNetworkError }
