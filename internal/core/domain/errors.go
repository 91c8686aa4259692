package domain

import (
	"errors"
	"net/http"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSessionExpired   = errors.New("session expired")
	ErrSessionLoading   = errors.New("session is still loading")
	ErrSessionDisposed  = errors.New("session service disposed")
	ErrForbidden        = errors.New("access forbidden")
	ErrUnknownResource  = errors.New("unknown resource")
	ErrInvalidProfile   = errors.New("invalid profile update")
)

// ErrorKind classifies a failed call to the PetLand API.
type ErrorKind int

const (
	KindTransport ErrorKind = iota + 1
	KindUnauthenticated
	KindForbidden
	KindValidation
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Messages shown when the server gives no usable detail.
const (
	MsgTransport       = "could not reach the server, check your connection"
	MsgUnauthenticated = "your session has expired, please log in again"
	MsgForbidden       = "you do not have permission to perform this action"
	MsgServer          = "the server is unavailable, please try again later"
)

// APIError is a normalized remote failure. Message is safe to show to users.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Unwrap() error { return e.Err }

// KindForStatus maps an HTTP status onto the error taxonomy.
func KindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthenticated
	case status == http.StatusForbidden:
		return KindForbidden
	case status >= 500:
		return KindServer
	case status >= 400:
		return KindValidation
	default:
		return KindTransport
	}
}

// IsKind reports whether err is an *APIError of kind k.
func IsKind(err error, k ErrorKind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == k
}

// UserMessage extracts a displayable message from err, falling back when the
// error carries none.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
