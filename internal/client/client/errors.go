package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/client/refresh"
)

// Kind classifies a failed request.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindAuth
	KindForbidden
	KindServer
	KindClient
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindServer:
		return "server"
	case KindClient:
		return "client"
	default:
		return "unknown"
	}
}

// Sentinels matching an *Error of the corresponding kind with errors.Is.
var (
	ErrNetwork       = errors.New("network error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrServer        = errors.New("server error")
	ErrClientRequest = errors.New("request rejected")
	ErrUnknown       = errors.New("unknown error")
)

// Error codes sent by the accounts service or assigned locally.
const (
	CodeNetworkError = "NETWORK_ERROR"
	CodeUnknownError = "UNKNOWN_ERROR"
	CodeTokenExpired = "TOKEN_EXPIRED"
)

// Error is the classified failure of a request.
type Error struct {
	Kind       Kind
	StatusCode int
	Code       string
	Message    string
	Details    json.RawMessage
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (%d): %s", e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrUnauthorized:
		return e.Kind == KindAuth
	case ErrForbidden:
		return e.Kind == KindForbidden
	case ErrServer:
		return e.Kind == KindServer
	case ErrClientRequest:
		return e.Kind == KindClient
	case ErrUnknown:
		return e.Kind == KindUnknown
	}
	return false
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusForbidden:
		return KindForbidden
	case status >= 500 && status < 600:
		return KindServer
	case status >= 400 && status < 500:
		return KindClient
	default:
		return KindUnknown
	}
}

type errorBody struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Details json.RawMessage `json:"details"`
}

func newHTTPError(status int, body []byte) *Error {
	e := &Error{Kind: kindForStatus(status), StatusCode: status}

	var eb errorBody
	if len(body) > 0 && json.Unmarshal(body, &eb) == nil {
		e.Code = eb.Code
		e.Details = eb.Details
		e.Message = eb.Message
		if e.Message == "" {
			e.Message = eb.Error
		}
	}
	if e.Message == "" {
		e.Message = "An error occurred"
	}
	return e
}

func newNetworkError(err error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Code:    CodeNetworkError,
		Message: "Network error. Please check your connection.",
		Err:     err,
	}
}

func sessionExpiredError(err error) *Error {
	return &Error{
		Kind:       KindAuth,
		StatusCode: http.StatusUnauthorized,
		Code:       CodeTokenExpired,
		Message:    "session expired",
		Err:        err,
	}
}

// KindOf returns the classification of err, KindUnknown when err is not an
// *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether repeating the request may succeed: network
// failures and 5xx responses.
func IsRetryable(err error) bool {
	k := KindOf(err)
	return k == KindNetwork || k == KindServer
}

var friendlyMessages = map[string]string{
	"INVALID_CREDENTIALS": "Invalid phone number or verification code",
	"USER_NOT_FOUND":      "User not found",
	"EXPIRED_CODE":        "Verification code has expired. Please request a new one.",
	"INVALID_CODE":        "Invalid verification code",
	"RATE_LIMITED":        "Too many requests. Please try again later.",
	CodeNetworkError:      "Please check your internet connection and try again",
	CodeTokenExpired:      "Session expired. Please log in again.",
	"UNAUTHORIZED":        "Session expired. Please log in again.",
	"FORBIDDEN":           "You do not have permission to perform this action",
	"SERVER_ERROR":        "Server error. Please try again later.",
}

// UserMessage turns err into text suitable for showing to an end user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, refresh.ErrSessionExpired) {
		return friendlyMessages[CodeTokenExpired]
	}

	var e *Error
	if !errors.As(err, &e) {
		return "An unexpected error occurred"
	}
	if msg, ok := friendlyMessages[e.Code]; ok {
		return msg
	}
	if e.Message != "" {
		return e.Message
	}
	return "An unexpected error occurred"
}
