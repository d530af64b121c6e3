package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidAmount is returned when an amount is not a finite, non-negative number.
var ErrInvalidAmount = errors.New("invalid amount")

// ValidationError reports malformed numeric/date input. It is recovered locally
// and blocks submission.
type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

// NetworkError reports a transport failure or an unavailable upstream.
// Read paths retry it, write paths surface it immediately.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e NetworkError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: upstream returned status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": network error"
	}
}

func (e NetworkError) Unwrap() error { return e.Err }

// APIError carries a server-side rejection (ok:false). The message is shown
// to the user verbatim and never retried.
type APIError struct {
	Op         string
	StatusCode int
	Msg        string
}

func (e APIError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: request rejected", e.Op)
	}
	return e.Msg
}

// NotificationError wraps a failed best-effort customer notification.
type NotificationError struct {
	Channel string
	Err     error
}

func (e NotificationError) Error() string {
	return fmt.Sprintf("%s notification failed: %v", e.Channel, e.Err)
}

func (e NotificationError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsNetwork(err error) bool {
	var target NetworkError
	return errors.As(err, &target)
}

func IsAPI(err error) bool {
	var target APIError
	return errors.As(err, &target)
}

func IsNotification(err error) bool {
	var target NotificationError
	return errors.As(err, &target)
}
