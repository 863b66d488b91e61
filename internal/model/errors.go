package model

import (
	"errors"
	"fmt"
)

var (
	ErrTransport = errors.New("transport error")
	ErrStatus    = errors.New("unexpected response status")
	ErrDecode    = errors.New("failed to decode symbols response")
)

// StatusError reports a response whose status code falls outside 200-299.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("response status code does not indicate success: %s", e.Status)
	}
	return fmt.Sprintf("response status code does not indicate success: %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrStatus
}
