package superlogica

import (
	"errors"
	"fmt"
)

// ErrEmptyResult is returned when a listing aggregates to zero items.
// Fatal for the contract listing, a per-PDF skip for expense listings.
var ErrEmptyResult = errors.New("empty result")

// RequestError is a non-2xx transport failure.
type RequestError struct {
	Status int
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// RejectedError means the transport succeeded but the response body
// carries the remote's embedded failure marker.
type RejectedError struct {
	Body string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("remote rejected mutation: %s", e.Body)
}
