// Package errors provides the error types shared by the API client, the
// stores and the view API.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrInvalidQuantity = errors.New("quantity must be between 1 and 10")
var ErrEmptyCancelReason = errors.New("cancellation reason is required")
var ErrMissingID = errors.New("identifier is required")

var ErrUnauthorized = errors.New("session expired, please log in again")
var ErrNotAuthenticated = errors.New("not authenticated")

var ErrTransport = errors.New("backend unreachable")
var ErrDecodeResponse = errors.New("failed to decode backend response")

// ErrOrderStatusUnknown is returned with ErrDecodeResponse when the backend
// accepted an order but did not say which one it created.
var ErrOrderStatusUnknown = errors.New("order was submitted but its status is unknown, check your order history")

var ErrCancelNotAllowed = errors.New("order can no longer be cancelled")
var ErrReorderNotAllowed = errors.New("only delivered orders can be reordered")
var ErrEmptyCart = errors.New("cart is empty")

// APIError is a failure reported by the backend: either a non-2xx status or a
// 2xx envelope whose status is not "success".
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// Is makes every 401 APIError match ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// Message extracts a user-displayable message from err. Backend messages are
// preferred; otherwise fallback is returned.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return ErrUnauthorized.Error()
	case errors.Is(err, ErrOrderStatusUnknown):
		return ErrOrderStatusUnknown.Error()
	case errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrEmptyCancelReason),
		errors.Is(err, ErrMissingID),
		errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrCancelNotAllowed),
		errors.Is(err, ErrReorderNotAllowed),
		errors.Is(err, ErrNotAuthenticated):
		return err.Error()
	}
	return fallback
}
