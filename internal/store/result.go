// Package store holds the client-side cart and order state. Stores mediate
// every mutation through the backend and only ever show state the server
// has confirmed.
package store

import (
	"errors"

	storeerrors "github.com/abgdnv/gocommerce-storefront/internal/errors"
)

// Result is the uniform outcome of a store operation. Err keeps the
// underlying cause for callers that need to branch on it.
type Result[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitzero"`
	Err     error  `json:"-"`
}

// Ack is a Result without data.
type Ack = Result[struct{}]

// Unauthorized reports whether the operation failed because the session was
// rejected.
func (r Result[T]) Unauthorized() bool {
	return errors.Is(r.Err, storeerrors.ErrUnauthorized)
}

func succeed[T any](data T, message string) Result[T] {
	return Result[T]{Success: true, Message: message, Data: data}
}

func fail[T any](err error, fallback string) Result[T] {
	return Result[T]{Message: storeerrors.Message(err, fallback), Err: err}
}
