package domain

import "errors"

// ErrInvalidLink is returned when a link key field is empty or unusable.
// It is rejected before any write reaches the store.
var ErrInvalidLink = errors.New("invalid link")
