package nierwiki

import "errors"

// ErrInvalidConfig is returned when the configuration cannot be used.
var ErrInvalidConfig = errors.New("nierwiki: invalid config")

// ErrInvalidInput is returned when a query parameter fails validation.
var ErrInvalidInput = errors.New("nierwiki: invalid input")

// ErrReadOnly is returned by Ingest on a service opened read-only.
var ErrReadOnly = errors.New("nierwiki: store opened read-only")
