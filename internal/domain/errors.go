package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// recipient does not exist.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by recipient administration when input fails
// business rule validation (e.g. unknown timezone, overnight open range).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrInvalidOffer marks a malformed donation offer (non-positive quantity,
// empty type or storage capability). It is client-correctable and is raised
// before the directory is touched. Handlers map it to HTTP 422.
var ErrInvalidOffer = errors.New("invalid offer")

// ErrStoreUnavailable is returned by a RecipientDirectory when its backing
// store cannot be reached. It is never retried inside this service.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrMatchFailed is the batch-level failure surfaced by matching when the
// directory fails. It always wraps the underlying ErrStoreUnavailable.
// Handlers map it to HTTP 503.
var ErrMatchFailed = errors.New("match failed")
