// Package repo contains all recipient storage access for the recipient service.
// The matching pipeline consumes recipients through the RecipientDirectory
// interface; Postgres, in-memory and cached implementations live here.
// No business logic lives here, only queries and type mapping.
package repo

import (
	"context"

	"github.com/harvestlink/recipient-service/internal/domain"
)

// DirectoryQuery carries the coarse predicates a directory evaluates.
// Quantity is the offered quantity; a rule matches when its minimum is at most Quantity.
type DirectoryQuery struct {
	Center            domain.GeoPoint
	RadiusMeters      float64
	Type              string
	StorageCapability string
	Quantity          int
}

// RecipientDirectory is the read-only store of recipient aggregates.
// The service layer depends on this interface, not a concrete store.
type RecipientDirectory interface {
	// Query returns full aggregates (open intervals included) for every active
	// recipient within RadiusMeters of Center that holds an acceptance rule for
	// Type admitting Quantity and holds StorageCapability.
	// Returns an error wrapping domain.ErrStoreUnavailable when the backing
	// store cannot be reached. Implementations never retry.
	Query(ctx context.Context, q DirectoryQuery) ([]domain.Recipient, error)
}

// Screen evaluates the coarse predicates against r using great-circle
// distance. Every directory must return exactly the recipients Screen includes.
func (q DirectoryQuery) Screen(r domain.Recipient) domain.Outcome {
	switch {
	case r.Status != domain.StatusActive:
		return domain.Exclude(domain.ReasonInactive)
	case domain.DistanceMeters(q.Center, r.Location) > q.RadiusMeters:
		return domain.Exclude(domain.ReasonOutOfRange)
	case !r.AcceptsDonation(q.Type, q.Quantity):
		return domain.Exclude(domain.ReasonTypeNotAccepted)
	case !r.HasStorageCapability(q.StorageCapability):
		return domain.Exclude(domain.ReasonNoStorage)
	}
	return domain.Include()
}
