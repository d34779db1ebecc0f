package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/harvestlink/recipient-service/internal/domain"
	"github.com/harvestlink/recipient-service/internal/repo"
)

// SpatialCapabilityFilter validates a donation offer and translates it into
// the coarse directory query.
type SpatialCapabilityFilter struct {
	defaultRadiusKm float64
}

// NewSpatialCapabilityFilter returns a filter that searches defaultRadiusKm
// when the caller gives no radius. Non-positive values fall back to
// domain.DefaultRadiusKm.
func NewSpatialCapabilityFilter(defaultRadiusKm float64) SpatialCapabilityFilter {
	if defaultRadiusKm <= 0 || math.IsInf(defaultRadiusKm, 0) || math.IsNaN(defaultRadiusKm) {
		defaultRadiusKm = domain.DefaultRadiusKm
	}
	return SpatialCapabilityFilter{defaultRadiusKm: defaultRadiusKm}
}

// BuildQuery validates offer and returns the directory query for it.
// radiusKm is optional; nil means the default radius.
// Returns domain.ErrInvalidOffer when the offer or radius is malformed.
func (f SpatialCapabilityFilter) BuildQuery(offer domain.DonationOffer, radiusKm *float64) (repo.DirectoryQuery, error) {
	if err := validateOffer(offer); err != nil {
		return repo.DirectoryQuery{}, err
	}

	radius := f.defaultRadiusKm
	if radiusKm != nil {
		radius = *radiusKm
		if radius <= 0 || math.IsInf(radius, 0) || math.IsNaN(radius) {
			return repo.DirectoryQuery{}, fmt.Errorf("%w: radius must be a positive number of kilometers", domain.ErrInvalidOffer)
		}
	}

	return repo.DirectoryQuery{
		Center:            offer.Origin,
		RadiusMeters:      radius * 1000,
		Type:              offer.Type,
		StorageCapability: offer.StorageCapability,
		Quantity:          offer.Quantity,
	}, nil
}

// validateOffer enforces the input rules checked before any store access.
//   - Quantity must be positive.
//   - Type and StorageCapability must be non-empty (whitespace-only is empty).
//   - Origin must be a WGS-84 coordinate and the pickup instant must be set.
func validateOffer(offer domain.DonationOffer) error {
	if offer.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be greater than zero", domain.ErrInvalidOffer)
	}
	if strings.TrimSpace(offer.Type) == "" {
		return fmt.Errorf("%w: type is required", domain.ErrInvalidOffer)
	}
	if strings.TrimSpace(offer.StorageCapability) == "" {
		return fmt.Errorf("%w: storage capability is required", domain.ErrInvalidOffer)
	}
	if err := offer.Origin.Validate(); err != nil {
		return fmt.Errorf("%w: origin %v", domain.ErrInvalidOffer, err)
	}
	if offer.PickupAt.IsZero() {
		return fmt.Errorf("%w: pickup time is required", domain.ErrInvalidOffer)
	}
	return nil
}
