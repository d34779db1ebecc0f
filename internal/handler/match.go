package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/harvestlink/recipient-service/internal/domain"
)

// MatchRequest is the body of POST /recipients/match.
type MatchRequest struct {
	Donor    DonorBody    `json:"donor"`
	Donation DonationBody `json:"donation"`
}

// DonorBody locates the donor; its location is the search origin.
type DonorBody struct {
	Location *domain.GeoPoint `json:"location"`
}

// DonationBody describes what is offered and when it can be collected.
type DonationBody struct {
	Type               string `json:"type"`
	Quantity           int    `json:"quantity"`
	Unit               string `json:"unit"`
	StorageCapability  string `json:"storage_capability"`
	DonationPickupTime string `json:"donation_pickup_time"`
}

// MatchRecipients handles POST /recipients/match.
// Supports an optional ?radius_km= query parameter (default from config).
func (s *Server) MatchRecipients(w http.ResponseWriter, r *http.Request) {
	var radiusKm *float64
	if err := runtime.BindQueryParameter("form", true, false, "radius_km", r.URL.Query(), &radiusKm); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, invalidOfferBody(
			fmt.Errorf("%w: radius_km must be a number", domain.ErrInvalidOffer)))
		return
	}

	var body MatchRequest
	if err := decodeJSON(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}

	offer, err := requestToOffer(body)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, invalidOfferBody(err))
		return
	}

	views, err := s.matches.Match(r.Context(), offer, radiusKm)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidOffer):
			writeJSON(w, http.StatusUnprocessableEntity, invalidOfferBody(err))
		case errors.Is(err, domain.ErrMatchFailed):
			s.logger.ErrorContext(r.Context(), "match failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: ErrorDetail{
				Code:    "match_failed",
				Message: "recipient directory unavailable, try again later",
			}})
		default:
			s.writeInternalError(w, r, err)
		}
		return
	}

	if views == nil {
		views = []domain.RecipientView{}
	}
	writeJSON(w, http.StatusOK, views)
}

// requestToOffer converts a MatchRequest into a domain.DonationOffer.
// Field-level checks beyond presence and format belong to the service.
func requestToOffer(body MatchRequest) (domain.DonationOffer, error) {
	if body.Donor.Location == nil {
		return domain.DonationOffer{}, fmt.Errorf("%w: donor.location is required", domain.ErrInvalidOffer)
	}
	pickup, err := time.Parse(time.RFC3339, body.Donation.DonationPickupTime)
	if err != nil {
		return domain.DonationOffer{}, fmt.Errorf("%w: donation_pickup_time must be an RFC 3339 timestamp", domain.ErrInvalidOffer)
	}
	return domain.DonationOffer{
		Origin:            *body.Donor.Location,
		Type:              body.Donation.Type,
		Quantity:          body.Donation.Quantity,
		Unit:              body.Donation.Unit,
		StorageCapability: body.Donation.StorageCapability,
		PickupAt:          pickup,
	}, nil
}
