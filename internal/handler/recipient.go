package handler

import (
	"cmp"
	"errors"
	"net/http"
	"slices"

	"github.com/harvestlink/recipient-service/internal/domain"
	"github.com/harvestlink/recipient-service/internal/service"
)

// CreateRecipientRequest is the body of POST /recipients.
// OpenHours maps a weekday token ("monday") to "HH:MM - HH:MM" ranges.
// Contact is optional.
type CreateRecipientRequest struct {
	Name                string                    `json:"name"`
	Address             string                    `json:"address"`
	Description         string                    `json:"description"`
	Location            *domain.GeoPoint          `json:"location"`
	Status              string                    `json:"status"`
	Timezone            string                    `json:"timezone"`
	AcceptedTypes       []domain.AcceptedTypeView `json:"accepted_types"`
	StorageCapabilities []string                  `json:"storage_capabilities"`
	SpecialCapabilities []string                  `json:"special_capabilities"`
	OpenHours           map[string][]string       `json:"open_hours"`
	Contact             *domain.Contact           `json:"contact"`
}

// CreateRecipient handles POST /recipients.
func (s *Server) CreateRecipient(w http.ResponseWriter, r *http.Request) {
	var body CreateRecipientRequest
	if err := decodeJSON(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}

	rec, err := requestToRecipient(body)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}

	created, err := s.recipients.Create(r.Context(), rec)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
			return
		}
		s.writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, service.ToView(created))
}

// GetRecipient handles GET /recipients/{id}.
func (s *Server) GetRecipient(w http.ResponseWriter, r *http.Request) {
	id, ok := recipientID(w, r)
	if !ok {
		return
	}

	rec, err := s.recipients.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, notFoundBody("recipient not found"))
			return
		}
		s.writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, service.ToView(rec))
}

// DeleteRecipient handles DELETE /recipients/{id}.
func (s *Server) DeleteRecipient(w http.ResponseWriter, r *http.Request) {
	id, ok := recipientID(w, r)
	if !ok {
		return
	}

	if err := s.recipients.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, notFoundBody("recipient not found"))
			return
		}
		s.writeInternalError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- mapping helpers --------------------------------------------------------

// requestToRecipient converts a CreateRecipientRequest into a domain.Recipient.
// Status defaults to active. Open hours are emitted in weekday order so the
// stored order does not depend on map iteration.
func requestToRecipient(body CreateRecipientRequest) (domain.Recipient, error) {
	if body.Location == nil {
		return domain.Recipient{}, errors.New("location is required")
	}

	rec := domain.Recipient{
		Name:                body.Name,
		Address:             body.Address,
		Description:         body.Description,
		Location:            *body.Location,
		Status:              domain.StatusActive,
		Timezone:            body.Timezone,
		StorageCapabilities: body.StorageCapabilities,
		SpecialCapabilities: body.SpecialCapabilities,
		Contact:             body.Contact,
	}
	if body.Status != "" {
		status, err := domain.ParseRecipientStatus(body.Status)
		if err != nil {
			return domain.Recipient{}, err
		}
		rec.Status = status
	}

	for _, t := range body.AcceptedTypes {
		rec.AcceptanceRules = append(rec.AcceptanceRules, domain.AcceptanceRule{
			Type:        t.Type,
			MinQuantity: t.MinQuantity,
			Unit:        t.Unit,
		})
	}

	parsed := make([]domain.OpenInterval, 0)
	for token, ranges := range body.OpenHours {
		day, err := domain.ParseWeekday(token)
		if err != nil {
			return domain.Recipient{}, err
		}
		for _, rng := range ranges {
			iv, err := domain.ParseOpenRange(day, rng)
			if err != nil {
				return domain.Recipient{}, err
			}
			parsed = append(parsed, iv)
		}
	}
	slices.SortFunc(parsed, func(a, b domain.OpenInterval) int {
		if a.Day != b.Day {
			return cmp.Compare(a.Day, b.Day)
		}
		return cmp.Compare(a.Open.Offset(), b.Open.Offset())
	})
	rec.OpenIntervals = parsed

	return rec, nil
}
