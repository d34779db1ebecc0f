package service

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/harvestlink/recipient-service/internal/domain"
)

// ToView flattens a Recipient into its output view. Empty source collections
// become empty (non-nil) containers so no field is ever dropped or null.
func ToView(r domain.Recipient) domain.RecipientView {
	v := domain.RecipientView{
		ID:                  r.ID.String(),
		Name:                r.Name,
		Address:             r.Address,
		Description:         r.Description,
		Location:            r.Location,
		Status:              string(r.Status),
		Timezone:            r.Timezone,
		CreatedAt:           r.CreatedAt,
		AcceptedTypes:       make([]domain.AcceptedTypeView, 0, len(r.AcceptanceRules)),
		StorageCapabilities: append([]string{}, r.StorageCapabilities...),
		SpecialCapabilities: append([]string{}, r.SpecialCapabilities...),
		OpenHours:           make(map[string][]string),
	}

	for _, rule := range r.AcceptanceRules {
		v.AcceptedTypes = append(v.AcceptedTypes, domain.AcceptedTypeView{
			Type:        rule.Type,
			MinQuantity: rule.MinQuantity,
			Unit:        rule.Unit,
		})
	}
	for _, iv := range r.OpenIntervals {
		day := domain.WeekdayToken(iv.Day)
		v.OpenHours[day] = append(v.OpenHours[day], domain.FormatOpenRange(iv))
	}
	v.Contact = copyContact(r.Contact)
	return v
}

func copyContact(c *domain.Contact) *domain.Contact {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}

// ToViews maps a slice of recipients, always returning a non-nil slice.
func ToViews(recipients []domain.Recipient) []domain.RecipientView {
	views := make([]domain.RecipientView, 0, len(recipients))
	for _, r := range recipients {
		views = append(views, ToView(r))
	}
	return views
}

// FromView rebuilds a Recipient from its view, the inverse of ToView.
// Snapshot files for offline matching are lists of views.
func FromView(v domain.RecipientView) (domain.Recipient, error) {
	id, err := uuid.Parse(v.ID)
	if err != nil {
		return domain.Recipient{}, fmt.Errorf("%w: recipient id %q is not a UUID", domain.ErrValidation, v.ID)
	}
	status, err := domain.ParseRecipientStatus(v.Status)
	if err != nil {
		return domain.Recipient{}, err
	}

	r := domain.Recipient{
		ID:                  id,
		Name:                v.Name,
		Address:             v.Address,
		Description:         v.Description,
		Location:            v.Location,
		Status:              status,
		Timezone:            v.Timezone,
		CreatedAt:           v.CreatedAt,
		StorageCapabilities: v.StorageCapabilities,
		SpecialCapabilities: v.SpecialCapabilities,
		Contact:             copyContact(v.Contact),
	}
	for _, t := range v.AcceptedTypes {
		r.AcceptanceRules = append(r.AcceptanceRules, domain.AcceptanceRule{
			Type:        t.Type,
			MinQuantity: t.MinQuantity,
			Unit:        t.Unit,
		})
	}
	for token, ranges := range v.OpenHours {
		day, err := domain.ParseWeekday(token)
		if err != nil {
			return domain.Recipient{}, err
		}
		for _, rng := range ranges {
			iv, err := domain.ParseOpenRange(day, rng)
			if err != nil {
				return domain.Recipient{}, err
			}
			r.OpenIntervals = append(r.OpenIntervals, iv)
		}
	}
	return r, nil
}
