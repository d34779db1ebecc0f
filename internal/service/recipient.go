package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/harvestlink/recipient-service/internal/domain"
	"github.com/harvestlink/recipient-service/internal/repo"
)

// RecipientService implements directory administration: creating, reading
// and deleting recipient aggregates. Matching never calls it.
type RecipientService struct {
	repo repo.RecipientRepo
}

// NewRecipientService constructs a RecipientService backed by the provided RecipientRepo.
func NewRecipientService(r repo.RecipientRepo) *RecipientService {
	return &RecipientService{repo: r}
}

// Create validates and persists a new recipient.
// Returns domain.ErrValidation if input violates business rules.
func (s *RecipientService) Create(ctx context.Context, r domain.Recipient) (domain.Recipient, error) {
	if err := validateRecipient(r); err != nil {
		return domain.Recipient{}, err
	}
	result, err := s.repo.Create(ctx, r)
	if err != nil {
		return domain.Recipient{}, fmt.Errorf("service.RecipientService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single recipient by ID.
// Returns domain.ErrNotFound if no recipient with that ID exists.
func (s *RecipientService) GetByID(ctx context.Context, id uuid.UUID) (domain.Recipient, error) {
	result, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Recipient{}, fmt.Errorf("service.RecipientService.GetByID: %w", err)
	}
	return result, nil
}

// Delete removes a recipient by ID.
// Returns domain.ErrNotFound if the recipient does not exist.
func (s *RecipientService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.RecipientService.Delete: %w", err)
	}
	return nil
}

// validateRecipient enforces the rules a stored recipient must satisfy.
//   - Name must be non-empty (whitespace-only names are rejected).
//   - Location must be a WGS-84 coordinate.
//   - Status must be active, suspended or inactive.
//   - Timezone must resolve in the IANA database.
//   - Accepted types need a type token and a non-negative minimum.
//   - Open intervals must not wrap past midnight.
func validateRecipient(r domain.Recipient) error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if err := r.Location.Validate(); err != nil {
		return fmt.Errorf("%w: location %v", domain.ErrValidation, err)
	}
	if _, err := domain.ParseRecipientStatus(string(r.Status)); err != nil {
		return err
	}
	if _, ok := resolveZone(r.Timezone); !ok {
		return fmt.Errorf("%w: unknown timezone %q", domain.ErrValidation, r.Timezone)
	}
	for _, rule := range r.AcceptanceRules {
		if strings.TrimSpace(rule.Type) == "" {
			return fmt.Errorf("%w: accepted type is required", domain.ErrValidation)
		}
		if rule.MinQuantity < 0 {
			return fmt.Errorf("%w: min_quantity must not be negative", domain.ErrValidation)
		}
	}
	for _, c := range r.StorageCapabilities {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("%w: storage capability must not be empty", domain.ErrValidation)
		}
	}
	for _, iv := range r.OpenIntervals {
		if iv.Overnight() {
			return fmt.Errorf("%w: overnight open interval %s-%s on %s is not supported",
				domain.ErrValidation, iv.Open, iv.Close, domain.WeekdayToken(iv.Day))
		}
	}
	return nil
}
