// Package domain contains the core data types for the recipient service.
// This package depends only on the standard library and google/uuid and is
// imported by every other internal package (repo, service, handler).
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecipientStatus is the lifecycle state of a recipient organization.
// Only StatusActive recipients are ever eligible for a donation.
type RecipientStatus string

const (
	StatusActive    RecipientStatus = "active"
	StatusSuspended RecipientStatus = "suspended"
	StatusInactive  RecipientStatus = "inactive"
)

// ParseRecipientStatus converts a status token into a RecipientStatus.
// Returns ErrValidation for anything other than active, suspended or inactive.
func ParseRecipientStatus(s string) (RecipientStatus, error) {
	switch st := RecipientStatus(s); st {
	case StatusActive, StatusSuspended, StatusInactive:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
}

// Recipient is the read-only aggregate assembled by a RecipientDirectory.
// The matching pipeline never mutates a Recipient; callers that need a
// different value build a new one.
//
// Timezone is an IANA zone identifier ("Asia/Kolkata"). It is resolved at
// match time, so an unknown zone only excludes this recipient.
type Recipient struct {
	ID                  uuid.UUID        `json:"id"`
	Name                string           `json:"name"`
	Address             string           `json:"address"`
	Description         string           `json:"description"`
	Location            GeoPoint         `json:"location"`
	Status              RecipientStatus  `json:"status"`
	Timezone            string           `json:"timezone"`
	CreatedAt           time.Time        `json:"created_at"`
	AcceptanceRules     []AcceptanceRule `json:"acceptance_rules"`
	StorageCapabilities []string         `json:"storage_capabilities"`
	SpecialCapabilities []string         `json:"special_capabilities"`
	OpenIntervals       []OpenInterval   `json:"open_intervals"`
	// Contact is the primary point of contact, nil when none was registered.
	Contact *Contact `json:"contact,omitempty"`
}

// Contact is the person a donor reaches at a recipient organization.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// AcceptanceRule declares that a recipient takes donations of Type at or
// above MinQuantity (inclusive floor), measured in Unit.
type AcceptanceRule struct {
	Type        string `json:"type"`
	MinQuantity int    `json:"min_quantity"`
	Unit        string `json:"unit"`
}

// Accepts reports whether the rule admits quantity units of donationType.
func (r AcceptanceRule) Accepts(donationType string, quantity int) bool {
	return r.Type == donationType && r.MinQuantity <= quantity
}

// OpenInterval is a local-time window on a single weekday. Both bounds are
// inclusive. Close before Open (an overnight window) is not supported.
type OpenInterval struct {
	Day   time.Weekday `json:"day"`
	Open  TimeOfDay    `json:"open"`
	Close TimeOfDay    `json:"close"`
}

// Overnight reports whether the interval wraps past midnight, which is an
// unsupported configuration.
func (o OpenInterval) Overnight() bool {
	return o.Close.Before(o.Open)
}

// Contains reports whether the local weekday and time-of-day fall inside the
// interval, inclusive at both ends. Overnight intervals contain nothing.
func (o OpenInterval) Contains(day time.Weekday, t TimeOfDay) bool {
	if o.Day != day || o.Overnight() {
		return false
	}
	return !t.Before(o.Open) && !o.Close.Before(t)
}

// AcceptsDonation reports whether any acceptance rule admits the donation.
func (r Recipient) AcceptsDonation(donationType string, quantity int) bool {
	for _, rule := range r.AcceptanceRules {
		if rule.Accepts(donationType, quantity) {
			return true
		}
	}
	return false
}

// HasStorageCapability is a membership test over the storage capability set.
func (r Recipient) HasStorageCapability(capability string) bool {
	for _, c := range r.StorageCapabilities {
		if c == capability {
			return true
		}
	}
	return false
}
