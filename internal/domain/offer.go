package domain

import "time"

// DefaultRadiusKm is the search radius applied when the caller supplies none.
const DefaultRadiusKm = 25.0

// DonationOffer is the input to matching: what is being donated, from where,
// and when it can be picked up.
type DonationOffer struct {
	Origin            GeoPoint
	Type              string
	Quantity          int
	Unit              string
	StorageCapability string
	// PickupAt is an absolute instant; its location is irrelevant.
	PickupAt time.Time
}

// RecipientView is the flattened projection of a Recipient returned to callers.
// Collections are never nil so they encode as [] / {} rather than null.
type RecipientView struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	Address             string              `json:"address"`
	Description         string              `json:"description"`
	Location            GeoPoint            `json:"location"`
	Status              string              `json:"status"`
	Timezone            string              `json:"timezone"`
	CreatedAt           time.Time           `json:"created_at"`
	AcceptedTypes       []AcceptedTypeView  `json:"accepted_types"`
	StorageCapabilities []string            `json:"storage_capabilities"`
	SpecialCapabilities []string            `json:"special_capabilities"`
	OpenHours           map[string][]string `json:"open_hours"`
	Contact             *Contact            `json:"contact"`
}

// AcceptedTypeView is the flattened form of an AcceptanceRule.
type AcceptedTypeView struct {
	Type        string `json:"type"`
	MinQuantity int    `json:"min_quantity"`
	Unit        string `json:"unit"`
}
