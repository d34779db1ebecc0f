package domain

// ExclusionReason names why a candidate recipient was filtered out.
// Exclusions are absorbed by matching and never surface as errors.
type ExclusionReason string

const (
	ReasonInactive        ExclusionReason = "inactive"
	ReasonOutOfRange      ExclusionReason = "out_of_range"
	ReasonTypeNotAccepted ExclusionReason = "type_not_accepted"
	ReasonNoStorage       ExclusionReason = "storage_capability_missing"
	ReasonInvalidTimezone ExclusionReason = "invalid_timezone"
	ReasonNoOpenHours     ExclusionReason = "no_open_hours"
	ReasonClosed          ExclusionReason = "closed_at_pickup"
)

// Outcome is the per-candidate verdict: included, or excluded with a reason.
type Outcome struct {
	Included bool
	Reason   ExclusionReason
}

// Include returns the included outcome.
func Include() Outcome { return Outcome{Included: true} }

// Exclude returns an excluded outcome carrying reason.
func Exclude(reason ExclusionReason) Outcome { return Outcome{Reason: reason} }
