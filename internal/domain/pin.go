package domain

// PinReason explains why a pin operation did not succeed.
type PinReason string

const (
	ReasonNone     PinReason = ""
	ReasonNotFound PinReason = "not_found"
	ReasonLimit    PinReason = "limit"
)

// PinResult is the outcome of pin/unpin operations.
// Expected failures are values, not errors.
type PinResult struct {
	Success bool      `json:"success"`
	Reason  PinReason `json:"reason,omitempty"`

	// ID is the favorite the operation applied to, when known.
	ID string `json:"id,omitempty"`
}

var (
	PinOK       = PinResult{Success: true}
	PinNotFound = PinResult{Reason: ReasonNotFound}
	PinLimit    = PinResult{Reason: ReasonLimit}
)

// WithID returns a copy of r carrying id.
func (r PinResult) WithID(id string) PinResult {
	r.ID = id
	return r
}

// Message is the user-facing text for a failed result.
func (r PinResult) Message() string {
	switch r.Reason {
	case ReasonLimit:
		return "Unpin another token first"
	case ReasonNotFound:
		return "Favorite no longer exists"
	default:
		return ""
	}
}
