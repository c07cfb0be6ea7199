package trip

import "errors"

// Kind is a stable machine-readable error classification exposed to callers.
type Kind string

// Error kinds surfaced by the planning entry points.
const (
	KindValidation Kind = "validation"
	KindGeneration Kind = "generation_failed"
	KindInternal   Kind = "internal"
)

// Sentinel errors for errors.Is checks across package boundaries.
var (
	// ErrValidation indicates a bad trip request, rejected before orchestration.
	ErrValidation = errors.New("invalid trip request")

	// ErrGenerationFailed indicates the itinerary could not be generated
	// after exhausting provider retries and fallbacks.
	ErrGenerationFailed = errors.New("itinerary generation failed")
)

// Error is the error payload returned to callers: a human-readable message
// plus a stable machine kind. Raw provider errors never cross this boundary.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

// Is maps error kinds onto the package sentinels so callers can use
// errors.Is without inspecting the struct.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrGenerationFailed:
		return e.Kind == KindGeneration
	}
	return false
}
