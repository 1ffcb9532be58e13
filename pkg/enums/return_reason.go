package enums

import "fmt"

// ReturnReason enumerates why a buyer sends an item back.
type ReturnReason string

const (
	ReturnReasonDefective     ReturnReason = "defective"
	ReturnReasonWrongItem     ReturnReason = "wrong_item"
	ReturnReasonWrongSize     ReturnReason = "wrong_size"
	ReturnReasonNotAsPictured ReturnReason = "not_as_pictured"
	ReturnReasonChangedMind   ReturnReason = "changed_mind"
	ReturnReasonOther         ReturnReason = "other"
)

var validReturnReasons = []ReturnReason{
	ReturnReasonDefective,
	ReturnReasonWrongItem,
	ReturnReasonWrongSize,
	ReturnReasonNotAsPictured,
	ReturnReasonChangedMind,
	ReturnReasonOther,
}

// String implements fmt.Stringer.
func (r ReturnReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReturnReason.
func (r ReturnReason) IsValid() bool {
	for _, candidate := range validReturnReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReturnReason converts raw input into a ReturnReason.
func ParseReturnReason(value string) (ReturnReason, error) {
	for _, candidate := range validReturnReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return reason %q", value)
}
