package enums

import "fmt"

// DesignRequestStatus tracks a custom-design intake through review.
type DesignRequestStatus string

const (
	DesignRequestStatusNew       DesignRequestStatus = "new"
	DesignRequestStatusReviewing DesignRequestStatus = "reviewing"
	DesignRequestStatusQuoted    DesignRequestStatus = "quoted"
	DesignRequestStatusClosed    DesignRequestStatus = "closed"
)

var validDesignRequestStatuses = []DesignRequestStatus{
	DesignRequestStatusNew,
	DesignRequestStatusReviewing,
	DesignRequestStatusQuoted,
	DesignRequestStatusClosed,
}

// String implements fmt.Stringer.
func (s DesignRequestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DesignRequestStatus.
func (s DesignRequestStatus) IsValid() bool {
	for _, candidate := range validDesignRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseDesignRequestStatus converts raw input into a DesignRequestStatus.
func ParseDesignRequestStatus(value string) (DesignRequestStatus, error) {
	for _, candidate := range validDesignRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid design request status %q", value)
}
