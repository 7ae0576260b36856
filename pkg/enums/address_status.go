package enums

import "fmt"

// AddressStatus is the lifecycle state of a wallet address.
type AddressStatus string

const (
	AddressStatusActive   AddressStatus = "active"
	AddressStatusInactive AddressStatus = "inactive"
	AddressStatusArchived AddressStatus = "archived"
)

var validAddressStatuses = []AddressStatus{
	AddressStatusActive,
	AddressStatusInactive,
	AddressStatusArchived,
}

// IsValid reports whether the value is a known address status.
func (s AddressStatus) IsValid() bool {
	for _, candidate := range validAddressStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAddressStatus converts raw input into an AddressStatus.
func ParseAddressStatus(value string) (AddressStatus, error) {
	for _, candidate := range validAddressStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid address status %q", value)
}
