package enums

import "fmt"

// WalletStatus is the activation state of a wallet.
type WalletStatus string

const (
	WalletStatusActive   WalletStatus = "active"
	WalletStatusInactive WalletStatus = "inactive"
	WalletStatusDeleted  WalletStatus = "deleted"
)

var validWalletStatuses = []WalletStatus{
	WalletStatusActive,
	WalletStatusInactive,
	WalletStatusDeleted,
}

// IsValid reports whether the value is a known wallet status.
func (s WalletStatus) IsValid() bool {
	for _, candidate := range validWalletStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseWalletStatus converts raw input into a WalletStatus.
func ParseWalletStatus(value string) (WalletStatus, error) {
	for _, candidate := range validWalletStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet status %q", value)
}
