package enums

import "fmt"

// SagaTrigger is a named event that advances a saga instance.
type SagaTrigger string

const (
	SagaTriggerWalletCreated    SagaTrigger = "WALLET_CREATED"
	SagaTriggerFundsAdded       SagaTrigger = "FUNDS_ADDED"
	SagaTriggerFundsWithdrawn   SagaTrigger = "FUNDS_WITHDRAWN"
	SagaTriggerFundsTransferred SagaTrigger = "FUNDS_TRANSFERRED"
	SagaTriggerCompleted        SagaTrigger = "SAGA_COMPLETED"
	SagaTriggerFailed           SagaTrigger = "SAGA_FAILED"
)

var validSagaTriggers = []SagaTrigger{
	SagaTriggerWalletCreated,
	SagaTriggerFundsAdded,
	SagaTriggerFundsWithdrawn,
	SagaTriggerFundsTransferred,
	SagaTriggerCompleted,
	SagaTriggerFailed,
}

// IsValid reports whether the value is a known saga trigger.
func (t SagaTrigger) IsValid() bool {
	for _, candidate := range validSagaTriggers {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseSagaTrigger converts raw input into a SagaTrigger.
func ParseSagaTrigger(value string) (SagaTrigger, error) {
	for _, candidate := range validSagaTriggers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid saga trigger %q", value)
}
