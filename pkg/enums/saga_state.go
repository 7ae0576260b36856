package enums

import "fmt"

// SagaState is one stage of the wallet onboarding saga.
type SagaState string

const (
	SagaStateInitial          SagaState = "INITIAL"
	SagaStateWalletCreated    SagaState = "WALLET_CREATED"
	SagaStateFundsAdded       SagaState = "FUNDS_ADDED"
	SagaStateFundsWithdrawn   SagaState = "FUNDS_WITHDRAWN"
	SagaStateFundsTransferred SagaState = "FUNDS_TRANSFERRED"
	SagaStateCompleted        SagaState = "COMPLETED"
	SagaStateFailed           SagaState = "FAILED"
)

var validSagaStates = []SagaState{
	SagaStateInitial,
	SagaStateWalletCreated,
	SagaStateFundsAdded,
	SagaStateFundsWithdrawn,
	SagaStateFundsTransferred,
	SagaStateCompleted,
	SagaStateFailed,
}

// IsValid reports whether the value is a known saga state.
func (s SagaState) IsValid() bool {
	for _, candidate := range validSagaStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the state accepts no further transitions.
func (s SagaState) IsTerminal() bool {
	return s == SagaStateCompleted || s == SagaStateFailed
}

// ParseSagaState converts raw input into a SagaState.
func ParseSagaState(value string) (SagaState, error) {
	for _, candidate := range validSagaStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid saga state %q", value)
}
