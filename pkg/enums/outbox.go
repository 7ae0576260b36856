package enums

import "fmt"

// OutboxEventType identifies the semantic event stored in an outbox record and
// determines the broker channel it is dispatched to.
type OutboxEventType string

const (
	EventWalletCreated    OutboxEventType = "wallet_created"
	EventFundsAdded       OutboxEventType = "funds_added"
	EventFundsWithdrawn   OutboxEventType = "funds_withdrawn"
	EventFundsTransferred OutboxEventType = "funds_transferred"
	EventSagaCompleted    OutboxEventType = "saga_completed"
	EventSagaFailed       OutboxEventType = "saga_failed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventWalletCreated,
	EventFundsAdded,
	EventFundsWithdrawn,
	EventFundsTransferred,
	EventSagaCompleted,
	EventSagaFailed,
}

// IsValid reports whether the value is a known outbox event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// Topic returns the broker channel for the event type. The mapping is
// deterministic and shared by producer and consumer deployments.
func (e OutboxEventType) Topic() string {
	return string(e) + "-out"
}

// ParseOutboxEventType converts raw input into an OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
