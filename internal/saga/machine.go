package saga

import (
	"fmt"

	apperrors "github.com/blocodev/wallet-hub/pkg/errors"
	"github.com/blocodev/wallet-hub/pkg/enums"
)

// forwardEdges is the happy-path transition table. SAGA_FAILED is not listed:
// it is accepted from every non-terminal state.
var forwardEdges = map[enums.SagaState]map[enums.SagaTrigger]enums.SagaState{
	enums.SagaStateInitial: {
		enums.SagaTriggerWalletCreated: enums.SagaStateWalletCreated,
	},
	enums.SagaStateWalletCreated: {
		enums.SagaTriggerFundsAdded: enums.SagaStateFundsAdded,
	},
	enums.SagaStateFundsAdded: {
		enums.SagaTriggerFundsWithdrawn: enums.SagaStateFundsWithdrawn,
	},
	enums.SagaStateFundsWithdrawn: {
		enums.SagaTriggerFundsTransferred: enums.SagaStateFundsTransferred,
	},
	enums.SagaStateFundsTransferred: {
		enums.SagaTriggerCompleted: enums.SagaStateCompleted,
	},
}

// Next resolves the state reached by applying trigger in the given state.
// Terminal states absorb only the re-delivery of their own terminal trigger,
// reported via ErrAlreadyTerminal so callers can ack without re-applying.
func Next(state enums.SagaState, trigger enums.SagaTrigger) (enums.SagaState, error) {
	if state.IsTerminal() {
		if isAbsorbedReplay(state, trigger) {
			return state, ErrAlreadyTerminal
		}
		return "", invalidTransition(state, trigger)
	}
	if trigger == enums.SagaTriggerFailed {
		return enums.SagaStateFailed, nil
	}
	edges, ok := forwardEdges[state]
	if !ok {
		return "", invalidTransition(state, trigger)
	}
	next, ok := edges[trigger]
	if !ok {
		return "", invalidTransition(state, trigger)
	}
	return next, nil
}

func isAbsorbedReplay(state enums.SagaState, trigger enums.SagaTrigger) bool {
	switch state {
	case enums.SagaStateCompleted:
		return trigger == enums.SagaTriggerCompleted
	case enums.SagaStateFailed:
		return trigger == enums.SagaTriggerFailed
	}
	return false
}

func invalidTransition(state enums.SagaState, trigger enums.SagaTrigger) error {
	return apperrors.New(
		apperrors.CodeStateConflict,
		fmt.Sprintf("trigger %s not allowed in state %s", trigger, state),
	).WithDetails(map[string]any{
		"state":   state,
		"trigger": trigger,
	})
}
