package saga

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blocodev/wallet-hub/pkg/enums"
	apperrors "github.com/blocodev/wallet-hub/pkg/errors"
)

func TestNext_HappyPath(t *testing.T) {
	steps := []struct {
		state   enums.SagaState
		trigger enums.SagaTrigger
		want    enums.SagaState
	}{
		{enums.SagaStateInitial, enums.SagaTriggerWalletCreated, enums.SagaStateWalletCreated},
		{enums.SagaStateWalletCreated, enums.SagaTriggerFundsAdded, enums.SagaStateFundsAdded},
		{enums.SagaStateFundsAdded, enums.SagaTriggerFundsWithdrawn, enums.SagaStateFundsWithdrawn},
		{enums.SagaStateFundsWithdrawn, enums.SagaTriggerFundsTransferred, enums.SagaStateFundsTransferred},
		{enums.SagaStateFundsTransferred, enums.SagaTriggerCompleted, enums.SagaStateCompleted},
	}
	for _, step := range steps {
		got, err := Next(step.state, step.trigger)
		require.NoError(t, err, "from %s via %s", step.state, step.trigger)
		assert.Equal(t, step.want, got)
	}
}

func TestNext_FailureAbsorbsAnyNonTerminalState(t *testing.T) {
	for _, state := range []enums.SagaState{
		enums.SagaStateInitial,
		enums.SagaStateWalletCreated,
		enums.SagaStateFundsAdded,
		enums.SagaStateFundsWithdrawn,
		enums.SagaStateFundsTransferred,
	} {
		got, err := Next(state, enums.SagaTriggerFailed)
		require.NoError(t, err, "from %s", state)
		assert.Equal(t, enums.SagaStateFailed, got)
	}
}

func TestNext_OutOfOrderTriggerRejected(t *testing.T) {
	cases := []struct {
		state   enums.SagaState
		trigger enums.SagaTrigger
	}{
		{enums.SagaStateInitial, enums.SagaTriggerFundsAdded},
		{enums.SagaStateInitial, enums.SagaTriggerCompleted},
		{enums.SagaStateWalletCreated, enums.SagaTriggerWalletCreated},
		{enums.SagaStateFundsAdded, enums.SagaTriggerFundsTransferred},
		{enums.SagaStateFundsTransferred, enums.SagaTriggerFundsAdded},
	}
	for _, tc := range cases {
		_, err := Next(tc.state, tc.trigger)
		require.Error(t, err, "from %s via %s", tc.state, tc.trigger)
		typed := apperrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, apperrors.CodeStateConflict, typed.Code())
	}
}

func TestNext_TerminalStatesAbsorbOwnTriggerOnly(t *testing.T) {
	state, err := Next(enums.SagaStateCompleted, enums.SagaTriggerCompleted)
	require.True(t, errors.Is(err, ErrAlreadyTerminal))
	assert.Equal(t, enums.SagaStateCompleted, state)

	state, err = Next(enums.SagaStateFailed, enums.SagaTriggerFailed)
	require.True(t, errors.Is(err, ErrAlreadyTerminal))
	assert.Equal(t, enums.SagaStateFailed, state)

	_, err = Next(enums.SagaStateCompleted, enums.SagaTriggerFundsAdded)
	require.NotNil(t, apperrors.As(err))

	// A failed saga does not complete and a completed saga does not fail.
	_, err = Next(enums.SagaStateFailed, enums.SagaTriggerCompleted)
	require.NotNil(t, apperrors.As(err))
	_, err = Next(enums.SagaStateCompleted, enums.SagaTriggerFailed)
	require.NotNil(t, apperrors.As(err))
}
