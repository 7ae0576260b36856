package saga

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blocodev/wallet-hub/pkg/enums"
	apperrors "github.com/blocodev/wallet-hub/pkg/errors"
	"github.com/blocodev/wallet-hub/pkg/logger"
	"github.com/blocodev/wallet-hub/pkg/outbox"
	"github.com/blocodev/wallet-hub/pkg/outbox/idempotency"
)

type fakeApplier struct {
	applied []enums.SagaTrigger
	lastID  string
	err     error
}

func (f *fakeApplier) Apply(_ context.Context, correlationID string, trigger enums.SagaTrigger) (Result, error) {
	if f.err != nil {
		return Result{}, f.err
	}
	f.applied = append(f.applied, trigger)
	f.lastID = correlationID
	return Result{CorrelationID: correlationID, Applied: true}, nil
}

type memoryStore struct {
	data map[string]string
	err  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	return m.data[key], nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, exists := m.data[key]; exists {
		return false, nil
	}
	m.data[key] = "1"
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "wh:idempotency:" + scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func newTestConsumer(t *testing.T, coordinator applier, store *memoryStore) *Consumer {
	t.Helper()
	manager, err := idempotency.NewManager(store, time.Hour)
	require.NoError(t, err)
	return &Consumer{
		coordinator: coordinator,
		idempotency: manager,
		causal:      outbox.NoopCausalContext{},
		logg:        logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard}),
	}
}

func envelopeMessage(t *testing.T, eventType, correlationID string) *pubsub.Message {
	t.Helper()
	envelope := outbox.NewEnvelope(eventType, "//wallet-hub", json.RawMessage(`{"correlationId":"`+correlationID+`"}`), correlationID)
	data, err := json.Marshal(envelope)
	require.NoError(t, err)
	return &pubsub.Message{ID: uuid.NewString(), Data: data}
}

func TestConsumer_ProcessAppliesTrigger(t *testing.T) {
	coordinator := &fakeApplier{}
	consumer := newTestConsumer(t, coordinator, newMemoryStore())
	correlationID := uuid.NewString()

	result := consumer.process(context.Background(), envelopeMessage(t, "wallet_created", correlationID))
	assert.True(t, result.ack)
	require.Len(t, coordinator.applied, 1)
	assert.Equal(t, enums.SagaTriggerWalletCreated, coordinator.applied[0])
	assert.Equal(t, correlationID, coordinator.lastID)
}

func TestConsumer_FallsBackToPayloadCorrelation(t *testing.T) {
	coordinator := &fakeApplier{}
	consumer := newTestConsumer(t, coordinator, newMemoryStore())
	correlationID := uuid.NewString()

	envelope := outbox.NewEnvelope("funds_added", "//wallet-hub", json.RawMessage(`{"correlationId":"`+correlationID+`"}`), "")
	data, err := json.Marshal(envelope)
	require.NoError(t, err)

	result := consumer.process(context.Background(), &pubsub.Message{ID: uuid.NewString(), Data: data})
	assert.True(t, result.ack)
	assert.Equal(t, correlationID, coordinator.lastID)
}

func TestConsumer_MalformedMessageAcked(t *testing.T) {
	coordinator := &fakeApplier{}
	consumer := newTestConsumer(t, coordinator, newMemoryStore())

	result := consumer.process(context.Background(), &pubsub.Message{ID: "m1", Data: []byte("not-json{")})
	assert.True(t, result.ack)
	assert.Empty(t, coordinator.applied)
}

func TestConsumer_UnknownEventTypeAcked(t *testing.T) {
	coordinator := &fakeApplier{}
	consumer := newTestConsumer(t, coordinator, newMemoryStore())

	result := consumer.process(context.Background(), envelopeMessage(t, "price_changed", uuid.NewString()))
	assert.True(t, result.ack)
	assert.Empty(t, coordinator.applied)
}

func TestConsumer_MissingCorrelationAcked(t *testing.T) {
	coordinator := &fakeApplier{}
	consumer := newTestConsumer(t, coordinator, newMemoryStore())

	envelope := outbox.NewEnvelope("wallet_created", "//wallet-hub", json.RawMessage(`{}`), "")
	data, err := json.Marshal(envelope)
	require.NoError(t, err)

	result := consumer.process(context.Background(), &pubsub.Message{ID: "m2", Data: data})
	assert.True(t, result.ack)
	assert.Empty(t, coordinator.applied)
}

func TestConsumer_DuplicateEnvelopeSkipped(t *testing.T) {
	coordinator := &fakeApplier{}
	consumer := newTestConsumer(t, coordinator, newMemoryStore())
	msg := envelopeMessage(t, "wallet_created", uuid.NewString())

	first := consumer.process(context.Background(), msg)
	second := consumer.process(context.Background(), msg)
	assert.True(t, first.ack)
	assert.True(t, second.ack)
	assert.Len(t, coordinator.applied, 1)
}

func TestConsumer_RejectedTransitionAcked(t *testing.T) {
	coordinator := &fakeApplier{err: apperrors.New(apperrors.CodeStateConflict, "no edge")}
	consumer := newTestConsumer(t, coordinator, newMemoryStore())

	result := consumer.process(context.Background(), envelopeMessage(t, "funds_added", uuid.NewString()))
	assert.True(t, result.ack)
	assert.False(t, result.nack)
}

func TestConsumer_TransientFailureNackedAndRetryable(t *testing.T) {
	coordinator := &fakeApplier{err: errors.New("db unavailable")}
	store := newMemoryStore()
	consumer := newTestConsumer(t, coordinator, store)
	msg := envelopeMessage(t, "funds_added", uuid.NewString())

	result := consumer.process(context.Background(), msg)
	assert.True(t, result.nack)

	// The processed mark must be released so the redelivery is handled.
	coordinator.err = nil
	result = consumer.process(context.Background(), msg)
	assert.True(t, result.ack)
	assert.Len(t, coordinator.applied, 1)
}

func TestConsumer_IdempotencyErrorNacked(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("redis down")
	consumer := newTestConsumer(t, &fakeApplier{}, store)

	result := consumer.process(context.Background(), envelopeMessage(t, "wallet_created", uuid.NewString()))
	assert.True(t, result.nack)
}
