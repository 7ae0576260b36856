package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blocodev/wallet-hub/pkg/redis"
)

// Manager tracks processed envelope IDs per consumer using Redis SETNX with a
// TTL. Keys follow the `wh:idempotency:evt:processed:<consumer>:<envelope_id>`
// pattern. The guard is a fast path only: the saga store's compare-and-swap is
// the durable duplicate backstop.
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewManager builds an idempotency guard that marks envelopes as processed for
// the given TTL.
func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{
		store: store,
		ttl:   ttl,
	}, nil
}

// CheckAndMarkProcessed returns true if the envelope has already been processed
// and otherwise marks it as processed with the configured TTL.
func (m *Manager) CheckAndMarkProcessed(ctx context.Context, consumer, envelopeID string) (bool, error) {
	key, err := m.processedKey(consumer, envelopeID)
	if err != nil {
		return false, err
	}
	set, err := m.store.SetNX(ctx, key, "1", m.ttl)
	if err != nil {
		return false, err
	}
	return !set, nil
}

// Delete releases the processed mark so a failed handler can be retried.
func (m *Manager) Delete(ctx context.Context, consumer, envelopeID string) error {
	key, err := m.processedKey(consumer, envelopeID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) processedKey(consumer, envelopeID string) (string, error) {
	if consumer == "" {
		return "", errors.New("consumer name is required")
	}
	if envelopeID == "" {
		return "", errors.New("envelope id is required")
	}
	scope := fmt.Sprintf("evt:processed:%s", consumer)
	return m.store.IdempotencyKey(scope, envelopeID), nil
}
