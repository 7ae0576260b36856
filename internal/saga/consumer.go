package saga

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"golang.org/x/sync/errgroup"

	"github.com/blocodev/wallet-hub/pkg/enums"
	apperrors "github.com/blocodev/wallet-hub/pkg/errors"
	"github.com/blocodev/wallet-hub/pkg/logger"
	"github.com/blocodev/wallet-hub/pkg/metrics"
	"github.com/blocodev/wallet-hub/pkg/outbox"
	"github.com/blocodev/wallet-hub/pkg/outbox/idempotency"
	"github.com/blocodev/wallet-hub/pkg/outbox/payloads"
)

const consumerName = "saga-worker"

// triggerByEventType maps broker event types to the saga trigger they raise.
var triggerByEventType = map[string]enums.SagaTrigger{
	string(enums.EventWalletCreated):    enums.SagaTriggerWalletCreated,
	string(enums.EventFundsAdded):       enums.SagaTriggerFundsAdded,
	string(enums.EventFundsWithdrawn):   enums.SagaTriggerFundsWithdrawn,
	string(enums.EventFundsTransferred): enums.SagaTriggerFundsTransferred,
	string(enums.EventSagaCompleted):    enums.SagaTriggerCompleted,
	string(enums.EventSagaFailed):       enums.SagaTriggerFailed,
}

// applier is the coordinator surface the consumer drives.
type applier interface {
	Apply(ctx context.Context, correlationID string, trigger enums.SagaTrigger) (Result, error)
}

// Consumer feeds broker envelopes into the coordinator. One consumer drains
// all configured subscriptions; the handler is shared because the trigger is
// derived from the envelope type, not the channel.
type Consumer struct {
	coordinator   applier
	subscriptions []*pubsub.Subscriber
	idempotency   *idempotency.Manager
	causal        outbox.CausalContext
	metrics       *metrics.SagaMetrics
	logg          *logger.Logger
}

// ConsumerParams collects the dependencies for NewConsumer.
type ConsumerParams struct {
	Coordinator   applier
	Subscriptions []*pubsub.Subscriber
	Idempotency   *idempotency.Manager
	Causal        outbox.CausalContext
	Metrics       *metrics.SagaMetrics
	Logg          *logger.Logger
}

func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Coordinator == nil {
		return nil, fmt.Errorf("saga coordinator required")
	}
	if len(params.Subscriptions) == 0 {
		return nil, fmt.Errorf("at least one subscription required")
	}
	if params.Idempotency == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if params.Logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	causal := params.Causal
	if causal == nil {
		causal = outbox.NoopCausalContext{}
	}
	return &Consumer{
		coordinator:   params.Coordinator,
		subscriptions: params.Subscriptions,
		idempotency:   params.Idempotency,
		causal:        causal,
		metrics:       params.Metrics,
		logg:          params.Logg,
	}, nil
}

// Run drains every subscription until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	for _, subscription := range c.subscriptions {
		group.Go(func() error {
			return subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
				result := c.process(ctx, msg)
				if result.nack {
					msg.Nack()
					return
				}
				msg.Ack()
			})
		})
	}
	return group.Wait()
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
	})

	var envelope outbox.Envelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		c.metrics.IncMalformed()
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"envelope_id": envelope.ID,
		"event_type":  envelope.Type,
	})
	ctx = c.causal.Extract(ctx, envelope.Extensions)

	trigger, ok := triggerByEventType[envelope.Type]
	if !ok {
		c.logg.Warn(logCtx, "unknown event type, dropping")
		c.metrics.IncMalformed()
		return processResult{ack: true}
	}

	correlationID := envelope.CorrelationID()
	if correlationID == "" {
		// Fall back to the payload copy of the correlation id.
		var correlated payloads.Correlated
		if err := json.Unmarshal(envelope.Data, &correlated); err == nil {
			correlationID = correlated.CorrelationID
		}
	}
	if correlationID == "" || envelope.ID == "" {
		c.logg.Warn(logCtx, "envelope missing correlation or id, dropping")
		c.metrics.IncMalformed()
		return processResult{ack: true}
	}
	logCtx = c.logg.WithCorrelationID(logCtx, correlationID)

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, consumerName, envelope.ID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "envelope already processed")
		c.metrics.IncDuplicate()
		return processResult{ack: true}
	}

	result, err := c.coordinator.Apply(ctx, correlationID, trigger)
	if err != nil {
		if typed := apperrors.As(err); typed != nil && typed.Code() == apperrors.CodeStateConflict {
			// Rejected transitions are final for this delivery: redelivery
			// would be rejected again, so ack instead of poisoning the queue.
			c.logg.Warn(logCtx, "transition rejected for current state")
			return processResult{ack: true}
		}
		c.logg.Error(logCtx, "applying trigger failed", err)
		_ = c.idempotency.Delete(ctx, consumerName, envelope.ID)
		return processResult{nack: true}
	}

	if result.Applied {
		c.logg.Info(c.logg.WithFields(logCtx, map[string]any{
			"from_state": result.From,
			"to_state":   result.To,
		}), "saga advanced")
	}
	return processResult{ack: true}
}
