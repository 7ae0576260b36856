package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/blocodev/wallet-hub/pkg/config"
	"github.com/blocodev/wallet-hub/pkg/db/models"
	"github.com/blocodev/wallet-hub/pkg/logger"
	"github.com/blocodev/wallet-hub/pkg/metrics"
	"github.com/blocodev/wallet-hub/pkg/outbox"
)

const (
	defaultBatchSize      = 50
	defaultPollInterval   = 5 * time.Second
	defaultMaxConcurrency = 8
	defaultPublishTimeout = 15 * time.Second
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type dbClient interface {
	Ping(context.Context) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnsent(ctx context.Context, limit int) ([]models.OutboxEvent, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, cause error) error
	CountUnsent(ctx context.Context) (int64, error)
}

type publisherFactory func(topic string) publisher

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type ServiceParams struct {
	Config           *config.Config
	Logger           *logger.Logger
	DB               dbClient
	PubSub           pubSubClient
	Repository       outboxRepository
	Metrics          *metrics.OutboxMetrics
	Causal           outbox.CausalContext
	PublisherFactory publisherFactory
}

// Service drains the outbox table: it polls for unsent records, wraps each in
// an event envelope, publishes it, and flips the sent flag. A record whose
// publish fails stays unsent and is retried on a later cycle, so consumers see
// at-least-once delivery.
type Service struct {
	cfg              *config.Config
	logg             *logger.Logger
	db               dbClient
	repo             outboxRepository
	pubsub           pubSubClient
	metrics          *metrics.OutboxMetrics
	causal           outbox.CausalContext
	publisherFactory publisherFactory
	batchSize        int
	maxConcurrency   int
	pollInterval     time.Duration
	publishTimeout   time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.PubSub == nil {
		return nil, errors.New("pubsub client is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}

	factory := params.PublisherFactory
	if factory == nil {
		factory = func(topic string) publisher {
			pub := params.PubSub.Publisher(topic)
			if pub == nil {
				return nil
			}
			return newGCPPublisher(pub)
		}
	}

	batch := params.Config.Outbox.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	poll := params.Config.Outbox.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	concurrency := params.Config.Outbox.MaxConcurrency
	if concurrency <= 0 {
		concurrency = defaultMaxConcurrency
	}
	timeout := params.Config.Outbox.PublishTimeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	causal := params.Causal
	if causal == nil {
		causal = outbox.NoopCausalContext{}
	}

	return &Service{
		cfg:              params.Config,
		logg:             params.Logger,
		db:               params.DB,
		repo:             params.Repository,
		pubsub:           params.PubSub,
		metrics:          params.Metrics,
		causal:           causal,
		publisherFactory: factory,
		batchSize:        batch,
		maxConcurrency:   concurrency,
		pollInterval:     poll,
		publishTimeout:   timeout,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "pubsub", s.pubsub.Ping); err != nil {
		return err
	}
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	interval := s.pollInterval
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "outbox publisher context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "outbox publisher batch error", err)
			backoff = nextBackoff(backoff, interval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval

		if processed {
			// More records may be waiting; poll again immediately.
			continue
		}

		if err := s.sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

// processBatch publishes one batch of unsent records. Records are dispatched
// concurrently; each record's outcome is recorded independently so one failed
// publish never blocks the rest of the batch.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	start := time.Now()
	events, err := s.repo.FetchUnsent(ctx, s.batchSize)
	if err != nil {
		return false, fmt.Errorf("fetch unsent: %w", err)
	}
	if len(events) == 0 {
		s.observeCycle(ctx, start)
		return false, nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.maxConcurrency)
	errs := make([]error, len(events))
	for i, event := range events {
		group.Go(func() error {
			errs[i] = s.publishEvent(groupCtx, event)
			return nil
		})
	}
	_ = group.Wait()

	s.observeCycle(ctx, start)
	return true, multierr.Combine(errs...)
}

func (s *Service) publishEvent(ctx context.Context, event models.OutboxEvent) error {
	fields := s.eventFields(event)
	topic := event.EventType.Topic()

	envelope := s.buildEnvelope(ctx, event)
	body, err := json.Marshal(envelope)
	if err != nil {
		markErr := s.repo.MarkFailed(ctx, event.ID, err)
		s.metrics.IncFailed(string(event.EventType))
		return multierr.Append(fmt.Errorf("encode envelope %s: %w", event.ID, err), markErr)
	}

	pub := s.publisherFactory(topic)
	if pub == nil {
		err := fmt.Errorf("publisher not configured for topic %s", topic)
		markErr := s.repo.MarkFailed(ctx, event.ID, err)
		s.metrics.IncFailed(string(event.EventType))
		return multierr.Append(err, markErr)
	}

	msg := &gcppubsub.Message{
		Data: body,
		Attributes: map[string]string{
			"event_id":   envelope.ID,
			"event_type": string(event.EventType),
			"created_at": event.CreatedAt.Format(time.RFC3339Nano),
		},
	}
	if correlationID := envelope.CorrelationID(); correlationID != "" {
		msg.Attributes["correlation_id"] = correlationID
	}

	publishCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	result := pub.Publish(publishCtx, msg)
	if result == nil {
		err := fmt.Errorf("publisher returned nil for topic %s", topic)
		markErr := s.repo.MarkFailed(ctx, event.ID, err)
		s.metrics.IncFailed(string(event.EventType))
		return multierr.Append(err, markErr)
	}
	if _, err := result.Get(publishCtx); err != nil {
		ctxWithFields := s.logg.WithFields(ctx, fields)
		ctxWithFields = s.logg.WithField(ctxWithFields, "error", err.Error())
		s.logg.Warn(ctxWithFields, "outbox publish failed")
		markErr := s.repo.MarkFailed(ctx, event.ID, err)
		s.metrics.IncFailed(string(event.EventType))
		return multierr.Append(fmt.Errorf("publish %s: %w", event.ID, err), markErr)
	}

	if err := s.repo.MarkSent(ctx, event.ID); err != nil {
		if errors.Is(err, outbox.ErrAlreadySent) {
			// Another publisher instance won the race. The broker has the
			// event, possibly twice; consumers dedupe by envelope id.
			s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event already marked sent")
			return nil
		}
		return fmt.Errorf("mark sent %s: %w", event.ID, err)
	}
	s.metrics.IncPublished(string(event.EventType))
	s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event published")
	return nil
}

// buildEnvelope wraps the stored payload. The envelope id reuses the outbox
// record id so redeliveries of the same record carry the same id end to end.
// Causal-context attributes are stamped as extensions for downstream consumers.
func (s *Service) buildEnvelope(ctx context.Context, event models.OutboxEvent) outbox.Envelope {
	correlationID := ""
	if event.CorrelationID != nil {
		correlationID = *event.CorrelationID
	}
	envelope := outbox.NewEnvelope(string(event.EventType), s.cfg.Eventing.EventSource, event.Payload, correlationID)
	envelope.ID = event.ID.String()
	s.causal.Inject(ctx, envelope.Extensions)
	return envelope
}

func (s *Service) observeCycle(ctx context.Context, start time.Time) {
	s.metrics.ObserveCycle(time.Since(start).Seconds())
	count, err := s.repo.CountUnsent(ctx)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "outbox backlog count failed")
		return
	}
	s.metrics.SetBacklog(count)
}

func (s *Service) eventFields(event models.OutboxEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":     event.ID.String(),
		"event_type":    event.EventType,
		"topic":         event.EventType.Topic(),
		"batch_size":    s.batchSize,
		"attempt_count": event.AttemptCount,
	}
	if event.CorrelationID != nil {
		fields["correlation_id"] = *event.CorrelationID
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	jitter := time.Duration(jitterSource.Int63n(int64(jitterWindow)))
	return d + jitter
}

func newGCPPublisher(p *gcppubsub.Publisher) publisher {
	if p == nil {
		return nil
	}
	return &gcpPublisher{Publisher: p}
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
