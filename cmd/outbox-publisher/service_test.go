package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/blocodev/wallet-hub/pkg/config"
	"github.com/blocodev/wallet-hub/pkg/db/models"
	"github.com/blocodev/wallet-hub/pkg/enums"
	"github.com/blocodev/wallet-hub/pkg/logger"
	"github.com/blocodev/wallet-hub/pkg/outbox"
)

func TestServiceProcessBatchPublishesAndMarksSent(t *testing.T) {
	correlationID := uuid.NewString()
	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventWalletCreated,
		Payload:       json.RawMessage(`{"walletId":"w1"}`),
		CorrelationID: &correlationID,
		CreatedAt:     time.Now().UTC(),
	}
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{}
	service := newTestService(t, repo, pub, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(repo.sent); got != 1 || repo.sent[0] != event.ID {
		t.Fatalf("expected event marked sent, got %v", repo.sent)
	}
	if got := len(pub.messages); got != 1 {
		t.Fatalf("expected one published message, got %d", got)
	}

	msg := pub.messages[0]
	if msg.Attributes["event_type"] != string(enums.EventWalletCreated) {
		t.Fatalf("unexpected event_type attribute: %s", msg.Attributes["event_type"])
	}
	if msg.Attributes["correlation_id"] != correlationID {
		t.Fatalf("unexpected correlation_id attribute: %s", msg.Attributes["correlation_id"])
	}

	var envelope outbox.Envelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.ID != event.ID.String() {
		t.Fatalf("envelope id should reuse the outbox record id, got %s", envelope.ID)
	}
	if envelope.CorrelationID() != correlationID {
		t.Fatalf("envelope correlation mismatch: %s", envelope.CorrelationID())
	}
	if pub.topics[0] != "wallet_created-out" {
		t.Fatalf("unexpected topic: %s", pub.topics[0])
	}
}

func TestServiceProcessBatchContinuesAfterFailure(t *testing.T) {
	failing := models.OutboxEvent{
		ID:        uuid.New(),
		EventType: enums.EventFundsAdded,
		Payload:   json.RawMessage(`{}`),
	}
	succeeding := models.OutboxEvent{
		ID:        uuid.New(),
		EventType: enums.EventFundsAdded,
		Payload:   json.RawMessage(`{}`),
	}
	repo := &fakeRepo{events: []models.OutboxEvent{failing, succeeding}}
	pub := &fakePublisher{errsByEvent: map[uuid.UUID]error{failing.ID: errors.New("transient")}}
	service := newTestService(t, repo, pub, nil)

	processed, err := service.processBatch(context.Background())
	if err == nil {
		t.Fatalf("expected aggregated error for the failed publish")
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(repo.sent); got != 1 || repo.sent[0] != succeeding.ID {
		t.Fatalf("expected only succeeding event marked sent, got %v", repo.sent)
	}
	if got := len(repo.failed); got != 1 || repo.failed[0] != failing.ID {
		t.Fatalf("expected failing event marked failed, got %v", repo.failed)
	}
}

func TestServiceProcessBatchTreatsLostMarkRaceAsSuccess(t *testing.T) {
	event := models.OutboxEvent{
		ID:        uuid.New(),
		EventType: enums.EventSagaCompleted,
		Payload:   json.RawMessage(`{}`),
	}
	repo := &fakeRepo{events: []models.OutboxEvent{event}, markSentErr: outbox.ErrAlreadySent}
	pub := &fakePublisher{}
	service := newTestService(t, repo, pub, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("losing the mark-sent race should not error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
}

func TestServiceProcessBatchEmptyReportsIdle(t *testing.T) {
	repo := &fakeRepo{}
	service := newTestService(t, repo, &fakePublisher{}, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if processed {
		t.Fatalf("empty batch should report idle")
	}
}

func TestNextBackoffDoublesUpToMax(t *testing.T) {
	base := 100 * time.Millisecond
	current := nextBackoff(0, base, time.Second)
	if current != 200*time.Millisecond {
		t.Fatalf("expected 200ms, got %s", current)
	}
	for i := 0; i < 10; i++ {
		current = nextBackoff(current, base, time.Second)
	}
	if current != time.Second {
		t.Fatalf("expected cap at 1s, got %s", current)
	}
}

func newTestService(t *testing.T, repo outboxRepository, pub *fakePublisher, cfgOverride *config.OutboxConfig) *Service {
	t.Helper()
	outboxCfg := config.OutboxConfig{
		BatchSize:      10,
		PollInterval:   100 * time.Millisecond,
		MaxConcurrency: 4,
		PublishTimeout: time.Second,
	}
	if cfgOverride != nil {
		outboxCfg = *cfgOverride
	}
	cfg := &config.Config{Outbox: outboxCfg}
	logg := logger.New(logger.Options{
		ServiceName: "outbox-publisher-test",
		Output:      io.Discard,
	})
	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         &fakeDB{},
		PubSub:     &fakePubSubClient{},
		Repository: repo,
		PublisherFactory: func(topic string) publisher {
			return pub.forTopic(topic)
		},
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service
}

type fakeRepo struct {
	mu          sync.Mutex
	events      []models.OutboxEvent
	sent        []uuid.UUID
	failed      []uuid.UUID
	markSentErr error
}

func (f *fakeRepo) FetchUnsent(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkSent(ctx context.Context, id uuid.UUID) error {
	if f.markSentErr != nil {
		return f.markSentErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeRepo) MarkFailed(ctx context.Context, id uuid.UUID, cause error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) CountUnsent(ctx context.Context) (int64, error) {
	return int64(len(f.events) - len(f.sent)), nil
}

type fakeDB struct{}

func (f *fakeDB) Ping(context.Context) error { return nil }

type fakePubSubClient struct{}

func (f *fakePubSubClient) Ping(context.Context) error { return nil }

func (f *fakePubSubClient) Publisher(name string) *gcppubsub.Publisher { return nil }

// fakePublisher records publishes across topics; per-event errors are keyed by
// the envelope id carried in the message attributes.
type fakePublisher struct {
	mu          sync.Mutex
	messages    []*gcppubsub.Message
	topics      []string
	errsByEvent map[uuid.UUID]error
}

func (f *fakePublisher) forTopic(topic string) publisher {
	return &fakeTopicPublisher{parent: f, topic: topic}
}

type fakeTopicPublisher struct {
	parent *fakePublisher
	topic  string
}

func (f *fakeTopicPublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.parent.mu.Lock()
	defer f.parent.mu.Unlock()
	if id, err := uuid.Parse(msg.Attributes["event_id"]); err == nil {
		if pubErr, ok := f.parent.errsByEvent[id]; ok {
			return fakePublishResult{err: pubErr}
		}
	}
	f.parent.messages = append(f.parent.messages, msg)
	f.parent.topics = append(f.parent.topics, f.topic)
	return fakePublishResult{}
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	return "", f.err
}
