package saga

import (
	"context"
	"errors"
	"sync"

	"github.com/blocodev/wallet-hub/pkg/db/models"
	"github.com/blocodev/wallet-hub/pkg/enums"
	apperrors "github.com/blocodev/wallet-hub/pkg/errors"
	"github.com/blocodev/wallet-hub/pkg/logger"
	"github.com/blocodev/wallet-hub/pkg/metrics"
)

const applyAttempts = 3

// Result reports the outcome of applying one trigger.
type Result struct {
	CorrelationID string
	From          enums.SagaState
	To            enums.SagaState
	// Applied is false when a terminal re-delivery was absorbed without a
	// state change.
	Applied bool
}

// CoordinatorParams collects the dependencies for NewCoordinator.
type CoordinatorParams struct {
	Repo          *Repository
	Logg          *logger.Logger
	Metrics       *metrics.SagaMetrics
	RecordHistory bool
}

// Coordinator advances saga instances. Within one process a keyed mutex
// serializes work per correlation id; across processes the repository's
// guarded update does.
type Coordinator struct {
	repo          *Repository
	logg          *logger.Logger
	metrics       *metrics.SagaMetrics
	recordHistory bool

	mu    sync.Mutex
	locks map[string]*correlationLock
}

type correlationLock struct {
	mu   sync.Mutex
	refs int
}

func NewCoordinator(params CoordinatorParams) (*Coordinator, error) {
	if params.Repo == nil {
		return nil, errors.New("saga repository is required")
	}
	return &Coordinator{
		repo:          params.Repo,
		logg:          params.Logg,
		metrics:       params.Metrics,
		recordHistory: params.RecordHistory,
	}, nil
}

// Apply advances the instance identified by correlationID with the trigger.
// Unknown correlation ids start a fresh instance in INITIAL. A trigger with no
// edge from the current state returns a STATE_CONFLICT error and changes
// nothing; re-delivery of the terminal trigger an instance already absorbed
// returns Applied=false with no error.
func (c *Coordinator) Apply(ctx context.Context, correlationID string, trigger enums.SagaTrigger) (Result, error) {
	if correlationID == "" {
		return Result{}, apperrors.New(apperrors.CodeValidation, "correlation id is required")
	}
	if !trigger.IsValid() {
		return Result{}, apperrors.New(apperrors.CodeValidation, "unknown saga trigger")
	}

	unlock := c.lock(correlationID)
	defer unlock()

	var lastErr error
	for attempt := 0; attempt < applyAttempts; attempt++ {
		instance, err := c.repo.LoadOrCreate(ctx, correlationID)
		if err != nil {
			return Result{}, err
		}

		next, err := Next(instance.State, trigger)
		if errors.Is(err, ErrAlreadyTerminal) {
			return Result{
				CorrelationID: correlationID,
				From:          instance.State,
				To:            instance.State,
				Applied:       false,
			}, nil
		}
		if err != nil {
			if c.metrics != nil {
				c.metrics.IncRejected(string(trigger))
			}
			return Result{}, err
		}

		err = c.repo.Transition(ctx, correlationID, trigger, instance.State, next, c.recordHistory)
		if errors.Is(err, ErrConcurrentUpdate) {
			// Another worker moved the instance; re-read and re-evaluate.
			lastErr = err
			continue
		}
		if err != nil {
			return Result{}, err
		}

		if c.metrics != nil {
			c.metrics.IncTransition(string(trigger), string(next))
		}
		if c.logg != nil {
			fields := map[string]any{
				"trigger":    trigger,
				"from_state": instance.State,
				"to_state":   next,
			}
			logCtx := c.logg.WithCorrelationID(ctx, correlationID)
			c.logg.Info(c.logg.WithFields(logCtx, fields), "saga transition applied")
		}
		return Result{
			CorrelationID: correlationID,
			From:          instance.State,
			To:            next,
			Applied:       true,
		}, nil
	}
	return Result{}, lastErr
}

// State returns the current state for the correlation id.
func (c *Coordinator) State(ctx context.Context, correlationID string) (enums.SagaState, error) {
	instance, err := c.repo.Load(ctx, correlationID)
	if err != nil {
		return "", err
	}
	return instance.State, nil
}

// History returns the audit trail for the correlation id.
func (c *Coordinator) History(ctx context.Context, correlationID string) ([]models.SagaTransition, error) {
	return c.repo.History(ctx, correlationID)
}

// lock serializes Apply calls per correlation id. Entries are reference
// counted so idle correlation ids do not accumulate.
func (c *Coordinator) lock(correlationID string) func() {
	c.mu.Lock()
	if c.locks == nil {
		c.locks = make(map[string]*correlationLock)
	}
	entry, ok := c.locks[correlationID]
	if !ok {
		entry = &correlationLock{}
		c.locks[correlationID] = entry
	}
	entry.refs++
	c.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		c.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(c.locks, correlationID)
		}
		c.mu.Unlock()
	}
}
