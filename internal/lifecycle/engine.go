// Package lifecycle applies status transitions to Sets and Projects and
// performs the one-way conversion of a closed Set into a Project.
//
// Every mutation is read, applied to a copy, then written. The copy is
// returned only after the write is confirmed, so a failed write never leaves
// a caller holding a record that looks converted or cancelled.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"deal-workers/internal/common/logger"
	"deal-workers/internal/models"
)

// Store is the persistence the engine needs. *repository.Store satisfies it.
type Store interface {
	GetSet(ctx context.Context, id string) (*models.Set, error)
	PutSet(ctx context.Context, set *models.Set) error
	RemoveSet(ctx context.Context, id string) error

	GetProject(ctx context.Context, id string) (*models.Project, error)
	FindProject(ctx context.Context, id string) (*models.Project, bool, error)
	PutProject(ctx context.Context, p *models.Project) error
	CountProjects(ctx context.Context, ownerID string) (int, error)

	GetSeller(ctx context.Context, id string) (*models.SellerProfile, error)
	PutSeller(ctx context.Context, p *models.SellerProfile) error
}

// Invalidator drops cached summaries that include an owner's deals.
type Invalidator interface {
	InvalidateOwner(ctx context.Context, ownerID string) error
}

// Publisher announces stored lifecycle changes.
type Publisher interface {
	PublishDealEvent(ctx context.Context, event models.DealEvent) error
}

// EngineOptions wires an Engine. Only Store is required.
type EngineOptions struct {
	Store       Store
	Invalidator Invalidator
	Publisher   Publisher
	Logger      logger.Logger
	Now         func() time.Time
}

type Engine struct {
	store     Store
	cache     Invalidator
	publisher Publisher
	logger    logger.Logger
	now       func() time.Time
	locks     *keyedMutex
}

func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("lifecycle: store is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		store:     opts.Store,
		cache:     opts.Invalidator,
		publisher: opts.Publisher,
		logger:    opts.Logger,
		now:       opts.Now,
		locks:     newKeyedMutex(),
	}, nil
}

func (e *Engine) invalidate(ctx context.Context, ownerID string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.InvalidateOwner(ctx, ownerID); err != nil {
		e.logger.Warn("Failed to invalidate cached summaries", map[string]interface{}{
			"ownerId": ownerID,
			"error":   err.Error(),
		})
	}
}

// publish is best effort: the change is already stored.
func (e *Engine) publish(ctx context.Context, event models.DealEvent) {
	if e.publisher == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = e.now().UTC()
	}
	if err := e.publisher.PublishDealEvent(ctx, event); err != nil {
		e.logger.Warn("Failed to publish deal event", map[string]interface{}{
			"eventType": string(event.Type),
			"dealId":    event.DealID,
			"error":     err.Error(),
		})
	}
}

// keyedMutex serializes work per deal ID inside one process.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refLock)}
}

// Lock blocks until key is free and returns the matching unlock func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
