// Package core wires the skill-swap services into one explicitly managed
// engine handle.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chris/skill-swap/pkg/events"
	"github.com/chris/skill-swap/pkg/ledger"
	"github.com/chris/skill-swap/pkg/messages"
	"github.com/chris/skill-swap/pkg/reputation"
	"github.com/chris/skill-swap/pkg/scheduler"
	"github.com/chris/skill-swap/pkg/skills"
	"github.com/chris/skill-swap/pkg/storage"
	"github.com/chris/skill-swap/pkg/swaps"
	"github.com/chris/skill-swap/pkg/users"
)

type state int

const (
	stateCreated state = iota
	stateReady
	stateShutdown
)

// ErrNotReady is returned by Start and Shutdown when called out of order.
var ErrNotReady = errors.New("engine is not in a startable state")

// Options configures New. Store is required; everything else has a default.
type Options struct {
	Store     storage.Storage
	Scheduler scheduler.Scheduler
	Publisher events.Publisher
	Logger    *slog.Logger

	// SweepInterval enables the in-process expiry sweeper when positive.
	SweepInterval time.Duration
	// SeedSkills creates the starter catalogue on Start.
	SeedSkills bool
}

// Engine holds every service of the system. Create it with New, call Start
// before serving and Shutdown when done.
type Engine struct {
	Users        *users.Service
	Skills       *skills.Service
	Swaps        *swaps.Service
	Transactions *ledger.Service
	Reputation   *reputation.Service
	Messages     *messages.Service

	publisher  events.Publisher
	sweeper    *swaps.Sweeper
	seedSkills bool
	logger     *slog.Logger

	mu    sync.Mutex
	state state
}

// New builds the engine. No background work starts until Start.
func New(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, errors.New("core: store is required")
	}
	if opts.Publisher == nil {
		opts.Publisher = &events.NoOpPublisher{}
	}
	if opts.Scheduler == nil {
		opts.Scheduler = scheduler.NoOpScheduler{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	e := &Engine{
		Users:        users.NewService(opts.Store, opts.Logger),
		Skills:       skills.NewService(opts.Store, opts.Logger),
		Swaps:        swaps.NewService(opts.Store, opts.Scheduler, opts.Publisher, opts.Logger),
		Transactions: ledger.NewService(opts.Store, opts.Publisher, opts.Logger),
		Reputation:   reputation.NewService(opts.Store, opts.Publisher, opts.Logger),
		Messages:     messages.NewService(opts.Store, opts.Logger),
		publisher:    opts.Publisher,
		seedSkills:   opts.SeedSkills,
		logger:       opts.Logger,
	}
	if opts.SweepInterval > 0 {
		e.sweeper = swaps.NewSweeper(e.Swaps, opts.SweepInterval, opts.Logger)
	}
	return e, nil
}

// Start seeds the catalogue if asked to and launches the expiry sweeper.
// The sweeper runs until Shutdown, independent of ctx.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != stateCreated {
		return ErrNotReady
	}

	if e.seedSkills {
		if err := e.Skills.SeedDefaults(ctx); err != nil {
			return fmt.Errorf("failed to seed skills: %w", err)
		}
	}
	if e.sweeper != nil {
		e.sweeper.Start(context.WithoutCancel(ctx))
	}

	e.state = stateReady
	e.logger.Info("engine ready", "sweeper", e.sweeper != nil, "seeded", e.seedSkills)
	return nil
}

// Ready reports whether the engine has started and not shut down.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == stateReady
}

// Shutdown stops the sweeper and closes the event publisher. Calling it more
// than once is harmless.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if e.state == stateShutdown {
		e.mu.Unlock()
		return nil
	}
	e.state = stateShutdown
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if e.sweeper != nil {
			e.sweeper.Stop()
		}
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := e.publisher.Close(); err != nil {
		return fmt.Errorf("failed to close event publisher: %w", err)
	}
	e.logger.Info("engine stopped")
	return nil
}
