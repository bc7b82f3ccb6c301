package swaps

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweeper runs Service.Sweep on a fixed interval until stopped.
type Sweeper struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper creates a Sweeper. It does nothing until Start is called.
func NewSweeper(service *Service, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{service: service, interval: interval, logger: logger}
}

// Start launches the sweep loop in the background. Calling Start on a
// running sweeper does nothing.
func (sw *Sweeper) Start(ctx context.Context) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	sw.cancel = cancel
	sw.done = make(chan struct{})
	go sw.run(ctx, sw.done)
}

func (sw *Sweeper) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := sw.service.Sweep(ctx); err != nil && ctx.Err() == nil {
				sw.logger.Error("expiry sweep failed", "error", err)
			}
		}
	}
}

// Stop ends the loop and waits for an in-flight sweep to return.
func (sw *Sweeper) Stop() {
	sw.mu.Lock()
	cancel, done := sw.cancel, sw.done
	sw.cancel, sw.done = nil, nil
	sw.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
