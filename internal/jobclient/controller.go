package jobclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"wallclient/internal/domain"
	"wallclient/internal/infra"
)

// ErrSuperseded is returned by Submit when a newer submission started while
// the creation request was in flight.
var ErrSuperseded = errors.New("jobclient: submission superseded")

// Backend is the subset of the wallpaper API the controller needs.
type Backend interface {
	Create(ctx context.Context, light, dark *domain.ImageFile) (*domain.Job, error)
	Status(ctx context.Context, jobID string) (*domain.Job, error)
}

// GalleryRefresher reloads the read-only gallery view.
type GalleryRefresher interface {
	Refresh(ctx context.Context)
}

// Observer receives every snapshot in transition order. Observers run while
// the controller lock is held and must not call back into the controller.
type Observer func(Snapshot)

// Ticker abstracts time.Ticker so tests can drive poll ticks by hand.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker is the default TickerFunc.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Options configures a Controller.
type Options struct {
	Backend   Backend
	Gallery   GalleryRefresher
	Logger    *infra.Logger
	NewTicker TickerFunc
}

// Controller drives a Machine against the backend. It owns the only poll
// timer: starting a cycle always stops the previous one first.
type Controller struct {
	backend   Backend
	gallery   GalleryRefresher
	logger    *infra.Logger
	newTicker TickerFunc

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	machine   *Machine
	active    *cycle
	last      *cycle
	changed   chan struct{}
	observers map[int]Observer
	nextObs   int
}

type cycle struct {
	gen    uint64
	jobID  string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewController constructs a controller in the Idle state.
func NewController(opts Options) (*Controller, error) {
	if opts.Backend == nil {
		return nil, errors.New("jobclient: backend is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	newTicker := opts.NewTicker
	if newTicker == nil {
		newTicker = NewTimeTicker
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		backend:   opts.Backend,
		gallery:   opts.Gallery,
		logger:    logger,
		newTicker: newTicker,
		ctx:       ctx,
		cancel:    cancel,
		machine:   NewMachine(),
		changed:   make(chan struct{}),
		observers: make(map[int]Observer),
	}, nil
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Snapshot()
}

// Subscribe registers an observer and returns a function removing it.
func (c *Controller) Subscribe(fn Observer) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// Submit validates the pair, uploads it and starts polling the created job.
// It returns once the creation request has completed; polling continues in
// the background.
func (c *Controller) Submit(ctx context.Context, light, dark *domain.ImageFile) (string, error) {
	c.mu.Lock()
	snap, effects, err := c.machine.Submit(light, dark)
	if err != nil {
		c.mu.Unlock()
		return "", err
	}
	c.runLocked(effects)
	c.publishLocked(snap)
	gen := snap.Generation
	c.mu.Unlock()

	c.logger.Info().Uint64("generation", gen).Msg("jobclient: submitting images")
	job, err := c.backend.Create(ctx, light, dark)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		snap := c.machine.CreateFailed(gen, err)
		if snap.Generation != gen {
			return "", ErrSuperseded
		}
		c.publishLocked(snap)
		c.logger.Warn().Err(err).Uint64("generation", gen).Msg("jobclient: submission failed")
		return "", fmt.Errorf("%w: %w", domain.ErrSubmission, err)
	}
	snap, effects = c.machine.Created(gen, *job)
	if snap.Generation != gen {
		c.logger.Info().Str("job_id", job.ID).Msg("jobclient: discarding superseded job")
		return "", ErrSuperseded
	}
	c.runLocked(effects)
	c.publishLocked(snap)
	c.logger.Info().Str("job_id", job.ID).Uint64("generation", gen).Msg("jobclient: polling started")
	return job.ID, nil
}

// Wait blocks until the current generation reaches a terminal state and its
// poll cycle, including any gallery refresh, has finished. The returned error
// is the snapshot's domain error, if any.
func (c *Controller) Wait(ctx context.Context) (Snapshot, error) {
	for {
		c.mu.Lock()
		snap := c.machine.Snapshot()
		ch := c.changed
		last := c.last
		c.mu.Unlock()

		if snap.State == StateIdle || snap.State.Terminal() {
			if last != nil && last.gen == snap.Generation {
				select {
				case <-last.done:
				case <-ctx.Done():
					return snap, ctx.Err()
				}
			}
			return snap, snap.Err()
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-c.ctx.Done():
			return snap, context.Canceled
		}
	}
}

// Stop terminates the active poll cycle, if any, and waits for it to exit.
func (c *Controller) Stop() {
	c.mu.Lock()
	cy := c.active
	c.stopLocked()
	c.mu.Unlock()
	if cy != nil {
		<-cy.done
	}
}

// Close stops polling and cancels any outstanding gallery refresh.
func (c *Controller) Close() {
	c.cancel()
	c.Stop()
}

// ActiveTimers reports how many poll timers are running, 0 or 1.
func (c *Controller) ActiveTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return 1
	}
	return 0
}

func (c *Controller) runLocked(effects []Effect) {
	for _, eff := range effects {
		switch e := eff.(type) {
		case StopTimer:
			c.stopLocked()
		case StartTimer:
			c.startLocked(e.Generation, e.JobID, e.Interval)
		}
	}
}

func (c *Controller) startLocked(gen uint64, jobID string, interval time.Duration) {
	c.stopLocked()
	ctx, cancel := context.WithCancel(c.ctx)
	cy := &cycle{gen: gen, jobID: jobID, cancel: cancel, done: make(chan struct{})}
	c.active = cy
	c.last = cy
	go c.poll(ctx, cy, c.newTicker(interval))
}

// stopLocked cancels the active cycle without waiting for it; the cycle's own
// goroutine may be the caller.
func (c *Controller) stopLocked() {
	if c.active == nil {
		return
	}
	c.active.cancel()
	c.active = nil
}

func (c *Controller) poll(ctx context.Context, cy *cycle, t Ticker) {
	defer close(cy.done)
	defer t.Stop()
	log := c.logger.With().Str("job_id", cy.jobID).Uint64("generation", cy.gen).Logger()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
		}

		c.mu.Lock()
		effects := c.machine.Tick(cy.gen)
		c.mu.Unlock()
		if len(effects) == 0 {
			return
		}

		job, err := c.backend.Status(ctx, cy.jobID)
		if ctx.Err() != nil {
			return
		}

		c.mu.Lock()
		var snap Snapshot
		if err != nil {
			snap, effects = c.machine.StatusFailed(cy.gen, err)
			log.Warn().Err(err).Msg("jobclient: status check failed")
		} else {
			snap, effects = c.machine.StatusReceived(cy.gen, *job)
			log.Debug().Str("status", string(job.Status)).Msg("jobclient: status received")
		}
		refresh := false
		for _, eff := range effects {
			if _, ok := eff.(RefreshGallery); ok {
				refresh = true
			}
		}
		c.runLocked(effects)
		c.publishLocked(snap)
		terminal := snap.State.Terminal()
		c.mu.Unlock()

		if refresh && c.gallery != nil {
			log.Info().Str("final_url", snap.FinalURL).Msg("jobclient: job completed, refreshing gallery")
			c.gallery.Refresh(c.ctx)
		}
		if terminal {
			return
		}
	}
}

func (c *Controller) publishLocked(snap Snapshot) {
	close(c.changed)
	c.changed = make(chan struct{})
	for _, fn := range c.observers {
		fn(snap)
	}
}
