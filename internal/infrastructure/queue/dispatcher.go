package queue

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/openhms/hms-portal/internal/core/domain"
	"github.com/openhms/hms-portal/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Hooks receive dispatcher telemetry. Nil fields are ignored.
type Hooks struct {
	Dropped func(event domain.AuthEvent)
	Depth   func(workerID, depth int)
}

// Dispatcher routes audit events to a fixed set of workers using consistent
// hashing on the token fingerprint, keeping per-session ordering.
type Dispatcher struct {
	workers []chan domain.AuthEvent
	service ports.AuditService
	hooks   Hooks
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.AuditService, hooks Hooks, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AuthEvent, numWorkers),
		service: service,
		hooks:   hooks,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuthEvent, channelBuffer)
	}
	return d
}

// Start launches the workers. Cancelling ctx does not abort queued writes;
// call Close to drain and stop.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands an event to the worker that owns its fingerprint. It never
// blocks: when that worker's buffer is full, or the dispatcher is closed,
// the event is dropped.
func (d *Dispatcher) Enqueue(event domain.AuthEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(event, "dispatcher closed")
		return
	}

	idx := d.shardIndex(shardKey(event))
	select {
	case d.workers[idx] <- event:
		if d.hooks.Depth != nil {
			d.hooks.Depth(idx, len(d.workers[idx]))
		}
	default:
		d.drop(event, "worker buffer full")
	}
}

// Close stops accepting events and waits until queued events are written
// or ctx ends.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) drop(event domain.AuthEvent, reason string) {
	d.log.Warn().
		Str("event_type", string(event.Type)).
		Str("session", event.TokenFingerprint).
		Str("reason", reason).
		Msg("audit event dropped")
	if d.hooks.Dropped != nil {
		d.hooks.Dropped(event)
	}
}

// shardKey prefers the fingerprint; failed logins have none, so they
// shard by username.
func shardKey(event domain.AuthEvent) string {
	if event.TokenFingerprint != "" {
		return event.TokenFingerprint
	}
	return event.Username
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuthEvent) {
	defer d.wg.Done()
	for event := range ch {
		if d.hooks.Depth != nil {
			d.hooks.Depth(id, len(ch))
		}
		if err := d.service.Process(ctx, event); err != nil {
			d.log.Error().Err(err).
				Str("event_type", string(event.Type)).
				Str("session", event.TokenFingerprint).
				Int("worker_id", id).
				Msg("audit event processing failed")
		}
	}
}
