// Package alertqueue serializes alert presentation. Alerts must never
// draw on top of each other, so a queue instance owns a single worker
// goroutine and presents exactly one alert at a time, ordered by
// ascending priority with FIFO order inside each priority.
package alertqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"streamcast/internal/models"
	"streamcast/internal/store"

	"github.com/google/uuid"
)

// DefaultInterAlertDelay separates consecutive presentations
const DefaultInterAlertDelay = 500 * time.Millisecond

const (
	pendingPrefix = "alert:pending:"
	historyPrefix = "alert:history:"
)

// Sink presents a rendered alert. Present returns once the alert has been
// fully shown (including its display duration) or failed. The queue puts
// no timeout on it; a sink wanting one must bound itself.
type Sink interface {
	Present(ctx context.Context, alert *models.QueuedAlert) error
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(ctx context.Context, alert *models.QueuedAlert) error

func (f SinkFunc) Present(ctx context.Context, alert *models.QueuedAlert) error {
	return f(ctx, alert)
}

// EnqueueRequest describes one alert to queue
type EnqueueRequest struct {
	EventType  string
	TemplateID string
	Payload    models.AlertPayload
	Priority   *int // nil means DefaultPriority
}

// Queue is the single-flight delivery queue
type Queue struct {
	store store.Store
	sink  Sink
	delay time.Duration

	// called after an alert completes successfully; used to bump
	// template usage counters
	OnCompleted func(alert *models.QueuedAlert)

	mu         sync.Mutex
	pending    []*models.QueuedAlert
	history    []*models.QueuedAlert
	processing bool
	paused     bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

// Option tweaks queue construction
type Option func(*Queue)

// WithInterAlertDelay overrides the gap between consecutive alerts
func WithInterAlertDelay(d time.Duration) Option {
	return func(q *Queue) { q.delay = d }
}

// New creates a queue and starts its worker goroutine
func New(st store.Store, sink Sink, opts ...Option) *Queue {
	q := &Queue{
		store: st,
		sink:  sink,
		delay: DefaultInterAlertDelay,
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.restore()
	go q.run()
	return q
}

// restore reloads terminal records from a previous run and sweeps alerts
// stranded mid-queue by a shutdown into history as failed, so History
// survives restarts and pending keys do not accumulate.
func (q *Queue) restore() {
	ctx := context.Background()

	for _, alert := range q.loadRecords(ctx, historyPrefix) {
		q.history = append(q.history, alert)
	}

	for _, alert := range q.loadRecords(ctx, pendingPrefix) {
		now := time.Now()
		alert.Status = models.AlertFailed
		alert.Error = "interrupted by shutdown"
		alert.CompletedAt = &now
		q.persist(historyPrefix, alert)
		if err := q.store.Delete(ctx, pendingPrefix+alert.ID); err != nil {
			log.Printf("QUEUE: Failed to drop stale pending record %s: %v", alert.ID, err)
		}
		q.history = append(q.history, alert)
		log.Printf("QUEUE: Swept stranded alert %s into history", alert.ID)
	}

	sort.SliceStable(q.history, func(i, j int) bool {
		return historyTime(q.history[i]).Before(historyTime(q.history[j]))
	})
}

func historyTime(alert *models.QueuedAlert) time.Time {
	if alert.CompletedAt != nil {
		return *alert.CompletedAt
	}
	return alert.CreatedAt
}

func (q *Queue) loadRecords(ctx context.Context, prefix string) []*models.QueuedAlert {
	keys, err := q.store.KeysWithPrefix(ctx, prefix)
	if err != nil {
		log.Printf("QUEUE: Failed to list %s records: %v", prefix, err)
		return nil
	}
	var out []*models.QueuedAlert
	for _, key := range keys {
		raw, err := q.store.Get(ctx, key)
		if err != nil {
			continue
		}
		var alert models.QueuedAlert
		if err := json.Unmarshal(raw, &alert); err != nil {
			log.Printf("QUEUE: Skipping unreadable record %s: %v", key, err)
			continue
		}
		out = append(out, &alert)
	}
	return out
}

// Stop terminates the worker. An in-flight presentation finishes first.
func (q *Queue) Stop() {
	close(q.stop)
	<-q.done
}

// Enqueue queues an alert and returns its id immediately, without waiting
// for presentation.
func (q *Queue) Enqueue(req EnqueueRequest) string {
	priority := models.DefaultPriority
	if req.Priority != nil {
		priority = *req.Priority
	}
	alert := &models.QueuedAlert{
		ID:         uuid.New().String(),
		EventType:  req.EventType,
		TemplateID: req.TemplateID,
		Payload:    req.Payload,
		Priority:   priority,
		Status:     models.AlertPending,
		CreatedAt:  time.Now(),
	}

	q.mu.Lock()
	q.pending = append(q.pending, alert)
	// stable: equal priorities keep insertion order
	sort.SliceStable(q.pending, func(i, j int) bool {
		return q.pending[i].Priority < q.pending[j].Priority
	})
	q.mu.Unlock()

	q.persist(pendingPrefix, alert)
	q.signal()

	log.Printf("QUEUE: Enqueued alert %s (type=%s priority=%d)", alert.ID, alert.EventType, priority)
	return alert.ID
}

// Status reports queue state from memory
type Status struct {
	QueueLength int  `json:"queue_length"`
	Processing  bool `json:"processing"`
	Paused      bool `json:"paused"`
}

// GetStatus returns the current queue status
func (q *Queue) GetStatus() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Status{QueueLength: len(q.pending), Processing: q.processing, Paused: q.paused}
}

// Clear drops all pending alerts and returns how many were removed.
// An alert already being presented is not interrupted.
func (q *Queue) Clear() int {
	q.mu.Lock()
	removed := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, alert := range removed {
		if err := q.store.Delete(context.Background(), pendingPrefix+alert.ID); err != nil {
			log.Printf("QUEUE: Failed to drop pending record %s: %v", alert.ID, err)
		}
	}
	log.Printf("QUEUE: Cleared %d pending alerts", len(removed))
	return len(removed)
}

// Pause stops dequeuing. The in-flight alert, if any, completes normally.
func (q *Queue) Pause() {
	q.mu.Lock()
	q.paused = true
	q.mu.Unlock()
	log.Printf("QUEUE: Paused")
}

// Resume restarts processing if items remain
func (q *Queue) Resume() {
	q.mu.Lock()
	q.paused = false
	q.mu.Unlock()
	log.Printf("QUEUE: Resumed")
	q.signal()
}

// History returns terminal records, most recent last
func (q *Queue) History() []*models.QueuedAlert {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*models.QueuedAlert, len(q.history))
	for i, a := range q.history {
		cp := *a
		out[i] = &cp
	}
	return out
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// run is the worker loop: it sleeps until woken, then drains the queue.
// No polling interval is involved.
func (q *Queue) run() {
	defer close(q.done)
	for {
		select {
		case <-q.stop:
			return
		case <-q.wake:
		}
		if !q.drain() {
			return
		}
	}
}

// drain presents queued alerts one at a time until the queue is empty or
// paused. Returns false when the queue is stopping.
func (q *Queue) drain() bool {
	for {
		q.mu.Lock()
		if q.paused || len(q.pending) == 0 {
			q.mu.Unlock()
			return true
		}
		alert := q.pending[0]
		q.pending = q.pending[1:]
		alert.Status = models.AlertProcessing
		q.processing = true
		q.mu.Unlock()

		q.persist(pendingPrefix, alert)
		err := q.present(alert)

		now := time.Now()
		alert.CompletedAt = &now
		if err != nil {
			alert.Status = models.AlertFailed
			alert.Error = err.Error()
			log.Printf("QUEUE: Alert %s failed: %v", alert.ID, err)
		} else {
			alert.Status = models.AlertCompleted
		}

		q.persist(historyPrefix, alert)
		if err := q.store.Delete(context.Background(), pendingPrefix+alert.ID); err != nil {
			log.Printf("QUEUE: Failed to drop pending record %s: %v", alert.ID, err)
		}

		q.mu.Lock()
		q.history = append(q.history, alert)
		q.processing = false
		more := len(q.pending) > 0 && !q.paused
		q.mu.Unlock()

		if alert.Status == models.AlertCompleted && q.OnCompleted != nil {
			q.OnCompleted(alert)
		}

		if more {
			select {
			case <-q.stop:
				return false
			case <-time.After(q.delay):
			}
		}
	}
}

// present invokes the sink, converting a panic into a failed alert so one
// bad presentation can never kill the worker.
func (q *Queue) present(alert *models.QueuedAlert) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &presentPanic{value: r}
		}
	}()
	return q.sink.Present(context.Background(), alert)
}

type presentPanic struct{ value interface{} }

func (p *presentPanic) Error() string {
	return fmt.Sprintf("presentation panicked: %v", p.value)
}

func (q *Queue) persist(prefix string, alert *models.QueuedAlert) {
	raw, err := json.Marshal(alert)
	if err != nil {
		log.Printf("QUEUE: Failed to marshal alert %s: %v", alert.ID, err)
		return
	}
	if err := q.store.Set(context.Background(), prefix+alert.ID, raw); err != nil {
		log.Printf("QUEUE: Failed to persist alert %s: %v", alert.ID, err)
	}
}
